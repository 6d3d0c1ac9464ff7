package store

import (
	"context"

	"github.com/skillsenselab/skillloop/internal/apperr"
)

// NotificationRepo persists notifications.
type NotificationRepo struct {
	db *DB
}

// NewNotificationRepo returns a notification repository backed by db.
func NewNotificationRepo(db *DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create inserts a notification.
func (r *NotificationRepo) Create(ctx context.Context, n *Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return translateError(err, "notification", n.RecipientID)
	}
	return nil
}

// ListByRecipient returns a user's notifications with their actors, newest
// first.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]Notification, error) {
	var notifications []Notification
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (r *NotificationRepo) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return count, nil
}

// MarkRead marks a single notification read, scoped to the recipient so one
// user cannot mark another's notifications.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, recipientID string) error {
	res := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true)
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("notification", id)
	}
	return nil
}

// MarkAllRead marks every unread notification of a user read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID string) error {
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true).Error
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}
