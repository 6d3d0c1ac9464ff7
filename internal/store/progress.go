package store

import (
	"context"

	"github.com/skillsenselab/skillloop/internal/apperr"
)

// ProgressRepo persists progress updates.
type ProgressRepo struct {
	db *DB
}

// NewProgressRepo returns a progress repository backed by db.
func NewProgressRepo(db *DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// Create inserts a progress update.
func (r *ProgressRepo) Create(ctx context.Context, progress *Progress) error {
	if err := r.db.WithContext(ctx).Create(progress).Error; err != nil {
		return translateError(err, "progress", progress.Title)
	}
	return nil
}

// Save persists changes to an existing progress update.
func (r *ProgressRepo) Save(ctx context.Context, progress *Progress) error {
	if err := r.db.WithContext(ctx).Save(progress).Error; err != nil {
		return translateError(err, "progress", progress.ID)
	}
	return nil
}

// FindByID loads a progress update with its author.
func (r *ProgressRepo) FindByID(ctx context.Context, id string) (*Progress, error) {
	var progress Progress
	err := r.db.WithContext(ctx).Preload("User").First(&progress, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err, "progress", id)
	}
	return &progress, nil
}

// ListByUser returns a user's progress updates, newest first.
func (r *ProgressRepo) ListByUser(ctx context.Context, userID string) ([]Progress, error) {
	var updates []Progress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&updates).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return updates, nil
}

// ListShared returns shared progress updates with their authors, newest first.
func (r *ProgressRepo) ListShared(ctx context.Context, limit, offset int) ([]Progress, error) {
	var updates []Progress
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("shared = ?", true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&updates).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return updates, nil
}

// Delete removes a progress update.
func (r *ProgressRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Progress{}, "id = ?", id)
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("progress", id)
	}
	return nil
}
