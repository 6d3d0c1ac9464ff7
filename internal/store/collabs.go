package store

import (
	"context"

	"github.com/skillsenselab/skillloop/internal/apperr"
)

// CollabRepo persists mentorship collaborations.
type CollabRepo struct {
	db *DB
}

// NewCollabRepo returns a collaboration repository backed by db.
func NewCollabRepo(db *DB) *CollabRepo {
	return &CollabRepo{db: db}
}

// Create inserts a collaboration.
func (r *CollabRepo) Create(ctx context.Context, collab *Collaboration) error {
	if err := r.db.WithContext(ctx).Create(collab).Error; err != nil {
		return translateError(err, "collaboration", collab.Topic)
	}
	return nil
}

// Save persists changes to an existing collaboration.
func (r *CollabRepo) Save(ctx context.Context, collab *Collaboration) error {
	if err := r.db.WithContext(ctx).Save(collab).Error; err != nil {
		return translateError(err, "collaboration", collab.ID)
	}
	return nil
}

// FindByID loads a collaboration with both participants.
func (r *CollabRepo) FindByID(ctx context.Context, id string) (*Collaboration, error) {
	var collab Collaboration
	err := r.db.WithContext(ctx).
		Preload("Mentor").
		Preload("Mentee").
		First(&collab, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err, "collaboration", id)
	}
	return &collab, nil
}

// ListByParticipant returns collaborations where the user is mentor or
// mentee, soonest first.
func (r *CollabRepo) ListByParticipant(ctx context.Context, userID string) ([]Collaboration, error) {
	var collabs []Collaboration
	err := r.db.WithContext(ctx).
		Preload("Mentor").
		Preload("Mentee").
		Where("mentor_id = ? OR mentee_id = ?", userID, userID).
		Order("scheduled_at ASC").
		Find(&collabs).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return collabs, nil
}

// Delete removes a collaboration.
func (r *CollabRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Collaboration{}, "id = ?", id)
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("collaboration", id)
	}
	return nil
}
