package store

import (
	"context"

	"github.com/skillsenselab/skillloop/internal/apperr"
)

// PlanRepo persists learning plans.
type PlanRepo struct {
	db *DB
}

// NewPlanRepo returns a plan repository backed by db.
func NewPlanRepo(db *DB) *PlanRepo {
	return &PlanRepo{db: db}
}

// Create inserts a plan.
func (r *PlanRepo) Create(ctx context.Context, plan *Plan) error {
	if err := r.db.WithContext(ctx).Create(plan).Error; err != nil {
		return translateError(err, "plan", plan.Title)
	}
	return nil
}

// Save persists changes to an existing plan.
func (r *PlanRepo) Save(ctx context.Context, plan *Plan) error {
	if err := r.db.WithContext(ctx).Save(plan).Error; err != nil {
		return translateError(err, "plan", plan.ID)
	}
	return nil
}

// FindByID loads a plan with its owner.
func (r *PlanRepo) FindByID(ctx context.Context, id string) (*Plan, error) {
	var plan Plan
	err := r.db.WithContext(ctx).Preload("Owner").First(&plan, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err, "plan", id)
	}
	return &plan, nil
}

// ListByOwner returns a user's plans, newest first.
func (r *PlanRepo) ListByOwner(ctx context.Context, ownerID string) ([]Plan, error) {
	var plans []Plan
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&plans).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return plans, nil
}

// ListShared returns plans shared with the community, newest first.
func (r *PlanRepo) ListShared(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("shared = ?", true).
		Order("created_at DESC").
		Find(&plans).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return plans, nil
}

// Delete removes a plan.
func (r *PlanRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Plan{}, "id = ?", id)
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("plan", id)
	}
	return nil
}
