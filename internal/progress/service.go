// Package progress implements learning-progress updates.
package progress

import (
	"context"
	"time"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/logger"
	"github.com/skillsenselab/skillloop/internal/store"
)

// Store is the slice of the progress repository the service needs.
type Store interface {
	Create(ctx context.Context, progress *store.Progress) error
	Save(ctx context.Context, progress *store.Progress) error
	FindByID(ctx context.Context, id string) (*store.Progress, error)
	ListByUser(ctx context.Context, userID string) ([]store.Progress, error)
	ListShared(ctx context.Context, limit, offset int) ([]store.Progress, error)
	Delete(ctx context.Context, id string) error
}

var _ Store = (*store.ProgressRepo)(nil)

// Request is the payload for creating or updating a progress update. An
// update may reference the learning plan it tracks; shared updates appear in
// the public feed.
type Request struct {
	PlanID    *string   `json:"planId" binding:"omitempty,uuid"`
	Title     string    `json:"title" binding:"required,max=255"`
	Content   string    `json:"content" binding:"required,max=5000"`
	Shared    bool      `json:"shared"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}

// Service implements progress-update operations.
type Service struct {
	updates Store
	log     *logger.Logger
}

// NewService wires a progress service.
func NewService(updates Store, log *logger.Logger) *Service {
	return &Service{
		updates: updates,
		log:     log.WithComponent("progress"),
	}
}

// Create stores a new update for the user.
func (s *Service) Create(ctx context.Context, userID string, req Request) (*store.Progress, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, apperr.InvalidInput("endDate", "end date must not be before start date")
	}

	p := &store.Progress{
		UserID:    userID,
		PlanID:    req.PlanID,
		Title:     req.Title,
		Content:   req.Content,
		Shared:    req.Shared,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if err := s.updates.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces an update's content. Only the author may update.
func (s *Service) Update(ctx context.Context, id, actorID string, req Request) (*store.Progress, error) {
	p, err := s.updates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != actorID {
		return nil, apperr.Forbidden("only the author can update a progress update")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, apperr.InvalidInput("endDate", "end date must not be before start date")
	}

	p.PlanID = req.PlanID
	p.Title = req.Title
	p.Content = req.Content
	p.Shared = req.Shared
	p.StartDate = req.StartDate
	p.EndDate = req.EndDate

	if err := s.updates.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes an update. Only the author may delete.
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	p, err := s.updates.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != actorID {
		return apperr.Forbidden("only the author can delete a progress update")
	}
	return s.updates.Delete(ctx, id)
}

// ByUser lists a user's updates. Unshared updates stay private to their
// author.
func (s *Service) ByUser(ctx context.Context, userID, viewerID string) ([]store.Progress, error) {
	updates, err := s.updates.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if userID == viewerID {
		return updates, nil
	}

	visible := make([]store.Progress, 0, len(updates))
	for _, u := range updates {
		if u.Shared {
			visible = append(visible, u)
		}
	}
	return visible, nil
}

// Feed lists shared updates, newest first.
func (s *Service) Feed(ctx context.Context, limit, offset int) ([]store.Progress, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.updates.ListShared(ctx, limit, offset)
}
