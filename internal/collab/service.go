// Package collab implements mentorship collaborations: scheduled sessions
// between a mentor and a mentee.
package collab

import (
	"context"
	"time"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/logger"
	"github.com/skillsenselab/skillloop/internal/store"
)

// Session duration bounds in minutes.
const (
	MinDurationMinutes = 30
	MaxDurationMinutes = 180
)

// Store is the slice of the collaboration repository the service needs.
type Store interface {
	Create(ctx context.Context, collab *store.Collaboration) error
	Save(ctx context.Context, collab *store.Collaboration) error
	FindByID(ctx context.Context, id string) (*store.Collaboration, error)
	ListByParticipant(ctx context.Context, userID string) ([]store.Collaboration, error)
	Delete(ctx context.Context, id string) error
}

var _ Store = (*store.CollabRepo)(nil)

// UserResolver verifies that a mentor account exists.
type UserResolver interface {
	FindByID(ctx context.Context, id string) (*store.User, error)
}

// CreateRequest is the payload for scheduling a session.
type CreateRequest struct {
	MentorID        string    `json:"mentorId" binding:"required,uuid"`
	Topic           string    `json:"topic" binding:"required,max=255"`
	Description     string    `json:"description" binding:"max=2000"`
	ScheduledAt     time.Time `json:"scheduledAt" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"required"`
}

// UpdateRequest carries a partial session update. Nil fields keep their
// current value.
type UpdateRequest struct {
	Topic           *string    `json:"topic" binding:"omitempty,max=255"`
	Description     *string    `json:"description" binding:"omitempty,max=2000"`
	ScheduledAt     *time.Time `json:"scheduledAt"`
	DurationMinutes *int       `json:"durationMinutes"`
}

// Service implements collaboration operations.
type Service struct {
	collabs Store
	users   UserResolver
	log     *logger.Logger
	now     func() time.Time
}

// NewService wires a collaboration service.
func NewService(collabs Store, users UserResolver, log *logger.Logger) *Service {
	return &Service{
		collabs: collabs,
		users:   users,
		log:     log.WithComponent("collab"),
		now:     time.Now,
	}
}

// Create schedules a session with the mentee as the caller. Sessions run
// 30 to 180 minutes, must be scheduled in the future, and start ACTIVE.
func (s *Service) Create(ctx context.Context, mentee *store.User, req CreateRequest) (*store.Collaboration, error) {
	if req.MentorID == mentee.ID {
		return nil, apperr.InvalidInput("mentorId", "cannot schedule a session with yourself")
	}
	if req.DurationMinutes < MinDurationMinutes || req.DurationMinutes > MaxDurationMinutes {
		return nil, apperr.InvalidInput("durationMinutes", "duration must be between 30 and 180 minutes")
	}
	if !req.ScheduledAt.After(s.now()) {
		return nil, apperr.InvalidInput("scheduledAt", "session must be scheduled in the future")
	}
	if _, err := s.users.FindByID(ctx, req.MentorID); err != nil {
		return nil, err
	}

	collab := &store.Collaboration{
		MentorID:        req.MentorID,
		MenteeID:        mentee.ID,
		Topic:           req.Topic,
		Description:     req.Description,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Status:          store.CollabStatusActive,
	}
	if err := s.collabs.Create(ctx, collab); err != nil {
		return nil, err
	}

	s.log.Info("Collaboration scheduled", map[string]interface{}{
		"collab_id": collab.ID,
		"mentor":    collab.MentorID,
		"mentee":    collab.MenteeID,
	})
	return collab, nil
}

// Get loads a session. Only participants may view it.
func (s *Service) Get(ctx context.Context, id, actorID string) (*store.Collaboration, error) {
	collab, err := s.collabs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if collab.MentorID != actorID && collab.MenteeID != actorID {
		return nil, apperr.NotFound("collaboration", id)
	}
	return collab, nil
}

// Mine lists sessions where the caller is mentor or mentee.
func (s *Service) Mine(ctx context.Context, userID string) ([]store.Collaboration, error) {
	return s.collabs.ListByParticipant(ctx, userID)
}

// Update reschedules or retopics an active session. Only participants may
// update, and only the provided fields change.
func (s *Service) Update(ctx context.Context, id, actorID string, req UpdateRequest) (*store.Collaboration, error) {
	collab, err := s.collabs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if collab.MentorID != actorID && collab.MenteeID != actorID {
		return nil, apperr.Forbidden("only participants can change a session")
	}
	if collab.Status != store.CollabStatusActive {
		return nil, apperr.InvalidInput("status", "only active sessions can be changed")
	}

	if req.ScheduledAt != nil {
		if !req.ScheduledAt.After(s.now()) {
			return nil, apperr.InvalidInput("scheduledAt", "session must be scheduled in the future")
		}
		collab.ScheduledAt = *req.ScheduledAt
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes < MinDurationMinutes || *req.DurationMinutes > MaxDurationMinutes {
			return nil, apperr.InvalidInput("durationMinutes", "duration must be between 30 and 180 minutes")
		}
		collab.DurationMinutes = *req.DurationMinutes
	}
	if req.Topic != nil {
		collab.Topic = *req.Topic
	}
	if req.Description != nil {
		collab.Description = *req.Description
	}

	if err := s.collabs.Save(ctx, collab); err != nil {
		return nil, err
	}
	return collab, nil
}

// Delete removes a session record entirely. Only participants may delete.
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	collab, err := s.collabs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if collab.MentorID != actorID && collab.MenteeID != actorID {
		return apperr.Forbidden("only participants can delete a session")
	}
	return s.collabs.Delete(ctx, id)
}

// Complete marks an active session completed. Either participant may do it.
func (s *Service) Complete(ctx context.Context, id, actorID string) (*store.Collaboration, error) {
	return s.transition(ctx, id, actorID, store.CollabStatusCompleted)
}

// Cancel marks an active session cancelled. Either participant may do it.
func (s *Service) Cancel(ctx context.Context, id, actorID string) (*store.Collaboration, error) {
	return s.transition(ctx, id, actorID, store.CollabStatusCancelled)
}

func (s *Service) transition(ctx context.Context, id, actorID, status string) (*store.Collaboration, error) {
	collab, err := s.collabs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if collab.MentorID != actorID && collab.MenteeID != actorID {
		return nil, apperr.Forbidden("only participants can change a session")
	}
	if collab.Status != store.CollabStatusActive {
		return nil, apperr.InvalidInput("status", "only active sessions can be changed")
	}

	collab.Status = status
	if err := s.collabs.Save(ctx, collab); err != nil {
		return nil, err
	}
	return collab, nil
}
