package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skillsenselab/skillloop/internal/logger"
	"github.com/skillsenselab/skillloop/internal/store"
)

// NotificationStore is the slice of the repository the service needs.
type NotificationStore interface {
	Create(ctx context.Context, n *store.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]store.Notification, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) error
}

var _ NotificationStore = (*store.NotificationRepo)(nil)

// Event is the payload pushed over the SSE stream.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ActorID   string    `json:"actorId"`
	ActorName string    `json:"actorName"`
	Message   string    `json:"message"`
	PostID    string    `json:"postId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service persists notifications and pushes them to the recipient's
// connected clients.
type Service struct {
	repo NotificationStore
	hub  *Hub
	log  *logger.Logger
}

// NewService wires a notification service.
func NewService(repo NotificationStore, hub *Hub, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		hub:  hub,
		log:  log.WithComponent("notify"),
	}
}

// Notify records a notification and pushes it to the recipient. Actors do
// not get notified about their own actions. Persistence failures are
// returned; push failures are not, delivery is best effort.
func (s *Service) Notify(ctx context.Context, recipientID string, actor *store.User, kind, message, postID string) error {
	if recipientID == actor.ID {
		return nil
	}

	n := &store.Notification{
		RecipientID: recipientID,
		ActorID:     actor.ID,
		Type:        kind,
		Message:     fmt.Sprintf("%s %s", actor.DisplayName(), message),
		PostID:      postID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	s.push(recipientID, Event{
		ID:        n.ID,
		Type:      n.Type,
		ActorID:   actor.ID,
		ActorName: actor.DisplayName(),
		Message:   n.Message,
		PostID:    postID,
		CreatedAt: n.CreatedAt,
	})
	return nil
}

func (s *Service) push(recipientID string, ev Event) {
	if s.hub == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("Failed to marshal notification event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.hub.SendToUser(recipientID, data)
}

// List returns a user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]store.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByRecipient(ctx, userID, limit, offset)
}

// UnreadCount returns the number of unread notifications.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead marks one notification read.
func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks all of a user's notifications read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllRead(ctx, userID)
}
