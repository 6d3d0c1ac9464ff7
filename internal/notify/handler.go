package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/auth/authctx"
	"github.com/skillsenselab/skillloop/internal/server"
	"github.com/skillsenselab/skillloop/internal/store"
)

// UserResolver maps an authenticated email to its account.
type UserResolver interface {
	FindByEmail(ctx context.Context, email string) (*store.User, error)
}

// Handler exposes notifications over HTTP, including the SSE stream.
type Handler struct {
	svc   *Service
	hub   *Hub
	users UserResolver
}

// NewHandler returns a notification HTTP handler.
func NewHandler(svc *Service, hub *Hub, users UserResolver) *Handler {
	return &Handler{svc: svc, hub: hub, users: users}
}

// RegisterRoutes mounts the notification endpoints under /api/notifications.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/api/notifications")
	grp.GET("", h.list)
	grp.GET("/unread-count", h.unreadCount)
	grp.PUT("/:id/read", h.markRead)
	grp.PUT("/read-all", h.markAllRead)
	grp.GET("/stream", h.stream)
}

// currentUser resolves the authenticated account for the request.
func (h *Handler) currentUser(c *gin.Context) (*store.User, error) {
	id, err := authctx.GetOrError(c.Request.Context())
	if err != nil {
		return nil, apperr.Unauthorized("authentication required")
	}
	return h.users.FindByEmail(c.Request.Context(), id.Email)
}

func (h *Handler) list(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	var limit, offset int
	fmt.Sscanf(c.DefaultQuery("limit", "50"), "%d", &limit)
	fmt.Sscanf(c.DefaultQuery("offset", "0"), "%d", &offset)

	notifications, err := h.svc.List(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, notifications)
}

func (h *Handler) unreadCount(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	count, err := h.svc.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"count": count})
}

func (h *Handler) markRead(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

func (h *Handler) markAllRead(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	if err := h.svc.MarkAllRead(c.Request.Context(), user.ID); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

// stream serves the long-lived SSE connection for the authenticated user.
func (h *Handler) stream(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	w := c.Writer
	flusher, ok := w.(http.Flusher)
	if !ok {
		server.RespondWithError(c, apperr.Internal(fmt.Errorf("streaming not supported")))
		return
	}

	// SSE connections outlive the server's write timeout.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := NewClient(uuid.NewString(), user.ID)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	fmt.Fprintf(w, "event: connected\ndata: {\"clientId\":%q}\n\n", client.ID())
	flusher.Flush()

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case event, open := <-client.Events():
			if !open {
				return
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", event)
			flusher.Flush()

		case <-keepAlive.C:
			fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}
