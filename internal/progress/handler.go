package progress

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/auth/authctx"
	"github.com/skillsenselab/skillloop/internal/server"
	"github.com/skillsenselab/skillloop/internal/store"
)

// UserResolver maps an authenticated email to its account.
type UserResolver interface {
	FindByEmail(ctx context.Context, email string) (*store.User, error)
}

// Handler exposes progress updates over HTTP.
type Handler struct {
	svc   *Service
	users UserResolver
}

// NewHandler returns a progress HTTP handler.
func NewHandler(svc *Service, users UserResolver) *Handler {
	return &Handler{svc: svc, users: users}
}

// RegisterRoutes mounts the progress endpoints under /api/progress.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/api/progress")
	grp.GET("", h.feed)
	grp.POST("", h.create)
	grp.PUT("/:id", h.update)
	grp.DELETE("/:id", h.delete)
	r.GET("/api/users/:id/progress", h.byUser)
}

func (h *Handler) currentUser(c *gin.Context) (*store.User, error) {
	id, err := authctx.GetOrError(c.Request.Context())
	if err != nil {
		return nil, apperr.Unauthorized("authentication required")
	}
	return h.users.FindByEmail(c.Request.Context(), id.Email)
}

func (h *Handler) feed(c *gin.Context) {
	var limit, offset int
	fmt.Sscanf(c.DefaultQuery("limit", "20"), "%d", &limit)
	fmt.Sscanf(c.DefaultQuery("offset", "0"), "%d", &offset)

	updates, err := h.svc.Feed(c.Request.Context(), limit, offset)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, updates)
}

func (h *Handler) create(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, server.BindingError(err))
		return
	}

	p, err := h.svc.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, p)
}

func (h *Handler) update(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, server.BindingError(err))
		return
	}

	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), user.ID, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, p)
}

func (h *Handler) delete(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

func (h *Handler) byUser(c *gin.Context) {
	viewerID := ""
	if user, err := h.currentUser(c); err == nil {
		viewerID = user.ID
	}

	updates, err := h.svc.ByUser(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, updates)
}
