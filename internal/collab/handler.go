package collab

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/auth/authctx"
	"github.com/skillsenselab/skillloop/internal/server"
	"github.com/skillsenselab/skillloop/internal/store"
)

// EmailResolver maps an authenticated email to its account.
type EmailResolver interface {
	FindByEmail(ctx context.Context, email string) (*store.User, error)
}

// Handler exposes collaboration operations over HTTP.
type Handler struct {
	svc   *Service
	users EmailResolver
}

// NewHandler returns a collaboration HTTP handler.
func NewHandler(svc *Service, users EmailResolver) *Handler {
	return &Handler{svc: svc, users: users}
}

// RegisterRoutes mounts the collaboration endpoints under /api/collaborations.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/api/collaborations")
	grp.GET("", h.mine)
	grp.POST("", h.create)
	grp.GET("/:id", h.get)
	grp.PUT("/:id", h.update)
	grp.DELETE("/:id", h.delete)
	grp.POST("/:id/complete", h.complete)
	grp.POST("/:id/cancel", h.cancel)
}

func (h *Handler) currentUser(c *gin.Context) (*store.User, error) {
	id, err := authctx.GetOrError(c.Request.Context())
	if err != nil {
		return nil, apperr.Unauthorized("authentication required")
	}
	return h.users.FindByEmail(c.Request.Context(), id.Email)
}

func (h *Handler) mine(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	collabs, err := h.svc.Mine(c.Request.Context(), user.ID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, collabs)
}

func (h *Handler) create(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, server.BindingError(err))
		return
	}

	collab, err := h.svc.Create(c.Request.Context(), user, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, collab)
}

func (h *Handler) get(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	collab, err := h.svc.Get(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, collab)
}

func (h *Handler) update(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, server.BindingError(err))
		return
	}

	collab, err := h.svc.Update(c.Request.Context(), c.Param("id"), user.ID, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, collab)
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

func (h *Handler) complete(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	collab, err := h.svc.Complete(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, collab)
}

func (h *Handler) cancel(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	collab, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, collab)
}
