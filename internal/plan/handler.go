package plan

import (
	"context"

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

// Handler exposes plan operations over HTTP.
type Handler struct {
	svc   *Service
	users UserResolver
}

// NewHandler returns a plan HTTP handler.
func NewHandler(svc *Service, users UserResolver) *Handler {
	return &Handler{svc: svc, users: users}
}

// RegisterRoutes mounts the plan endpoints under /api/plans.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/api/plans")
	grp.GET("", h.mine)
	grp.POST("", h.create)
	grp.GET("/shared", h.shared)
	grp.GET("/:id", h.get)
	grp.PUT("/:id", h.update)
	grp.DELETE("/:id", h.delete)
	grp.POST("/:id/resources", h.addResource)
	grp.DELETE("/:id/resources", h.removeResource)
	grp.POST("/:id/resources/toggle", h.toggleResource)
	grp.PUT("/:id/completed-resources", h.setCompletedResources)
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

	plans, err := h.svc.Mine(c.Request.Context(), user.ID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, plans)
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

	p, err := h.svc.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, p)
}

func (h *Handler) shared(c *gin.Context) {
	plans, err := h.svc.Shared(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, plans)
}

func (h *Handler) get(c *gin.Context) {
	viewerID := ""
	if user, err := h.currentUser(c); err == nil {
		viewerID = user.ID
	}

	p, err := h.svc.Get(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, p)
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

func (h *Handler) addResource(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	var req struct {
		Resource string `json:"resource" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, server.BindingError(err))
		return
	}

	p, err := h.svc.AddResource(c.Request.Context(), c.Param("id"), user.ID, req.Resource)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, p)
}

func (h *Handler) removeResource(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	var req struct {
		Resource string `json:"resource" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, server.BindingError(err))
		return
	}

	p, err := h.svc.RemoveResource(c.Request.Context(), c.Param("id"), user.ID, req.Resource)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, p)
}

func (h *Handler) setCompletedResources(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	var completed []string
	if err := c.ShouldBindJSON(&completed); err != nil {
		server.RespondWithError(c, server.BindingError(err))
		return
	}

	p, err := h.svc.SetCompletedResources(c.Request.Context(), c.Param("id"), user.ID, completed)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, p)
}

func (h *Handler) toggleResource(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	var req struct {
		Resource string `json:"resource" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, server.BindingError(err))
		return
	}

	p, err := h.svc.ToggleResource(c.Request.Context(), c.Param("id"), user.ID, req.Resource)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, p)
}
