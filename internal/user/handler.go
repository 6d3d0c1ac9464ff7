package user

import (
	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/auth/authctx"
	"github.com/skillsenselab/skillloop/internal/server"
	"github.com/skillsenselab/skillloop/internal/store"
)

// Handler exposes user operations over HTTP.
type Handler struct {
	svc   *Service
	users Store
}

// NewHandler returns a user HTTP handler.
func NewHandler(svc *Service, users Store) *Handler {
	return &Handler{svc: svc, users: users}
}

// RegisterRoutes mounts the user endpoints under /api/users.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/api/users")
	grp.GET("/me", h.me)
	grp.PUT("/me", h.updateMe)
	grp.GET("/search", h.search)
	grp.GET("/:id", h.profile)
	grp.POST("/:id/follow", h.follow)
	grp.DELETE("/:id/follow", h.unfollow)
	grp.GET("/:id/followers", h.followers)
	grp.GET("/:id/following", h.following)
}

func (h *Handler) currentUser(c *gin.Context) (*store.User, error) {
	id, err := authctx.GetOrError(c.Request.Context())
	if err != nil {
		return nil, apperr.Unauthorized("authentication required")
	}
	return h.users.FindByEmail(c.Request.Context(), id.Email)
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	profile, err := h.svc.Profile(c.Request.Context(), user.ID, "")
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, profile)
}

func (h *Handler) updateMe(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, server.BindingError(err))
		return
	}

	updated, err := h.svc.UpdateProfile(c.Request.Context(), user.ID, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, updated)
}

func (h *Handler) search(c *gin.Context) {
	users, err := h.svc.Search(c.Request.Context(), c.Query("q"), 0)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, users)
}

func (h *Handler) profile(c *gin.Context) {
	viewerID := ""
	if viewer, err := h.currentUser(c); err == nil {
		viewerID = viewer.ID
	}

	profile, err := h.svc.Profile(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, profile)
}

func (h *Handler) follow(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	if err := h.svc.Follow(c.Request.Context(), user, c.Param("id")); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

func (h *Handler) unfollow(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	if err := h.svc.Unfollow(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

func (h *Handler) followers(c *gin.Context) {
	users, err := h.svc.Followers(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, users)
}

func (h *Handler) following(c *gin.Context) {
	users, err := h.svc.Following(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, users)
}
