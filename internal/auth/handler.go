package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/skillloop/internal/server"
)

// Handler exposes the auth service over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler returns an auth HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the auth endpoints under /api/auth.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/api/auth")
	grp.POST("/register", h.register)
	grp.POST("/login", h.login)
	grp.POST("/refresh-token", h.refresh)
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, server.BindingError(err))
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, resp)
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, server.BindingError(err))
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, resp)
}

func (h *Handler) refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, server.BindingError(err))
		return
	}

	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, resp)
}
