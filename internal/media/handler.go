package media

import (
	"context"
	"io"
	"net/http"

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

// Handler exposes the upload endpoints.
type Handler struct {
	svc   *Service
	users UserResolver
}

// NewHandler returns a media HTTP handler.
func NewHandler(svc *Service, users UserResolver) *Handler {
	return &Handler{svc: svc, users: users}
}

// RegisterRoutes mounts the upload endpoints.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/upload", h.uploadImage)
	r.POST("/api/upload-video", h.uploadVideo)
}

func (h *Handler) currentUser(c *gin.Context) (*store.User, error) {
	id, err := authctx.GetOrError(c.Request.Context())
	if err != nil {
		return nil, apperr.Unauthorized("authentication required")
	}
	return h.users.FindByEmail(c.Request.Context(), id.Email)
}

func (h *Handler) uploadImage(c *gin.Context) {
	h.upload(c, h.svc.UploadImage)
}

func (h *Handler) uploadVideo(c *gin.Context) {
	h.upload(c, h.svc.UploadVideo)
}

type uploadFunc func(ctx context.Context, userID, contentType string, r io.Reader, size int64) (*UploadResult, error)

func (h *Handler) upload(c *gin.Context, fn uploadFunc) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.svc.MaxBytes()+1024)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		server.RespondWithError(c, apperr.InvalidInput("file", "missing multipart file field"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		server.RespondWithError(c, apperr.Internal(err))
		return
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	result, err := fn(c.Request.Context(), user.ID, contentType, src, fileHeader.Size)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, result)
}
