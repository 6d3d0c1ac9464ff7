package post

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

// Handler exposes post operations over HTTP.
type Handler struct {
	svc   *Service
	users UserResolver
}

// NewHandler returns a post HTTP handler.
func NewHandler(svc *Service, users UserResolver) *Handler {
	return &Handler{svc: svc, users: users}
}

// RegisterRoutes mounts the post endpoints under /api/posts.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/api/posts")
	grp.GET("", h.feed)
	grp.POST("", h.create)
	grp.GET("/:id", h.get)
	grp.PUT("/:id", h.update)
	grp.DELETE("/:id", h.delete)
	grp.POST("/:id/like", h.toggleLike)
	grp.GET("/:id/likes", h.likeCount)
	grp.GET("/:id/comments", h.comments)
	grp.POST("/:id/comments", h.comment)
	grp.DELETE("/:id/comments/:commentId", h.deleteComment)
	r.GET("/api/users/:id/posts", h.byAuthor)
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

	posts, err := h.svc.Feed(c.Request.Context(), limit, offset)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, posts)
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

	p, err := h.svc.Create(c.Request.Context(), user, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, p)
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

func (h *Handler) toggleLike(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	result, err := h.svc.ToggleLike(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, result)
}

func (h *Handler) likeCount(c *gin.Context) {
	count, err := h.svc.LikeCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"count": count})
}

func (h *Handler) comments(c *gin.Context) {
	comments, err := h.svc.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, comments)
}

func (h *Handler) comment(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, server.BindingError(err))
		return
	}

	comment, err := h.svc.Comment(c.Request.Context(), c.Param("id"), user, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, comment)
}

func (h *Handler) deleteComment(c *gin.Context) {
	user, err := h.currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	if err := h.svc.DeleteComment(c.Request.Context(), c.Param("commentId"), user.ID); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

func (h *Handler) byAuthor(c *gin.Context) {
	viewerID := ""
	if user, err := h.currentUser(c); err == nil {
		viewerID = user.ID
	}

	posts, err := h.svc.ByAuthor(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, posts)
}
