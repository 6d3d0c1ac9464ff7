// Package post implements authored posts with mixed-media content blocks,
// likes, and threaded comments.
package post

import (
	"context"
	"sort"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/logger"
	"github.com/skillsenselab/skillloop/internal/notify"
	"github.com/skillsenselab/skillloop/internal/store"
)

// Store is the slice of the post repository the service needs.
type Store interface {
	Create(ctx context.Context, post *store.Post) error
	FindByID(ctx context.Context, id string) (*store.Post, error)
	Update(ctx context.Context, post *store.Post) error
	Delete(ctx context.Context, id string) error
	ListPublished(ctx context.Context, limit, offset int) ([]store.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]store.Post, error)
	CreateLike(ctx context.Context, like *store.Like) error
	DeleteLike(ctx context.Context, postID, userID string) (bool, error)
	HasLiked(ctx context.Context, postID, userID string) (bool, error)
	LikeCount(ctx context.Context, postID string) (int64, error)
	CreateComment(ctx context.Context, comment *store.Comment) error
	FindCommentByID(ctx context.Context, id string) (*store.Comment, error)
	ListComments(ctx context.Context, postID string) ([]store.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

var _ Store = (*store.PostRepo)(nil)

// Notifier sends like/comment/reply notifications.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, actor *store.User, kind, message, postID string) error
}

var _ Notifier = (*notify.Service)(nil)

// BlockInput is one content block in a create or update request. Image and
// video blocks reference their media by URL; videos carry a duration in
// seconds.
type BlockInput struct {
	Type          string `json:"type" binding:"required,oneof=text image video"`
	Content       string `json:"content" binding:"required"`
	URL           string `json:"url" binding:"omitempty,max=512"`
	VideoDuration int    `json:"videoDuration" binding:"omitempty,gte=0"`
	Position      int    `json:"position"`
}

// CreateRequest is the payload for creating a post.
type CreateRequest struct {
	Title       string       `json:"title" binding:"required,max=255"`
	Description string       `json:"description" binding:"max=2000"`
	Status      string       `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED"`
	Blocks      []BlockInput `json:"blocks" binding:"required,min=1,dive"`
}

// UpdateRequest is the payload for updating a post.
type UpdateRequest struct {
	Title       string       `json:"title" binding:"required,max=255"`
	Description string       `json:"description" binding:"max=2000"`
	Status      string       `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED"`
	Blocks      []BlockInput `json:"blocks" binding:"required,min=1,dive"`
}

// CommentRequest is the payload for creating a comment or reply.
type CommentRequest struct {
	Content  string  `json:"content" binding:"required,max=2000"`
	ParentID *string `json:"parentId"`
}

// LikeResult reports the state after a like toggle.
type LikeResult struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}

// Service implements post operations.
type Service struct {
	posts    Store
	notifier Notifier
	log      *logger.Logger
}

// NewService wires a post service.
func NewService(posts Store, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		posts:    posts,
		notifier: notifier,
		log:      log.WithComponent("post"),
	}
}

// Create stores a new post for the author. Block positions are normalized
// to their order after sorting; ties keep input order.
func (s *Service) Create(ctx context.Context, author *store.User, req CreateRequest) (*store.Post, error) {
	status := req.Status
	if status == "" {
		status = store.PostStatusPublished
	}

	p := &store.Post{
		AuthorID:    author.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Blocks:      normalizeBlocks(req.Blocks),
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("Post created", map[string]interface{}{
		"post_id": p.ID,
		"author":  author.ID,
		"blocks":  len(p.Blocks),
	})
	return p, nil
}

// Get loads a post. Drafts are only visible to their author.
func (s *Service) Get(ctx context.Context, id, viewerID string) (*store.Post, error) {
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == store.PostStatusDraft && p.AuthorID != viewerID {
		return nil, apperr.NotFound("post", id)
	}
	return p, nil
}

// Update replaces a post's content. Only the author may update.
func (s *Service) Update(ctx context.Context, id, actorID string, req UpdateRequest) (*store.Post, error) {
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != actorID {
		return nil, apperr.Forbidden("only the author can update a post")
	}

	p.Title = req.Title
	p.Description = req.Description
	if req.Status != "" {
		p.Status = req.Status
	}
	p.Blocks = normalizeBlocks(req.Blocks)
	for i := range p.Blocks {
		p.Blocks[i].PostID = p.ID
	}

	if err := s.posts.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a post. Only the author may delete.
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p.AuthorID != actorID {
		return apperr.Forbidden("only the author can delete a post")
	}
	return s.posts.Delete(ctx, id)
}

// Feed returns published posts, newest first.
func (s *Service) Feed(ctx context.Context, limit, offset int) ([]store.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.posts.ListPublished(ctx, limit, offset)
}

// ByAuthor returns an author's posts. Drafts are filtered out unless the
// viewer is the author.
func (s *Service) ByAuthor(ctx context.Context, authorID, viewerID string) ([]store.Post, error) {
	posts, err := s.posts.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if authorID == viewerID {
		return posts, nil
	}
	visible := posts[:0]
	for _, p := range posts {
		if p.Status == store.PostStatusPublished {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// ToggleLike likes the post if the actor has not liked it, and removes the
// like otherwise. A new like notifies the author.
func (s *Service) ToggleLike(ctx context.Context, postID string, actor *store.User) (*LikeResult, error) {
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	removed, err := s.posts.DeleteLike(ctx, postID, actor.ID)
	if err != nil {
		return nil, err
	}

	liked := false
	if !removed {
		if err := s.posts.CreateLike(ctx, &store.Like{PostID: postID, UserID: actor.ID}); err != nil {
			// A concurrent toggle already created the like.
			if !apperr.IsCode(err, apperr.CodeAlreadyExists) {
				return nil, err
			}
		}
		liked = true
		s.notifyQuietly(ctx, p.AuthorID, actor, store.NotificationLike, "liked your post", postID)
	}

	count, err := s.posts.LikeCount(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, Count: count}, nil
}

// LikeCount returns the number of likes on a post.
func (s *Service) LikeCount(ctx context.Context, postID string) (int64, error) {
	return s.posts.LikeCount(ctx, postID)
}

// Comment adds a comment, or a reply when req.ParentID is set. Comments
// notify the post author; replies notify the parent comment's author.
func (s *Service) Comment(ctx context.Context, postID string, actor *store.User, req CommentRequest) (*store.Comment, error) {
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &store.Comment{
		PostID:   postID,
		AuthorID: actor.ID,
		Content:  req.Content,
		ParentID: req.ParentID,
	}

	if req.ParentID != nil {
		parent, err := s.posts.FindCommentByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, apperr.InvalidInput("parentId", "parent comment belongs to another post")
		}
		if parent.ParentID != nil {
			return nil, apperr.InvalidInput("parentId", "replies cannot be nested")
		}
		if err := s.posts.CreateComment(ctx, comment); err != nil {
			return nil, err
		}
		s.notifyQuietly(ctx, parent.AuthorID, actor, store.NotificationReply, "replied to your comment", postID)
		return comment, nil
	}

	if err := s.posts.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	s.notifyQuietly(ctx, p.AuthorID, actor, store.NotificationComment, "commented on your post", postID)
	return comment, nil
}

// Comments lists a post's comment tree.
func (s *Service) Comments(ctx context.Context, postID string) ([]store.Comment, error) {
	return s.posts.ListComments(ctx, postID)
}

// DeleteComment removes a comment. The comment author and the post author
// may both delete.
func (s *Service) DeleteComment(ctx context.Context, commentID, actorID string) error {
	comment, err := s.posts.FindCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != actorID {
		p, err := s.posts.FindByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if p.AuthorID != actorID {
			return apperr.Forbidden("not allowed to delete this comment")
		}
	}
	return s.posts.DeleteComment(ctx, commentID)
}

func (s *Service) notifyQuietly(ctx context.Context, recipientID string, actor *store.User, kind, message, postID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, recipientID, actor, kind, message, postID); err != nil {
		s.log.Warn("Notification failed", map[string]interface{}{
			"kind":  kind,
			"error": err.Error(),
		})
	}
}

// normalizeBlocks sorts blocks by position and rewrites positions to a
// dense 0..n-1 sequence.
func normalizeBlocks(inputs []BlockInput) []store.ContentBlock {
	sorted := make([]BlockInput, len(inputs))
	copy(sorted, inputs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	blocks := make([]store.ContentBlock, len(sorted))
	for i, in := range sorted {
		blocks[i] = store.ContentBlock{
			Type:          in.Type,
			Content:       in.Content,
			URL:           in.URL,
			VideoDuration: in.VideoDuration,
			Position:      i,
		}
	}
	return blocks
}
