package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/skillsenselab/skillloop/internal/apperr"
)

// PostRepo persists posts, content blocks, comments and likes.
type PostRepo struct {
	db *DB
}

// NewPostRepo returns a post repository backed by db.
func NewPostRepo(db *DB) *PostRepo {
	return &PostRepo{db: db}
}

// Create inserts a post together with its content blocks.
func (r *PostRepo) Create(ctx context.Context, post *Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return translateError(err, "post", post.Title)
	}
	return nil
}

// FindByID loads a post with its author and ordered blocks.
func (r *PostRepo) FindByID(ctx context.Context, id string) (*Post, error) {
	var post Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Blocks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&post, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err, "post", id)
	}
	return &post, nil
}

// Update replaces a post's metadata and blocks inside a transaction. The old
// blocks are removed and the new set inserted.
func (r *PostRepo) Update(ctx context.Context, post *Post) error {
	err := r.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&ContentBlock{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(post).Error
	})
	if err != nil {
		return translateError(err, "post", post.ID)
	}
	return nil
}

// Delete removes a post. Blocks, comments and likes cascade.
func (r *PostRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Post{}, "id = ?", id)
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("post", id)
	}
	return nil
}

// ListPublished returns published posts, newest first.
func (r *PostRepo) ListPublished(ctx context.Context, limit, offset int) ([]Post, error) {
	var posts []Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Blocks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("status = ?", PostStatusPublished).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return posts, nil
}

// ListByAuthor returns all posts by an author, newest first. Drafts are
// included; visibility is the caller's concern.
func (r *PostRepo) ListByAuthor(ctx context.Context, authorID string) ([]Post, error) {
	var posts []Post
	err := r.db.WithContext(ctx).
		Preload("Blocks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return posts, nil
}

// CreateLike inserts a like. A duplicate pair yields ALREADY_EXISTS.
func (r *PostRepo) CreateLike(ctx context.Context, like *Like) error {
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		return translateError(err, "like", like.PostID)
	}
	return nil
}

// DeleteLike removes a like. RowsAffected zero means it was not present.
func (r *PostRepo) DeleteLike(ctx context.Context, postID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&Like{})
	if res.Error != nil {
		return false, apperr.Internal(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// HasLiked reports whether the user has liked the post.
func (r *PostRepo) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, apperr.Internal(err)
	}
	return count > 0, nil
}

// LikeCount returns the number of likes on a post.
func (r *PostRepo) LikeCount(ctx context.Context, postID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return count, nil
}

// CreateComment inserts a comment or reply.
func (r *PostRepo) CreateComment(ctx context.Context, comment *Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return translateError(err, "comment", comment.PostID)
	}
	return nil
}

// FindCommentByID loads a comment with its author.
func (r *PostRepo) FindCommentByID(ctx context.Context, id string) (*Comment, error) {
	var comment Comment
	err := r.db.WithContext(ctx).Preload("Author").First(&comment, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err, "comment", id)
	}
	return &comment, nil
}

// ListComments returns a post's top-level comments with their replies,
// oldest first.
func (r *PostRepo) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	var comments []Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Replies.Author").
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return comments, nil
}

// DeleteComment removes a comment and its replies.
func (r *PostRepo) DeleteComment(ctx context.Context, id string) error {
	err := r.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", id).Delete(&Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Comment{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return translateError(err, "comment", id)
	}
	return nil
}
