// Package user implements profile management and the follow graph.
package user

import (
	"context"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/logger"
	"github.com/skillsenselab/skillloop/internal/notify"
	"github.com/skillsenselab/skillloop/internal/store"
)

// Store is the slice of the user repository the service needs.
type Store interface {
	FindByID(ctx context.Context, id string) (*store.User, error)
	FindByEmail(ctx context.Context, email string) (*store.User, error)
	Save(ctx context.Context, user *store.User) error
	Search(ctx context.Context, query string, limit int) ([]store.User, error)
	CreateFollow(ctx context.Context, follow *store.Follow) error
	DeleteFollow(ctx context.Context, followerID, followedID string) error
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
	Followers(ctx context.Context, userID string) ([]store.User, error)
	Following(ctx context.Context, userID string) ([]store.User, error)
	FollowCounts(ctx context.Context, userID string) (followers, following int64, err error)
}

var _ Store = (*store.UserRepo)(nil)

// Notifier sends follow notifications.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, actor *store.User, kind, message, postID string) error
}

var _ Notifier = (*notify.Service)(nil)

// UpdateProfileRequest is the payload for profile updates. Nil fields are
// left unchanged.
type UpdateProfileRequest struct {
	FirstName      *string `json:"firstName" binding:"omitempty,max=100"`
	LastName       *string `json:"lastName" binding:"omitempty,max=100"`
	Bio            *string `json:"bio" binding:"omitempty,max=2000"`
	ProfilePicture *string `json:"profilePicture" binding:"omitempty,max=512"`
	CoverPhoto     *string `json:"coverPhoto" binding:"omitempty,max=512"`
}

// Profile is a user together with their follow counts.
type Profile struct {
	store.User
	FollowerCount  int64 `json:"followerCount"`
	FollowingCount int64 `json:"followingCount"`
	IsFollowing    bool  `json:"isFollowing"`
}

// Service implements profile and follow operations.
type Service struct {
	users    Store
	notifier Notifier
	log      *logger.Logger
}

// NewService wires a user service.
func NewService(users Store, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		users:    users,
		notifier: notifier,
		log:      log.WithComponent("user"),
	}
}

// Profile loads a user's profile with follow counts. viewerID may be empty
// for anonymous viewers.
func (s *Service) Profile(ctx context.Context, userID, viewerID string) (*Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	followers, following, err := s.users.FollowCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		User:           *user,
		FollowerCount:  followers,
		FollowingCount: following,
	}
	if viewerID != "" && viewerID != userID {
		p.IsFollowing, err = s.users.IsFollowing(ctx, viewerID, userID)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// UpdateProfile applies the non-nil fields of req to the user.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*store.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = *req.ProfilePicture
	}
	if req.CoverPhoto != nil {
		user.CoverPhoto = *req.CoverPhoto
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Search finds users by name or username.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]store.User, error) {
	if query == "" {
		return nil, apperr.InvalidInput("query", "search query is required")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.users.Search(ctx, query, limit)
}

// Follow makes follower follow target. Following yourself and following the
// same user twice are rejected.
func (s *Service) Follow(ctx context.Context, follower *store.User, targetID string) error {
	if follower.ID == targetID {
		return apperr.InvalidInput("userId", "cannot follow yourself")
	}

	// Verify the target exists before writing the edge.
	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		return err
	}

	if err := s.users.CreateFollow(ctx, &store.Follow{
		FollowerID: follower.ID,
		FollowedID: targetID,
	}); err != nil {
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, targetID, follower, store.NotificationFollow, "started following you", ""); err != nil {
			s.log.Warn("Follow notification failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return nil
}

// Unfollow removes the follow edge.
func (s *Service) Unfollow(ctx context.Context, followerID, targetID string) error {
	return s.users.DeleteFollow(ctx, followerID, targetID)
}

// Followers lists the users following userID.
func (s *Service) Followers(ctx context.Context, userID string) ([]store.User, error) {
	return s.users.Followers(ctx, userID)
}

// Following lists the users userID follows.
func (s *Service) Following(ctx context.Context, userID string) ([]store.User, error) {
	return s.users.Following(ctx, userID)
}
