package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/skillsenselab/skillloop/internal/apperr"
)

// UserRepo persists users and follow relationships.
type UserRepo struct {
	db *DB
}

// NewUserRepo returns a user repository backed by db.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user. A duplicate email or username yields
// ALREADY_EXISTS.
func (r *UserRepo) Create(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(err, "user", user.Email)
	}
	return nil
}

// Save persists changes to an existing user.
func (r *UserRepo) Save(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return translateError(err, "user", user.ID)
	}
	return nil
}

// FindByID loads a user by primary key.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "user", id)
	}
	return &user, nil
}

// FindByEmail loads a user by email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translateError(err, "user", email)
	}
	return &user, nil
}

// FindByEmailOrUsername loads a user whose email or username matches the
// given login identifier.
func (r *UserRepo) FindByEmailOrUsername(ctx context.Context, login string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", login, login).
		First(&user).Error
	if err != nil {
		return nil, translateError(err, "user", login)
	}
	return &user, nil
}

// ExistsByEmail reports whether a user with the given email exists.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, apperr.Internal(err)
	}
	return count > 0, nil
}

// ExistsByUsername reports whether a user with the given username exists.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return false, apperr.Internal(err)
	}
	return count > 0, nil
}

// Search returns users whose username, first name or last name matches the
// query, case-insensitively.
func (r *UserRepo) Search(ctx context.Context, query string, limit int) ([]User, error) {
	var users []User
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("username ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?", pattern, pattern, pattern).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

// CreateFollow inserts a follow edge. A duplicate pair yields ALREADY_EXISTS.
func (r *UserRepo) CreateFollow(ctx context.Context, follow *Follow) error {
	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		return translateError(err, "follow", follow.FollowedID)
	}
	return nil
}

// DeleteFollow removes a follow edge if present. It reports NOT_FOUND when
// the edge does not exist.
func (r *UserRepo) DeleteFollow(ctx context.Context, followerID, followedID string) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&Follow{})
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("follow", followedID)
	}
	return nil
}

// IsFollowing reports whether follower follows followed.
func (r *UserRepo) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, apperr.Internal(err)
	}
	return count > 0, nil
}

// Followers returns the users following the given user.
func (r *UserRepo) Followers(ctx context.Context, userID string) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Find(&users).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

// Following returns the users the given user follows.
func (r *UserRepo) Following(ctx context.Context, userID string) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Find(&users).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

// FollowCounts returns follower and following counts for a user.
func (r *UserRepo) FollowCounts(ctx context.Context, userID string) (followers, following int64, err error) {
	db := r.db.WithContext(ctx).Model(&Follow{})
	if err = db.Where("followed_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, apperr.Internal(err)
	}
	db = r.db.WithContext(ctx).Model(&Follow{})
	if err = db.Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, apperr.Internal(err)
	}
	return followers, following, nil
}

// IsNotFound reports whether err indicates a missing record, at either the
// GORM or application error level.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || apperr.IsCode(err, apperr.CodeNotFound)
}
