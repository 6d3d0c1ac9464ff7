// Package auth implements account registration, login, token refresh and
// OAuth2 account provisioning on top of the token codec.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/auth/password"
	"github.com/skillsenselab/skillloop/internal/auth/token"
	"github.com/skillsenselab/skillloop/internal/cache"
	"github.com/skillsenselab/skillloop/internal/logger"
	"github.com/skillsenselab/skillloop/internal/store"
)

// ProviderLocal marks accounts created through register/login.
const ProviderLocal = "local"

// UserStore is the slice of the user repository the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user *store.User) error
	Save(ctx context.Context, user *store.User) error
	FindByEmail(ctx context.Context, email string) (*store.User, error)
	FindByEmailOrUsername(ctx context.Context, login string) (*store.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// TokenRevoker tracks spent refresh tokens.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

var _ UserStore = (*store.UserRepo)(nil)
var _ TokenRevoker = (*cache.RevocationList)(nil)

// Service implements the authentication operations.
type Service struct {
	users           UserStore
	tokens          *token.Service
	hasher          password.Hasher
	revoked         TokenRevoker
	rotateOnRefresh bool
	log             *logger.Logger
}

// NewService wires an auth service. revoked may be nil when rotation is
// disabled or Redis is not configured.
func NewService(
	users UserStore,
	tokens *token.Service,
	hasher password.Hasher,
	revoked TokenRevoker,
	rotateOnRefresh bool,
	log *logger.Logger,
) *Service {
	return &Service{
		users:           users,
		tokens:          tokens,
		hasher:          hasher,
		revoked:         revoked,
		rotateOnRefresh: rotateOnRefresh,
		log:             log.WithComponent("auth"),
	}
}

// Register creates a local account and returns a token pair for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if exists, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return nil, err
	} else if exists {
		return nil, apperr.AlreadyExists("user")
	}
	if exists, err := s.users.ExistsByUsername(ctx, req.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, apperr.AlreadyExists("user")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &store.User{
		Username:  req.Username,
		Email:     email,
		Password:  hash,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Provider:  ProviderLocal,
		Enabled:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("User registered", map[string]interface{}{"user_id": user.ID})
	return s.issuePair(user)
}

// Login authenticates by email or username. Unknown accounts and wrong
// passwords produce the same error so callers cannot probe for accounts.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	login := strings.TrimSpace(req.Login)

	user, err := s.users.FindByEmailOrUsername(ctx, login)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.Enabled {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if !user.HasLocalCredentials() {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if err := s.hasher.Verify(req.Password, user.Password); err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	s.log.Info("User logged in", map[string]interface{}{"user_id": user.ID})
	return s.issuePair(user)
}

// Refresh exchanges a valid refresh token for a new access token. When
// rotation is enabled the presented refresh token is revoked and a new one
// issued; otherwise the same refresh token is returned.
func (s *Service) Refresh(ctx context.Context, raw string) (*AuthResponse, error) {
	claims, err := s.tokens.Verify(raw, token.RoleRefresh)
	if err != nil {
		return nil, translateTokenError(err)
	}

	if s.rotateOnRefresh && s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, raw)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if revoked {
			return nil, apperr.InvalidToken()
		}
	}

	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.InvalidToken()
		}
		return nil, err
	}
	if !user.Enabled {
		return nil, apperr.Unauthorized("account disabled")
	}

	access, expiresAt, err := s.tokens.Issue(user.Email, user.Provider, token.RoleAccess)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refresh := raw
	if s.rotateOnRefresh {
		refresh, _, err = s.tokens.Issue(user.Email, user.Provider, token.RoleRefresh)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		ttl := time.Until(claims.ExpiresAt.Time)
		if ttl > 0 && s.revoked != nil {
			if err := s.revoked.Revoke(ctx, raw, ttl); err != nil {
				s.log.Warn("Failed to revoke rotated refresh token", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}

	return &AuthResponse{
		TokenPair: TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    expiresAt,
		},
		User: toUserInfo(user),
	}, nil
}

// RegisterOrGetOAuth2 upserts an account for a verified OAuth2 identity.
// Existing accounts with the same email are reused and linked to the
// provider; new accounts get a username derived from the profile or the
// email local part, with no local password.
func (s *Service) RegisterOrGetOAuth2(ctx context.Context, provider, providerID, email, name, picture string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.InvalidInput("email", "oauth2 profile has no email")
	}

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Provider != provider || user.ProviderID != providerID {
			user.Provider = provider
			user.ProviderID = providerID
		}
		if user.ProfilePicture == "" && picture != "" {
			user.ProfilePicture = picture
		}
		user.Verified = true
		if err := s.users.Save(ctx, user); err != nil {
			return nil, err
		}
	case store.IsNotFound(err):
		user = &store.User{
			Username:       s.usernameFor(ctx, name, email),
			Email:          email,
			Provider:       provider,
			ProviderID:     providerID,
			ProfilePicture: picture,
			Enabled:        true,
			Verified:       true,
		}
		first, last := splitName(name)
		user.FirstName, user.LastName = first, last
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		s.log.Info("OAuth2 user provisioned", map[string]interface{}{
			"user_id":  user.ID,
			"provider": provider,
		})
	default:
		return nil, err
	}

	return s.issuePair(user)
}

// usernameFor derives a unique username from the profile name, falling back
// to the email local part and then to numeric suffixes.
func (s *Service) usernameFor(ctx context.Context, name, email string) string {
	base := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
	if base == "" {
		base = strings.SplitN(email, "@", 2)[0]
	}

	candidate := base
	for i := 1; i <= 50; i++ {
		taken, err := s.users.ExistsByUsername(ctx, candidate)
		if err != nil || !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return candidate
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func (s *Service) issuePair(user *store.User) (*AuthResponse, error) {
	access, expiresAt, err := s.tokens.Issue(user.Email, user.Provider, token.RoleAccess)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refresh, _, err := s.tokens.Issue(user.Email, user.Provider, token.RoleRefresh)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthResponse{
		TokenPair: TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    expiresAt,
		},
		User: toUserInfo(user),
	}, nil
}

func toUserInfo(user *store.User) UserInfo {
	return UserInfo{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		ProfilePicture: user.ProfilePicture,
		Provider:       user.Provider,
	}
}

// translateTokenError maps codec failures onto the responses the request
// filter and refresh endpoint return.
func translateTokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, token.ErrExpired):
		return apperr.TokenExpired()
	default:
		return apperr.InvalidToken()
	}
}
