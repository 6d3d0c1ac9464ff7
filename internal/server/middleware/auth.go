// Package middleware provides the Gin middleware stack: request
// authorization, CORS, request IDs, panic recovery and request logging.
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/auth/authctx"
	"github.com/skillsenselab/skillloop/internal/auth/token"
)

// PublicPrefixes are the URL path prefixes that bypass authentication.
var PublicPrefixes = []string{
	"/api/auth/register",
	"/api/auth/login",
	"/api/auth/refresh-token",
	"/api/auth/oauth2/callback",
	"/login/oauth2/code/",
	"/oauth2/",
	"/error",
	"/health",
	"/media/",
}

// AuthConfig configures the request authorization filter.
type AuthConfig struct {
	Tokens *token.Service
	// SkipPaths are URL path prefixes that bypass authentication. Defaults
	// to PublicPrefixes when empty.
	SkipPaths []string
	// AllowAnonymous forwards tokenless requests instead of rejecting them.
	// Handlers that need an identity still fail without one.
	AllowAnonymous bool
}

// Auth returns the request authorization filter. It extracts a Bearer token,
// verifies it as an access token, and stores the resulting identity on the
// request context.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	skip := cfg.SkipPaths
	if len(skip) == 0 {
		skip = PublicPrefixes
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range skip {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			if cfg.AllowAnonymous {
				c.Next()
				return
			}
			abortWith(c, apperr.Unauthorized("authorization required"))
			return
		}

		claims, err := cfg.Tokens.Verify(raw, token.RoleAccess)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrExpired):
				abortWith(c, apperr.TokenExpired())
			case errors.Is(err, token.ErrEmptyToken), errors.Is(err, token.ErrMalformed):
				abortWith(c, apperr.InvalidToken())
			default:
				abortWith(c, apperr.Internal(err))
			}
			return
		}

		id := authctx.Identity{
			Email:    claims.Subject,
			Provider: claims.Provider,
			Role:     authctx.RoleUser,
		}
		c.Request = c.Request.WithContext(authctx.Set(c.Request.Context(), id))
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header. The second
// return is false when no usable token is present.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", false
	}
	return tok, true
}

func abortWith(c *gin.Context, err *apperr.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}
