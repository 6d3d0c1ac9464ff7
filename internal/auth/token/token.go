// Package token issues and verifies the signed, time-bounded credentials used
// by the authentication pipeline. Access and refresh tokens are signed with
// independent HMAC keys so a token issued under one role can never verify
// under the other.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Verification failures. ErrMalformed covers structural damage and signature
// mismatches alike, including tokens presented under the wrong key role.
var (
	ErrEmptyToken = errors.New("token: empty token")
	ErrExpired    = errors.New("token: expired")
	ErrMalformed  = errors.New("token: malformed or bad signature")
)

// Claims are the registered claims plus the identity provider tag.
type Claims struct {
	gojwt.RegisteredClaims
	Provider string `json:"provider"`
}

// Service issues and verifies tokens. Keys are loaded once at construction
// and immutable for the process lifetime.
type Service struct {
	cfg        Config
	accessKey  []byte
	refreshKey []byte
	method     gojwt.SigningMethod
}

// New creates a token service. Key material below the strength threshold is
// rejected here, which makes it a fatal startup error for the caller.
func New(cfg Config) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		cfg:        cfg,
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		method:     cfg.signingMethod(),
	}, nil
}

// Issue builds a signed token for the subject under the given key role.
// It returns the compact token and its expiry instant.
func (s *Service) Issue(subject, provider string, role KeyRole) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl(role))

	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(expiresAt),
		},
		Provider: provider,
	}

	signed, err := gojwt.NewWithClaims(s.method, claims).SignedString(s.key(role))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates raw under the given key role.
func (s *Service) Verify(raw string, role KeyRole) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyToken
	}

	claims := &Claims{}
	parsed, err := gojwt.ParseWithClaims(raw, claims,
		func(t *gojwt.Token) (interface{}, error) {
			if t.Method.Alg() != s.method.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
			}
			return s.key(role), nil
		},
		gojwt.WithValidMethods([]string{s.method.Alg()}),
	)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

// AccessTTL returns the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.cfg.AccessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (s *Service) RefreshTTL() time.Duration { return s.cfg.RefreshTTL }

func (s *Service) ttl(role KeyRole) time.Duration {
	if role == RoleRefresh {
		return s.cfg.RefreshTTL
	}
	return s.cfg.AccessTTL
}

func (s *Service) key(role KeyRole) []byte {
	if role == RoleRefresh {
		return s.refreshKey
	}
	return s.accessKey
}
