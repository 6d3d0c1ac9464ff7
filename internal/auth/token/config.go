package token

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the minimum signing key length. HMAC-SHA-512 keys below
// this threshold weaken the MAC, so shorter secrets are a fatal startup error.
const MinSecretBytes = 64

// KeyRole selects which signing key and lifetime policy applies to a token.
type KeyRole string

const (
	// RoleAccess is the short-lived resource-access key role.
	RoleAccess KeyRole = "access"
	// RoleRefresh is the long-lived token-minting key role.
	RoleRefresh KeyRole = "refresh"
)

// Config configures the token service.
type Config struct {
	// AccessSecret is the HMAC key for access tokens.
	AccessSecret string
	// RefreshSecret is the HMAC key for refresh tokens. Must differ from
	// AccessSecret so the two roles are never mutually valid.
	RefreshSecret string
	// Algorithm is the HMAC signing algorithm (default: HS512).
	Algorithm string
	// AccessTTL is the access token lifetime (default: 1h).
	AccessTTL time.Duration
	// RefreshTTL is the refresh token lifetime (default: 168h).
	RefreshTTL time.Duration
}

// ApplyDefaults fills in zero-value fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = "HS512"
	}
	if c.AccessTTL == 0 {
		c.AccessTTL = time.Hour
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = 7 * 24 * time.Hour
	}
}

// Validate checks key material and algorithm choice.
func (c *Config) Validate() error {
	if len(c.AccessSecret) < MinSecretBytes {
		return errors.New("token: access secret must be at least 64 bytes")
	}
	if len(c.RefreshSecret) < MinSecretBytes {
		return errors.New("token: refresh secret must be at least 64 bytes")
	}
	if c.AccessSecret == c.RefreshSecret {
		return errors.New("token: access and refresh secrets must differ")
	}
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return errors.New("token: unsupported algorithm: " + c.Algorithm)
	}
	return nil
}

// signingMethod returns the golang-jwt SigningMethod instance.
func (c *Config) signingMethod() gojwt.SigningMethod {
	switch c.Algorithm {
	case "HS256":
		return gojwt.SigningMethodHS256
	case "HS384":
		return gojwt.SigningMethodHS384
	default:
		return gojwt.SigningMethodHS512
	}
}
