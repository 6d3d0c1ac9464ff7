package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RevocationList tracks refresh tokens that have been rotated out. Tokens
// are stored as SHA-256 digests so Redis never holds usable credentials.
// Entries expire with the token itself.
//
// A nil *RevocationList is valid and revokes nothing, for deployments
// running without Redis or with rotation disabled.
type RevocationList struct {
	client *Client
}

// NewRevocationList returns a revocation list backed by client.
func NewRevocationList(client *Client) *RevocationList {
	return &RevocationList{client: client}
}

func revocationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "revoked:refresh:" + hex.EncodeToString(sum[:])
}

// Revoke marks a refresh token as spent until its natural expiry.
func (l *RevocationList) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Set(ctx, revocationKey(token), "1", ttl)
}

// IsRevoked reports whether a refresh token has been spent.
func (l *RevocationList) IsRevoked(ctx context.Context, token string) (bool, error) {
	if l == nil || l.client == nil {
		return false, nil
	}
	n, err := l.client.Exists(ctx, revocationKey(token))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
