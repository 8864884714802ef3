package ports

import (
	"context"
	"time"

	"github.com/meditrack/meditrack-api/internal/core/domain"
)

// PasswordHasher is a salted one-way password hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify never fails loudly: a malformed hash simply does not match.
	Verify(plaintext, hash string) bool
}

type TokenIssuer interface {
	Issue(claims domain.Identity, ttl time.Duration) (string, error)
}

// TokenVerifier decodes a bearer token. Every failure wraps domain.ErrInvalidToken.
type TokenVerifier interface {
	Verify(token string) (*domain.Identity, error)
}

// TokenDenylist holds token ids revoked before their natural expiry.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
