package ports

import (
	"context"

	"github.com/meditrack/meditrack-api/internal/core/domain"
)

// CredentialRepository persists credential records. Create must be atomic
// with respect to username uniqueness and return domain.ErrUserExists when
// the username is taken.
type CredentialRepository interface {
	// FindByUsername reports found=false, with a nil error, for an unknown username.
	FindByUsername(ctx context.Context, username string) (user *domain.User, found bool, err error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// CredentialStore maps usernames to credential records and owns password
// hashing on creation.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (user *domain.User, found bool, err error)
	Create(ctx context.Context, in domain.NewCredential) (*domain.User, error)
}
