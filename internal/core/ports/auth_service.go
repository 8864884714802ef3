package ports

import (
	"context"

	"github.com/meditrack/meditrack-api/internal/core/domain"
)

// RequestMeta describes the caller of an auth operation for the audit log.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in domain.NewCredential, meta RequestMeta) (*domain.User, error)
	Login(ctx context.Context, username, password string, meta RequestMeta) (*LoginResult, error)
	Logout(ctx context.Context, id *domain.Identity, meta RequestMeta) error
}
