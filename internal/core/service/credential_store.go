package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

// CredentialStore implements ports.CredentialStore on top of a repository.
// Uniqueness is enforced by the repository, not here.
type CredentialStore struct {
	repo        ports.CredentialRepository
	hasher      ports.PasswordHasher
	roles       domain.RoleSet
	defaultRole domain.Role
	now         func() time.Time
}

func NewCredentialStore(repo ports.CredentialRepository, hasher ports.PasswordHasher, roles domain.RoleSet, defaultRole domain.Role) (*CredentialStore, error) {
	if !roles.Contains(defaultRole) {
		return nil, fmt.Errorf("credential store: default role %q is not one of: %s", defaultRole, roles)
	}
	return &CredentialStore{
		repo:        repo,
		hasher:      hasher,
		roles:       roles,
		defaultRole: defaultRole,
		now:         time.Now,
	}, nil
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return s.repo.FindByUsername(ctx, username)
}

func (s *CredentialStore) Create(ctx context.Context, in domain.NewCredential) (*domain.User, error) {
	if in.Username == "" || in.Password == "" || strings.TrimSpace(in.FullName) == "" {
		return nil, domain.NewValidationError("username, password, and full name are required")
	}

	if len(in.Password) > domain.MaxPasswordBytes {
		return nil, domain.NewValidationError(fmt.Sprintf("password must be at most %d bytes", domain.MaxPasswordBytes))
	}

	role := in.Role
	if role == "" {
		role = s.defaultRole
	}
	if !s.roles.Contains(role) {
		return nil, domain.NewValidationError(fmt.Sprintf("role must be one of: %s", s.roles))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         role,
		Department:   in.Department,
		Phone:        in.Phone,
		CreatedAt:    s.now().UTC(),
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return created, nil
}
