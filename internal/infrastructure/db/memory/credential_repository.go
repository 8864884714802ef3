// Package memory holds process-local implementations of the storage ports,
// used for development and tests. Uniqueness guarantees hold within a single
// process only.
package memory

import (
	"context"
	"sync"

	"github.com/meditrack/meditrack-api/internal/core/domain"
)

type CredentialRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{users: make(map[string]*domain.User)}
}

func (r *CredentialRepository) FindByUsername(_ context.Context, username string) (*domain.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, false, nil
	}
	clone := *u
	return &clone, true, nil
}

// Create checks and inserts under one lock.
func (r *CredentialRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	stored := *user
	r.users[user.Username] = &stored

	out := stored
	return &out, nil
}

// Len reports the number of stored records.
func (r *CredentialRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
