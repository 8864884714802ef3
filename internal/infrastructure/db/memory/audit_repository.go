package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

type AuditRepository struct {
	mu      sync.RWMutex
	entries []*domain.AuditEntry
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Insert(_ context.Context, entry *domain.AuditEntry) error {
	clone := *entry
	r.mu.Lock()
	r.entries = append(r.entries, &clone)
	r.mu.Unlock()
	return nil
}

// List returns newest entries first.
func (r *AuditRepository) List(_ context.Context, f ports.AuditFilter) ([]*domain.AuditEntry, int64, error) {
	r.mu.RLock()
	var matched []*domain.AuditEntry
	for _, e := range r.entries {
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if !f.DateFrom.IsZero() && e.CreatedAt.Before(f.DateFrom) {
			continue
		}
		if !f.DateTo.IsZero() && e.CreatedAt.After(f.DateTo) {
			continue
		}
		clone := *e
		matched = append(matched, &clone)
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if f.Limit <= 0 || start < 0 {
		return matched, total, nil
	}
	if start >= len(matched) {
		return []*domain.AuditEntry{}, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}
