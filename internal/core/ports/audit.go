package ports

import (
	"context"
	"time"

	"github.com/meditrack/meditrack-api/internal/core/domain"
)

// AuditRecorder accepts audit entries without blocking the caller.
type AuditRecorder interface {
	Record(entry domain.AuditEntry)
}

// AuditFilter narrows an audit listing. Empty fields do not filter.
type AuditFilter struct {
	Action   string
	UserID   string
	DateFrom time.Time
	DateTo   time.Time
	Page     int // 1-based
	Limit    int
}

// AuditRepository persists system log entries.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]*domain.AuditEntry, int64, error)
}

// AuditPage is one page of audit entries.
type AuditPage struct {
	Items      []*domain.AuditEntry
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type AuditLog interface {
	List(ctx context.Context, filter AuditFilter) (*AuditPage, error)
}
