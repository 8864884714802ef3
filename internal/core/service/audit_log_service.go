package service

import (
	"context"
	"fmt"

	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

type auditLogService struct {
	repo ports.AuditRepository
}

// NewAuditLogService returns the read side of the system log.
func NewAuditLogService(repo ports.AuditRepository) ports.AuditLog {
	return &auditLogService{repo: repo}
}

func (s *auditLogService) List(ctx context.Context, filter ports.AuditFilter) (*ports.AuditPage, error) {
	if !filter.DateFrom.IsZero() && !filter.DateTo.IsZero() && filter.DateFrom.After(filter.DateTo) {
		return nil, domain.NewValidationError("date_from must not be after date_to")
	}
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	if items == nil {
		items = []*domain.AuditEntry{}
	}
	return &ports.AuditPage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}
