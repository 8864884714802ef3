package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

type recordService struct {
	repo ports.RecordRepository
	now  func() time.Time
}

// NewRecordService returns a RecordService that stamps ids and creation
// times and otherwise passes documents through untouched.
func NewRecordService(repo ports.RecordRepository) ports.RecordService {
	return &recordService{repo: repo, now: time.Now}
}

func (s *recordService) List(ctx context.Context, res domain.Resource, in ports.ListRecordsInput) (*ports.RecordPage, error) {
	page, limit := normalizePage(in.Page, in.Limit)

	sortBy, descending := sortOrder(res, in)

	items, total, err := s.repo.List(ctx, res.Collection, ports.RecordFilter{
		Equals:     in.Equals,
		SortBy:     sortBy,
		Descending: descending,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", res.Collection, err)
	}
	if items == nil {
		items = []domain.Record{}
	}

	return &ports.RecordPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *recordService) Get(ctx context.Context, res domain.Resource, id string) (domain.Record, error) {
	rec, err := s.repo.Get(ctx, res.Collection, id)
	if err != nil {
		return nil, s.wrap(res, err)
	}
	return rec, nil
}

func (s *recordService) Create(ctx context.Context, res domain.Resource, rec domain.Record) (domain.Record, error) {
	if len(rec) == 0 {
		return nil, domain.NewValidationError("request body must be a non-empty JSON object")
	}

	doc := make(domain.Record, len(rec)+2)
	for k, v := range rec {
		if k == "_id" {
			continue
		}
		doc[k] = v
	}
	now := s.now().UTC()
	doc[domain.RecordIDField] = uuid.NewString()
	doc[domain.RecordCreatedAtField] = now
	if f := res.TimestampField; f != "" {
		if v, ok := doc[f]; !ok || v == nil || v == "" {
			doc[f] = now
		}
	}

	if err := s.repo.Insert(ctx, res.Collection, doc); err != nil {
		return nil, fmt.Errorf("create %s: %w", res.Entity, err)
	}
	return doc, nil
}

// Update applies a partial update. The id and creation time are immutable.
func (s *recordService) Update(ctx context.Context, res domain.Resource, id string, fields domain.Record) (domain.Record, error) {
	set := make(domain.Record, len(fields))
	for k, v := range fields {
		if k == domain.RecordIDField || k == domain.RecordCreatedAtField || k == "_id" {
			continue
		}
		set[k] = v
	}
	if len(set) == 0 {
		return nil, domain.NewValidationError("no updatable fields supplied")
	}

	rec, err := s.repo.Update(ctx, res.Collection, id, set)
	if err != nil {
		return nil, s.wrap(res, err)
	}
	return rec, nil
}

func sortOrder(res domain.Resource, in ports.ListRecordsInput) (string, bool) {
	sortBy, descending := res.DefaultSort, !res.SortAscending
	if sortBy == "" {
		sortBy = domain.RecordCreatedAtField
	}
	if in.SortBy != "" {
		sortBy, descending = in.SortBy, true
	}
	switch in.Order {
	case "asc":
		descending = false
	case "desc":
		descending = true
	}
	return sortBy, descending
}

func (s *recordService) wrap(res domain.Resource, err error) error {
	if isNotFound(err) {
		return &domain.NotFoundError{Entity: res.Entity}
	}
	return fmt.Errorf("%s: %w", res.Collection, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total == 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
