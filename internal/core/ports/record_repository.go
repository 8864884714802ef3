package ports

import (
	"context"

	"github.com/meditrack/meditrack-api/internal/core/domain"
)

// RecordFilter carries the query parameters for listing records.
type RecordFilter struct {
	Equals     map[string]string // field -> exact value
	SortBy     string
	Descending bool
	Page       int // 1-based
	Limit      int // capped by the service
}

// RecordRepository stores schemaless documents, one collection per resource.
// Get and Update return domain.ErrNotFound (wrapped) for an unknown id.
type RecordRepository interface {
	List(ctx context.Context, collection string, filter RecordFilter) ([]domain.Record, int64, error)
	Get(ctx context.Context, collection, id string) (domain.Record, error)
	Insert(ctx context.Context, collection string, rec domain.Record) error
	Update(ctx context.Context, collection, id string, fields domain.Record) (domain.Record, error)
}

// RecordPage is one page of records.
type RecordPage struct {
	Items      []domain.Record
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ListRecordsInput is the service-level list request.
// Order is "asc", "desc" or empty for the resource default.
type ListRecordsInput struct {
	Equals map[string]string
	SortBy string
	Order  string
	Page   int
	Limit  int
}

type RecordService interface {
	List(ctx context.Context, res domain.Resource, in ListRecordsInput) (*RecordPage, error)
	Get(ctx context.Context, res domain.Resource, id string) (domain.Record, error)
	Create(ctx context.Context, res domain.Resource, rec domain.Record) (domain.Record, error)
	Update(ctx context.Context, res domain.Resource, id string, fields domain.Record) (domain.Record, error)
}
