package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

type RecordRepository struct {
	mu          sync.RWMutex
	collections map[string]map[string]domain.Record
}

func NewRecordRepository() *RecordRepository {
	return &RecordRepository{collections: make(map[string]map[string]domain.Record)}
}

func (r *RecordRepository) List(_ context.Context, collection string, f ports.RecordFilter) ([]domain.Record, int64, error) {
	r.mu.RLock()
	var matched []domain.Record
	for _, rec := range r.collections[collection] {
		if matches(rec, f.Equals) {
			matched = append(matched, copyRecord(rec))
		}
	}
	r.mu.RUnlock()

	if f.SortBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := matched[i][f.SortBy], matched[j][f.SortBy]
			if f.Descending {
				a, b = b, a
			}
			return lessValue(a, b)
		})
	}

	total := int64(len(matched))
	if f.Limit > 0 {
		start := (f.Page - 1) * f.Limit
		if start < 0 {
			start = 0
		}
		if start >= len(matched) {
			return []domain.Record{}, total, nil
		}
		end := start + f.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r *RecordRepository) Get(_ context.Context, collection, id string) (domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return copyRecord(rec), nil
}

func (r *RecordRepository) Insert(_ context.Context, collection string, rec domain.Record) error {
	id, _ := rec[domain.RecordIDField].(string)
	if id == "" {
		return fmt.Errorf("insert %s: record has no id", collection)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	col, ok := r.collections[collection]
	if !ok {
		col = make(map[string]domain.Record)
		r.collections[collection] = col
	}
	if _, exists := col[id]; exists {
		return fmt.Errorf("insert %s: duplicate id %s", collection, id)
	}
	col[id] = copyRecord(rec)
	return nil
}

func (r *RecordRepository) Update(_ context.Context, collection, id string, fields domain.Record) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	for k, v := range fields {
		rec[k] = v
	}
	return copyRecord(rec), nil
}

func matches(rec domain.Record, equals map[string]string) bool {
	for field, want := range equals {
		if fmt.Sprint(rec[field]) != want {
			return false
		}
	}
	return true
}

func copyRecord(rec domain.Record) domain.Record {
	out := make(domain.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// lessValue orders values of the same dynamic type; missing values sort first.
func lessValue(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b != nil
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	case int:
		if bv, ok := b.(int); ok {
			return av < bv
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
