package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

// RecordRepository stores schemaless records, one Mongo collection per
// resource. The record "id" is stored as the document _id.
type RecordRepository struct {
	db *mongo.Database
}

func NewRecordRepository(db *mongo.Database) *RecordRepository {
	return &RecordRepository{db: db}
}

// col decodes embedded documents as maps so records serialise to plain JSON.
func (r *RecordRepository) col(name string) *mongo.Collection {
	return r.db.Collection(name, options.Collection().SetBSONOptions(&options.BSONOptions{
		DefaultDocumentM: true,
	}))
}

// EnsureIndexes creates the created_at index used by default listings.
func (r *RecordRepository) EnsureIndexes(ctx context.Context, collections ...string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, name := range collections {
		_, err := r.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: domain.RecordCreatedAtField, Value: -1}},
		})
		if err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (r *RecordRepository) List(ctx context.Context, collection string, f ports.RecordFilter) ([]domain.Record, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	for field, value := range f.Equals {
		filter[storedField(field)] = value
	}

	total, err := r.col(collection).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", collection, err)
	}

	opts := options.Find()
	if f.SortBy != "" {
		dir := 1
		if f.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: storedField(f.SortBy), Value: dir}})
	}
	if f.Limit > 0 {
		opts.SetSkip(int64((f.Page - 1) * f.Limit)).SetLimit(int64(f.Limit))
	}

	cur, err := r.col(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", collection, err)
	}

	out := make([]domain.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDocument(d))
	}
	return out, total, nil
}

func (r *RecordRepository) Get(ctx context.Context, collection, id string) (domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bson.M
	if err := r.col(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	return fromDocument(doc), nil
}

func (r *RecordRepository) Insert(ctx context.Context, collection string, rec domain.Record) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col(collection).InsertOne(ctx, toDocument(rec)); err != nil {
		return fmt.Errorf("insert %s: %w", collection, err)
	}
	return nil
}

func (r *RecordRepository) Update(ctx context.Context, collection, id string, fields domain.Record) (domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := toDocument(fields)
	delete(set, "_id")

	var doc bson.M
	err := r.col(collection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update %s: %w", collection, err)
	}
	return fromDocument(doc), nil
}

func storedField(field string) string {
	if field == domain.RecordIDField {
		return "_id"
	}
	return field
}

// toDocument maps the record id onto _id. A raw _id key never reaches the
// store.
func toDocument(rec domain.Record) bson.M {
	doc := make(bson.M, len(rec))
	for k, v := range rec {
		if k == "_id" {
			continue
		}
		doc[storedField(k)] = v
	}
	return doc
}

func fromDocument(doc bson.M) domain.Record {
	rec := make(domain.Record, len(doc))
	for k, v := range doc {
		if k == "_id" {
			k = domain.RecordIDField
		}
		rec[k] = v
	}
	return rec
}
