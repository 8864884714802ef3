package mongo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

func TestRecordRepository_Get(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".patients", mtest.FirstBatch))

		if _, err := repo.Get(context.Background(), "patients", "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("found maps _id to id", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, mt.DB.Name()+".patients", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "p1"},
			{Key: "name", Value: "Jane"},
		}))

		rec, err := repo.Get(context.Background(), "patients", "p1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if rec["id"] != "p1" || rec["name"] != "Jane" {
			t.Fatalf("unexpected record: %v", rec)
		}
		if _, ok := rec["_id"]; ok {
			t.Fatalf("_id must not leak into records")
		}
	})
}

func TestRecordRepository_Insert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("id stored as _id", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Insert(context.Background(), "patients", domain.Record{
			"id":   "server-uuid",
			"_id":  "client-chosen",
			"name": "Jane",
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}

		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "insert" {
			t.Fatalf("expected insert command, got %+v", evt)
		}
		docs, err := evt.Command.Lookup("documents").Array().Values()
		if err != nil || len(docs) != 1 {
			t.Fatalf("expected one document, got %d (%v)", len(docs), err)
		}
		doc := docs[0].Document()
		if got := doc.Lookup("_id").StringValue(); got != "server-uuid" {
			t.Fatalf("expected _id server-uuid, got %q", got)
		}
		if _, err := doc.LookupErr("id"); err == nil {
			t.Fatalf("id must be stored as _id only")
		}
	})

	mt.Run("write error", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 2, Message: "bad value"}))

		if err := repo.Insert(context.Background(), "patients", domain.Record{"id": "p1"}); err == nil {
			t.Fatalf("expected insert error")
		}
	})
}

func TestRecordRepository_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("filter sort and page", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.DB)
		ns := mt.DB.Name() + ".inventory_items"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(7)}}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "i3"}, {Key: "status", Value: "low"}},
				bson.D{{Key: "_id", Value: "i4"}, {Key: "status", Value: "low"}},
			),
		)

		items, total, err := repo.List(context.Background(), "inventory_items", ports.RecordFilter{
			Equals:     map[string]string{"status": "low", "id": "i3"},
			SortBy:     "name",
			Descending: true,
			Page:       2,
			Limit:      2,
		})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 7 || len(items) != 2 || items[0]["id"] != "i3" {
			t.Fatalf("unexpected page: total=%d items=%v", total, items)
		}

		count := mt.GetStartedEvent()
		if count == nil || count.CommandName != "aggregate" {
			t.Fatalf("expected count aggregate, got %+v", count)
		}

		find := mt.GetStartedEvent()
		if find == nil || find.CommandName != "find" {
			t.Fatalf("expected find command, got %+v", find)
		}
		cmd := find.Command
		if got := cmd.Lookup("filter", "status").StringValue(); got != "low" {
			t.Fatalf("expected status filter, got %q", got)
		}
		if got := cmd.Lookup("filter", "_id").StringValue(); got != "i3" {
			t.Fatalf("expected id filter on _id, got %q", got)
		}
		if got := cmd.Lookup("sort", "name").AsInt64(); got != -1 {
			t.Fatalf("expected descending sort on name, got %d", got)
		}
		if skip := cmd.Lookup("skip").AsInt64(); skip != 2 {
			t.Fatalf("expected skip 2, got %d", skip)
		}
		if limit := cmd.Lookup("limit").AsInt64(); limit != 2 {
			t.Fatalf("expected limit 2, got %d", limit)
		}
	})

	mt.Run("count error", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 1, Message: "boom"}))

		if _, _, err := repo.List(context.Background(), "patients", ports.RecordFilter{Page: 1, Limit: 10}); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestRecordRepository_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns the updated document", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "p1"},
			{Key: "name", Value: "Jane"},
			{Key: "ward", Value: "B"},
		}}))

		rec, err := repo.Update(context.Background(), "patients", "p1", domain.Record{"ward": "B", "id": "other"})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if rec["id"] != "p1" || rec["ward"] != "B" {
			t.Fatalf("unexpected record: %v", rec)
		}

		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "findAndModify" {
			t.Fatalf("expected findAndModify, got %+v", evt)
		}
		if got := evt.Command.Lookup("query", "_id").StringValue(); got != "p1" {
			t.Fatalf("expected query on p1, got %q", got)
		}
		if !evt.Command.Lookup("new").Boolean() {
			t.Fatalf("expected the updated document to be returned")
		}
		set := evt.Command.Lookup("update", "$set").Document()
		if _, err := set.LookupErr("_id"); err == nil {
			t.Fatalf("_id must not be updated")
		}
		if got := set.Lookup("ward").StringValue(); got != "B" {
			t.Fatalf("expected ward in $set, got %q", got)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewRecordRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		if _, err := repo.Update(context.Background(), "patients", "missing", domain.Record{"ward": "B"}); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestToDocument_IgnoresRawID(t *testing.T) {
	for i := 0; i < 100; i++ {
		doc := toDocument(domain.Record{"_id": "client-chosen", "id": "server-uuid"})
		if doc["_id"] != "server-uuid" || len(doc) != 1 {
			t.Fatalf("unexpected document: %v", doc)
		}
	}
}
