package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/meditrack/meditrack-api/internal/core/domain"
)

func TestCredentialRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := NewCredentialRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		created := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
		user, err := repo.Create(context.Background(), &domain.User{
			ID: "u1", Username: "nurse1", PasswordHash: "$2a$10$x", FullName: "Nurse One",
			Role: domain.RoleNurse, CreatedAt: created,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if user.ID != "u1" || !user.CreatedAt.Equal(created) {
			t.Fatalf("unexpected user: %+v", user)
		}
	})

	mt.Run("duplicate username", func(mt *mtest.T) {
		repo := NewCredentialRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: users index: username_unique",
		}))

		_, err := repo.Create(context.Background(), &domain.User{ID: "u2", Username: "nurse1"})
		if !errors.Is(err, domain.ErrUserExists) {
			t.Fatalf("expected ErrUserExists, got %v", err)
		}
	})
}

func TestCredentialRepository_FindByUsername(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := NewCredentialRepository(mt.DB)
		ns := mt.DB.Name() + "." + credentialsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "username", Value: "nurse1"},
			{Key: "password_hash", Value: "$2a$10$x"},
			{Key: "full_name", Value: "Nurse One"},
			{Key: "role", Value: "nurse"},
			{Key: "department", Value: "ICU"},
			{Key: "created_at", Value: int64(1767225600000)},
		}))

		user, found, err := repo.FindByUsername(context.Background(), "nurse1")
		if err != nil || !found {
			t.Fatalf("expected user, got found=%v err=%v", found, err)
		}
		if user.Role != domain.RoleNurse || user.Department != "ICU" || user.PasswordHash != "$2a$10$x" {
			t.Fatalf("unexpected user: %+v", user)
		}
	})

	mt.Run("absent", func(mt *mtest.T) {
		repo := NewCredentialRepository(mt.DB)
		ns := mt.DB.Name() + "." + credentialsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		user, found, err := repo.FindByUsername(context.Background(), "ghost")
		if err != nil || found || user != nil {
			t.Fatalf("expected (nil, false, nil), got (%v, %v, %v)", user, found, err)
		}
	})
}
