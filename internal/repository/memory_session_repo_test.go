package repository

import (
	"context"
	"errors"
	"testing"

	"studytracker-backend/internal/models"
)

func TestMemorySessionRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepo()

	s := &models.StudySession{ID: "x", Date: models.NewDate(2025, 3, 1), Topic: "Cinemática"}
	if _, err := repo.Upsert(ctx, s); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	s.Topic = "changed"
	got, err := repo.SelectByID(ctx, "x")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.Topic != "Cinemática" {
		t.Fatalf("store aliased caller record: %q", got.Topic)
	}

	if err := repo.DeleteByID(ctx, "x"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.SelectByID(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	all, _ := repo.SelectAll(ctx)
	if len(all) != 0 {
		t.Fatalf("expected empty store, got %d", len(all))
	}
}
