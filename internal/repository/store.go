package repository

import (
	"context"
	"errors"

	"studytracker-backend/internal/models"
)

var ErrNotFound = errors.New("study session not found")

// SessionStore is the record collection the tracker works against. Every operation is keyed
// on the session id; Upsert replaces the stored record wholesale and echoes what was written.
type SessionStore interface {
	SelectAll(ctx context.Context) ([]models.StudySession, error)
	SelectByID(ctx context.Context, id string) (*models.StudySession, error)
	Upsert(ctx context.Context, s *models.StudySession) (*models.StudySession, error)
	DeleteByID(ctx context.Context, id string) error
}
