package repository

import (
	"context"
	"sort"
	"sync"

	"studytracker-backend/internal/models"
)

// MemorySessionRepo is an in-process store. It backs STORE_DRIVER=memory and tests.
type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]models.StudySession
}

func NewMemorySessionRepo(seed ...models.StudySession) *MemorySessionRepo {
	r := &MemorySessionRepo{sessions: make(map[string]models.StudySession, len(seed))}
	for _, s := range seed {
		r.sessions[s.ID] = s
	}
	return r
}

func (r *MemorySessionRepo) SelectAll(ctx context.Context) ([]models.StudySession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.StudySession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemorySessionRepo) SelectByID(ctx context.Context, id string) (*models.StudySession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemorySessionRepo) Upsert(ctx context.Context, s *models.StudySession) (*models.StudySession, error) {
	if err := models.Normalize(s); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = *s
	written := *s
	return &written, nil
}

func (r *MemorySessionRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}
