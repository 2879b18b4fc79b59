package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studytracker-backend/internal/models"
)

const sessionColumns = `id, day, date, created_at, topic, category, duration, difficulty, focus_level,
	daily_win, key_learnings, resources, obstacles, next_steps, practical_application`

type StudySessionRepo struct {
	pool *pgxpool.Pool
}

func NewStudySessionRepo(pool *pgxpool.Pool) *StudySessionRepo {
	return &StudySessionRepo{pool: pool}
}

func (r *StudySessionRepo) SelectAll(ctx context.Context) ([]models.StudySession, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+sessionColumns+` FROM study_sessions ORDER BY date ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("select study sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.StudySession
	for rows.Next() {
		s, err := scanPgSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate study sessions: %w", err)
	}
	return sessions, nil
}

func (r *StudySessionRepo) SelectByID(ctx context.Context, id string) (*models.StudySession, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM study_sessions WHERE id = $1`, id)
	s, err := scanPgSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *StudySessionRepo) Upsert(ctx context.Context, s *models.StudySession) (*models.StudySession, error) {
	if err := models.Normalize(s); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO study_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			day = EXCLUDED.day,
			date = EXCLUDED.date,
			created_at = EXCLUDED.created_at,
			topic = EXCLUDED.topic,
			category = EXCLUDED.category,
			duration = EXCLUDED.duration,
			difficulty = EXCLUDED.difficulty,
			focus_level = EXCLUDED.focus_level,
			daily_win = EXCLUDED.daily_win,
			key_learnings = EXCLUDED.key_learnings,
			resources = EXCLUDED.resources,
			obstacles = EXCLUDED.obstacles,
			next_steps = EXCLUDED.next_steps,
			practical_application = EXCLUDED.practical_application
		RETURNING ` + sessionColumns

	row := r.pool.QueryRow(ctx, query,
		s.ID, s.Day, s.Date.Time(), s.CreatedAt, s.Topic, s.Category, s.Duration, s.Difficulty,
		s.FocusLevel, s.DailyWin, s.KeyLearnings, s.Resources, s.Obstacles, s.NextSteps,
		s.PracticalApplication,
	)
	written, err := scanPgSession(row)
	if err != nil {
		return nil, fmt.Errorf("upsert study session %s: %w", s.ID, err)
	}
	return written, nil
}

func (r *StudySessionRepo) DeleteByID(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM study_sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete study session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPgSession(row pgx.Row) (*models.StudySession, error) {
	var (
		s    models.StudySession
		date time.Time
	)
	err := row.Scan(
		&s.ID, &s.Day, &date, &s.CreatedAt, &s.Topic, &s.Category, &s.Duration, &s.Difficulty,
		&s.FocusLevel, &s.DailyWin, &s.KeyLearnings, &s.Resources, &s.Obstacles, &s.NextSteps,
		&s.PracticalApplication,
	)
	if err != nil {
		return nil, err
	}
	s.Date = models.DateOf(date)
	if err := models.Normalize(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
