package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"studytracker-backend/internal/models"
)

// SQLiteSessionRepo keeps sessions in a local SQLite file. Dates are stored as YYYY-MM-DD
// text and created_at as RFC3339 text in UTC.
type SQLiteSessionRepo struct {
	db *sql.DB
}

func NewSQLiteSessionRepo(ctx context.Context, db *sql.DB) (*SQLiteSessionRepo, error) {
	r := &SQLiteSessionRepo{db: db}
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SQLiteSessionRepo) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS study_sessions (
  id TEXT PRIMARY KEY,
  day INTEGER NOT NULL DEFAULT 0,
  date TEXT NOT NULL,
  created_at TEXT NOT NULL,
  topic TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT 'Mixed',
  duration TEXT NOT NULL DEFAULT '',
  difficulty TEXT NOT NULL DEFAULT 'Medio',
  focus_level TEXT NOT NULL DEFAULT 'Medio',
  daily_win TEXT NOT NULL DEFAULT '',
  key_learnings TEXT NOT NULL DEFAULT '',
  resources TEXT NOT NULL DEFAULT '',
  obstacles TEXT NOT NULL DEFAULT '',
  next_steps TEXT NOT NULL DEFAULT '',
  practical_application TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_study_sessions_date_created ON study_sessions (date, created_at);
`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create study_sessions table: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) SelectAll(ctx context.Context) ([]models.StudySession, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM study_sessions ORDER BY date ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("select study sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.StudySession
	for rows.Next() {
		s, err := scanSQLiteSession(rows)
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

func (r *SQLiteSessionRepo) SelectByID(ctx context.Context, id string) (*models.StudySession, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM study_sessions WHERE id = ?`, id)
	s, err := scanSQLiteSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *SQLiteSessionRepo) Upsert(ctx context.Context, s *models.StudySession) (*models.StudySession, error) {
	if err := models.Normalize(s); err != nil {
		return nil, err
	}

	const stmt = `
INSERT INTO study_sessions (` + sessionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  day=excluded.day,
  date=excluded.date,
  created_at=excluded.created_at,
  topic=excluded.topic,
  category=excluded.category,
  duration=excluded.duration,
  difficulty=excluded.difficulty,
  focus_level=excluded.focus_level,
  daily_win=excluded.daily_win,
  key_learnings=excluded.key_learnings,
  resources=excluded.resources,
  obstacles=excluded.obstacles,
  next_steps=excluded.next_steps,
  practical_application=excluded.practical_application;
`
	_, err := r.db.ExecContext(ctx, stmt,
		s.ID, s.Day, s.Date.String(), s.CreatedAt.UTC().Format(time.RFC3339Nano), s.Topic, s.Category,
		s.Duration, s.Difficulty, s.FocusLevel, s.DailyWin, s.KeyLearnings, s.Resources, s.Obstacles,
		s.NextSteps, s.PracticalApplication,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert study session %s: %w", s.ID, err)
	}
	return r.SelectByID(ctx, s.ID)
}

func (r *SQLiteSessionRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM study_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete study session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete study session %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSession(row rowScanner) (*models.StudySession, error) {
	var (
		s         models.StudySession
		date      string
		createdAt string
	)
	err := row.Scan(
		&s.ID, &s.Day, &date, &createdAt, &s.Topic, &s.Category, &s.Duration, &s.Difficulty,
		&s.FocusLevel, &s.DailyWin, &s.KeyLearnings, &s.Resources, &s.Obstacles, &s.NextSteps,
		&s.PracticalApplication,
	)
	if err != nil {
		return nil, err
	}
	if s.Date, err = models.ParseDate(date); err != nil {
		return nil, errors.Join(models.ErrMalformedRecord, err)
	}
	s.CreatedAt = parseTimestamp(createdAt)
	if err := models.Normalize(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReadLegacySessions reads every row of a legacy SQLite sessions table.
// Columns are matched by name so older layouts with missing columns still load; rows that
// cannot be normalized are returned in the second slice with their error.
func ReadLegacySessions(ctx context.Context, db *sql.DB, table string) ([]models.StudySession, []error, error) {
	if !isIdentifier(table) {
		return nil, nil, fmt.Errorf("invalid table name %q", table)
	}
	rows, err := db.QueryContext(ctx, `SELECT * FROM `+table)
	if err != nil {
		return nil, nil, fmt.Errorf("select legacy sessions: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read legacy columns: %w", err)
	}

	var (
		sessions []models.StudySession
		rejects  []error
	)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan legacy session: %w", err)
		}

		record := make(map[string]string, len(cols))
		for i, col := range cols {
			record[strings.ToLower(col)] = asString(values[i])
		}

		s, err := legacyRecord(record)
		if err != nil {
			rejects = append(rejects, err)
			continue
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate legacy sessions: %w", err)
	}
	return sessions, rejects, nil
}

func legacyRecord(rec map[string]string) (*models.StudySession, error) {
	s := &models.StudySession{
		ID:                   rec["id"],
		CreatedAt:            parseTimestamp(rec["created_at"]),
		Topic:                rec["topic"],
		Category:             rec["category"],
		Duration:             rec["duration"],
		Difficulty:           rec["difficulty"],
		FocusLevel:           rec["focus_level"],
		DailyWin:             rec["daily_win"],
		KeyLearnings:         rec["key_learnings"],
		Resources:            rec["resources"],
		Obstacles:            rec["obstacles"],
		NextSteps:            rec["next_steps"],
		PracticalApplication: rec["practical_application"],
	}
	if day, err := strconv.Atoi(rec["day"]); err == nil {
		s.Day = day
	}
	if rec["date"] != "" {
		date, err := models.ParseDate(rec["date"])
		if err != nil {
			return nil, errors.Join(models.ErrMalformedRecord, fmt.Errorf("session %q: %w", s.ID, err))
		}
		s.Date = date
	}
	if err := models.Normalize(s); err != nil {
		return nil, err
	}
	return s, nil
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
