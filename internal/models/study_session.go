package models

import (
	"errors"
	"strings"
	"time"
)

const (
	DefaultCategory   = "Mixed"
	DefaultDifficulty = "Medio"
	DefaultFocusLevel = "Medio"
)

var (
	Categories   = []string{"Data Analysis", "Physics", "Statistics", "SQL", "Visualization", "Mixed"}
	Difficulties = []string{"Muy fácil", "Fácil", "Medio", "Difícil", "Muy difícil"}
	FocusLevels  = []string{"Muy bajo", "Bajo", "Medio", "Alto", "Excelente"}
)

var ErrMalformedRecord = errors.New("malformed study session record")

// StudySession is one logged study event. ID and CreatedAt never change after creation;
// Day is derived from the chronological order of the whole set.
type StudySession struct {
	ID                   string    `json:"id"`
	Day                  int       `json:"day"`
	Date                 Date      `json:"date"`
	CreatedAt            time.Time `json:"created_at"`
	Topic                string    `json:"topic"`
	Category             string    `json:"category"`
	Duration             string    `json:"duration"`
	Difficulty           string    `json:"difficulty"`
	FocusLevel           string    `json:"focus_level"`
	DailyWin             string    `json:"daily_win"`
	KeyLearnings         string    `json:"key_learnings"`
	Resources            string    `json:"resources"`
	Obstacles            string    `json:"obstacles"`
	NextSteps            string    `json:"next_steps"`
	PracticalApplication string    `json:"practical_application"`
}

// SessionPayload carries the mutable fields of a session as submitted by a client.
type SessionPayload struct {
	Date                 Date   `json:"date"`
	Topic                string `json:"topic"`
	Category             string `json:"category"`
	Duration             string `json:"duration"`
	Difficulty           string `json:"difficulty"`
	FocusLevel           string `json:"focus_level"`
	DailyWin             string `json:"daily_win"`
	KeyLearnings         string `json:"key_learnings"`
	Resources            string `json:"resources"`
	Obstacles            string `json:"obstacles"`
	NextSteps            string `json:"next_steps"`
	PracticalApplication string `json:"practical_application"`
}

// Apply copies the payload onto s, filling defaults for blank enumerations.
func (p SessionPayload) Apply(s *StudySession) {
	s.Date = p.Date
	s.Topic = strings.TrimSpace(p.Topic)
	s.Category = orDefault(p.Category, DefaultCategory)
	s.Duration = strings.TrimSpace(p.Duration)
	s.Difficulty = orDefault(p.Difficulty, DefaultDifficulty)
	s.FocusLevel = orDefault(p.FocusLevel, DefaultFocusLevel)
	s.DailyWin = strings.TrimSpace(p.DailyWin)
	s.KeyLearnings = strings.TrimSpace(p.KeyLearnings)
	s.Resources = strings.TrimSpace(p.Resources)
	s.Obstacles = strings.TrimSpace(p.Obstacles)
	s.NextSteps = strings.TrimSpace(p.NextSteps)
	s.PracticalApplication = strings.TrimSpace(p.PracticalApplication)
}

// Normalize validates a record coming out of (or going into) a store. Records without an id
// or a date are rejected; a missing created_at defaults to midnight UTC of the study date so
// legacy rows still order deterministically.
func Normalize(s *StudySession) error {
	s.ID = strings.TrimSpace(s.ID)
	if s.ID == "" {
		return errors.Join(ErrMalformedRecord, errors.New("missing id"))
	}
	if s.Date.IsZero() {
		return errors.Join(ErrMalformedRecord, errors.New("missing date for "+s.ID))
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = s.Date.Time()
	}
	if s.Day < 0 {
		s.Day = 0
	}
	return nil
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
