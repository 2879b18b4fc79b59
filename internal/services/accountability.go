package services

import (
	"fmt"

	"studytracker-backend/internal/models"
)

type AccountabilityLevel string

const (
	LevelEmpty     AccountabilityLevel = "empty"
	LevelOK        AccountabilityLevel = "ok"
	LevelAttention AccountabilityLevel = "attention"
	LevelAction    AccountabilityLevel = "action"
)

type AccountabilityStatus struct {
	Level     AccountabilityLevel `json:"level"`
	DaysSince int                 `json:"days_since_last_study"`
	Message   string              `json:"message"`
}

// Accountability turns days-since-last-study into the nudge shown on the dashboard.
func Accountability(daysSince, totalSessions int) AccountabilityStatus {
	switch {
	case totalSessions == 0:
		return AccountabilityStatus{Level: LevelEmpty, DaysSince: daysSince, Message: "Comienza tu desafío registrando tu primera sesión."}
	case daysSince <= 0:
		return AccountabilityStatus{Level: LevelOK, DaysSince: 0, Message: "¡Excelente! Has estudiado hoy. Mantén el ritmo."}
	case daysSince == 1:
		return AccountabilityStatus{Level: LevelAttention, DaysSince: 1, Message: "Ayer no estudiaste. Vuelve a la rutina hoy."}
	default:
		return AccountabilityStatus{Level: LevelAction, DaysSince: daysSince, Message: fmt.Sprintf("Han pasado %d días sin estudiar. Es momento de retomar el desafío.", daysSince)}
	}
}

var milestoneMessages = map[int]string{
	10:  "¡Primer hito! Has completado 10 días. ¡Sigue así!",
	25:  "¡25 días completados! Estás en el cuarto del camino.",
	50:  "¡50 días! ¡Has llegado a la mitad del desafío!",
	75:  "¡75 días! Estás en la recta final.",
	100: "¡FELICIDADES! Has completado los 100 días. ¡Eres increíble!",
}

// Milestone returns the celebration message for exactly totalSessions sessions, if any.
func Milestone(totalSessions int) string {
	return milestoneMessages[totalSessions]
}

// ProgressPercent is the share of the challenge completed, capped at 100.
func ProgressPercent(totalSessions, challengeDays int) float64 {
	if challengeDays <= 0 {
		return 0
	}
	pct := float64(totalSessions) * 100 / float64(challengeDays)
	if pct > 100 {
		return 100
	}
	return pct
}

type Dashboard struct {
	TotalSessions      int                  `json:"total_sessions"`
	ChallengeDays      int                  `json:"challenge_days"`
	ProgressPercent    float64              `json:"progress_percent"`
	Streak             int                  `json:"streak"`
	DaysSinceLastStudy int                  `json:"days_since_last_study"`
	TotalMinutes       int                  `json:"total_minutes"`
	TotalStudiedTime   string               `json:"total_studied_time"`
	LastSession        *models.StudySession `json:"last_session,omitempty"`
	Accountability     AccountabilityStatus `json:"accountability"`
	Milestone          string               `json:"milestone,omitempty"`
}
