package services

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"studytracker-backend/internal/models"
)

const socialLearningsLimit = 200

var (
	spanishMonths = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
		"agosto", "septiembre", "octubre", "noviembre", "diciembre"}
	// Indexed by time.Weekday, Sunday first.
	spanishWeekdays = [...]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"}

	categoryEmoji = map[string]string{
		"Data Analysis": "📊",
		"Physics":       "⚛️",
		"Statistics":    "📈",
		"SQL":           "💾",
		"Visualization": "📈",
		"Mixed":         "🎯",
	}
)

// FormatSpanishDate renders a date as "Miércoles, 1 de enero de 2025".
func FormatSpanishDate(d models.Date) string {
	if d.IsZero() {
		return "Fecha no disponible"
	}
	return fmt.Sprintf("%s, %d de %s de %d", spanishWeekdays[d.Weekday()], d.Day(), spanishMonths[d.Month()-1], d.Year())
}

func GenerateSocialPost(s models.StudySession, challengeDays int) string {
	learnings := truncateRunes(or(s.KeyLearnings, "Sin aprendizajes registrados"), socialLearningsLimit)

	return fmt.Sprintf(`🚀 Día %d/%d - Mejorando como Data Analyst

📊 Categoría: %s
📚 Tema: %s
⏱️ Duración: %s

✨ Aprendizajes clave:
%s

🏆 Victoria del día: %s

#100DaysOfLearning #DataAnalytics #Physics #Python #SQL #DataScience`,
		s.Day, challengeDays,
		or(s.Category, "General"),
		or(s.Topic, "Sin tema"),
		or(s.Duration, "Tiempo indeterminado"),
		learnings,
		or(s.DailyWin, "Sin victoria del día"),
	)
}

type articleFrontMatter struct {
	Title    string `yaml:"title"`
	Date     string `yaml:"date"`
	Category string `yaml:"category"`
}

// GenerateArticle drafts a long-form Markdown post with YAML front matter.
func GenerateArticle(s models.StudySession, challengeDays int) (string, error) {
	topic := or(s.Topic, "Sin tema")
	category := or(s.Category, "General")
	date := FormatSpanishDate(s.Date)

	fm, err := yaml.Marshal(articleFrontMatter{
		Title:    fmt.Sprintf("Día %d/%d: %s", s.Day, challengeDays, topic),
		Date:     date,
		Category: category,
	})
	if err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}

	emoji, ok := categoryEmoji[category]
	if !ok {
		emoji = "📚"
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "%s # Día %d - %s\n\n%s\n\n---\n\n", emoji, s.Day, topic, date)

	sections := []struct{ heading, body string }{
		{"⏱️ Tiempo Dedicado", or(s.Duration, "Tiempo indeterminado")},
		{"📚 Categoría", category},
		{"🎯 Tema de Hoy", topic},
		{"✨ Aprendizajes Clave", or(s.KeyLearnings, "Por definir")},
		{"🏆 Victoria del Día", or(s.DailyWin, "Por definir")},
		{"📖 Recursos Utilizados", or(s.Resources, "No especificados")},
		{"🤔 Obstáculos Enfrentados", or(s.Obstacles, "Ninguno especificado")},
		{"🚀 Próximos Pasos", or(s.NextSteps, "Por definir")},
		{"💼 Aplicación Práctica", or(s.PracticalApplication, "Por definir")},
	}
	for _, sec := range sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", sec.heading, sec.body)
	}

	b.WriteString("---\n\n## 📝 Reflexión Personal\n\n[Tu reflexión personal aquí]\n\n---\n\n")
	fmt.Fprintf(&b, "**Progreso del desafío:** %d/%d días completados\n\n", s.Day, challengeDays)
	b.WriteString("#100DaysOfLearning #DataAnalytics #Physics #DataScience")

	return b.String(), nil
}

// PostSummary is the one-line preview of a social post.
func PostSummary(s models.StudySession, challengeDays int) string {
	return fmt.Sprintf("Día %d/%d | %s | %s", s.Day, challengeDays, or(s.Category, "General"), or(s.Topic, "Sin tema"))
}

func ArticleFilename(s models.StudySession) string {
	return fmt.Sprintf("día_%d_%s_medium.md", s.Day, s.Date)
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func or(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
