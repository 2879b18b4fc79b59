package services

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"studytracker-backend/internal/models"
)

func sampleSession() models.StudySession {
	return models.StudySession{
		ID:           "s1",
		Day:          12,
		Date:         models.NewDate(2025, 1, 1),
		Topic:        "Window functions",
		Category:     "SQL",
		Duration:     "2 horas",
		DailyWin:     "ROW_NUMBER por fin",
		KeyLearnings: "PARTITION BY resetea el contador",
	}
}

func TestFormatSpanishDate(t *testing.T) {
	tests := []struct {
		date models.Date
		want string
	}{
		{models.NewDate(2025, 1, 1), "Miércoles, 1 de enero de 2025"},
		{models.NewDate(2024, 12, 29), "Domingo, 29 de diciembre de 2024"},
		{models.NewDate(2025, 9, 15), "Lunes, 15 de septiembre de 2025"},
		{models.Date{}, "Fecha no disponible"},
	}
	for _, tc := range tests {
		if got := FormatSpanishDate(tc.date); got != tc.want {
			t.Errorf("FormatSpanishDate(%s) = %q, want %q", tc.date, got, tc.want)
		}
	}
}

func TestGenerateSocialPost(t *testing.T) {
	post := GenerateSocialPost(sampleSession(), 100)

	for _, want := range []string{
		"🚀 Día 12/100",
		"📊 Categoría: SQL",
		"📚 Tema: Window functions",
		"⏱️ Duración: 2 horas",
		"PARTITION BY resetea el contador",
		"🏆 Victoria del día: ROW_NUMBER por fin",
		"#100DaysOfLearning",
	} {
		if !strings.Contains(post, want) {
			t.Errorf("post missing %q:\n%s", want, post)
		}
	}
}

func TestGenerateSocialPost_TruncatesLearnings(t *testing.T) {
	s := sampleSession()
	s.KeyLearnings = strings.Repeat("á", 250)

	post := GenerateSocialPost(s, 100)
	if !strings.Contains(post, strings.Repeat("á", 200)+"...") {
		t.Fatalf("expected learnings truncated to 200 runes")
	}
	if strings.Contains(post, strings.Repeat("á", 201)) {
		t.Fatalf("expected no more than 200 runes of learnings")
	}
}

func TestGenerateSocialPost_Defaults(t *testing.T) {
	post := GenerateSocialPost(models.StudySession{Day: 1}, 100)
	for _, want := range []string{"Sin tema", "Sin aprendizajes registrados", "Sin victoria del día", "Tiempo indeterminado"} {
		if !strings.Contains(post, want) {
			t.Errorf("post missing default %q", want)
		}
	}
}

func TestGenerateArticle(t *testing.T) {
	article, err := GenerateArticle(sampleSession(), 100)
	if err != nil {
		t.Fatalf("GenerateArticle: %v", err)
	}

	parts := strings.SplitN(article, "---\n", 3)
	if len(parts) != 3 || parts[0] != "" {
		t.Fatalf("expected leading front matter block, got:\n%s", article)
	}
	var fm articleFrontMatter
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		t.Fatalf("front matter is not valid yaml: %v", err)
	}
	if fm.Title != "Día 12/100: Window functions" || fm.Category != "SQL" || fm.Date != "Miércoles, 1 de enero de 2025" {
		t.Fatalf("unexpected front matter: %+v", fm)
	}

	for _, want := range []string{
		"💾 # Día 12 - Window functions",
		"## ✨ Aprendizajes Clave\n\nPARTITION BY resetea el contador",
		"## 📖 Recursos Utilizados\n\nNo especificados",
		"**Progreso del desafío:** 12/100 días completados",
	} {
		if !strings.Contains(article, want) {
			t.Errorf("article missing %q", want)
		}
	}
}

func TestPostSummaryAndFilename(t *testing.T) {
	s := sampleSession()
	if got := PostSummary(s, 100); got != "Día 12/100 | SQL | Window functions" {
		t.Fatalf("PostSummary() = %q", got)
	}
	if got := ArticleFilename(s); got != "día_12_2025-01-01_medium.md" {
		t.Fatalf("ArticleFilename() = %q", got)
	}
}
