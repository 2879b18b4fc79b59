package services

import (
	"bytes"
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"studytracker-backend/internal/models"
)

const (
	ChartProgress   = "progress"
	ChartWeekday    = "weekday"
	ChartCategory   = "category"
	ChartDifficulty = "difficulty"
	ChartFocus      = "focus"
	ChartTopics     = "topics"
	ChartBalance    = "balance"

	topTopicsLimit = 10
	unspecified    = "Sin especificar"
	noDataMessage  = "No hay datos disponibles"
)

var ChartNames = []string{ChartProgress, ChartWeekday, ChartCategory, ChartDifficulty, ChartFocus, ChartTopics, ChartBalance}

// Monday first, as shown on the dashboard.
var weekdayOrder = [...]string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"}

var dataCategories = map[string]bool{"Data Analysis": true, "SQL": true, "Statistics": true, "Visualization": true}

type UnknownChartError struct{ Name string }

func (e *UnknownChartError) Error() string { return fmt.Sprintf("unknown chart %q", e.Name) }

// ChartSeries is one aggregated chart, ready to serialize or render.
type ChartSeries struct {
	Name   string   `json:"name"`
	Title  string   `json:"title"`
	Kind   string   `json:"kind"` // "bar" | "line"
	XLabel string   `json:"x_label"`
	YLabel string   `json:"y_label"`
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

func (c ChartSeries) Empty() bool { return len(c.Values) == 0 }

// BuildChart aggregates chronologically ordered sessions into the named chart.
func BuildChart(name string, sessions []models.StudySession) (ChartSeries, error) {
	switch name {
	case ChartProgress:
		return progressSeries(sessions), nil
	case ChartWeekday:
		return weekdaySeries(sessions), nil
	case ChartCategory:
		return countSeries(ChartCategory, "Distribución por Categoría", sessions, func(s models.StudySession) string { return s.Category }), nil
	case ChartDifficulty:
		return countSeries(ChartDifficulty, "Nivel de Dificultad", sessions, func(s models.StudySession) string { return s.Difficulty }), nil
	case ChartFocus:
		return countSeries(ChartFocus, "Nivel de Concentración", sessions, func(s models.StudySession) string { return s.FocusLevel }), nil
	case ChartTopics:
		return topTopicsSeries(sessions), nil
	case ChartBalance:
		return balanceSeries(sessions), nil
	default:
		return ChartSeries{}, &UnknownChartError{Name: name}
	}
}

func progressSeries(sessions []models.StudySession) ChartSeries {
	c := ChartSeries{Name: ChartProgress, Title: "Progreso del Desafío", Kind: "line", XLabel: "Fecha", YLabel: "Días Completados"}
	for i, s := range sessions {
		c.Labels = append(c.Labels, s.Date.String())
		c.Values = append(c.Values, i+1)
	}
	return c
}

func weekdaySeries(sessions []models.StudySession) ChartSeries {
	c := ChartSeries{Name: ChartWeekday, Title: "Distribución por Día de la Semana", Kind: "bar", XLabel: "Día de la Semana", YLabel: "Número de Sesiones"}
	if len(sessions) == 0 {
		return c
	}
	counts := make([]int, len(weekdayOrder))
	for _, s := range sessions {
		// time.Weekday starts on Sunday.
		counts[(int(s.Date.Weekday())+6)%7]++
	}
	c.Labels = append(c.Labels, weekdayOrder[:]...)
	c.Values = counts
	return c
}

// countSeries counts sessions per label in first-seen order.
func countSeries(name, title string, sessions []models.StudySession, label func(models.StudySession) string) ChartSeries {
	c := ChartSeries{Name: name, Title: title, Kind: "bar", YLabel: "Número de Sesiones"}
	index := map[string]int{}
	for _, s := range sessions {
		l := strings.TrimSpace(label(s))
		if l == "" {
			l = unspecified
		}
		i, ok := index[l]
		if !ok {
			i = len(c.Labels)
			index[l] = i
			c.Labels = append(c.Labels, l)
			c.Values = append(c.Values, 0)
		}
		c.Values[i]++
	}
	return c
}

func topTopicsSeries(sessions []models.StudySession) ChartSeries {
	all := countSeries(ChartTopics, "Temas Más Estudiados", sessions, func(s models.StudySession) string { return s.Topic })
	all.XLabel = "Frecuencia"

	order := make([]int, len(all.Labels))
	for i := range order {
		order[i] = i
	}
	// Stable keeps first-seen order among equal counts.
	sort.SliceStable(order, func(a, b int) bool { return all.Values[order[a]] > all.Values[order[b]] })
	if len(order) > topTopicsLimit {
		order = order[:topTopicsLimit]
	}

	top := all
	top.Labels, top.Values = nil, nil
	for _, i := range order {
		top.Labels = append(top.Labels, all.Labels[i])
		top.Values = append(top.Values, all.Values[i])
	}
	return top
}

func balanceSeries(sessions []models.StudySession) ChartSeries {
	c := ChartSeries{Name: ChartBalance, Title: "Balance Data Analytics vs Physics", Kind: "bar", YLabel: "Número de Sesiones"}
	if len(sessions) == 0 {
		return c
	}
	var data, physics, other int
	for _, s := range sessions {
		switch {
		case dataCategories[s.Category]:
			data++
		case s.Category == "Physics":
			physics++
		default:
			other++
		}
	}
	c.Labels = []string{"Data Analytics", "Physics"}
	c.Values = []int{data, physics}
	if other > 0 {
		c.Labels = append(c.Labels, "Otros")
		c.Values = append(c.Values, other)
	}
	return c
}

const (
	chartWidth  = 800
	chartHeight = 400
	chartMargin = 60
)

var (
	chartBackground = color.RGBA{0xF9, 0xFA, 0xFB, 0xFF}
	chartInk        = color.RGBA{0x1F, 0x29, 0x37, 0xFF}
	chartMuted      = color.RGBA{0x6B, 0x72, 0x80, 0xFF}
	chartAccent     = color.RGBA{0x4F, 0x46, 0xE5, 0xFF}
	chartAxis       = color.RGBA{0xD1, 0xD5, 0xDB, 0xFF}
)

// RenderChartPNG draws the series as a PNG bar or line chart.
func RenderChartPNG(c ChartSeries) ([]byte, error) {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetColor(chartBackground)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	if c.Empty() {
		dc.SetColor(chartMuted)
		dc.DrawStringAnchored(noDataMessage, chartWidth/2, chartHeight/2, 0.5, 0.5)
		return encodePNG(dc)
	}

	dc.SetColor(chartInk)
	dc.DrawStringAnchored(c.Title, chartWidth/2, chartMargin/2, 0.5, 0.5)

	left, right := float64(chartMargin), float64(chartWidth-chartMargin/2)
	top, bottom := float64(chartMargin), float64(chartHeight-chartMargin)

	dc.SetColor(chartAxis)
	dc.SetLineWidth(1)
	dc.DrawLine(left, bottom, right, bottom)
	dc.DrawLine(left, top, left, bottom)
	dc.Stroke()

	maxVal := 1
	for _, v := range c.Values {
		if v > maxVal {
			maxVal = v
		}
	}
	scale := (bottom - top) / float64(maxVal)
	slot := (right - left) / float64(len(c.Values))

	dc.SetColor(chartMuted)
	dc.DrawStringAnchored(fmt.Sprint(maxVal), left-8, top, 1, 0.5)
	dc.DrawStringAnchored("0", left-8, bottom, 1, 0.5)

	switch c.Kind {
	case "line":
		dc.SetColor(chartAccent)
		dc.SetLineWidth(3)
		for i, v := range c.Values {
			x := left + slot*(float64(i)+0.5)
			y := bottom - float64(v)*scale
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
		for i, v := range c.Values {
			dc.DrawCircle(left+slot*(float64(i)+0.5), bottom-float64(v)*scale, 4)
		}
		dc.Fill()
		drawEdgeLabels(dc, c.Labels, left, right, bottom)
	default:
		barWidth := slot * 0.7
		for i, v := range c.Values {
			x := left + slot*float64(i) + (slot-barWidth)/2
			h := float64(v) * scale
			dc.SetColor(chartAccent)
			dc.DrawRectangle(x, bottom-h, barWidth, h)
			dc.Fill()

			dc.SetColor(chartInk)
			dc.DrawStringAnchored(fmt.Sprint(v), x+barWidth/2, bottom-h-8, 0.5, 0.5)
			dc.SetColor(chartMuted)
			dc.DrawStringAnchored(shorten(c.Labels[i], int(slot/7)), x+barWidth/2, bottom+14, 0.5, 0.5)
		}
	}

	return encodePNG(dc)
}

// drawEdgeLabels prints the first and last x labels; dates in between would overlap.
func drawEdgeLabels(dc *gg.Context, labels []string, left, right, bottom float64) {
	if len(labels) == 0 {
		return
	}
	dc.SetColor(chartMuted)
	dc.DrawStringAnchored(labels[0], left, bottom+14, 0, 0.5)
	if len(labels) > 1 {
		dc.DrawStringAnchored(labels[len(labels)-1], right, bottom+14, 1, 0.5)
	}
}

func shorten(s string, max int) string {
	r := []rune(s)
	if max < 4 || len(r) <= max {
		return s
	}
	return string(r[:max-2]) + ".."
}

func encodePNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
