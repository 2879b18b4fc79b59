package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

type DurationUnit string

const (
	UnitHour   DurationUnit = "hour"
	UnitMinute DurationUnit = "minute"
)

// Unit words are matched as substrings of the case-folded text, so plurals
// ("horas", "minutes") match too. Hours are checked before minutes.
var (
	hourWords   = []string{"hora", "hour"}
	minuteWords = []string{"minuto", "minute"}
	quantityRe  = regexp.MustCompile(`\d+`)
	foldCaser   = cases.Fold()
)

// StudyDuration is the interpretation of a free-text duration: the first integer in the
// text, read in the first unit found.
type StudyDuration struct {
	Quantity int
	Unit     DurationUnit
	Minutes  int
}

type DurationParseError struct {
	Text   string
	Reason string
}

func (e *DurationParseError) Error() string {
	return fmt.Sprintf("duration %q: %s", e.Text, e.Reason)
}

func (e *DurationParseError) Unwrap() error { return ErrParseFailure }

// ParseDuration reads text such as "2 horas" or "45 minutes". Only one quantity and one
// unit are read: "1 hora 30 minutos" is 60 minutes and "1h 30min" has no unit word at all.
func ParseDuration(text string) (StudyDuration, error) {
	folded := foldCaser.String(text)

	var unit DurationUnit
	switch {
	case containsAny(folded, hourWords):
		unit = UnitHour
	case containsAny(folded, minuteWords):
		unit = UnitMinute
	default:
		return StudyDuration{}, &DurationParseError{Text: text, Reason: "no hour or minute unit"}
	}

	match := quantityRe.FindString(folded)
	if match == "" {
		return StudyDuration{}, &DurationParseError{Text: text, Reason: "no quantity"}
	}
	quantity, err := strconv.Atoi(match)
	if err != nil {
		return StudyDuration{}, &DurationParseError{Text: text, Reason: "quantity out of range"}
	}

	d := StudyDuration{Quantity: quantity, Unit: unit, Minutes: quantity}
	if unit == UnitHour {
		if quantity > math.MaxInt/60 {
			return StudyDuration{}, &DurationParseError{Text: text, Reason: "quantity out of range"}
		}
		d.Minutes = quantity * 60
	}
	return d, nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
