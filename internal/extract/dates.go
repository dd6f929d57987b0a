package extract

import (
	"strings"
	"time"

	"github.com/ashureev/chorechat/internal/domain"
)

type relativeDay struct {
	phrase string
	offset int
}

// Longer phrases come first so "day after tomorrow" is not read as "tomorrow".
var relativeDays = []relativeDay{
	{"day after tomorrow", 2},
	{"i övermorgon", 2},
	{"övermorgon", 2},
	{"next week", 7},
	{"nästa vecka", 7},
	{"tomorrow", 1},
	{"i morgon", 1},
	{"imorgon", 1},
	{"tonight", 0},
	{"ikväll", 0},
	{"i kväll", 0},
	{"today", 0},
	{"i dag", 0},
	{"idag", 0},
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
	"måndag":    time.Monday,
	"tisdag":    time.Tuesday,
	"onsdag":    time.Wednesday,
	"torsdag":   time.Thursday,
	"fredag":    time.Friday,
	"lördag":    time.Saturday,
	"söndag":    time.Sunday,
}

var dateLayouts = []string{domain.DateLayout, time.RFC3339, "2006-01-02T15:04:05", "2006/01/02"}

// ParseDueDate reads an absolute date or a relative expression such as
// "tomorrow", "imorgon" or "friday" against today.
func ParseDueDate(s string, today time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, today.Location()); err == nil {
			return domain.DateOnly(t), true
		}
	}
	return ResolveRelative(s, today)
}

// ResolveRelative finds a relative day expression anywhere in text.
// Weekdays resolve to their next occurrence strictly after today.
func ResolveRelative(text string, today time.Time) (time.Time, bool) {
	lower := strings.ToLower(text)
	today = domain.DateOnly(today)

	for _, rd := range relativeDays {
		if containsWord(lower, rd.phrase) {
			return today.AddDate(0, 0, rd.offset), true
		}
	}
	for _, word := range strings.FieldsFunc(lower, isSeparator) {
		if wd, ok := weekdayNames[word]; ok {
			delta := (int(wd) - int(today.Weekday()) + 7) % 7
			if delta == 0 {
				delta = 7
			}
			return today.AddDate(0, 0, delta), true
		}
	}
	return time.Time{}, false
}

// containsWord reports whether phrase occurs in text bounded by non-letters.
func containsWord(text, phrase string) bool {
	for offset := 0; ; {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
	}
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r := []rune(text[:i])
	return isSeparator(r[len(r)-1])
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	for _, r := range text[i:] {
		return isSeparator(r)
	}
	return true
}
