package lang

import (
	"testing"

	"github.com/ashureev/chorechat/internal/domain"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  domain.Language
	}{
		{"english sentence", "Tomorrow Erik cleans his room and does homework", domain.LanguageEnglish},
		{"english question", "Who has the most points this week?", domain.LanguageEnglish},
		{"swedish letters decide", "Städa rummet", domain.LanguageSwedish},
		{"swedish letters beat english words", "Please städa the room and the kitchen", domain.LanguageSwedish},
		{"swedish keywords without letters", "Hej, vem har flest poeng idag och imorgon?", domain.LanguageSwedish},
		{"empty", "   ", domain.LanguageUnknown},
		{"no signal", "12345 ???", domain.LanguageUnknown},
		{"greeting", "Hi", domain.LanguageEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Detect(tt.input))
		})
	}
}

func TestDetectAnySwedishLetterIsDecisive(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		prefix := rapid.String().Draw(t, "prefix")
		letter := rapid.SampledFrom([]string{"å", "ä", "ö", "Å", "Ä", "Ö"}).Draw(t, "letter")
		suffix := rapid.String().Draw(t, "suffix")
		if got := Detect(prefix + letter + suffix); got != domain.LanguageSwedish {
			t.Fatalf("Detect(%q) = %s, want sv", prefix+letter+suffix, got)
		}
	})
}

func TestDetectNeverPanics(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		got := Detect(rapid.String().Draw(t, "input"))
		switch got {
		case domain.LanguageEnglish, domain.LanguageSwedish, domain.LanguageUnknown:
		default:
			t.Fatalf("unexpected language %q", got)
		}
	})
}

func TestLanguageOrDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.LanguageEnglish, domain.LanguageUnknown.OrDefault())
	assert.Equal(t, domain.LanguageSwedish, domain.LanguageSwedish.OrDefault())
	assert.Equal(t, domain.LanguageEnglish, domain.Language("").OrDefault())
}
