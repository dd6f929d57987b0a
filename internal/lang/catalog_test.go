package lang

import (
	"testing"

	"github.com/ashureev/chorechat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogHasEveryKeyInBothLanguages(t *testing.T) {
	t.Parallel()

	keys := []string{
		MsgApology, MsgAnalyticsApology, MsgTasksReady, MsgTasksClarify, MsgTasksNone,
		MsgCapability, MsgGreeting, MsgFarewell, MsgThanks, MsgChatRedirect,
		MsgQuestionAssigneeUnknown, MsgQuestionAssigneeMissing, MsgQuestionPoints, MsgQuestionDueDate,
	}
	c := Default()
	for _, language := range []domain.Language{domain.LanguageEnglish, domain.LanguageSwedish} {
		for _, key := range keys {
			_, ok := c.templates[language][key]
			assert.Truef(t, ok, "missing %s/%s", language, key)
		}
	}
}

func TestRenderTasksReady(t *testing.T) {
	t.Parallel()

	c := Default()
	got := c.Render(domain.LanguageEnglish, MsgTasksReady, map[string]any{"Count": 1, "Titles": "Clean room"})
	assert.Contains(t, got, "1 task for your review")
	assert.Contains(t, got, "Clean room")

	got = c.Render(domain.LanguageSwedish, MsgTasksReady, map[string]any{"Count": 2, "Titles": "Diska, Städa"})
	assert.Contains(t, got, "2 uppgifter")
}

func TestRenderUnknownLanguageUsesEnglish(t *testing.T) {
	t.Parallel()

	c := Default()
	assert.Equal(t, c.Render(domain.LanguageEnglish, MsgApology, nil), c.Render(domain.LanguageUnknown, MsgApology, nil))
}

func TestRenderMissingKeyReturnsKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "nope", Default().Render(domain.LanguageEnglish, "nope", nil))
}

func TestActionsFallBackToEnglishAndCopy(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(`
en:
  messages:
    apology: "sorry"
  actions:
    apology: ["Try again"]
sv:
  messages:
    apology: "förlåt"
`))
	require.NoError(t, err)

	got := c.Actions(domain.LanguageSwedish, ActionsApology)
	require.Equal(t, []string{"Try again"}, got)
	got[0] = "mutated"
	assert.Equal(t, []string{"Try again"}, c.Actions(domain.LanguageEnglish, ActionsApology))
	assert.Equal(t, "förlåt", c.Render(domain.LanguageSwedish, MsgApology, nil))
}

func TestParseRejectsCatalogWithoutEnglish(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("sv:\n  messages:\n    apology: x\n"))
	assert.Error(t, err)
}
