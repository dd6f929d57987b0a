package intent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ashureev/chorechat/internal/domain"
	"github.com/ashureev/chorechat/internal/domain/domaintest"
	"github.com/ashureev/chorechat/internal/llm/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestClassifyUsesModelVerdict(t *testing.T) {
	t.Parallel()

	stub := llmtest.Always("```json\n{\"intent\":\"CREATE_TASKS\",\"confidence\":0.92,\"reasoning\":\"chores listed\",\"suggestedAction\":\"extract tasks\"}\n```")
	r := NewRouter(stub)

	got := r.Classify(context.Background(), "Tomorrow Erik cleans his room", domaintest.Family(domaintest.Now), nil)

	assert.Equal(t, domain.IntentCreateTasks, got.Intent)
	assert.InDelta(t, 0.92, got.Confidence, 1e-9)
	assert.Equal(t, "chores listed", got.Reasoning)
	assert.Equal(t, "extract tasks", got.SuggestedAction)
	assert.Equal(t, domain.LanguageEnglish, got.DetectedLanguage)
	assert.False(t, got.Fallback)
	assert.Equal(t, 1, stub.CallCount())
}

func TestClassifyIgnoresTrailingProse(t *testing.T) {
	t.Parallel()

	stub := llmtest.Always("{\"intent\":\"CREATE_TASKS\",\"confidence\":0.9}\nI picked this because the message mentions {chores}.")
	got := NewRouter(stub).Classify(context.Background(), "Erik cleans his room", domaintest.Family(domaintest.Now), nil)

	assert.Equal(t, domain.IntentCreateTasks, got.Intent)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	assert.False(t, got.Fallback)
	assert.Equal(t, 1, stub.CallCount())
}

func TestClassifyPromptCarriesRosterAndHistoryWindow(t *testing.T) {
	t.Parallel()

	stub := llmtest.Always(`{"intent":"QUERY_TASKS","confidence":0.8}`)
	r := NewRouter(stub, WithHistoryWindow(2))

	history := []domain.ConversationMessage{
		{Role: domain.RoleUser, Content: "first message"},
		{Role: domain.RoleAssistant, Content: "second message"},
		{Role: domain.RoleUser, Content: "third message"},
	}
	r.Classify(context.Background(), "What does Anna have?", domaintest.Family(domaintest.Now), history)

	calls := stub.Calls()
	require.Len(t, calls, 1)
	prompt := calls[0].Prompt
	assert.Contains(t, prompt, "Erik (child)")
	assert.Contains(t, prompt, "Sara (parent)")
	assert.Contains(t, prompt, "Active tasks: 5")
	assert.NotContains(t, prompt, "first message")
	assert.Contains(t, prompt, "second message")
	assert.Contains(t, prompt, "third message")
	assert.Equal(t, Purpose, calls[0].Opts.Purpose)
}

func TestClassifyInvalidIntentBecomesClarification(t *testing.T) {
	t.Parallel()

	r := NewRouter(llmtest.Always(`{"intent":"ORDER_PIZZA","confidence":3.5}`))
	got := r.Classify(context.Background(), "order pizza", nil, nil)

	assert.Equal(t, domain.IntentClarification, got.Intent)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestClassifyMissingConfidenceDefaults(t *testing.T) {
	t.Parallel()

	r := NewRouter(llmtest.Always(`{"intent":"general chat"}`))
	got := r.Classify(context.Background(), "hello", nil, nil)

	assert.Equal(t, domain.IntentGeneralChat, got.Intent)
	assert.Equal(t, defaultModelConfidence, got.Confidence)
}

func TestClassifyRetriesOnceThenSucceeds(t *testing.T) {
	t.Parallel()

	stub := llmtest.New(llmtest.Text("not json at all"), llmtest.Text(`{"intent":"ANALYZE_DATA","confidence":0.7}`))
	got := NewRouter(stub).Classify(context.Background(), "How are the kids doing?", nil, nil)

	assert.Equal(t, domain.IntentAnalyzeData, got.Intent)
	assert.False(t, got.Fallback)
	assert.Equal(t, 2, stub.CallCount())
}

func TestClassifyDegradesAfterTwoFailures(t *testing.T) {
	t.Parallel()

	for _, stub := range []*llmtest.Stub{llmtest.AlwaysFail(), llmtest.Always("I think it is about chores")} {
		got := NewRouter(stub).Classify(context.Background(), "Erik cleans his room tomorrow for 5 points", domaintest.Family(domaintest.Now), nil)

		assert.Equal(t, 2, stub.CallCount())
		assert.True(t, got.Fallback)
		assert.Equal(t, domain.IntentCreateTasks, got.Intent)
		assert.GreaterOrEqual(t, got.Confidence, fallbackMinConfidence)
		assert.LessOrEqual(t, got.Confidence, fallbackMaxConfidence)
	}
}

func TestClassifyEmptyUtteranceSkipsModel(t *testing.T) {
	t.Parallel()

	stub := llmtest.AlwaysFail()
	got := NewRouter(stub).Classify(context.Background(), "   ", nil, nil)

	assert.Equal(t, domain.IntentClarification, got.Intent)
	assert.GreaterOrEqual(t, got.Confidence, 0.5)
	assert.Zero(t, stub.CallCount())
}

func TestClassifyConfidenceAlwaysInRange(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		conf := rapid.Float64().Draw(t, "confidence")
		name := rapid.SampledFrom([]string{"CREATE_TASKS", "QUERY_TASKS", "nonsense", "", "analyze data"}).Draw(t, "intent")
		stub := llmtest.Always(fmt.Sprintf(`{"intent":%q,"confidence":%g}`, name, conf))

		got := NewRouter(stub).Classify(context.Background(), rapid.StringMatching(`[a-z ]{1,30}`).Draw(t, "utterance"), nil, nil)
		if got.Confidence < 0 || got.Confidence > 1 {
			t.Fatalf("confidence %v out of range", got.Confidence)
		}
		valid := false
		for _, in := range domain.Intents {
			valid = valid || in == got.Intent
		}
		if !valid {
			t.Fatalf("intent %q outside enum", got.Intent)
		}
	})
}

func TestClassifyAlwaysAnswersWhenModelIsDown(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		utterance := rapid.String().Draw(t, "utterance")
		if strings.TrimSpace(utterance) == "" {
			return
		}
		got := NewRouter(llmtest.AlwaysFail()).Classify(context.Background(), utterance, nil, nil)
		if got.Confidence < fallbackMinConfidence || got.Confidence > fallbackMaxConfidence {
			t.Fatalf("fallback confidence %v out of band", got.Confidence)
		}
	})
}
