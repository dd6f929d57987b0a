// Package intent decides what a family message is asking the assistant to do.
package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/chorechat/internal/domain"
	"github.com/ashureev/chorechat/internal/lang"
	"github.com/ashureev/chorechat/internal/llm"
	"github.com/ashureev/chorechat/internal/llmjson"
	"github.com/ashureev/chorechat/internal/metrics"
	"github.com/ashureev/chorechat/internal/retry"
)

// Purpose labels router calls in logs, metrics and llm.Options.
const Purpose = "intent_router"

// DefaultHistoryWindow is how many trailing messages are shown to the model.
const DefaultHistoryWindow = 6

const (
	defaultModelConfidence = 0.5
	emptyConfidence        = 0.6
)

// Router classifies utterances with the language model and degrades to keyword patterns.
type Router struct {
	client        llm.Client
	metrics       *metrics.Metrics
	logger        *slog.Logger
	historyWindow int
}

// Option configures a Router.
type Option func(*Router)

// WithMetrics records retries, fallbacks and verdicts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithHistoryWindow sets how many prior messages the prompt includes.
func WithHistoryWindow(n int) Option {
	return func(r *Router) { r.historyWindow = n }
}

// NewRouter creates a router backed by client.
func NewRouter(client llm.Client, opts ...Option) *Router {
	r := &Router{
		client:        client,
		logger:        slog.Default(),
		historyWindow: DefaultHistoryWindow,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", Purpose)
	return r
}

// Classify never fails: model trouble is retried once, then answered by keyword patterns.
func (r *Router) Classify(ctx context.Context, utterance string, fc *domain.FamilyContext, history []domain.ConversationMessage) domain.IntentAnalysis {
	language := lang.Detect(utterance)

	if strings.TrimSpace(utterance) == "" {
		analysis := domain.IntentAnalysis{
			Intent:           domain.IntentClarification,
			Confidence:       emptyConfidence,
			Reasoning:        "empty message",
			DetectedLanguage: language,
		}
		r.metrics.ObserveIntent(string(analysis.Intent), false)
		return analysis
	}

	prompt := buildPrompt(utterance, fc, trimHistory(history, r.historyWindow), language)
	policy := retry.ModelPolicy()
	policy.OnRetry = func(attempt int, err error) {
		r.metrics.IncRetry(Purpose)
		r.logger.Warn("intent classification failed, retrying", "attempt", attempt, "error", err)
	}

	analysis, err := retry.Do(ctx, policy, func(ctx context.Context, _ int) (domain.IntentAnalysis, error) {
		raw, err := r.client.Complete(ctx, prompt, llm.Options{
			Purpose:     Purpose,
			System:      systemPrompt,
			MaxTokens:   300,
			Temperature: 0.1,
		})
		if err != nil {
			return domain.IntentAnalysis{}, err
		}
		return decode(raw)
	})
	if err != nil {
		r.metrics.IncFallback(Purpose)
		r.logger.Warn("intent classification degraded to keyword patterns", "error", err)
		analysis = Fallback(utterance, language)
		r.metrics.ObserveIntent(string(analysis.Intent), true)
		return analysis
	}

	analysis.DetectedLanguage = language
	r.metrics.ObserveIntent(string(analysis.Intent), false)
	return analysis
}

// decode validates a model reply. A missing or unknown intent is not an error;
// it becomes CLARIFICATION. Only a reply without a usable JSON object fails.
func decode(raw string) (domain.IntentAnalysis, error) {
	obj, err := llmjson.ExtractObject(raw)
	if err != nil {
		return domain.IntentAnalysis{}, fmt.Errorf("decode intent: %w", err)
	}

	in, _ := domain.ParseIntent(llmjson.String(obj, "intent"))
	confidence, ok := llmjson.Float(obj, "confidence")
	if !ok {
		confidence = defaultModelConfidence
	}

	suggested := llmjson.String(obj, "suggestedAction")
	if suggested == "" {
		suggested = llmjson.String(obj, "suggested_action")
	}

	return domain.IntentAnalysis{
		Intent:          in,
		Confidence:      domain.ClampConfidence(confidence),
		Reasoning:       llmjson.String(obj, "reasoning"),
		SuggestedAction: suggested,
	}, nil
}
