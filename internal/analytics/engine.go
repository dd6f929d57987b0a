package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/chorechat/internal/domain"
	"github.com/ashureev/chorechat/internal/lang"
	"github.com/ashureev/chorechat/internal/llm"
	"github.com/ashureev/chorechat/internal/llmjson"
	"github.com/ashureev/chorechat/internal/metrics"
	"github.com/ashureev/chorechat/internal/retry"
	"github.com/tidwall/gjson"
)

// Purpose labels analytics calls in logs, metrics and llm.Options.
const Purpose = "analytics_engine"

const (
	defaultModelConfidence = 0.5
	maxCharts              = 4
)

var errNoAnswer = errors.New("analytics reply has no answer")

// Engine answers analytics questions with the language model.
type Engine struct {
	client  llm.Client
	catalog *lang.Catalog
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records retries and fallbacks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCatalog sets the catalog used for the apology.
func WithCatalog(c *lang.Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// NewEngine creates an engine backed by client.
func NewEngine(client llm.Client, opts ...Option) *Engine {
	e := &Engine{
		client:  client,
		catalog: lang.Default(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", Purpose)
	return e
}

// Now returns the engine's clock reading.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Analyze never fails. Unusable replies are retried once, then answered with
// an apology at confidence 0.
func (e *Engine) Analyze(ctx context.Context, q domain.AnalyticsQuery, fc *domain.FamilyContext) domain.AnalyticsResponse {
	language := lang.Detect(q.Question)
	now := e.now()

	prompt, err := buildPrompt(q, Summarize(fc, q, now), language, now)
	if err != nil {
		e.logger.Error("build analytics prompt", "error", err)
		return e.apology(language)
	}

	policy := retry.ModelPolicy()
	policy.OnRetry = func(attempt int, err error) {
		e.metrics.IncRetry(Purpose)
		e.logger.Warn("analytics call failed, retrying", "attempt", attempt, "error", err)
	}

	resp, err := retry.Do(ctx, policy, func(ctx context.Context, _ int) (domain.AnalyticsResponse, error) {
		raw, err := e.client.Complete(ctx, prompt, llm.Options{
			Purpose:     Purpose,
			System:      systemPrompt,
			MaxTokens:   1500,
			Temperature: 0.3,
		})
		if err != nil {
			return domain.AnalyticsResponse{}, err
		}
		return decode(raw)
	})
	if err != nil {
		e.metrics.IncFallback(Purpose)
		e.logger.Warn("analytics degraded to apology", "error", err)
		return e.apology(language)
	}
	return resp
}

func (e *Engine) apology(language domain.Language) domain.AnalyticsResponse {
	return domain.AnalyticsResponse{
		Answer:     e.catalog.Render(language, lang.MsgAnalyticsApology, nil),
		Confidence: 0,
	}
}

// decode validates the reply envelope. Only a missing answer is fatal;
// malformed metrics and charts are dropped one by one.
func decode(raw string) (domain.AnalyticsResponse, error) {
	obj, err := llmjson.ExtractObject(raw)
	if err != nil {
		return domain.AnalyticsResponse{}, fmt.Errorf("decode analytics: %w", err)
	}
	answer := llmjson.String(obj, "answer")
	if answer == "" {
		return domain.AnalyticsResponse{}, fmt.Errorf("decode analytics: %w", errNoAnswer)
	}

	confidence, ok := llmjson.Float(obj, "confidence")
	if !ok {
		confidence = defaultModelConfidence
	}

	return domain.AnalyticsResponse{
		Answer: answer,
		Data: domain.AnalyticsData{
			Metrics:         decodeMetrics(obj.Get("metrics")),
			Insights:        llmjson.Strings(obj, "insights"),
			Recommendations: llmjson.Strings(obj, "recommendations"),
			Charts:          decodeCharts(obj.Get("charts")),
		},
		Confidence: domain.ClampConfidence(confidence),
	}, nil
}

func decodeMetrics(v gjson.Result) map[string]float64 {
	if !v.IsObject() {
		return nil
	}
	out := make(map[string]float64)
	v.ForEach(func(key, value gjson.Result) bool {
		if f, ok := llmjson.Number(value); ok {
			out[key.String()] = f
		}
		return true
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

func decodeCharts(v gjson.Result) []domain.ChartSpec {
	if !v.IsArray() {
		return nil
	}
	var out []domain.ChartSpec
	for _, item := range v.Array() {
		if len(out) == maxCharts {
			break
		}
		if chart, ok := decodeChart(item); ok {
			out = append(out, chart)
		}
	}
	return out
}

func decodeChart(item gjson.Result) (domain.ChartSpec, bool) {
	chartType := domain.ChartType(strings.ToLower(llmjson.String(item, "type")))
	switch chartType {
	case domain.ChartBar, domain.ChartLine, domain.ChartPie:
	default:
		return domain.ChartSpec{}, false
	}

	var (
		labels []string
		values []float64
	)
	if points := item.Get("data"); points.IsArray() {
		for _, p := range points.Array() {
			value, ok := llmjson.Float(p, "value")
			label := llmjson.String(p, "label")
			if !ok || label == "" {
				return domain.ChartSpec{}, false
			}
			labels = append(labels, label)
			values = append(values, value)
		}
	} else {
		labels = llmjson.Strings(item, "labels")
		for _, raw := range item.Get("values").Array() {
			f, ok := llmjson.Number(raw)
			if !ok {
				return domain.ChartSpec{}, false
			}
			values = append(values, f)
		}
	}
	if len(labels) == 0 || len(labels) != len(values) {
		return domain.ChartSpec{}, false
	}

	return domain.ChartSpec{
		Type:   chartType,
		Title:  llmjson.String(item, "title"),
		Labels: labels,
		Values: values,
	}, true
}
