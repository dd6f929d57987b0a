// Package assistant runs one conversation turn: it classifies the message,
// hands it to the component that can answer it and assembles the reply.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"strings"
	"time"

	"github.com/ashureev/chorechat/internal/analytics"
	"github.com/ashureev/chorechat/internal/domain"
	"github.com/ashureev/chorechat/internal/extract"
	"github.com/ashureev/chorechat/internal/intent"
	"github.com/ashureev/chorechat/internal/lang"
	"github.com/ashureev/chorechat/internal/llm"
	"github.com/ashureev/chorechat/internal/metrics"
)

// Classifier decides the intent of a message.
type Classifier interface {
	Classify(ctx context.Context, utterance string, fc *domain.FamilyContext, history []domain.ConversationMessage) domain.IntentAnalysis
}

// TaskExtractor turns a message into task proposals.
type TaskExtractor interface {
	Extract(ctx context.Context, utterance string, fc *domain.FamilyContext, ov extract.Overrides) extract.Result
}

// Analyzer answers analytics questions.
type Analyzer interface {
	Analyze(ctx context.Context, q domain.AnalyticsQuery, fc *domain.FamilyContext) domain.AnalyticsResponse
}

// Orchestrator is the entry point for conversation turns. It is safe for
// concurrent use; it keeps no state between turns.
type Orchestrator struct {
	router    Classifier
	extractor TaskExtractor
	analyzer  Analyzer
	catalog   *lang.Catalog
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records turn counts and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock replaces time.Now for quick stats.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithCatalog sets the reply catalog.
func WithCatalog(c *lang.Catalog) Option {
	return func(o *Orchestrator) { o.catalog = c }
}

// New creates an orchestrator from its components.
func New(router Classifier, extractor TaskExtractor, analyzer Analyzer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		router:    router,
		extractor: extractor,
		analyzer:  analyzer,
		catalog:   lang.Default(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "orchestrator")
	return o
}

// PipelineConfig holds what NewPipeline shares between components.
type PipelineConfig struct {
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	Catalog       *lang.Catalog
	Clock         func() time.Time
	HistoryWindow int
}

// NewPipeline wires a router, extractor and analytics engine around one model client.
func NewPipeline(client llm.Client, cfg PipelineConfig) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = lang.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = intent.DefaultHistoryWindow
	}

	router := intent.NewRouter(client,
		intent.WithMetrics(cfg.Metrics),
		intent.WithLogger(cfg.Logger),
		intent.WithHistoryWindow(cfg.HistoryWindow),
	)
	extractor := extract.New(client,
		extract.WithMetrics(cfg.Metrics),
		extract.WithLogger(cfg.Logger),
		extract.WithCatalog(cfg.Catalog),
		extract.WithClock(cfg.Clock),
	)
	engine := analytics.NewEngine(client,
		analytics.WithMetrics(cfg.Metrics),
		analytics.WithLogger(cfg.Logger),
		analytics.WithCatalog(cfg.Catalog),
		analytics.WithClock(cfg.Clock),
	)
	return New(router, extractor, engine,
		WithMetrics(cfg.Metrics),
		WithLogger(cfg.Logger),
		WithCatalog(cfg.Catalog),
		WithClock(cfg.Clock),
	)
}

// TurnOption carries caller overrides for one turn.
type TurnOption func(*extract.Overrides)

// WithTargetDate sets the due date used when a task names none.
func WithTargetDate(t time.Time) TurnOption {
	return func(ov *extract.Overrides) { ov.TargetDate = t }
}

// WithDefaultPoints sets the points used when a task names none.
func WithDefaultPoints(p int) TurnOption {
	return func(ov *extract.Overrides) { ov.DefaultPoints = p }
}

// Handle answers one message. It always returns a usable response; a
// panicking component is turned into an apology.
func (o *Orchestrator) Handle(ctx context.Context, utterance string, fc *domain.FamilyContext, history []domain.ConversationMessage, opts ...TurnOption) domain.ConversationResponse {
	start := time.Now()
	language := lang.Detect(utterance).OrDefault()

	var ov extract.Overrides
	for _, opt := range opts {
		opt(&ov)
	}

	resp := o.safeTurn(ctx, utterance, fc, history, language, ov)

	familyID := ""
	if fc != nil {
		familyID = fc.FamilyID
	}
	o.metrics.ObserveTurn(string(resp.Intent), string(resp.Language), time.Since(start))
	o.logger.Info("assistant turn",
		"family_id", familyID,
		"intent", resp.Intent,
		"language", resp.Language,
		"confidence", resp.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp
}

func (o *Orchestrator) safeTurn(ctx context.Context, utterance string, fc *domain.FamilyContext, history []domain.ConversationMessage, language domain.Language, ov extract.Overrides) (resp domain.ConversationResponse) {
	analysis := domain.IntentAnalysis{Intent: domain.IntentClarification, DetectedLanguage: language}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("assistant turn panicked",
				"intent", analysis.Intent,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			resp = o.apology(language, analysis.Intent)
		}
	}()

	analysis = o.router.Classify(ctx, utterance, fc, history)
	if analysis.DetectedLanguage != "" {
		language = analysis.DetectedLanguage.OrDefault()
	}

	var downstream float64
	switch analysis.Intent {
	case domain.IntentCreateTasks:
		resp, downstream = o.createTasks(ctx, utterance, fc, language, ov)
	case domain.IntentAnalyzeData, domain.IntentQueryTasks:
		resp, downstream = o.analyze(ctx, utterance, fc, language)
	case domain.IntentGeneralChat:
		resp, downstream = o.chat(utterance, language)
	default:
		resp, downstream = o.capabilities(fc, language)
	}

	resp.Intent = analysis.Intent
	resp.Language = language
	resp.Confidence = domain.ClampConfidence(math.Min(analysis.Confidence, downstream))
	return resp
}

func (o *Orchestrator) createTasks(ctx context.Context, utterance string, fc *domain.FamilyContext, language domain.Language, ov extract.Overrides) (domain.ConversationResponse, float64) {
	res := o.extractor.Extract(ctx, utterance, fc, ov)
	resp := domain.ConversationResponse{
		Data: &domain.ResponseData{
			Tasks:                  res.Tasks,
			ClarificationQuestions: res.Questions,
		},
	}

	switch {
	case len(res.Tasks) == 0:
		resp.Message = o.catalog.Render(language, lang.MsgTasksNone, nil)
		resp.SuggestedActions = o.catalog.Actions(language, lang.ActionsTasksNone)
	case len(res.Questions) > 0:
		questions := make([]string, 0, len(res.Questions))
		for _, q := range res.Questions {
			questions = append(questions, q.Question)
		}
		resp.Message = o.catalog.Render(language, lang.MsgTasksClarify, map[string]any{
			"Count":     len(res.Tasks),
			"Questions": strings.Join(questions, " "),
		})
		resp.SuggestedActions = o.catalog.Actions(language, lang.ActionsTasksClarify)
	default:
		titles := make([]string, 0, len(res.Tasks))
		for _, t := range res.Tasks {
			titles = append(titles, t.Title)
		}
		resp.Message = o.catalog.Render(language, lang.MsgTasksReady, map[string]any{
			"Count":  len(res.Tasks),
			"Titles": strings.Join(titles, ", "),
		})
		resp.SuggestedActions = o.catalog.Actions(language, lang.ActionsTasksReview)
	}
	return resp, res.Confidence()
}

func (o *Orchestrator) analyze(ctx context.Context, utterance string, fc *domain.FamilyContext, language domain.Language) (domain.ConversationResponse, float64) {
	answer := o.analyzer.Analyze(ctx, analytics.QueryFromUtterance(utterance, fc), fc)
	stats := analytics.QuickStats(fc, o.now())

	return domain.ConversationResponse{
		Message: answer.Answer,
		Data: &domain.ResponseData{
			Analytics:  &answer,
			QuickStats: &stats,
		},
		SuggestedActions: o.catalog.Actions(language, lang.ActionsAnalytics),
	}, answer.Confidence
}

func (o *Orchestrator) capabilities(fc *domain.FamilyContext, language domain.Language) (domain.ConversationResponse, float64) {
	stats := analytics.QuickStats(fc, o.now())
	msg := o.catalog.Render(language, lang.MsgCapability, map[string]any{
		"Names":   strings.Join(fc.ChildNames(), ", "),
		"Active":  stats.TotalActiveTasks,
		"Overdue": stats.OverdueTasks,
	})
	return domain.ConversationResponse{
		Message:          msg,
		Data:             &domain.ResponseData{QuickStats: &stats},
		SuggestedActions: o.catalog.Actions(language, lang.ActionsClarification),
	}, 1
}

func (o *Orchestrator) chat(utterance string, language domain.Language) (domain.ConversationResponse, float64) {
	redirect := o.catalog.Render(language, lang.MsgChatRedirect, nil)

	var msg string
	switch intent.DetectSmallTalk(utterance) {
	case intent.SmallTalkGreeting:
		msg = o.catalog.Render(language, lang.MsgGreeting, nil) + " " + redirect
	case intent.SmallTalkThanks:
		msg = o.catalog.Render(language, lang.MsgThanks, nil) + " " + redirect
	case intent.SmallTalkFarewell:
		msg = o.catalog.Render(language, lang.MsgFarewell, nil)
	default:
		msg = redirect
	}
	return domain.ConversationResponse{
		Message:          msg,
		SuggestedActions: o.catalog.Actions(language, lang.ActionsGeneralChat),
	}, 1
}

func (o *Orchestrator) apology(language domain.Language, in domain.Intent) domain.ConversationResponse {
	return domain.ConversationResponse{
		Message:          o.catalog.Render(language, lang.MsgApology, nil),
		Intent:           in,
		Language:         language,
		SuggestedActions: o.catalog.Actions(language, lang.ActionsApology),
		Confidence:       0,
	}
}
