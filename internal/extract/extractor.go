// Package extract turns a parent's free-text message into reviewable task proposals.
package extract

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/chorechat/internal/domain"
	"github.com/ashureev/chorechat/internal/lang"
	"github.com/ashureev/chorechat/internal/llm"
	"github.com/ashureev/chorechat/internal/metrics"
	"github.com/ashureev/chorechat/internal/retry"
	"github.com/google/uuid"
)

// Purpose labels extractor calls in logs, metrics and llm.Options.
const Purpose = "task_extractor"

const (
	fallbackConfidence    = 0.3
	defaultTaskConfidence = 0.5
	fallbackPoints        = 5
	maxTitleRunes         = 60
)

// Overrides are optional caller-supplied values for one extraction.
// Zero values mean "not set".
type Overrides struct {
	TargetDate    time.Time
	DefaultPoints int
}

// Result holds the proposals and the questions that must be answered before
// they can be committed.
type Result struct {
	Tasks     []domain.ParsedTask
	Questions []domain.ClarificationQuestion
	// Fallback is true when the tasks came from keyword heuristics.
	Fallback bool
}

// Confidence is the lowest task confidence. An empty model answer counts as
// certain; an empty heuristic answer does not.
func (r Result) Confidence() float64 {
	if len(r.Tasks) == 0 {
		if r.Fallback {
			return fallbackConfidence
		}
		return 1
	}
	lowest := 1.0
	for _, t := range r.Tasks {
		lowest = math.Min(lowest, t.Confidence)
	}
	return lowest
}

// Extractor calls the language model for task proposals and repairs what it returns.
type Extractor struct {
	client  llm.Client
	catalog *lang.Catalog
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMetrics records retries and fallbacks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithClock replaces time.Now. Today's date is taken in the clock's location.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithIDGenerator replaces the clarification question id source.
func WithIDGenerator(gen func() string) Option {
	return func(e *Extractor) { e.newID = gen }
}

// WithCatalog sets the catalog used to word clarification questions.
func WithCatalog(c *lang.Catalog) Option {
	return func(e *Extractor) { e.catalog = c }
}

// New creates an extractor backed by client.
func New(client llm.Client, opts ...Option) *Extractor {
	e := &Extractor{
		client:  client,
		catalog: lang.Default(),
		logger:  slog.Default(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", Purpose)
	return e
}

// DefaultPoints picks the point value for tasks that do not name one: a
// positive override, else the rounded mean of active task points, else 5.
func DefaultPoints(fc *domain.FamilyContext, override int) int {
	if override > 0 {
		return domain.ClampPoints(override)
	}
	if fc == nil || len(fc.ActiveTasks) == 0 {
		return fallbackPoints
	}
	sum := 0
	for _, t := range fc.ActiveTasks {
		sum += t.Points
	}
	mean := float64(sum) / float64(len(fc.ActiveTasks))
	return domain.ClampPoints(int(math.Round(mean)))
}

// Extract never fails. Unusable model output is retried once, then the
// utterance is split into clauses by keyword heuristics.
func (e *Extractor) Extract(ctx context.Context, utterance string, fc *domain.FamilyContext, ov Overrides) Result {
	if strings.TrimSpace(utterance) == "" {
		return Result{}
	}

	language := lang.Detect(utterance)
	today := domain.DateOnly(e.now())
	defaults := decodeDefaults{
		today:      today,
		defaultDue: today.AddDate(0, 0, 1),
		points:     DefaultPoints(fc, ov.DefaultPoints),
	}
	if !ov.TargetDate.IsZero() {
		defaults.defaultDue = domain.DateOnly(ov.TargetDate)
	}

	prompt := buildPrompt(promptInput{
		utterance:     utterance,
		children:      suggestedNames(fc),
		today:         today,
		defaultDue:    defaults.defaultDue,
		defaultPoints: defaults.points,
		language:      language,
	})

	policy := retry.ModelPolicy()
	policy.OnRetry = func(attempt int, err error) {
		e.metrics.IncRetry(Purpose)
		e.logger.Warn("task extraction failed, retrying", "attempt", attempt, "error", err)
	}

	drafts, err := retry.Do(ctx, policy, func(ctx context.Context, _ int) ([]draft, error) {
		raw, err := e.client.Complete(ctx, prompt, llm.Options{
			Purpose:     Purpose,
			System:      systemPrompt,
			MaxTokens:   1200,
			Temperature: 0.2,
		})
		if err != nil {
			return nil, err
		}
		return decodeTasks(raw, defaults)
	})

	fallback := false
	if err != nil {
		e.metrics.IncFallback(Purpose)
		e.logger.Warn("task extraction degraded to keyword heuristics", "error", err)
		drafts = heuristicDrafts(utterance, fc, defaults)
		fallback = true
	}

	res := e.finalize(drafts, fc, language, defaults)
	res.Fallback = fallback
	e.logger.Debug("tasks extracted",
		"tasks", len(res.Tasks),
		"questions", len(res.Questions),
		"fallback", fallback,
	)
	return res
}

// finalize applies field rules to each draft and raises a question for every
// field that could not be settled.
func (e *Extractor) finalize(drafts []draft, fc *domain.FamilyContext, language domain.Language, defaults decodeDefaults) Result {
	var roster []domain.Member
	if fc != nil {
		roster = fc.Members
	}
	names := suggestedNames(fc)

	res := Result{Tasks: make([]domain.ParsedTask, 0, len(drafts))}
	for i, d := range drafts {
		t := d.task
		t.SuggestedPoints = domain.ClampPoints(t.SuggestedPoints)
		t.Confidence = domain.ClampConfidence(t.Confidence)

		t.RecurrencePattern = ""
		if t.IsRecurring {
			if pattern, ok := domain.ParseRecurrence(d.recurrence); ok {
				t.RecurrencePattern = pattern
			} else {
				t.IsRecurring = false
			}
		}

		t.SuggestedAssignee = ""
		t.AssigneeID = ""
		if !t.IsBonusTask {
			name := strings.TrimSpace(d.assigneeName)
			switch id, ok := ResolveAssignee(roster, name); {
			case ok:
				member, _ := fc.MemberByID(id)
				t.SuggestedAssignee = member.Name
				t.AssigneeID = id
			case name != "":
				res.Questions = append(res.Questions, e.question(language, i, domain.FieldAssignee,
					lang.MsgQuestionAssigneeUnknown, map[string]any{"Name": name, "Title": t.Title}, names))
			default:
				res.Questions = append(res.Questions, e.question(language, i, domain.FieldAssignee,
					lang.MsgQuestionAssigneeMissing, map[string]any{"Title": t.Title}, names))
			}
		}

		if d.pointsMissing {
			res.Questions = append(res.Questions, e.question(language, i, domain.FieldPoints,
				lang.MsgQuestionPoints, map[string]any{"Title": t.Title}, pointSuggestions(t.SuggestedPoints)))
		}
		if d.dueUnusable {
			res.Questions = append(res.Questions, e.question(language, i, domain.FieldDueDate,
				lang.MsgQuestionDueDate, map[string]any{"Title": t.Title},
				[]string{defaults.defaultDue.Format(domain.DateLayout)}))
		}

		res.Tasks = append(res.Tasks, t)
	}
	return res
}

func (e *Extractor) question(language domain.Language, index int, field domain.ClarificationField, key string, data map[string]any, answers []string) domain.ClarificationQuestion {
	return domain.ClarificationQuestion{
		ID:               e.newID(),
		Question:         e.catalog.Render(language, key, data),
		TaskIndex:        index,
		Field:            field,
		SuggestedAnswers: answers,
	}
}

func pointSuggestions(p int) []string {
	out := []string{strconv.Itoa(p)}
	if p > domain.MinPoints {
		out = append([]string{strconv.Itoa(p - 1)}, out...)
	}
	if p < domain.MaxPoints {
		out = append(out, strconv.Itoa(p+1))
	}
	return out
}
