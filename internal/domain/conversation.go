package domain

import (
	"strings"
	"time"
)

// Language identifies the language of an utterance.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSwedish Language = "sv"
	LanguageUnknown Language = "unknown"
)

// OrDefault maps an unknown language to English.
func (l Language) OrDefault() Language {
	if l == LanguageSwedish {
		return LanguageSwedish
	}
	return LanguageEnglish
}

// Intent is the closed set of things a family message can ask for.
type Intent string

const (
	IntentCreateTasks   Intent = "CREATE_TASKS"
	IntentAnalyzeData   Intent = "ANALYZE_DATA"
	IntentQueryTasks    Intent = "QUERY_TASKS"
	IntentClarification Intent = "CLARIFICATION"
	IntentGeneralChat   Intent = "GENERAL_CHAT"
)

// Intents lists every valid intent.
var Intents = []Intent{
	IntentCreateTasks,
	IntentAnalyzeData,
	IntentQueryTasks,
	IntentClarification,
	IntentGeneralChat,
}

// ParseIntent normalizes free text such as "create tasks" or "Create-Tasks".
// Anything outside the enum yields CLARIFICATION and false.
func ParseIntent(s string) (Intent, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, in := range Intents {
		if string(in) == norm {
			return in, true
		}
	}
	return IntentClarification, false
}

// IntentAnalysis is the router's verdict for one utterance.
type IntentAnalysis struct {
	Intent           Intent   `json:"intent"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning,omitempty"`
	SuggestedAction  string   `json:"suggested_action,omitempty"`
	DetectedLanguage Language `json:"detected_language"`
	Fallback         bool     `json:"fallback"`
}

// Recurrence is how often a recurring task repeats.
type Recurrence string

const (
	RecurrenceDaily   Recurrence = "DAILY"
	RecurrenceWeekly  Recurrence = "WEEKLY"
	RecurrenceMonthly Recurrence = "MONTHLY"
)

// ParseRecurrence accepts the three patterns in any case.
func ParseRecurrence(s string) (Recurrence, bool) {
	switch Recurrence(strings.ToUpper(strings.TrimSpace(s))) {
	case RecurrenceDaily:
		return RecurrenceDaily, true
	case RecurrenceWeekly:
		return RecurrenceWeekly, true
	case RecurrenceMonthly:
		return RecurrenceMonthly, true
	}
	return "", false
}

// ParsedTask is a task proposal awaiting parent review. It is never persisted by the assistant.
type ParsedTask struct {
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	SuggestedAssignee string     `json:"suggested_assignee,omitempty"`
	AssigneeID        string     `json:"assignee_id,omitempty"`
	SuggestedPoints   int        `json:"suggested_points"`
	SuggestedDueDate  string     `json:"suggested_due_date"`
	Confidence        float64    `json:"confidence"`
	IsBonusTask       bool       `json:"is_bonus_task"`
	IsRecurring       bool       `json:"is_recurring"`
	RecurrencePattern Recurrence `json:"recurrence_pattern,omitempty"`
	DueDateOnly       bool       `json:"due_date_only"`
}

// ClarificationField names the part of a task proposal a question is about.
type ClarificationField string

const (
	FieldAssignee    ClarificationField = "assignee"
	FieldPoints      ClarificationField = "points"
	FieldDueDate     ClarificationField = "dueDate"
	FieldDescription ClarificationField = "description"
)

// ClarificationQuestion asks the parent to resolve one field of one proposal.
type ClarificationQuestion struct {
	ID               string             `json:"id"`
	Question         string             `json:"question"`
	TaskIndex        int                `json:"task_index"`
	Field            ClarificationField `json:"field"`
	SuggestedAnswers []string           `json:"suggested_answers,omitempty"`
}

// MessageRole is who authored a conversation message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ConversationMessage is one prior turn supplied as history.
type ConversationMessage struct {
	ID        string         `json:"id,omitempty"`
	Role      MessageRole    `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// QuickStats is the deterministic headline summary of a family.
type QuickStats struct {
	TotalActiveTasks  int    `json:"total_active_tasks"`
	OverdueTasks      int    `json:"overdue_tasks"`
	CompletedThisWeek int    `json:"completed_this_week"`
	TopPerformer      string `json:"top_performer,omitempty"`
	FamilyPoints      int    `json:"family_points"`
}

// Timeframe bounds which history an analytics question considers.
type Timeframe string

const (
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeAll   Timeframe = "all"
)

// AnalyticsQuery is a natural-language question about family performance.
type AnalyticsQuery struct {
	Question     string    `json:"question"`
	Timeframe    Timeframe `json:"timeframe,omitempty"`
	TargetMember string    `json:"target_member,omitempty"`
}

// ChartType is a chart kind the UI knows how to draw.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
)

// ChartSpec describes a chart; Labels and Values always have equal length.
type ChartSpec struct {
	Type   ChartType `json:"type"`
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// AnalyticsData is the structured part of an analytics answer.
type AnalyticsData struct {
	Metrics         map[string]float64 `json:"metrics,omitempty"`
	Insights        []string           `json:"insights,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
	Charts          []ChartSpec        `json:"charts,omitempty"`
}

// AnalyticsResponse answers an AnalyticsQuery.
type AnalyticsResponse struct {
	Answer     string        `json:"answer"`
	Data       AnalyticsData `json:"data"`
	Confidence float64       `json:"confidence"`
}

// ResponseData carries the structured payload of a ConversationResponse.
type ResponseData struct {
	Tasks                  []ParsedTask            `json:"tasks,omitempty"`
	Analytics              *AnalyticsResponse      `json:"analytics,omitempty"`
	ClarificationQuestions []ClarificationQuestion `json:"clarification_questions,omitempty"`
	QuickStats             *QuickStats             `json:"quick_stats,omitempty"`
}

// ConversationResponse is the single value returned for every turn.
type ConversationResponse struct {
	Message          string        `json:"message"`
	Intent           Intent        `json:"intent"`
	Language         Language      `json:"language"`
	Data             *ResponseData `json:"data,omitempty"`
	SuggestedActions []string      `json:"suggested_actions,omitempty"`
	Confidence       float64       `json:"confidence"`
}
