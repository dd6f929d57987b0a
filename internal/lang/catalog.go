package lang

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"text/template"

	"github.com/ashureev/chorechat/internal/domain"
	"gopkg.in/yaml.v3"
)

// Message keys.
const (
	MsgApology                 = "apology"
	MsgAnalyticsApology        = "analytics_apology"
	MsgTasksReady              = "tasks_ready"
	MsgTasksClarify            = "tasks_clarify"
	MsgTasksNone               = "tasks_none"
	MsgCapability              = "capability"
	MsgGreeting                = "greeting"
	MsgFarewell                = "farewell"
	MsgThanks                  = "thanks"
	MsgChatRedirect            = "chat_redirect"
	MsgQuestionAssigneeUnknown = "question_assignee_unknown"
	MsgQuestionAssigneeMissing = "question_assignee_missing"
	MsgQuestionPoints          = "question_points"
	MsgQuestionDueDate         = "question_due_date"
)

// Suggested action list keys.
const (
	ActionsTasksReview   = "tasks_review"
	ActionsTasksClarify  = "tasks_clarify"
	ActionsTasksNone     = "tasks_none"
	ActionsAnalytics     = "analytics"
	ActionsClarification = "clarification"
	ActionsGeneralChat   = "general_chat"
	ActionsApology       = "apology"
)

//go:embed messages.yaml
var messagesYAML []byte

type catalogFile map[domain.Language]struct {
	Messages map[string]string   `yaml:"messages"`
	Actions  map[string][]string `yaml:"actions"`
}

// Catalog holds parsed reply templates and suggested actions per language.
type Catalog struct {
	templates map[domain.Language]map[string]*template.Template
	actions   map[domain.Language]map[string][]string
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if _, ok := file[domain.LanguageEnglish]; !ok {
		return nil, fmt.Errorf("catalog has no %q section", domain.LanguageEnglish)
	}

	c := &Catalog{
		templates: make(map[domain.Language]map[string]*template.Template, len(file)),
		actions:   make(map[domain.Language]map[string][]string, len(file)),
	}
	for language, section := range file {
		tmpls := make(map[string]*template.Template, len(section.Messages))
		for key, text := range section.Messages {
			t, err := template.New(key).Option("missingkey=zero").Parse(text)
			if err != nil {
				return nil, fmt.Errorf("parse %s/%s: %w", language, key, err)
			}
			tmpls[key] = t
		}
		c.templates[language] = tmpls
		c.actions[language] = section.Actions
	}
	return c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(messagesYAML)
	if err != nil {
		panic(fmt.Sprintf("lang: embedded catalog: %v", err))
	}
	return c
})

// Default returns the embedded catalog.
func Default() *Catalog {
	return defaultCatalog()
}

// Render executes the template for key in language, falling back to English.
// A missing key renders as the key itself so a reply is never empty.
func (c *Catalog) Render(language domain.Language, key string, data any) string {
	t := c.lookup(language.OrDefault(), key)
	if t == nil {
		slog.Warn("catalog message missing", "language", language, "key", key)
		return key
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		slog.Warn("catalog render failed", "language", language, "key", key, "error", err)
		return key
	}
	return b.String()
}

// Actions returns a copy of the suggested action list for key.
func (c *Catalog) Actions(language domain.Language, key string) []string {
	list, ok := c.actions[language.OrDefault()][key]
	if !ok {
		list = c.actions[domain.LanguageEnglish][key]
	}
	return append([]string(nil), list...)
}

func (c *Catalog) lookup(language domain.Language, key string) *template.Template {
	if t, ok := c.templates[language][key]; ok {
		return t
	}
	return c.templates[domain.LanguageEnglish][key]
}
