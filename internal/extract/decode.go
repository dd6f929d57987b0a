package extract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/chorechat/internal/domain"
	"github.com/ashureev/chorechat/internal/llmjson"
	"github.com/tidwall/gjson"
)

var errNoValidTasks = errors.New("no task in model output had a title")

// draft is a proposal before roster resolution and clarification.
type draft struct {
	task          domain.ParsedTask
	assigneeName  string
	recurrence    string
	pointsMissing bool
	dueUnusable   bool
}

type decodeDefaults struct {
	today      time.Time
	defaultDue time.Time
	points     int
}

// decodeTasks accepts a JSON array of tasks, an object with a "tasks" array,
// or a single task object. An empty array is a valid "no tasks" answer.
func decodeTasks(raw string, defaults decodeDefaults) ([]draft, error) {
	items, err := taskItems(raw)
	if err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	drafts := make([]draft, 0, len(items))
	for _, item := range items {
		if d, ok := decodeTask(item, defaults); ok {
			drafts = append(drafts, d)
		}
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("decode tasks: %w", errNoValidTasks)
	}
	return drafts, nil
}

func taskItems(raw string) ([]gjson.Result, error) {
	objectFirst := strings.IndexByte(raw, '{') >= 0 &&
		(strings.IndexByte(raw, '[') < 0 || strings.IndexByte(raw, '{') < strings.IndexByte(raw, '['))
	if !objectFirst {
		if arr, err := llmjson.ExtractArray(raw); err == nil {
			return arr.Array(), nil
		}
	}
	obj, err := llmjson.ExtractObject(raw)
	if err != nil {
		if arr, arrErr := llmjson.ExtractArray(raw); arrErr == nil {
			return arr.Array(), nil
		}
		return nil, err
	}
	if tasks := obj.Get("tasks"); tasks.IsArray() {
		return tasks.Array(), nil
	}
	if obj.Get("title").Exists() {
		return []gjson.Result{obj}, nil
	}
	return nil, llmjson.ErrMalformed
}

func decodeTask(item gjson.Result, defaults decodeDefaults) (draft, bool) {
	if !item.IsObject() {
		return draft{}, false
	}
	title := firstString(item, "title", "name")
	if title == "" {
		return draft{}, false
	}
	title = truncateRunes(title, maxTitleRunes)

	d := draft{
		task: domain.ParsedTask{
			Title:       title,
			Description: firstString(item, "description"),
			IsBonusTask: llmjson.Bool(item, "isBonusTask") || llmjson.Bool(item, "isBonus"),
			IsRecurring: llmjson.Bool(item, "isRecurring"),
			DueDateOnly: llmjson.Bool(item, "dueDateOnly"),
		},
		assigneeName: firstString(item, "assignee", "suggestedAssignee"),
		recurrence:   firstString(item, "recurrencePattern"),
	}

	if points, ok := firstInt(item, "points", "suggestedPoints"); ok {
		d.task.SuggestedPoints = points
	} else {
		d.task.SuggestedPoints = defaults.points
		d.pointsMissing = true
	}

	due := defaults.defaultDue
	if s := firstString(item, "dueDate", "suggestedDueDate"); s != "" {
		parsed, ok := ParseDueDate(s, defaults.today)
		if ok && !parsed.Before(defaults.today) {
			due = parsed
		} else {
			d.dueUnusable = true
		}
	}
	d.task.SuggestedDueDate = due.Format(domain.DateLayout)

	confidence, ok := llmjson.Float(item, "confidence")
	if !ok {
		confidence = defaultTaskConfidence
	}
	d.task.Confidence = confidence

	return d, true
}

func firstString(item gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := llmjson.String(item, k); s != "" {
			return s
		}
	}
	return ""
}

func firstInt(item gjson.Result, keys ...string) (int, bool) {
	for _, k := range keys {
		if n, ok := llmjson.Int(item, k); ok {
			return n, true
		}
	}
	return 0, false
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
