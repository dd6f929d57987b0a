package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/chorechat/internal/domain"
)

const systemPrompt = `You turn a parent's message into chore proposals for a family points app.
Messages are in English or Swedish. Reply with a JSON array only, no prose.`

type promptInput struct {
	utterance     string
	children      []string
	today         time.Time
	defaultDue    time.Time
	defaultPoints int
	language      domain.Language
}

func buildPrompt(in promptInput) string {
	var b strings.Builder

	children := "(none)"
	if len(in.children) > 0 {
		children = strings.Join(in.children, ", ")
	}

	fmt.Fprintf(&b, "Children who can be assigned tasks: %s\n", children)
	fmt.Fprintf(&b, "Today is %s (%s). Tomorrow is %s.\n",
		in.today.Format(domain.DateLayout), in.today.Weekday(), in.today.AddDate(0, 0, 1).Format(domain.DateLayout))
	fmt.Fprintf(&b, "If no due date is mentioned use %s.\n", in.defaultDue.Format(domain.DateLayout))
	fmt.Fprintf(&b, "If no points are mentioned use %d.\n", in.defaultPoints)
	fmt.Fprintf(&b, "Message language: %s. Write titles in the same language as the message.\n\n", in.language.OrDefault())

	fmt.Fprintf(&b, `Rules:
- One object per distinct task. Keep titles short (max 60 characters).
- "assignee" must be one of the children's names exactly as written above, or empty.
- Tasks offered to anyone ("someone", "anyone", "bonus", "någon") have "isBonusTask": true and no assignee.
- "points" is an integer from %d to %d.
- "dueDate" uses the format YYYY-MM-DD.
- "recurrencePattern" is DAILY, WEEKLY or MONTHLY and only set when "isRecurring" is true.
- "confidence" is a number from 0 to 1 describing how sure you are about the task.

`, domain.MinPoints, domain.MaxPoints)

	b.WriteString(`Format:
[{"title": "...", "description": "...", "assignee": "...", "points": 5, "dueDate": "YYYY-MM-DD", "dueDateOnly": false, "isBonusTask": false, "isRecurring": false, "recurrencePattern": null, "confidence": 0.9}]

`)
	fmt.Fprintf(&b, "Message: %q\n", in.utterance)
	return b.String()
}
