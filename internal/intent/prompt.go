package intent

import (
	"fmt"
	"strings"

	"github.com/ashureev/chorechat/internal/domain"
)

const systemPrompt = `You classify messages sent to a family chore assistant. Parents and children write in English or Swedish.
Reply with a single JSON object and nothing else.`

const intentDefinitions = `Intents:
- CREATE_TASKS: the user describes chores or tasks that someone should do. Example: "Tomorrow Erik cleans his room and does homework." / "Imorgon städar Erik sitt rum."
- ANALYZE_DATA: the user asks how the family or a member is performing, for trends, comparisons or insights. Example: "How are the kids doing this month?" / "Hur går det för barnen?"
- QUERY_TASKS: the user asks about specific existing tasks, who has what, or what is overdue. Example: "What does Anna have left today?" / "Vilka uppgifter är försenade?"
- CLARIFICATION: the message is unclear, asks what the assistant can do, or needs more information. Example: "help" / "vad kan du göra?"
- GENERAL_CHAT: greetings, thanks, small talk. Example: "Hi!" / "Tack!"`

const responseFormat = `Respond with JSON:
{"intent": "<one of CREATE_TASKS, ANALYZE_DATA, QUERY_TASKS, CLARIFICATION, GENERAL_CHAT>", "confidence": <number 0..1>, "reasoning": "<short reason>", "suggestedAction": "<what the assistant should do next>"}`

func buildPrompt(utterance string, fc *domain.FamilyContext, history []domain.ConversationMessage, language domain.Language) string {
	var b strings.Builder

	b.WriteString("Family members:\n")
	if fc == nil || len(fc.Members) == 0 {
		b.WriteString("- (none)\n")
	} else {
		for _, m := range fc.Members {
			fmt.Fprintf(&b, "- %s (%s)\n", m.Name, m.Role)
		}
	}

	active, completed := 0, 0
	if fc != nil {
		active = len(fc.ActiveTasks)
		completed = len(fc.CompletionHistory)
	}
	fmt.Fprintf(&b, "Active tasks: %d. Completed tasks on record: %d.\n\n", active, completed)

	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, oneLine(msg.Content))
		}
		b.WriteString("\n")
	}

	b.WriteString(intentDefinitions)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Detected language: %s\n", language)
	fmt.Fprintf(&b, "Message: %q\n\n", utterance)
	b.WriteString(responseFormat)
	return b.String()
}

// trimHistory keeps the last n messages.
func trimHistory(history []domain.ConversationMessage, n int) []domain.ConversationMessage {
	if n <= 0 {
		return nil
	}
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const limit = 300
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "…"
	}
	return s
}
