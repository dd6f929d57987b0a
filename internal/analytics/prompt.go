package analytics

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/chorechat/internal/domain"
)

const systemPrompt = `You are a friendly analyst for a family chore app where children earn points for tasks.
Answer parents' questions from the statistics you are given. Never invent numbers.
Reply with a single JSON object only.`

func buildPrompt(q domain.AnalyticsQuery, snap Snapshot, language domain.Language, now time.Time) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today is %s.\n", now.Format(domain.DateLayout))
	fmt.Fprintf(&b, "Answer in %s.\n", languageName(language))
	if snap.TargetMissing {
		fmt.Fprintf(&b, "The parent asked about %q, who is not in this family. Say so briefly.\n", snap.Target)
	}
	b.WriteString("\nFamily statistics:\n")
	b.Write(data)
	b.WriteString("\n\n")

	b.WriteString(`Instructions:
- Answer the question directly in "answer", in two to four sentences.
- "insights" are short observations that each include a number.
- "recommendations" are practical suggestions for the parent.
- "metrics" maps a short snake_case name to a number you took or computed from the statistics.
- "charts" may contain up to two charts of type "bar", "line" or "pie"; labels and values must have the same length.
- "confidence" is a number from 0 to 1.

Format:
{"answer": "...", "insights": ["..."], "recommendations": ["..."], "metrics": {"completion_rate": 0.6}, "charts": [{"type": "bar", "title": "...", "labels": ["..."], "values": [1]}], "confidence": 0.8}

`)
	fmt.Fprintf(&b, "Question: %q\n", q.Question)
	return b.String(), nil
}

func languageName(l domain.Language) string {
	if l.OrDefault() == domain.LanguageSwedish {
		return "Swedish"
	}
	return "English"
}
