package analytics

import (
	"strings"

	"github.com/ashureev/chorechat/internal/domain"
)

var timeframeWords = map[string]domain.Timeframe{
	"week":     domain.TimeframeWeek,
	"weekly":   domain.TimeframeWeek,
	"vecka":    domain.TimeframeWeek,
	"veckan":   domain.TimeframeWeek,
	"veckans":  domain.TimeframeWeek,
	"month":    domain.TimeframeMonth,
	"monthly":  domain.TimeframeMonth,
	"månad":    domain.TimeframeMonth,
	"månaden":  domain.TimeframeMonth,
	"månadens": domain.TimeframeMonth,
	"ever":     domain.TimeframeAll,
	"totalt":   domain.TimeframeAll,
}

// QueryFromUtterance reads the timeframe and the member a question is about.
// The first timeframe word wins; without one the whole history is used.
func QueryFromUtterance(utterance string, fc *domain.FamilyContext) domain.AnalyticsQuery {
	q := domain.AnalyticsQuery{Question: strings.TrimSpace(utterance), Timeframe: domain.TimeframeAll}

	words := domain.Words(utterance)
	for _, w := range words {
		if tf, ok := timeframeWords[w]; ok {
			q.Timeframe = tf
			break
		}
	}

	if fc == nil {
		return q
	}
	// The longest mentioned name wins so "Anna Maria" beats "Anna".
	best := 0
	for _, m := range fc.Members {
		if n := len(domain.Words(m.Name)); n > best && domain.MentionsName(utterance, m.Name) {
			q.TargetMember, best = m.Name, n
		}
	}
	return q
}
