package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ashureev/chorechat/internal/domain"
	"github.com/ashureev/chorechat/internal/domain/domaintest"
	"github.com/ashureev/chorechat/internal/llm/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestQuickStats(t *testing.T) {
	t.Parallel()

	got := QuickStats(domaintest.Family(domaintest.Now), domaintest.Now)
	assert.Equal(t, domain.QuickStats{
		TotalActiveTasks:  5,
		OverdueTasks:      3,
		CompletedThisWeek: 5,
		TopPerformer:      "Anna",
		FamilyPoints:      17,
	}, got)
}

func TestQuickStatsBusyFamily(t *testing.T) {
	t.Parallel()

	got := QuickStats(domaintest.Busy(domaintest.Now), domaintest.Now)
	assert.Equal(t, 10, got.TotalActiveTasks)
	assert.Equal(t, 3, got.OverdueTasks)
	assert.Equal(t, 6, got.CompletedThisWeek)
}

func TestQuickStatsEdgeCases(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.QuickStats{}, QuickStats(nil, domaintest.Now))

	got := QuickStats(domaintest.Empty(), domaintest.Now)
	assert.Zero(t, got.TotalActiveTasks)
	assert.Empty(t, got.TopPerformer)

	// A task due today is not overdue.
	fc := domaintest.Empty()
	fc.ActiveTasks = []domain.Task{{ID: "x", DueDate: domain.DateOnly(domaintest.Now), AssigneeID: domaintest.ErikID}}
	got = QuickStats(fc, domaintest.Now)
	assert.Zero(t, got.OverdueTasks)
	assert.Equal(t, "Erik", got.TopPerformer)
}

func TestTopPerformerTieGoesToRosterOrder(t *testing.T) {
	t.Parallel()

	fc := domaintest.Family(domaintest.Now)
	fc.ActiveTasks = nil
	fc.CompletionHistory = []domain.Completion{
		{MemberID: domaintest.AnnaID, CompletedAt: domaintest.Now},
		{MemberID: domaintest.ErikID, CompletedAt: domaintest.Now},
	}
	assert.Equal(t, "Erik", QuickStats(fc, domaintest.Now).TopPerformer)
}

func TestQuickStatsIsPure(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		fc := domaintest.Family(domaintest.Now)
		n := rapid.IntRange(0, 20).Draw(t, "extra")
		for i := range n {
			fc.ActiveTasks = append(fc.ActiveTasks, domain.Task{
				ID:         fmt.Sprintf("r%d", i),
				Points:     rapid.IntRange(1, 10).Draw(t, "points"),
				DueDate:    domaintest.Now.AddDate(0, 0, rapid.IntRange(-10, 10).Draw(t, "due")),
				AssigneeID: rapid.SampledFrom([]string{domaintest.ErikID, domaintest.AnnaID, ""}).Draw(t, "assignee"),
			})
		}
		first := QuickStats(fc, domaintest.Now)
		second := QuickStats(fc, domaintest.Now)
		if first != second {
			t.Fatalf("quick stats changed between calls: %+v vs %+v", first, second)
		}
		if first.OverdueTasks > first.TotalActiveTasks {
			t.Fatalf("overdue %d exceeds active %d", first.OverdueTasks, first.TotalActiveTasks)
		}
	})
}

func TestSummarizeFiltersByTimeframeAndMember(t *testing.T) {
	t.Parallel()

	fc := domaintest.Family(domaintest.Now)

	all := Summarize(fc, domain.AnalyticsQuery{}, domaintest.Now)
	assert.Equal(t, domain.TimeframeAll, all.Timeframe)
	require.Len(t, all.Members, 3)
	assert.Equal(t, 1, all.UnassignedActive)
	assert.Len(t, all.RecentCompletions, 7)

	week := Summarize(fc, domain.AnalyticsQuery{Timeframe: domain.TimeframeWeek, TargetMember: "erik"}, domaintest.Now)
	require.Len(t, week.Members, 1)
	erik := week.Members[0]
	assert.Equal(t, "Erik", erik.Name)
	assert.Equal(t, 2, erik.ActiveTasks)
	assert.Equal(t, 1, erik.OverdueTasks)
	assert.Equal(t, 2, erik.CompletedTasks)
	assert.Equal(t, 8, erik.TotalPoints)
	assert.InDelta(t, 4.0, erik.AveragePoints, 1e-9)
	assert.InDelta(t, 0.5, erik.CompletionRate, 1e-9)
	assert.Len(t, week.RecentCompletions, 2)
	assert.Equal(t, "2026-10-09", week.Since)

	missing := Summarize(fc, domain.AnalyticsQuery{TargetMember: "Olle"}, domaintest.Now)
	assert.True(t, missing.TargetMissing)
	assert.Len(t, missing.Members, 3)
}

func TestQueryFromUtterance(t *testing.T) {
	t.Parallel()

	fc := domaintest.Family(domaintest.Now)
	tests := []struct {
		in        string
		timeframe domain.Timeframe
		member    string
	}{
		{"How is Erik doing this week?", domain.TimeframeWeek, "Erik"},
		{"Who earned the most points this month?", domain.TimeframeMonth, ""},
		{"Hur har det gått för Anna den här månaden?", domain.TimeframeMonth, "Anna"},
		{"Vad har hänt i veckan", domain.TimeframeWeek, ""},
		{"Show Anna's overdue tasks", domain.TimeframeAll, "Anna"},
	}
	for _, tt := range tests {
		q := QueryFromUtterance(tt.in, fc)
		assert.Equalf(t, tt.timeframe, q.Timeframe, "input %q", tt.in)
		assert.Equalf(t, tt.member, q.TargetMember, "input %q", tt.in)
		assert.Equal(t, tt.in, q.Question)
	}
}

func TestQueryFromUtteranceMultiWordName(t *testing.T) {
	t.Parallel()

	fc := domaintest.Family(domaintest.Now)
	fc.Members = append(fc.Members, domain.Member{ID: "u-am", Name: "Anna Maria", Role: domain.RoleChild})

	assert.Equal(t, "Anna Maria", QueryFromUtterance("How is Anna Maria doing this week?", fc).TargetMember)
	assert.Equal(t, "Anna", QueryFromUtterance("How is Anna doing?", fc).TargetMember)
	assert.Equal(t, "", QueryFromUtterance("How is Annamaria doing?", fc).TargetMember)
}

func newTestEngine(stub *llmtest.Stub) *Engine {
	return NewEngine(stub, WithClock(func() time.Time { return domaintest.Now }))
}

func TestAnalyzeDecodesEnvelope(t *testing.T) {
	t.Parallel()

	stub := llmtest.Always(`Sure:
{"answer":"Erik finished 2 tasks this week.","insights":["Erik has 1 overdue task", 3],
 "recommendations":["Check in on the room cleaning"],
 "metrics":{"completion_rate":0.5,"completed":"2","note":"n/a"},
 "charts":[
   {"type":"Bar","title":"Completed","labels":["Erik"],"values":[2]},
   {"type":"scatter","labels":["a"],"values":[1]},
   {"type":"pie","labels":["a","b"],"values":[1]},
   {"type":"line","title":"Points","data":[{"label":"Mon","value":3},{"label":"Tue","value":"5"}]}
 ],
 "confidence":0.85}`)
	q := domain.AnalyticsQuery{Question: "How is Erik doing this week?", Timeframe: domain.TimeframeWeek, TargetMember: "Erik"}
	got := newTestEngine(stub).Analyze(context.Background(), q, domaintest.Family(domaintest.Now))

	assert.Equal(t, "Erik finished 2 tasks this week.", got.Answer)
	assert.InDelta(t, 0.85, got.Confidence, 1e-9)
	assert.Equal(t, []string{"Erik has 1 overdue task"}, got.Data.Insights)
	assert.Equal(t, []string{"Check in on the room cleaning"}, got.Data.Recommendations)
	assert.Equal(t, map[string]float64{"completion_rate": 0.5, "completed": 2}, got.Data.Metrics)

	require.Len(t, got.Data.Charts, 2)
	assert.Equal(t, domain.ChartSpec{Type: domain.ChartBar, Title: "Completed", Labels: []string{"Erik"}, Values: []float64{2}}, got.Data.Charts[0])
	assert.Equal(t, domain.ChartSpec{Type: domain.ChartLine, Title: "Points", Labels: []string{"Mon", "Tue"}, Values: []float64{3, 5}}, got.Data.Charts[1])

	prompt := stub.Calls()[0].Prompt
	assert.Contains(t, prompt, `"timeframe": "week"`)
	assert.Contains(t, prompt, `"name": "Erik"`)
	assert.NotContains(t, prompt, `"name": "Anna"`)
	assert.Contains(t, prompt, "Answer in English.")
}

func TestAnalyzeClampsConfidence(t *testing.T) {
	t.Parallel()

	got := newTestEngine(llmtest.Always(`{"answer":"ok","confidence":7}`)).Analyze(context.Background(), domain.AnalyticsQuery{Question: "how?"}, nil)
	assert.Equal(t, 1.0, got.Confidence)

	got = newTestEngine(llmtest.Always(`{"answer":"ok"}`)).Analyze(context.Background(), domain.AnalyticsQuery{Question: "how?"}, nil)
	assert.Equal(t, defaultModelConfidence, got.Confidence)
}

func TestAnalyzeRetriesMissingAnswer(t *testing.T) {
	t.Parallel()

	stub := llmtest.New(llmtest.Text(`{"insights":["x"]}`), llmtest.Text(`{"answer":"All good","confidence":0.6}`))
	got := newTestEngine(stub).Analyze(context.Background(), domain.AnalyticsQuery{Question: "How is everyone?"}, domaintest.Family(domaintest.Now))

	assert.Equal(t, 2, stub.CallCount())
	assert.Equal(t, "All good", got.Answer)
}

func TestAnalyzeApologizesAfterTwoFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		question string
		want     string
	}{
		{"How is Erik doing this week?", "Sorry, I couldn't analyze"},
		{"Hur går det för Erik den här veckan?", "Förlåt, jag kunde inte analysera"},
	}
	for _, tt := range tests {
		for _, stub := range []*llmtest.Stub{llmtest.AlwaysFail(), llmtest.Always("no json here")} {
			got := newTestEngine(stub).Analyze(context.Background(), domain.AnalyticsQuery{Question: tt.question}, domaintest.Family(domaintest.Now))

			assert.Equal(t, 2, stub.CallCount())
			assert.Contains(t, got.Answer, tt.want)
			assert.Zero(t, got.Confidence)
			assert.Equal(t, domain.AnalyticsData{}, got.Data)
		}
	}
}

func TestAnalyzeSwedishPrompt(t *testing.T) {
	t.Parallel()

	stub := llmtest.Always(`{"answer":"Bra!"}`)
	newTestEngine(stub).Analyze(context.Background(), domain.AnalyticsQuery{Question: "Hur går det för barnen?", TargetMember: "Olle"}, domaintest.Family(domaintest.Now))

	prompt := stub.Calls()[0].Prompt
	assert.Contains(t, prompt, "Answer in Swedish.")
	assert.Contains(t, prompt, `"Olle", who is not in this family`)
}
