// Package analytics answers questions about how a family is doing with its chores.
package analytics

import (
	"time"

	"github.com/ashureev/chorechat/internal/domain"
)

const weekDays = 7

// QuickStats computes the headline numbers for a family. It is a pure
// function of fc and now.
func QuickStats(fc *domain.FamilyContext, now time.Time) domain.QuickStats {
	if fc == nil {
		return domain.QuickStats{}
	}
	today := domain.DateOnly(now)
	weekAgo := now.AddDate(0, 0, -weekDays)

	stats := domain.QuickStats{TotalActiveTasks: len(fc.ActiveTasks)}
	for _, t := range fc.ActiveTasks {
		if isOverdue(t, today) {
			stats.OverdueTasks++
		}
	}
	for _, c := range fc.CompletionHistory {
		if !c.CompletedAt.Before(weekAgo) {
			stats.CompletedThisWeek++
		}
	}
	for _, p := range fc.PointsData {
		stats.FamilyPoints += p.Points
	}
	stats.TopPerformer = topPerformer(fc)
	return stats
}

func isOverdue(t domain.Task, today time.Time) bool {
	return !t.DueDate.IsZero() && domain.DateOnly(t.DueDate).Before(today)
}

// topPerformer is the child with the highest share of finished tasks.
// Earlier roster entries win ties. Children without any task are skipped.
func topPerformer(fc *domain.FamilyContext) string {
	completed := make(map[string]int)
	for _, c := range fc.CompletionHistory {
		completed[c.MemberID]++
	}
	active := make(map[string]int)
	for _, t := range fc.ActiveTasks {
		if t.AssigneeID != "" {
			active[t.AssigneeID]++
		}
	}

	best, bestRate := "", -1.0
	for _, child := range fc.Children() {
		total := completed[child.ID] + active[child.ID]
		if total == 0 {
			continue
		}
		rate := float64(completed[child.ID]) / float64(total)
		if rate > bestRate {
			best, bestRate = child.Name, rate
		}
	}
	return best
}

// MemberStats summarizes one member over a timeframe.
type MemberStats struct {
	Name           string      `json:"name"`
	Role           domain.Role `json:"role"`
	ActiveTasks    int         `json:"active_tasks"`
	OverdueTasks   int         `json:"overdue_tasks"`
	CompletedTasks int         `json:"completed_tasks"`
	TotalPoints    int         `json:"total_points"`
	AveragePoints  float64     `json:"average_points"`
	CompletionRate float64     `json:"completion_rate"`
}

// Snapshot is the data an analytics question is answered from.
type Snapshot struct {
	Timeframe         domain.Timeframe  `json:"timeframe"`
	Since             string            `json:"since,omitempty"`
	Target            string            `json:"target_member,omitempty"`
	TargetMissing     bool              `json:"target_member_not_found,omitempty"`
	Members           []MemberStats     `json:"members"`
	UnassignedActive  int               `json:"unassigned_active_tasks"`
	RecentCompletions []CompletionLine  `json:"recent_completions"`
	PointsHistory     []PointsLine      `json:"points_history"`
	Quick             domain.QuickStats `json:"quick_stats"`
}

// CompletionLine is a completion with the member's name resolved.
type CompletionLine struct {
	Member string `json:"member"`
	Title  string `json:"title"`
	Points int    `json:"points"`
	Date   string `json:"date"`
}

// PointsLine is a ledger entry with the member's name resolved.
type PointsLine struct {
	Member string `json:"member"`
	Points int    `json:"points"`
	Reason string `json:"reason,omitempty"`
	Date   string `json:"date"`
}

const maxHistoryLines = 30

// Since returns the start of a timeframe. The zero time means no bound.
func Since(tf domain.Timeframe, now time.Time) time.Time {
	switch tf {
	case domain.TimeframeWeek:
		return now.AddDate(0, 0, -weekDays)
	case domain.TimeframeMonth:
		return now.AddDate(0, -1, 0)
	default:
		return time.Time{}
	}
}

// Summarize builds per-member statistics for q's timeframe and target member.
// Active and overdue counts always describe the current state.
func Summarize(fc *domain.FamilyContext, q domain.AnalyticsQuery, now time.Time) Snapshot {
	tf := q.Timeframe
	if tf == "" {
		tf = domain.TimeframeAll
	}
	snap := Snapshot{
		Timeframe: tf,
		Quick:     QuickStats(fc, now),
	}
	if fc == nil {
		return snap
	}

	since := Since(tf, now)
	if !since.IsZero() {
		snap.Since = since.Format(domain.DateLayout)
	}

	var target *domain.Member
	if q.TargetMember != "" {
		snap.Target = q.TargetMember
		if m, ok := fc.MemberByName(q.TargetMember); ok {
			target = &m
		} else {
			snap.TargetMissing = true
		}
	}
	include := func(memberID string) bool {
		return target == nil || target.ID == memberID
	}
	inWindow := func(t time.Time) bool {
		return since.IsZero() || !t.Before(since)
	}

	today := domain.DateOnly(now)
	for _, m := range fc.Members {
		if !include(m.ID) {
			continue
		}
		ms := MemberStats{Name: m.Name, Role: m.Role}
		for _, t := range fc.ActiveTasks {
			if t.AssigneeID != m.ID {
				continue
			}
			ms.ActiveTasks++
			if isOverdue(t, today) {
				ms.OverdueTasks++
			}
		}
		for _, c := range fc.CompletionHistory {
			if c.MemberID == m.ID && inWindow(c.CompletedAt) {
				ms.CompletedTasks++
				ms.TotalPoints += c.Points
			}
		}
		if ms.CompletedTasks > 0 {
			ms.AveragePoints = float64(ms.TotalPoints) / float64(ms.CompletedTasks)
		}
		if total := ms.CompletedTasks + ms.ActiveTasks; total > 0 {
			ms.CompletionRate = float64(ms.CompletedTasks) / float64(total)
		}
		snap.Members = append(snap.Members, ms)
	}

	for _, t := range fc.ActiveTasks {
		if t.AssigneeID == "" {
			snap.UnassignedActive++
		}
	}

	name := func(id string) string {
		if m, ok := fc.MemberByID(id); ok {
			return m.Name
		}
		return id
	}
	for _, c := range fc.CompletionHistory {
		if include(c.MemberID) && inWindow(c.CompletedAt) && len(snap.RecentCompletions) < maxHistoryLines {
			snap.RecentCompletions = append(snap.RecentCompletions, CompletionLine{
				Member: name(c.MemberID),
				Title:  c.Title,
				Points: c.Points,
				Date:   c.CompletedAt.Format(domain.DateLayout),
			})
		}
	}
	for _, p := range fc.PointsData {
		if include(p.MemberID) && inWindow(p.CreatedAt) && len(snap.PointsHistory) < maxHistoryLines {
			snap.PointsHistory = append(snap.PointsHistory, PointsLine{
				Member: name(p.MemberID),
				Points: p.Points,
				Reason: p.Reason,
				Date:   p.CreatedAt.Format(domain.DateLayout),
			})
		}
	}
	return snap
}
