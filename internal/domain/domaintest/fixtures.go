// Package domaintest provides family fixtures for tests.
package domaintest

import (
	"fmt"
	"time"

	"github.com/ashureev/chorechat/internal/domain"
)

// Now is the fixed clock used by fixtures: a Friday at noon UTC.
var Now = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

// Member ids in Family.
const (
	SaraID = "m-sara"
	ErikID = "m-erik"
	AnnaID = "m-anna"
)

func day(now time.Time, offset int) time.Time {
	return domain.DateOnly(now).AddDate(0, 0, offset)
}

// Family returns a family of one parent and two children relative to now.
// It has 5 active tasks with mean points 4, 3 of them overdue, 5 completions in
// the last 7 days, Anna as top performer and 17 family points.
func Family(now time.Time) *domain.FamilyContext {
	return &domain.FamilyContext{
		FamilyID: "fam-1",
		Members: []domain.Member{
			{ID: SaraID, Name: "Sara", Role: domain.RoleParent, IsAdmin: true},
			{ID: ErikID, Name: "Erik", Role: domain.RoleChild},
			{ID: AnnaID, Name: "Anna", Role: domain.RoleChild},
		},
		ActiveTasks: []domain.Task{
			{ID: "t1", Title: "Clean room", Points: 5, DueDate: day(now, -2), Status: domain.TaskPending, AssigneeID: ErikID},
			{ID: "t2", Title: "Homework", Points: 3, DueDate: day(now, -1), Status: domain.TaskPending, AssigneeID: AnnaID},
			{ID: "t3", Title: "Dishes", Points: 2, DueDate: day(now, 1), Status: domain.TaskPending, AssigneeID: ErikID},
			{ID: "t4", Title: "Walk the dog", Points: 4, DueDate: day(now, -3), Status: domain.TaskPending, AssigneeID: AnnaID},
			{ID: "t5", Title: "Wash car", Points: 6, DueDate: day(now, 3), Status: domain.TaskPending, IsBonus: true},
		},
		CompletionHistory: []domain.Completion{
			{TaskID: "h1", Title: "Vacuum", MemberID: ErikID, Points: 5, CompletedAt: now.AddDate(0, 0, -1)},
			{TaskID: "h2", Title: "Laundry", MemberID: ErikID, Points: 3, CompletedAt: now.AddDate(0, 0, -3)},
			{TaskID: "h3", Title: "Dishes", MemberID: ErikID, Points: 2, CompletedAt: now.AddDate(0, 0, -10)},
			{TaskID: "h4", Title: "Feed cat", MemberID: AnnaID, Points: 4, CompletedAt: now.AddDate(0, 0, -2)},
			{TaskID: "h5", Title: "Homework", MemberID: AnnaID, Points: 3, CompletedAt: now.AddDate(0, 0, -4)},
			{TaskID: "h6", Title: "Tidy toys", MemberID: AnnaID, Points: 3, CompletedAt: now.AddDate(0, 0, -6)},
			{TaskID: "h7", Title: "Dishes", MemberID: AnnaID, Points: 2, CompletedAt: now.AddDate(0, 0, -20)},
		},
		PointsData: []domain.PointsEntry{
			{MemberID: ErikID, Points: 5, Reason: "Vacuum", CreatedAt: now.AddDate(0, 0, -1)},
			{MemberID: ErikID, Points: 3, Reason: "Laundry", CreatedAt: now.AddDate(0, 0, -3)},
			{MemberID: ErikID, Points: 2, Reason: "Dishes", CreatedAt: now.AddDate(0, 0, -10)},
			{MemberID: AnnaID, Points: 4, Reason: "Feed cat", CreatedAt: now.AddDate(0, 0, -2)},
			{MemberID: AnnaID, Points: 3, Reason: "Homework", CreatedAt: now.AddDate(0, 0, -4)},
			{MemberID: AnnaID, Points: 3, Reason: "Tidy toys", CreatedAt: now.AddDate(0, 0, -6)},
			{MemberID: AnnaID, Points: 2, Reason: "Dishes", CreatedAt: now.AddDate(0, 0, -20)},
			{MemberID: AnnaID, Points: -5, Reason: "Movie night reward", CreatedAt: now.AddDate(0, 0, -5)},
		},
	}
}

// Empty returns a family with a roster but no tasks or history.
func Empty() *domain.FamilyContext {
	return &domain.FamilyContext{
		FamilyID: "fam-empty",
		Members: []domain.Member{
			{ID: SaraID, Name: "Sara", Role: domain.RoleParent, IsAdmin: true},
			{ID: ErikID, Name: "Erik", Role: domain.RoleChild},
		},
	}
}

// Busy returns a family with 10 active tasks for Erik, 3 of them overdue,
// and 8 completions by Anna of which 6 fall in the last 7 days.
func Busy(now time.Time) *domain.FamilyContext {
	fc := Empty()
	fc.FamilyID = "fam-busy"
	fc.Members = append(fc.Members, domain.Member{ID: AnnaID, Name: "Anna", Role: domain.RoleChild})

	dues := []int{-2, -1, -5, 0, 1, 2, 3, 4, 5, 6}
	for i, offset := range dues {
		fc.ActiveTasks = append(fc.ActiveTasks, domain.Task{
			ID:         fmt.Sprintf("b%d", i),
			Title:      fmt.Sprintf("Chore %d", i+1),
			Points:     3,
			DueDate:    day(now, offset),
			Status:     domain.TaskPending,
			AssigneeID: ErikID,
		})
	}
	for i, ago := range []int{0, 1, 2, 3, 5, 6, 8, 12} {
		fc.CompletionHistory = append(fc.CompletionHistory, domain.Completion{
			TaskID:      fmt.Sprintf("bc%d", i),
			Title:       fmt.Sprintf("Finished %d", i+1),
			MemberID:    AnnaID,
			Points:      2,
			CompletedAt: now.AddDate(0, 0, -ago).Add(-time.Hour),
		})
	}
	return fc
}
