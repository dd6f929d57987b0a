// Package domain holds the family, task and conversation types shared by the assistant pipeline.
package domain

import (
	"strings"
	"time"
	"unicode"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Role is a family member's role.
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// Member is one person in a family roster.
type Member struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
	IsAdmin bool   `json:"is_admin"`
}

// IsChild reports whether the member can be assigned chores.
func (m Member) IsChild() bool {
	return m.Role == RoleChild
}

// TaskStatus tracks where an active task is in its lifecycle.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskVerified  TaskStatus = "verified"
	TaskDeclined  TaskStatus = "declined"
)

// Task is a persisted chore as seen by the assistant.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Points      int        `json:"points"`
	DueDate     time.Time  `json:"due_date"`
	Status      TaskStatus `json:"status"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	IsBonus     bool       `json:"is_bonus"`
}

// Completion records a task that a member finished.
type Completion struct {
	TaskID      string    `json:"task_id"`
	Title       string    `json:"title"`
	MemberID    string    `json:"member_id"`
	Points      int       `json:"points"`
	CompletedAt time.Time `json:"completed_at"`
}

// PointsEntry is one row of the points ledger. Points may be negative for redemptions.
type PointsEntry struct {
	MemberID  string    `json:"member_id"`
	Points    int       `json:"points"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FamilyContext is the read-only snapshot of a family that one conversation turn works against.
type FamilyContext struct {
	FamilyID          string        `json:"family_id"`
	Members           []Member      `json:"members"`
	ActiveTasks       []Task        `json:"active_tasks"`
	CompletionHistory []Completion  `json:"completion_history"`
	PointsData        []PointsEntry `json:"points_data"`
}

// Children returns the roster members with the child role, in roster order.
func (fc *FamilyContext) Children() []Member {
	if fc == nil {
		return nil
	}
	var out []Member
	for _, m := range fc.Members {
		if m.IsChild() {
			out = append(out, m)
		}
	}
	return out
}

// ChildNames returns the display names of all children.
func (fc *FamilyContext) ChildNames() []string {
	children := fc.Children()
	names := make([]string, 0, len(children))
	for _, c := range children {
		names = append(names, c.Name)
	}
	return names
}

// MemberByID looks up a member by id.
func (fc *FamilyContext) MemberByID(id string) (Member, bool) {
	if fc == nil {
		return Member{}, false
	}
	for _, m := range fc.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// MemberByName looks up a member by display name, ignoring case and surrounding space.
func (fc *FamilyContext) MemberByName(name string) (Member, bool) {
	if fc == nil {
		return Member{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Member{}, false
	}
	for _, m := range fc.Members {
		if strings.EqualFold(strings.TrimSpace(m.Name), name) {
			return m, true
		}
	}
	return Member{}, false
}

// Words splits s into lower-case runs of letters and digits.
func Words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// MentionsName reports whether name occurs in text as a run of whole words,
// ignoring case. "Anna Maria" matches "ask anna maria" but not "annamaria".
func MentionsName(text, name string) bool {
	nameWords := Words(name)
	if len(nameWords) == 0 {
		return false
	}
	joined := " " + strings.Join(Words(text), " ") + " "
	return strings.Contains(joined, " "+strings.Join(nameWords, " ")+" ")
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
