package extract

import (
	"strings"
	"unicode"

	"github.com/ashureev/chorechat/internal/domain"
)

// ResolveAssignee returns the id of the roster member whose name equals name,
// ignoring case and surrounding whitespace.
func ResolveAssignee(roster []domain.Member, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, m := range roster {
		if strings.EqualFold(strings.TrimSpace(m.Name), name) {
			return m.ID, true
		}
	}
	return "", false
}

// mentionedMember returns the first roster member whose name appears as whole
// words in text. Children are preferred over parents.
func mentionedMember(roster []domain.Member, text string) (domain.Member, bool) {
	var parent *domain.Member
	for i := range roster {
		m := roster[i]
		if !domain.MentionsName(text, m.Name) {
			continue
		}
		if m.IsChild() {
			return m, true
		}
		if parent == nil {
			parent = &roster[i]
		}
	}
	if parent != nil {
		return *parent, true
	}
	return domain.Member{}, false
}

// suggestedNames lists children, or every member when there are none.
func suggestedNames(fc *domain.FamilyContext) []string {
	if names := fc.ChildNames(); len(names) > 0 {
		return names
	}
	if fc == nil {
		return nil
	}
	names := make([]string, 0, len(fc.Members))
	for _, m := range fc.Members {
		names = append(names, m.Name)
	}
	return names
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
