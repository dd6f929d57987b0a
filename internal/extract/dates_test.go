package extract

import (
	"testing"

	"github.com/ashureev/chorechat/internal/domain"
	"github.com/ashureev/chorechat/internal/domain/domaintest"
	"github.com/stretchr/testify/assert"
)

func TestParseDueDate(t *testing.T) {
	t.Parallel()

	today := domaintest.Now // Friday 2026-10-16
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2026-10-20", "2026-10-20", true},
		{"2026-10-20T18:00:00Z", "2026-10-20", true},
		{"2026/10/21", "2026-10-21", true},
		{"tomorrow", "2026-10-17", true},
		{"Imorgon", "2026-10-17", true},
		{"i morgon", "2026-10-17", true},
		{"day after tomorrow", "2026-10-18", true},
		{"övermorgon", "2026-10-18", true},
		{"today", "2026-10-16", true},
		{"ikväll", "2026-10-16", true},
		{"next week", "2026-10-23", true},
		{"on Monday", "2026-10-19", true},
		{"fredag", "2026-10-23", true},
		{"lördag", "2026-10-17", true},
		{"2026-13-01", "", false},
		{"someday", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDueDate(tt.in, today)
		assert.Equalf(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.Equalf(t, tt.want, got.Format(domain.DateLayout), "input %q", tt.in)
		}
	}
}

func TestResolveAssignee(t *testing.T) {
	t.Parallel()

	roster := domaintest.Family(domaintest.Now).Members

	id, ok := ResolveAssignee(roster, "  ERIK ")
	assert.True(t, ok)
	assert.Equal(t, domaintest.ErikID, id)

	id, ok = ResolveAssignee(roster, "sara")
	assert.True(t, ok)
	assert.Equal(t, domaintest.SaraID, id)

	_, ok = ResolveAssignee(roster, "Erika")
	assert.False(t, ok)
	_, ok = ResolveAssignee(roster, "")
	assert.False(t, ok)
	_, ok = ResolveAssignee(nil, "Erik")
	assert.False(t, ok)
}

func TestMentionedMemberPrefersChildren(t *testing.T) {
	t.Parallel()

	roster := domaintest.Family(domaintest.Now).Members

	m, ok := mentionedMember(roster, "Sara wants Anna to feed the cat")
	assert.True(t, ok)
	assert.Equal(t, domaintest.AnnaID, m.ID)

	m, ok = mentionedMember(roster, "sara, please water the plants")
	assert.True(t, ok)
	assert.Equal(t, domaintest.SaraID, m.ID)

	_, ok = mentionedMember(roster, "Annabelle cleans")
	assert.False(t, ok)
}
