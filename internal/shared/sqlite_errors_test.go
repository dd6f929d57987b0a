package shared

import (
	"errors"
	"fmt"
	"testing"
)

func TestSQLiteErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		busy     bool
		locked   bool
		conflict bool
	}{
		{"nil", nil, false, false, false},
		{"busy message", errors.New("step: SQLITE_BUSY"), true, false, true},
		{"locked message", errors.New("database is locked"), false, true, true},
		{"wrapped locked", fmt.Errorf("insert task: %w", errors.New("database is locked (5)")), false, true, true},
		{"other", errors.New("UNIQUE constraint failed"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsSQLiteBusyError(tt.err); got != tt.busy {
				t.Errorf("IsSQLiteBusyError = %v, want %v", got, tt.busy)
			}
			if got := IsSQLiteLockedError(tt.err); got != tt.locked {
				t.Errorf("IsSQLiteLockedError = %v, want %v", got, tt.locked)
			}
			if got := IsSQLiteConflictError(tt.err); got != tt.conflict {
				t.Errorf("IsSQLiteConflictError = %v, want %v", got, tt.conflict)
			}
		})
	}
}
