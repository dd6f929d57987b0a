package llmjson

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExtractObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		intent  string
		wantErr error
	}{
		{"bare", `{"intent":"CREATE_TASKS"}`, "CREATE_TASKS", nil},
		{"prose and fences", "Sure!\n```json\n{\"intent\": \"QUERY_TASKS\"}\n```\nDone.", "QUERY_TASKS", nil},
		{"raw newline inside string", "{\"intent\":\"GENERAL_CHAT\",\"reasoning\":\"line one\nline two\"}", "GENERAL_CHAT", nil},
		{"trailing comma", `{"intent":"ANALYZE_DATA","confidence":0.9,}`, "ANALYZE_DATA", nil},
		{"no json", "I am not sure what you mean.", "", ErrNoJSON},
		{"unbalanced", `{"intent": "CREATE_TASKS"`, "", ErrNoJSON},
		{"garbage between braces", `{intent: CREATE_TASKS}`, "", ErrMalformed},
		{"prose with braces after", "{\"intent\":\"CREATE_TASKS\",\"confidence\":0.9}\nI picked this because the message mentions {chores}.", "CREATE_TASKS", nil},
		{"braces inside strings", `{"intent":"QUERY_TASKS","reasoning":"asks about } and ]"} trailing }`, "QUERY_TASKS", nil},
		{"placeholder before answer", "Format: {intent}.\n{\"intent\":\"GENERAL_CHAT\"}", "GENERAL_CHAT", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExtractObject(tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.intent, String(got, "intent"))
		})
	}
}

func TestExtractArray(t *testing.T) {
	t.Parallel()

	got, err := ExtractArray("Here you go: [{\"title\":\"Clean room\"},{\"title\":\"Dishes\"}] hope it helps")
	require.NoError(t, err)
	require.True(t, got.IsArray())
	assert.Len(t, got.Array(), 2)

	got, err = ExtractArray("[{\"title\":\"Clean room\"}]\nLet me know if [anything] should change.")
	require.NoError(t, err)
	require.Len(t, got.Array(), 1)
	assert.Equal(t, "Clean room", String(got.Array()[0], "title"))

	_, err = ExtractArray(`{"title":"no array"}`)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestFieldAccessors(t *testing.T) {
	t.Parallel()

	r, err := ExtractObject(`{"points":"7","confidence":0.84,"big":1e12,"bonus":"yes","flag":true,"tags":["a"," ",3,"b"],"name":"  Erik "}`)
	require.NoError(t, err)

	p, ok := Int(r, "points")
	assert.True(t, ok)
	assert.Equal(t, 7, p)

	c, ok := Float(r, "confidence")
	assert.True(t, ok)
	assert.InDelta(t, 0.84, c, 1e-9)

	big, ok := Int(r, "big")
	assert.True(t, ok, "out of range numbers saturate")
	assert.Equal(t, math.MaxInt32, big)

	_, ok = Float(r, "missing")
	assert.False(t, ok)

	assert.True(t, Bool(r, "bonus"))
	assert.True(t, Bool(r, "flag"))
	assert.False(t, Bool(r, "missing"))
	assert.Equal(t, []string{"a", "b"}, Strings(r, "tags"))
	assert.Equal(t, "Erik", String(r, "name"))
	assert.Equal(t, "", String(r, "tags"))
}

func TestSanitizeRemovesAllControlCharacters(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		out := Sanitize(rapid.String().Draw(t, "raw"))
		for _, r := range out {
			if r < 0x20 || r == 0x7f {
				t.Fatalf("control character %U survived in %q", r, out)
			}
		}
	})
}

func TestExtractNeverPanics(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.String().Draw(t, "raw")
		if r, err := ExtractObject(raw); err == nil && !r.IsObject() {
			t.Fatalf("ExtractObject(%q) returned non-object %s", raw, r.Raw)
		}
		if r, err := ExtractArray(raw); err == nil && !r.IsArray() {
			t.Fatalf("ExtractArray(%q) returned non-array %s", raw, r.Raw)
		}
	})
}
