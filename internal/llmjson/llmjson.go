// Package llmjson locates and tolerantly decodes JSON embedded in language model output.
//
// Model text is untrusted: it may wrap JSON in prose or code fences, contain raw control
// characters, or carry trailing commas. Extraction either yields a valid gjson.Result or
// one of the sentinel errors so callers can retry or fall back.
package llmjson

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrNoJSON means the output contained no JSON value of the requested kind.
	ErrNoJSON = errors.New("no JSON in model output")
	// ErrMalformed means a JSON value was found but could not be repaired.
	ErrMalformed = errors.New("malformed JSON in model output")
)

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// Sanitize replaces ASCII control characters with spaces and drops a byte order mark.
func Sanitize(raw string) string {
	raw = strings.TrimPrefix(raw, "\ufeff")
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, raw)
}

// ExtractObject returns the first complete JSON object in raw.
func ExtractObject(raw string) (gjson.Result, error) {
	return extract(raw, '{')
}

// ExtractArray returns the first complete JSON array in raw.
func ExtractArray(raw string) (gjson.Result, error) {
	return extract(raw, '[')
}

// extract tries each balanced value opening with open, left to right, and
// returns the first one that is valid as is or after trailing-comma repair.
// Prose after the value is ignored even when it contains brackets.
func extract(raw string, open byte) (gjson.Result, error) {
	text := Sanitize(raw)
	err := ErrNoJSON
	for from := 0; from < len(text); {
		start := strings.IndexByte(text[from:], open)
		if start < 0 {
			break
		}
		start += from
		end := balancedEnd(text, start)
		if end < 0 {
			break
		}
		candidate := text[start : end+1]
		if gjson.Valid(candidate) {
			return gjson.Parse(candidate), nil
		}
		repaired := trailingComma.ReplaceAllString(candidate, "$1")
		if gjson.Valid(repaired) {
			return gjson.Parse(repaired), nil
		}
		err = ErrMalformed
		from = end + 1
	}
	return gjson.Result{}, err
}

// balancedEnd returns the index closing the bracket at start, skipping
// brackets inside JSON strings, or -1 when it never closes.
func balancedEnd(text string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// String returns the trimmed string at path. Numbers are rendered as text; anything else is "".
func String(r gjson.Result, path string) string {
	v := r.Get(path)
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.Str)
	case gjson.Number:
		return v.Raw
	default:
		return ""
	}
}

// Float returns the number at path, accepting numeric strings.
func Float(r gjson.Result, path string) (float64, bool) {
	return Number(r.Get(path))
}

// Number converts a JSON number or numeric string. NaN and infinities are rejected.
func Number(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Num, !math.IsNaN(v.Num) && !math.IsInf(v.Num, 0)
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int returns the number at path rounded to the nearest integer. Values beyond
// the int32 range saturate so callers can clamp them.
func Int(r gjson.Result, path string) (int, bool) {
	f, ok := Float(r, path)
	if !ok {
		return 0, false
	}
	f = math.Max(math.MinInt32, math.Min(math.MaxInt32, f))
	return int(math.Round(f)), true
}

// Bool returns the boolean at path, accepting "true"/"yes"/"1" strings.
func Bool(r gjson.Result, path string) bool {
	v := r.Get(path)
	switch v.Type {
	case gjson.True:
		return true
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(v.Str)) {
		case "true", "yes", "1", "ja":
			return true
		}
	case gjson.Number:
		return v.Num != 0
	}
	return false
}

// Strings returns the non-empty strings of the array at path.
func Strings(r gjson.Result, path string) []string {
	v := r.Get(path)
	if !v.IsArray() {
		return nil
	}
	var out []string
	for _, item := range v.Array() {
		if item.Type != gjson.String {
			continue
		}
		if s := strings.TrimSpace(item.Str); s != "" {
			out = append(out, s)
		}
	}
	return out
}
