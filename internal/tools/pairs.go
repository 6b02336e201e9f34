package tools

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Pair is one key=value clause from a filter or property argument. Keys are
// matched case-insensitively against entity member names; values stay raw
// until typed conversion.
type Pair struct {
	Key   string
	Value string
}

// ParsePairs parses the flat `key1=value1;key2=value2` form. Keys and values
// are trimmed; empty clauses (from a trailing semicolon) are skipped. There
// is no escaping: a value containing `;` or `=` cannot be expressed in this
// form and must be passed as a structured argument instead.
func ParsePairs(s string) ([]Pair, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	clauses := strings.Split(s, ";")
	pairs := make([]Pair, 0, len(clauses))

	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}

		key, value, found := strings.Cut(clause, "=")
		if !found {
			return nil, &ValidationError{
				Message: fmt.Sprintf("Each clause must look like key=value; got %q.", clause),
			}
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, &ValidationError{
				Message: fmt.Sprintf("Missing key in clause %q.", clause),
			}
		}

		pairs = append(pairs, Pair{Key: key, Value: strings.TrimSpace(value)})
	}

	return pairs, nil
}

// PairsFromMap converts a structured argument into pairs, sorted by key so
// processing order is deterministic. Values are rendered as text and flow
// through the same typed conversion as parsed clauses; this form exists for
// values the flat syntax cannot express.
func PairsFromMap(m map[string]any) []Pair {
	pairs := make([]Pair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Pair{Key: k, Value: argText(v)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs
}

// argText renders a decoded JSON value as the textual form the converters
// expect. JSON numbers arrive as float64; integral ones must not grow a
// decimal point.
func argText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}
