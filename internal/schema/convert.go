package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timestampLayouts are tried in declaration order when coercing values
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

const dateLayout = "2006-01-02"

// ConvertValue coerces the textual value of a filter clause or property pair
// to the property's semantic type. An empty or "null" value on a nullable
// property yields nil. The returned error describes the mechanics only;
// callers add key and type context.
func ConvertValue(p *PropertyMetadata, raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if p.Nullable && (trimmed == "" || strings.EqualFold(trimmed, "null")) {
		return nil, nil
	}

	switch p.Type {
	case TypeString, TypeText:
		return raw, nil

	case TypeInt:
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not a valid integer")
		}
		return n, nil

	case TypeFloat:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("not a valid number")
		}
		return f, nil

	case TypeBool:
		b, err := strconv.ParseBool(strings.ToLower(trimmed))
		if err != nil {
			return nil, fmt.Errorf("not a valid boolean (use true or false)")
		}
		return b, nil

	case TypeTimestamp:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, fmt.Errorf("not a valid timestamp (expected RFC3339 or YYYY-MM-DD)")

	case TypeDate:
		t, err := time.Parse(dateLayout, trimmed)
		if err != nil {
			return nil, fmt.Errorf("not a valid date (expected YYYY-MM-DD)")
		}
		return t, nil

	case TypeUUID:
		id, err := uuid.Parse(trimmed)
		if err != nil {
			return nil, fmt.Errorf("not a valid uuid")
		}
		// Stored as text so both supported drivers accept it unchanged.
		return id.String(), nil

	case TypeEnum:
		for _, allowed := range p.EnumValues {
			if strings.EqualFold(allowed, trimmed) {
				return allowed, nil
			}
		}
		return nil, fmt.Errorf("not one of: %s", strings.Join(p.EnumValues, ", "))

	default:
		return nil, fmt.Errorf("unsupported property type %s", p.Type)
	}
}

// FormatValue renders a stored value as display text. Drivers differ in what
// they hand back (time.Time vs string, []byte vs string), so formatting is
// tolerant of both.
func FormatValue(p *PropertyMetadata, v any) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case time.Time:
		if p.Type == TypeDate {
			return val.Format(dateLayout)
		}
		return val.UTC().Format(time.RFC3339)
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}
