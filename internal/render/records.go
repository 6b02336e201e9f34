package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/deskclerk/deskclerk/internal/schema"
)

// RefLabels carries pre-resolved display labels for to-one references:
// relation property name → foreign-key value rendered as text → label.
// Missing entries degrade to the raw key value.
type RefLabels map[string]map[string]string

// Records renders a query result page
func Records(e *schema.EntityMetadata, records []map[string]any, refs RefLabels) string {
	var buf strings.Builder

	noun := "records"
	if len(records) == 1 {
		noun = "record"
	}
	buf.WriteString(fmt.Sprintf("Found %d %s %s:\n", len(records), e.Name, noun))

	for _, rec := range records {
		buf.WriteString(fmt.Sprintf("- %s\n", Record(e, rec, refs)))
	}

	return buf.String()
}

// Record renders one record as its display label, primary key, and the
// non-empty property values in declaration order followed by resolved
// to-one references
func Record(e *schema.EntityMetadata, record map[string]any, refs RefLabels) string {
	var buf strings.Builder

	buf.WriteString(schema.DisplayLabel(e, record))
	if id, ok := record[schema.IdentityColumn]; ok && id != nil {
		buf.WriteString(fmt.Sprintf(" (id %s)", plainText(id)))
	}

	fields := make([]string, 0, len(e.Properties)+len(e.Relationships))
	for _, p := range e.Properties {
		v, ok := record[p.StorageName]
		if !ok || v == nil {
			continue
		}
		fields = append(fields, fmt.Sprintf("%s=%s", p.Name, schema.FormatValue(p, v)))
	}

	for _, r := range e.Relationships {
		if r.IsCollection {
			continue
		}
		v, ok := record[r.ForeignKey]
		if !ok || v == nil {
			continue
		}

		key := plainText(v)
		if label, ok := refs[r.PropertyName][key]; ok && label != "" {
			fields = append(fields, fmt.Sprintf("%s=%s", r.PropertyName, label))
		} else {
			fields = append(fields, fmt.Sprintf("%s=%s", r.PropertyName, key))
		}
	}

	if len(fields) > 0 {
		buf.WriteString(fmt.Sprintf(": %s", strings.Join(fields, "; ")))
	}

	return buf.String()
}

// NoneFound renders the explicit empty-result response; an empty result is
// never an error
func NoneFound(e *schema.EntityMetadata, filter string) string {
	if strings.TrimSpace(filter) == "" {
		return fmt.Sprintf("No %s records found.", e.Name)
	}
	return fmt.Sprintf("No %s records matched %q.", e.Name, filter)
}

// plainText renders an arbitrary driver value as comparison-stable text
func plainText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
