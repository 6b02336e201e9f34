// Package render produces the plain-text views of the schema graph and of
// record sets that are handed to the assistant: the tier-1 entity summary
// injected into the system prompt, the tier-2 per-entity detail, and the
// record listings returned by the query tools. All output is deterministic
// for a given graph.
package render

import (
	"fmt"
	"strings"

	"github.com/deskclerk/deskclerk/internal/schema"
)

// propertyLine renders one scalar property for detail output
func propertyLine(p *schema.PropertyMetadata) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("- %s (%s", p.Name, p.TypeName()))
	if p.Required() {
		buf.WriteString(", required")
	}
	if len(p.EnumValues) > 0 {
		buf.WriteString(fmt.Sprintf("; one of: %s", strings.Join(p.EnumValues, ", ")))
	}
	buf.WriteString(")")
	if p.Description != "" {
		buf.WriteString(fmt.Sprintf(": %s", p.Description))
	}

	return buf.String()
}

// relationLine renders one navigation member for detail output
func relationLine(r *schema.RelationshipMetadata) string {
	line := fmt.Sprintf("- %s (%s %s)", r.PropertyName, r.Cardinality(), r.TargetEntityName)
	if r.Description != "" {
		line += fmt.Sprintf(": %s", r.Description)
	}
	return line
}

// compactMembers renders the single-line member summaries used by the
// entity index
func compactMembers(e *schema.EntityMetadata) (string, string) {
	props := make([]string, 0, len(e.Properties))
	for _, p := range e.Properties {
		props = append(props, fmt.Sprintf("%s (%s)", p.Name, p.TypeName()))
	}

	rels := make([]string, 0, len(e.Relationships))
	for _, r := range e.Relationships {
		rels = append(rels, fmt.Sprintf("%s (%s %s)", r.PropertyName, r.Cardinality(), r.TargetEntityName))
	}

	return strings.Join(props, ", "), strings.Join(rels, ", ")
}
