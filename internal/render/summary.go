package render

import (
	"fmt"
	"strings"

	"github.com/deskclerk/deskclerk/internal/schema"
)

// Summary renders the tier-1 prompt block: one line per entity, name plus
// description when present, nothing else. Cost grows with entity count only,
// never with property count.
func Summary(g *schema.Graph) string {
	var buf strings.Builder

	buf.WriteString("Available business entities:\n")
	for _, e := range g.Entities() {
		if e.Description != "" {
			buf.WriteString(fmt.Sprintf("- %s: %s\n", e.Name, e.Description))
		} else {
			buf.WriteString(fmt.Sprintf("- %s\n", e.Name))
		}
	}

	return buf.String()
}

// EntityIndex renders the list_entities tool body: every entity with its
// compact property and relationship summary. A convenience superset of
// Summary for synchronous inspection.
func EntityIndex(g *schema.Graph) string {
	if g.Len() == 0 {
		return "No business entities are exposed.\n"
	}

	var buf strings.Builder
	for i, e := range g.Entities() {
		if i > 0 {
			buf.WriteString("\n")
		}

		if e.Description != "" {
			buf.WriteString(fmt.Sprintf("%s: %s\n", e.Name, e.Description))
		} else {
			buf.WriteString(fmt.Sprintf("%s\n", e.Name))
		}

		props, rels := compactMembers(e)
		if props != "" {
			buf.WriteString(fmt.Sprintf("  properties: %s\n", props))
		}
		if rels != "" {
			buf.WriteString(fmt.Sprintf("  relationships: %s\n", rels))
		}
	}

	return buf.String()
}
