package render

import (
	"fmt"
	"strings"

	"github.com/deskclerk/deskclerk/internal/schema"
)

// Detail renders the tier-2 description of one entity: description, every
// scalar property with type, required flag and enum values, then every
// relationship with its cardinality. An unknown name yields guidance text
// listing the valid entity names; a bad name from the assistant is an
// expected condition, never an error.
func Detail(g *schema.Graph, entityName string) string {
	e, ok := g.Entity(entityName)
	if !ok {
		return UnknownEntity(g, entityName)
	}

	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("Entity: %s\n", e.Name))
	if e.Description != "" {
		buf.WriteString(fmt.Sprintf("%s\n", e.Description))
	}

	if len(e.Properties) > 0 {
		buf.WriteString("\nProperties:\n")
		for _, p := range e.Properties {
			buf.WriteString(propertyLine(p))
			buf.WriteString("\n")
		}
	}

	if len(e.Relationships) > 0 {
		buf.WriteString("\nRelationships:\n")
		for _, r := range e.Relationships {
			buf.WriteString(relationLine(r))
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

// UnknownEntity renders the recoverable miss response for a bad entity name
func UnknownEntity(g *schema.Graph, name string) string {
	names := g.Names()
	if len(names) == 0 {
		return fmt.Sprintf("Entity %q was not found; no entities are exposed.", name)
	}
	return fmt.Sprintf("Entity %q was not found. Valid entities: %s.",
		name, strings.Join(names, ", "))
}
