package schema

import (
	"fmt"
	"strings"
)

// labelProbeOrder is the fixed priority list of conventional name-like
// properties consulted when an entity declares no label override. The order
// is part of the matching contract: relationship resolution and identifier
// search both depend on it, so it must not change.
var labelProbeOrder = []string{
	"name",
	"company_name",
	"title",
	"full_name",
	"first_name",
	"description",
	"invoice_number",
}

// DisplayLabel returns the human-readable text identifying one record.
// When the entity declares a label property, its value wins. Otherwise the
// probe list is walked in order and the first property present on the entity
// with a non-empty value supplies the label. The fallback is the entity name
// plus the record's primary key.
func DisplayLabel(e *EntityMetadata, record map[string]any) string {
	if e.LabelField != "" {
		if p, ok := e.Property(e.LabelField); ok {
			if s := labelValue(p, record); s != "" {
				return s
			}
		}
	} else {
		for _, candidate := range labelProbeOrder {
			p, ok := e.Property(candidate)
			if !ok {
				continue
			}
			if s := labelValue(p, record); s != "" {
				return s
			}
		}
	}

	if id, ok := record[IdentityColumn]; ok && id != nil {
		return fmt.Sprintf("%s %v", e.Name, id)
	}
	return e.Name
}

func labelValue(p *PropertyMetadata, record map[string]any) string {
	v, ok := record[p.StorageName]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(FormatValue(p, v))
}
