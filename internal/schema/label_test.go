package schema

import (
	"testing"
)

func labelEntity(t *testing.T, def EntityDef) *EntityMetadata {
	t.Helper()
	u := NewUniverse("crm")
	u.MustAdd(def)
	g, err := Discover(u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, _ := g.Entity(def.Name)
	return e
}

func TestDisplayLabelProbeOrder(t *testing.T) {
	e := labelEntity(t, EntityDef{
		Name: "Contact",
		Properties: []PropertyDef{
			{Name: "description", Type: TypeText, Nullable: true},
			{Name: "first_name", Type: TypeString, Nullable: true},
			{Name: "full_name", Type: TypeString, Nullable: true},
		},
	})

	// full_name outranks first_name and description regardless of
	// declaration order.
	label := DisplayLabel(e, map[string]any{
		"description": "imported lead",
		"first_name":  "Maria",
		"full_name":   "Maria Anders",
	})
	if label != "Maria Anders" {
		t.Errorf("expected full_name to win, got %q", label)
	}

	// With full_name empty the probe falls through to first_name.
	label = DisplayLabel(e, map[string]any{
		"description": "imported lead",
		"first_name":  "Maria",
		"full_name":   nil,
	})
	if label != "Maria" {
		t.Errorf("expected first_name fallback, got %q", label)
	}
}

func TestDisplayLabelCompanyName(t *testing.T) {
	e := labelEntity(t, EntityDef{
		Name: "Customer",
		Properties: []PropertyDef{
			{Name: "company_name", Type: TypeString},
			{Name: "city", Type: TypeString, Nullable: true},
		},
	})

	label := DisplayLabel(e, map[string]any{"company_name": "Alfreds Futterkiste", "city": "Berlin"})
	if label != "Alfreds Futterkiste" {
		t.Errorf("expected company_name label, got %q", label)
	}
}

func TestDisplayLabelOverride(t *testing.T) {
	e := labelEntity(t, EntityDef{
		Name:       "Product",
		LabelField: "sku",
		Properties: []PropertyDef{
			{Name: "name", Type: TypeString},
			{Name: "sku", Type: TypeString},
		},
	})

	label := DisplayLabel(e, map[string]any{"name": "Chai", "sku": "BEV-001"})
	if label != "BEV-001" {
		t.Errorf("label override should beat the probe list, got %q", label)
	}
}

func TestDisplayLabelFallback(t *testing.T) {
	e := labelEntity(t, EntityDef{
		Name: "OrderItem",
		Properties: []PropertyDef{
			{Name: "quantity", Type: TypeInt},
		},
	})

	label := DisplayLabel(e, map[string]any{"id": "7d44", "quantity": int64(3)})
	if label != "OrderItem 7d44" {
		t.Errorf("expected entity-plus-key fallback, got %q", label)
	}

	label = DisplayLabel(e, map[string]any{"quantity": int64(3)})
	if label != "OrderItem" {
		t.Errorf("expected bare entity fallback, got %q", label)
	}
}
