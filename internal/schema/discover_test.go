package schema

import (
	"errors"
	"strings"
	"testing"
)

func testUniverse() *Universe {
	u := NewUniverse("crm")
	u.MustAdd(EntityDef{
		Name:        "Category",
		Description: "Groups products for browsing",
		Properties: []PropertyDef{
			{Name: "name", Type: TypeString},
			{Name: "description", Type: TypeText, Nullable: true},
		},
		Relations: []RelationDef{
			{Name: "products", Target: "Product", Collection: true},
		},
	})
	u.MustAdd(EntityDef{
		Name: "Product",
		Properties: []PropertyDef{
			{Name: "name", Type: TypeString},
			{Name: "unit_price", Type: TypeFloat},
			{Name: "discontinued", Type: TypeBool, Nullable: true},
			{Name: "category_id", Type: TypeUUID, Nullable: true},
		},
		Relations: []RelationDef{
			{Name: "category", Target: "Category"},
		},
	})
	return u
}

func TestDiscoverFallbackMode(t *testing.T) {
	g, err := Discover(testUniverse())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.OptIn() {
		t.Error("universe without markers should discover in fallback mode")
	}
	if g.Len() != 2 {
		t.Fatalf("expected 2 entities, got %d", g.Len())
	}

	names := g.Names()
	if names[0] != "Category" || names[1] != "Product" {
		t.Errorf("entities should be sorted by name, got %v", names)
	}
}

func TestDiscoverOptInMode(t *testing.T) {
	addMarked := func(u *Universe) {
		u.MustAdd(EntityDef{
			Name:       "Category",
			Visibility: VisibilityVisible,
			Properties: []PropertyDef{{Name: "name", Type: TypeString}},
		})
		u.MustAdd(EntityDef{
			Name:       "Product",
			Visibility: VisibilityHidden,
			Properties: []PropertyDef{{Name: "name", Type: TypeString}},
		})
	}

	u := NewUniverse("crm")
	addMarked(u)

	g, err := Discover(u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.OptIn() {
		t.Error("a single marker should switch discovery to opt-in mode")
	}
	if g.Len() != 1 {
		t.Fatalf("expected only the marked entity, got %v", g.Names())
	}
	if _, ok := g.Entity("Category"); !ok {
		t.Error("Category should be included")
	}

	t.Run("unmarked entity does not change the result", func(t *testing.T) {
		u2 := NewUniverse("crm")
		addMarked(u2)
		u2.MustAdd(EntityDef{
			Name:       "Supplier",
			Properties: []PropertyDef{{Name: "company_name", Type: TypeString}},
		})

		g2, err := Discover(u2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if g2.Len() != 1 {
			t.Errorf("unmarked Supplier leaked into the opt-in graph: %v", g2.Names())
		}
	})
}

func TestDiscoverExcludesInfrastructure(t *testing.T) {
	u := NewUniverse("crm")
	u.MustAdd(EntityDef{
		Name: "Invoice",
		Properties: []PropertyDef{
			{Name: "id", Type: TypeUUID},
			{Name: "invoice_number", Type: TypeString},
			{Name: "created_at", Type: TypeTimestamp},
			{Name: "version", Type: TypeInt},
			{Name: "deleted_at", Type: TypeTimestamp, Nullable: true},
		},
	})

	g, err := Discover(u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e, _ := g.Entity("Invoice")
	if len(e.Properties) != 1 || e.Properties[0].Name != "invoice_number" {
		t.Errorf("infrastructure columns should be excluded, got %v", e.MemberNames())
	}
}

func TestDiscoverForeignKeyShadow(t *testing.T) {
	g, err := Discover(testUniverse())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e, _ := g.Entity("Product")
	if _, ok := e.Property("category_id"); ok {
		t.Error("foreign-key shadow category_id should be suppressed by the category relation")
	}
	if _, ok := e.Relationship("category"); !ok {
		t.Error("the category relation itself should survive")
	}

	t.Run("id-suffixed property without a sibling relation stays", func(t *testing.T) {
		u := NewUniverse("crm")
		u.MustAdd(EntityDef{
			Name: "Shipment",
			Properties: []PropertyDef{
				{Name: "tracking_id", Type: TypeUUID, Nullable: true},
			},
		})

		g, err := Discover(u)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e, _ := g.Entity("Shipment")
		if _, ok := e.Property("tracking_id"); !ok {
			t.Error("tracking_id backs no relation and should remain a scalar")
		}
	})

	t.Run("non-nullable id-suffixed property stays", func(t *testing.T) {
		u := NewUniverse("crm")
		u.MustAdd(EntityDef{
			Name: "Badge",
			Properties: []PropertyDef{
				{Name: "owner_id", Type: TypeUUID},
			},
			Relations: []RelationDef{
				{Name: "owner", Target: "Badge"},
			},
		})

		g, err := Discover(u)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e, _ := g.Entity("Badge")
		if _, ok := e.Property("owner_id"); !ok {
			t.Error("shadow detection requires nullability")
		}
	})
}

func TestDiscoverHiddenProperty(t *testing.T) {
	u := NewUniverse("crm")
	u.MustAdd(EntityDef{
		Name: "Customer",
		Properties: []PropertyDef{
			{Name: "company_name", Type: TypeString},
			{Name: "credit_limit", Type: TypeFloat, Visibility: VisibilityHidden},
		},
	})

	g, err := Discover(u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e, _ := g.Entity("Customer")
	if _, ok := e.Property("credit_limit"); ok {
		t.Error("hidden property should be excluded even though the entity is visible")
	}
}

func TestDiscoverDropsRelationToMissingTarget(t *testing.T) {
	u := NewUniverse("crm")
	u.MustAdd(EntityDef{
		Name:       "Order",
		Properties: []PropertyDef{{Name: "status", Type: TypeString}},
		Relations: []RelationDef{
			{Name: "warehouse", Target: "Warehouse"},
		},
	})

	g, err := Discover(u)
	if err != nil {
		t.Fatalf("one bad relation should not fail discovery: %v", err)
	}

	e, _ := g.Entity("Order")
	if len(e.Relationships) != 0 {
		t.Error("relation to an undeclared target should be dropped")
	}
	if len(g.Warnings()) != 1 || !strings.Contains(g.Warnings()[0], "Warehouse") {
		t.Errorf("expected a warning naming the missing target, got %v", g.Warnings())
	}
}

func TestDiscoverScope(t *testing.T) {
	t.Run("abstract entities are never included", func(t *testing.T) {
		u := NewUniverse("crm")
		u.MustAdd(EntityDef{
			Name:       "BaseRecord",
			Abstract:   true,
			Properties: []PropertyDef{{Name: "name", Type: TypeString}},
		})
		u.MustAdd(EntityDef{
			Name:       "Contact",
			Properties: []PropertyDef{{Name: "full_name", Type: TypeString}},
		})

		g, err := Discover(u)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := g.Entity("BaseRecord"); ok {
			t.Error("abstract entity leaked into the graph")
		}
	})

	t.Run("entities of another group are excluded in fallback mode", func(t *testing.T) {
		u := NewUniverse("crm")
		u.MustAdd(EntityDef{
			Name:       "Contact",
			Properties: []PropertyDef{{Name: "full_name", Type: TypeString}},
		})
		u.MustAdd(EntityDef{
			Name:       "AuditEvent",
			Group:      "ops",
			Properties: []PropertyDef{{Name: "name", Type: TypeString}},
		})

		g, err := Discover(u)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := g.Entity("AuditEvent"); ok {
			t.Error("entity of another group should not be discovered in fallback mode")
		}
	})

	t.Run("nil universe is fatal", func(t *testing.T) {
		if _, err := Discover(nil); !errors.Is(err, ErrNoUniverse) {
			t.Errorf("expected ErrNoUniverse, got %v", err)
		}
	})

	t.Run("empty universe yields an empty graph", func(t *testing.T) {
		g, err := Discover(NewUniverse("crm"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if g.Len() != 0 {
			t.Errorf("expected empty graph, got %v", g.Names())
		}
	})
}

func TestEntityLookupIsCaseInsensitive(t *testing.T) {
	g, err := Discover(testUniverse())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := g.Entity("cAtEgOrY"); !ok {
		t.Error("entity lookup should ignore case")
	}

	e, _ := g.Entity("product")
	if _, ok := e.Property("Unit_Price"); !ok {
		t.Error("property lookup should ignore case")
	}
	if _, ok := e.Relationship("CATEGORY"); !ok {
		t.Error("relationship lookup should ignore case")
	}
	if _, ok := e.Property("category"); ok {
		t.Error("a relationship name must not resolve as a scalar property")
	}
}

func TestDiscoverStorageDefaults(t *testing.T) {
	u := NewUniverse("crm")
	u.MustAdd(EntityDef{
		Name:  "Customer",
		Table: "customers",
		Properties: []PropertyDef{
			{Name: "company_name", Type: TypeString, Column: "company"},
			{Name: "city", Type: TypeString, Nullable: true},
		},
	})

	g, err := Discover(u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e, _ := g.Entity("Customer")
	if e.StorageName != "customers" {
		t.Errorf("table override ignored, got %s", e.StorageName)
	}

	company, _ := e.Property("company_name")
	if company.StorageName != "company" {
		t.Errorf("column override ignored, got %s", company.StorageName)
	}

	city, _ := e.Property("city")
	if city.StorageName != "city" {
		t.Errorf("storage name should default to the property name, got %s", city.StorageName)
	}
	if city.TypeName() != "string?" {
		t.Errorf("nullable string should render as string?, got %s", city.TypeName())
	}
	if company.TypeName() != "string" {
		t.Errorf("non-nullable string should render bare, got %s", company.TypeName())
	}
}
