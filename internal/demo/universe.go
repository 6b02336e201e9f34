// Package demo declares the sample CRM universe the CLI serves when no
// application has registered its own entities. It doubles as fixture
// material: it touches every property type, enum values, a hidden property,
// a foreign-key shadow, both relation directions, and a label override.
package demo

import "github.com/deskclerk/deskclerk/internal/schema"

// Group is the business-object group the sample entities belong to
const Group = "crm"

// Universe builds the sample CRM universe. Each call returns a fresh copy;
// callers that need the cached graph should wrap it in a schema.Catalog.
func Universe() *schema.Universe {
	u := schema.NewUniverse(Group)

	u.MustAdd(schema.EntityDef{
		Name:        "Category",
		Description: "A product category used to group the catalog.",
		Properties: []schema.PropertyDef{
			{Name: "name", Type: schema.TypeString, Description: "Category name shown in the catalog."},
			{Name: "description", Type: schema.TypeText, Nullable: true},
		},
		Relations: []schema.RelationDef{
			{Name: "products", Target: "Product", Collection: true},
		},
	})

	u.MustAdd(schema.EntityDef{
		Name:        "Product",
		Description: "A sellable item in the catalog.",
		Properties: []schema.PropertyDef{
			{Name: "name", Type: schema.TypeString},
			{Name: "unit_price", Type: schema.TypeFloat, Description: "Price per unit in the shop currency."},
			{Name: "units_in_stock", Type: schema.TypeInt, Nullable: true},
			{Name: "discontinued", Type: schema.TypeBool, Description: "Discontinued products cannot be ordered."},
			{Name: "internal_notes", Type: schema.TypeText, Nullable: true, Visibility: schema.VisibilityHidden},
			// Backs the category relation; the relation supersedes it.
			{Name: "category_id", Type: schema.TypeUUID, Nullable: true},
		},
		Relations: []schema.RelationDef{
			{Name: "category", Target: "Category", Description: "The category this product is filed under."},
			{Name: "order_items", Target: "OrderItem", Collection: true},
		},
	})

	u.MustAdd(schema.EntityDef{
		Name:        "Customer",
		Description: "A company that places orders.",
		Properties: []schema.PropertyDef{
			{Name: "company_name", Type: schema.TypeString},
			{Name: "contact_name", Type: schema.TypeString, Nullable: true},
			{Name: "email", Type: schema.TypeString, Nullable: true},
		},
		Relations: []schema.RelationDef{
			{Name: "orders", Target: "Order", Collection: true},
		},
	})

	u.MustAdd(schema.EntityDef{
		Name:        "Order",
		Description: "A customer order and its fulfillment state.",
		Versioned:   true,
		Properties: []schema.PropertyDef{
			{Name: "invoice_number", Type: schema.TypeString, Description: "Invoice number, e.g. INV-1042."},
			{Name: "status", Type: schema.TypeEnum, Enum: []string{"new", "processing", "shipped", "cancelled"}},
			{Name: "ordered_at", Type: schema.TypeTimestamp, Nullable: true},
			{Name: "notes", Type: schema.TypeText, Nullable: true},
		},
		Relations: []schema.RelationDef{
			{Name: "customer", Target: "Customer", Description: "The customer who placed the order."},
			{Name: "items", Target: "OrderItem", Collection: true},
		},
	})

	u.MustAdd(schema.EntityDef{
		Name:        "OrderItem",
		Description: "One line of an order.",
		Table:       "order_items",
		Properties: []schema.PropertyDef{
			{Name: "quantity", Type: schema.TypeInt},
			{Name: "unit_price", Type: schema.TypeFloat, Description: "Price per unit at order time."},
		},
		Relations: []schema.RelationDef{
			{Name: "order", Target: "Order"},
			{Name: "product", Target: "Product"},
		},
	})

	u.MustAdd(schema.EntityDef{
		Name:        "Employee",
		Description: "A staff member handling orders.",
		SoftDelete:  true,
		LabelField:  "last_name",
		Properties: []schema.PropertyDef{
			{Name: "first_name", Type: schema.TypeString},
			{Name: "last_name", Type: schema.TypeString},
			{Name: "title", Type: schema.TypeString, Nullable: true},
			{Name: "hired_on", Type: schema.TypeDate, Nullable: true},
		},
	})

	return u
}

// Catalog wraps a fresh sample universe in a lazily discovered catalog
func Catalog() *schema.Catalog {
	return schema.NewCatalog(Universe())
}
