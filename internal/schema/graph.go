package schema

import "strings"

// EntityMetadata describes one discovered entity. Instances are built by
// Discover and never mutated afterwards; concurrent readers need no locking.
type EntityMetadata struct {
	Name        string
	Description string
	StorageName string
	LabelField  string // resolved display-label override; empty = default probe list
	Versioned   bool
	SoftDelete  bool

	// Properties and Relationships preserve declaration order. Ordering is
	// presentational only; lookups go through the member index.
	Properties    []*PropertyMetadata
	Relationships []*RelationshipMetadata

	members map[string]memberRef
}

// PropertyMetadata describes one scalar property of a discovered entity
type PropertyMetadata struct {
	Name        string
	Description string
	StorageName string
	Type        PropertyType
	Nullable    bool
	EnumValues  []string
}

// TypeName renders the semantic type with a trailing "?" when nullable
func (p *PropertyMetadata) TypeName() string {
	name := p.Type.String()
	if p.Nullable {
		name += "?"
	}
	return name
}

// Required reports whether a value must be supplied on create
func (p *PropertyMetadata) Required() bool {
	return !p.Nullable
}

// RelationshipMetadata describes one navigation member of a discovered entity
type RelationshipMetadata struct {
	PropertyName     string
	Description      string
	TargetEntityName string
	ForeignKey       string // storage column backing a to-one relationship; empty for collections
	IsCollection     bool
}

// Cardinality returns the phrasing used in rendered output
func (r *RelationshipMetadata) Cardinality() string {
	if r.IsCollection {
		return "has many"
	}
	return "belongs to"
}

// memberRef resolves a member name to exactly one of scalar or relationship.
// The index is built once during discovery so tool calls never scan.
type memberRef struct {
	property *PropertyMetadata
	relation *RelationshipMetadata
}

// Property looks up a scalar property by name, case-insensitively
func (e *EntityMetadata) Property(name string) (*PropertyMetadata, bool) {
	ref, ok := e.members[strings.ToLower(name)]
	if !ok || ref.property == nil {
		return nil, false
	}
	return ref.property, true
}

// Relationship looks up a navigation member by name, case-insensitively
func (e *EntityMetadata) Relationship(name string) (*RelationshipMetadata, bool) {
	ref, ok := e.members[strings.ToLower(name)]
	if !ok || ref.relation == nil {
		return nil, false
	}
	return ref.relation, true
}

// MemberNames returns every addressable member name, properties first, in
// declaration order. Used for "unknown key" guidance.
func (e *EntityMetadata) MemberNames() []string {
	names := make([]string, 0, len(e.Properties)+len(e.Relationships))
	for _, p := range e.Properties {
		names = append(names, p.Name)
	}
	for _, r := range e.Relationships {
		names = append(names, r.PropertyName)
	}
	return names
}

// Graph is the immutable schema graph: every discovered entity, keyed by
// name, queryable case-insensitively. Entities are sorted by name; that sort
// is the only cross-run ordering guarantee.
type Graph struct {
	entities []*EntityMetadata
	byName   map[string]*EntityMetadata
	optIn    bool
	warnings []string
}

// Entities returns the discovered entities in name order
func (g *Graph) Entities() []*EntityMetadata {
	return append([]*EntityMetadata(nil), g.entities...)
}

// Entity retrieves an entity by name, case-insensitively
func (g *Graph) Entity(name string) (*EntityMetadata, bool) {
	e, ok := g.byName[strings.ToLower(name)]
	return e, ok
}

// Names returns every entity name in graph order
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.entities))
	for _, e := range g.entities {
		names = append(names, e.Name)
	}
	return names
}

// Len returns the number of discovered entities
func (g *Graph) Len() int {
	return len(g.entities)
}

// OptIn reports whether discovery ran in opt-in mode
func (g *Graph) OptIn() bool {
	return g.optIn
}

// Warnings returns non-fatal findings recorded during discovery, such as
// relations dropped because their target is not part of the graph
func (g *Graph) Warnings() []string {
	return append([]string(nil), g.warnings...)
}
