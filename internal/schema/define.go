package schema

import (
	"fmt"
	"strings"
	"sync"
)

// EntityDef declares one business-object type. Definitions are plain values;
// add them to a Universe and run Discover to obtain the queryable graph.
type EntityDef struct {
	Name        string
	Description string
	Table       string // storage identifier; defaults to Name
	Group       string // business-object group; defaults to the universe's group
	Abstract    bool
	Visibility  Visibility
	LabelField  string // property holding the display label; empty = probe the default list
	Versioned   bool   // adds an optimistic-locking version column
	SoftDelete  bool   // adds a deleted_at column honored by all reads
	Properties  []PropertyDef
	Relations   []RelationDef
}

// PropertyDef declares one scalar property
type PropertyDef struct {
	Name        string
	Type        PropertyType
	Nullable    bool
	Description string
	Column      string   // storage identifier; defaults to Name
	Enum        []string // allowed values when Type is TypeEnum, in declaration order
	Visibility  Visibility
}

// RelationDef declares one navigation member
type RelationDef struct {
	Name        string // navigation member name, e.g. "customer" or "orders"
	Target      string // target entity name
	Collection  bool   // true for has-many
	ForeignKey  string // to-one storage column; defaults to Name + "_id"
	Description string
	Visibility  Visibility
}

// Universe aggregates the entity definitions of one business-object group.
// It is the sole input to Discover.
type Universe struct {
	group string
	defs  []*EntityDef
	index map[string]*EntityDef
	mu    sync.RWMutex
}

// NewUniverse creates an empty universe for the given group name
func NewUniverse(group string) *Universe {
	return &Universe{
		group: group,
		index: make(map[string]*EntityDef),
	}
}

// Group returns the universe's business-object group name
func (u *Universe) Group() string {
	return u.group
}

// Add registers an entity definition. The definition is copied; later
// mutation of the argument does not affect the universe. Entity names must
// be unique case-insensitively, and member names must be unique
// case-insensitively within the definition.
func (u *Universe) Add(def EntityDef) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("entity definition requires a name")
	}

	if err := validateMembers(&def); err != nil {
		return fmt.Errorf("entity %s: %w", def.Name, err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	key := strings.ToLower(def.Name)
	if _, exists := u.index[key]; exists {
		return fmt.Errorf("entity %s is already declared", def.Name)
	}

	copied := def
	copied.Properties = append([]PropertyDef(nil), def.Properties...)
	copied.Relations = append([]RelationDef(nil), def.Relations...)

	u.defs = append(u.defs, &copied)
	u.index[key] = &copied
	return nil
}

// MustAdd is Add that panics on error, for static universes built at startup
func (u *Universe) MustAdd(def EntityDef) {
	if err := u.Add(def); err != nil {
		panic(err)
	}
}

// Def retrieves a declaration by name, case-insensitively
func (u *Universe) Def(name string) (*EntityDef, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	def, ok := u.index[strings.ToLower(name)]
	return def, ok
}

// Defs returns the declarations in registration order
func (u *Universe) Defs() []*EntityDef {
	u.mu.RLock()
	defer u.mu.RUnlock()

	return append([]*EntityDef(nil), u.defs...)
}

// Len returns the number of declared entities
func (u *Universe) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()

	return len(u.defs)
}

// validateMembers checks that no member name is declared twice. A name can
// never be both a scalar property and a relationship.
func validateMembers(def *EntityDef) error {
	seen := make(map[string]string, len(def.Properties)+len(def.Relations))

	for _, p := range def.Properties {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("property declared without a name")
		}
		key := strings.ToLower(p.Name)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("member %s conflicts with %s", p.Name, prev)
		}
		seen[key] = p.Name
	}

	for _, r := range def.Relations {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("relation declared without a name")
		}
		if strings.TrimSpace(r.Target) == "" {
			return fmt.Errorf("relation %s declared without a target", r.Name)
		}
		key := strings.ToLower(r.Name)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("member %s conflicts with %s", r.Name, prev)
		}
		seen[key] = r.Name
	}

	return nil
}
