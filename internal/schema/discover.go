package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Store-managed infrastructure columns. They exist on every table and never
// appear in the graph, even when a definition re-declares one.
const (
	IdentityColumn  = "id"
	CreatedAtColumn = "created_at"
	UpdatedAtColumn = "updated_at"
	VersionColumn   = "version"
	DeletedAtColumn = "deleted_at"
)

// ErrNoUniverse is returned when discovery has no universe to enumerate.
// This is the one fatal discovery failure; everything else degrades to
// warnings.
var ErrNoUniverse = errors.New("entity universe unavailable")

// Discover compiles a universe into the immutable schema graph. It is a pure
// function of the declarations: no I/O, no external state.
//
// Mode is determined once: opt-in iff any entity carries a non-default
// visibility marker. In opt-in mode exactly the entities marked visible are
// included; in fallback mode every non-abstract entity of the universe's
// group is. Infrastructure columns, explicitly hidden properties, and
// foreign-key shadows are excluded from every included entity. Entities are
// sorted by name; member order stays declaration order.
func Discover(u *Universe) (*Graph, error) {
	if u == nil {
		return nil, ErrNoUniverse
	}

	defs := u.Defs()
	optIn := false
	for _, def := range defs {
		if def.Visibility != VisibilityDefault {
			optIn = true
			break
		}
	}

	g := &Graph{
		byName: make(map[string]*EntityMetadata),
		optIn:  optIn,
	}

	included := make([]*EntityDef, 0, len(defs))
	canonical := make(map[string]string, len(defs))
	for _, def := range defs {
		if !includeEntity(def, u.Group(), optIn) {
			continue
		}
		included = append(included, def)
		canonical[strings.ToLower(def.Name)] = def.Name
	}

	for _, def := range included {
		e := buildEntity(def, canonical, &g.warnings)
		g.entities = append(g.entities, e)
		g.byName[strings.ToLower(e.Name)] = e
	}

	sort.Slice(g.entities, func(i, j int) bool {
		return g.entities[i].Name < g.entities[j].Name
	})

	return g, nil
}

// includeEntity decides entity membership for the active mode. Abstract
// declarations are never included; they exist to be embedded, not queried.
func includeEntity(def *EntityDef, group string, optIn bool) bool {
	if def.Abstract {
		return false
	}
	if optIn {
		return def.Visibility == VisibilityVisible
	}
	return def.Group == "" || strings.EqualFold(def.Group, group)
}

// isInfrastructure reports whether the name collides with a store-managed
// column
func isInfrastructure(name string) bool {
	switch strings.ToLower(name) {
	case IdentityColumn, CreatedAtColumn, UpdatedAtColumn, VersionColumn, DeletedAtColumn:
		return true
	}
	return false
}

// isForeignKeyShadow reports whether a property exists only to back a
// declared to-one relation: nullable, id-typed, named with the conventional
// _id suffix, and matching a sibling relation's foreign key. The relation
// supersedes the scalar.
func isForeignKeyShadow(p *PropertyDef, relations []RelationDef) bool {
	if !p.Nullable {
		return false
	}
	if p.Type != TypeUUID && p.Type != TypeInt {
		return false
	}
	if !strings.HasSuffix(strings.ToLower(p.Name), "_id") {
		return false
	}

	for i := range relations {
		r := &relations[i]
		if r.Collection {
			continue
		}
		if strings.EqualFold(foreignKeyFor(r), p.Name) {
			return true
		}
	}
	return false
}

// foreignKeyFor resolves the storage column backing a to-one relation
func foreignKeyFor(r *RelationDef) string {
	if r.ForeignKey != "" {
		return r.ForeignKey
	}
	return strings.ToLower(r.Name) + "_id"
}

func buildEntity(def *EntityDef, canonical map[string]string, warnings *[]string) *EntityMetadata {
	e := &EntityMetadata{
		Name:        def.Name,
		Description: def.Description,
		StorageName: def.Table,
		LabelField:  def.LabelField,
		Versioned:   def.Versioned,
		SoftDelete:  def.SoftDelete,
		members:     make(map[string]memberRef),
	}
	if e.StorageName == "" {
		e.StorageName = def.Name
	}

	for i := range def.Properties {
		p := &def.Properties[i]
		switch {
		case isInfrastructure(p.Name):
			continue
		case p.Visibility == VisibilityHidden:
			continue
		case isForeignKeyShadow(p, def.Relations):
			continue
		}

		meta := &PropertyMetadata{
			Name:        p.Name,
			Description: p.Description,
			StorageName: p.Column,
			Type:        p.Type,
			Nullable:    p.Nullable,
			EnumValues:  append([]string(nil), p.Enum...),
		}
		if meta.StorageName == "" {
			meta.StorageName = p.Name
		}

		e.Properties = append(e.Properties, meta)
		e.members[strings.ToLower(meta.Name)] = memberRef{property: meta}
	}

	for i := range def.Relations {
		r := &def.Relations[i]
		if r.Visibility == VisibilityHidden {
			continue
		}

		target, ok := canonical[strings.ToLower(r.Target)]
		if !ok {
			// One bad declaration never fails discovery.
			*warnings = append(*warnings, fmt.Sprintf(
				"relation %s.%s dropped: target entity %s is not part of the graph",
				def.Name, r.Name, r.Target))
			continue
		}

		meta := &RelationshipMetadata{
			PropertyName:     r.Name,
			Description:      r.Description,
			TargetEntityName: target,
			IsCollection:     r.Collection,
		}
		if !r.Collection {
			meta.ForeignKey = foreignKeyFor(r)
		}

		e.Relationships = append(e.Relationships, meta)
		e.members[strings.ToLower(meta.PropertyName)] = memberRef{relation: meta}
	}

	return e
}
