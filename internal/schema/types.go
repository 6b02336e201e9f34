// Package schema defines the declarative entity model for deskclerk and the
// discovery pass that compiles it into an immutable metadata graph. Entities,
// properties, and relationships are declared as plain struct values with
// explicit nullability and optional visibility markers; discovery evaluates
// the markers once and produces the graph consumed by prompt rendering and
// the generic record tools.
package schema

import "fmt"

// PropertyType represents the scalar semantic types a property can declare
type PropertyType int

const (
	// Text types
	TypeString PropertyType = iota
	TypeText

	// Numeric types
	TypeInt
	TypeFloat

	// Boolean
	TypeBool

	// Time types
	TypeTimestamp
	TypeDate

	// Opaque identifiers
	TypeUUID

	// Enum
	TypeEnum
)

// String returns the string representation of the property type
func (p PropertyType) String() string {
	switch p {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	case TypeDate:
		return "date"
	case TypeUUID:
		return "uuid"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ParsePropertyType converts a string to a PropertyType
func ParsePropertyType(s string) (PropertyType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "text":
		return TypeText, nil
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "bool":
		return TypeBool, nil
	case "timestamp":
		return TypeTimestamp, nil
	case "date":
		return TypeDate, nil
	case "uuid":
		return TypeUUID, nil
	case "enum":
		return TypeEnum, nil
	default:
		return 0, fmt.Errorf("unknown property type: %s", s)
	}
}

// IsText returns true for types matched by substring containment in filters
func (p PropertyType) IsText() bool {
	return p == TypeString || p == TypeText
}

// IsNumeric returns true if the type is a numeric type
func (p PropertyType) IsNumeric() bool {
	return p == TypeInt || p == TypeFloat
}

// Visibility is the tri-state assistant-visibility marker. Attaching a
// non-default value to any entity in a universe switches discovery from
// fallback mode (everything in the group) to opt-in mode (marked entities
// only).
type Visibility int

const (
	// VisibilityDefault means no marker was declared
	VisibilityDefault Visibility = iota
	// VisibilityVisible explicitly opts the entity or property in
	VisibilityVisible
	// VisibilityHidden explicitly opts the entity or property out
	VisibilityHidden
)

// String returns the string representation of the visibility marker
func (v Visibility) String() string {
	switch v {
	case VisibilityVisible:
		return "visible"
	case VisibilityHidden:
		return "hidden"
	default:
		return "default"
	}
}
