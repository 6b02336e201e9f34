package store

import (
	"fmt"
	"strings"
)

// Operator represents a filter operator supported by the store
type Operator int

const (
	// OpEqual matches a typed value exactly; a nil value matches NULL
	OpEqual Operator = iota
	// OpContainsFold matches text by case-insensitive substring containment
	OpContainsFold
	// OpIn matches any value of a set; an empty set matches nothing
	OpIn
)

// String returns the string representation of the operator
func (op Operator) String() string {
	switch op {
	case OpEqual:
		return "="
	case OpContainsFold:
		return "contains"
	case OpIn:
		return "in"
	default:
		return "unknown"
	}
}

// Condition is one WHERE clause over a storage column. Values for OpIn must
// be []any.
type Condition struct {
	Column string
	Op     Operator
	Value  any
}

// buildWhere renders conditions as ANDed SQL with $N placeholders starting
// at argStart. Both supported drivers accept the $N form.
func buildWhere(conds []Condition, argStart int) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds))
	n := argStart

	for _, c := range conds {
		switch c.Op {
		case OpEqual:
			if c.Value == nil {
				clauses = append(clauses, fmt.Sprintf("%s IS NULL", quoteIdent(c.Column)))
				continue
			}
			clauses = append(clauses, fmt.Sprintf("%s = $%d", quoteIdent(c.Column), n))
			args = append(args, c.Value)
			n++

		case OpContainsFold:
			clauses = append(clauses, fmt.Sprintf("LOWER(%s) LIKE $%d ESCAPE '\\'", quoteIdent(c.Column), n))
			args = append(args, "%"+escapeLike(strings.ToLower(fmt.Sprintf("%v", c.Value)))+"%")
			n++

		case OpIn:
			values, ok := c.Value.([]any)
			if !ok {
				return "", nil, fmt.Errorf("in condition on %s requires a value slice", c.Column)
			}
			if len(values) == 0 {
				// An empty set matches no rows.
				clauses = append(clauses, "1 = 0")
				continue
			}
			placeholders := make([]string, 0, len(values))
			for _, v := range values {
				placeholders = append(placeholders, fmt.Sprintf("$%d", n))
				args = append(args, v)
				n++
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", quoteIdent(c.Column), strings.Join(placeholders, ", ")))

		default:
			return "", nil, fmt.Errorf("unsupported operator %s on %s", c.Op, c.Column)
		}
	}

	return strings.Join(clauses, " AND "), args, nil
}

// escapeLike escapes LIKE wildcards in a user-supplied search term
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// quoteIdent quotes an identifier so verbatim storage names survive both
// drivers' case and keyword rules
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
