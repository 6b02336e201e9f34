package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/deskclerk/deskclerk/internal/schema"
)

// Dialect selects the SQL flavor used for DDL generation
type Dialect int

const (
	// DialectPostgres targets PostgreSQL via the pgx stdlib driver
	DialectPostgres Dialect = iota
	// DialectSQLite targets SQLite via mattn/go-sqlite3
	DialectSQLite
)

// String returns the string representation of the dialect
func (d Dialect) String() string {
	switch d {
	case DialectSQLite:
		return "sqlite"
	default:
		return "postgres"
	}
}

// DialectForDriver maps a database/sql driver name to its dialect
func DialectForDriver(driver string) Dialect {
	switch driver {
	case "sqlite3":
		return DialectSQLite
	default:
		return DialectPostgres
	}
}

// CreateTables ensures a table exists for every entity in the graph.
// Relationship columns are plain indexed-by-convention id columns;
// referential integrity is enforced by the resolution layer, not the
// database, so creation order never matters.
func (s *Store) CreateTables(ctx context.Context, g *schema.Graph) error {
	for _, e := range g.Entities() {
		stmt := s.createTableSQL(e)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table for %s: %w", e.Name, ConvertDBError(err))
		}
		s.logger.Info("ensured table",
			zap.String("entity", e.Name),
			zap.String("table", e.StorageName))
	}
	return nil
}

func (s *Store) createTableSQL(e *schema.EntityMetadata) string {
	cols := []string{
		fmt.Sprintf("%s %s PRIMARY KEY", quoteIdent(schema.IdentityColumn), s.idColumnType()),
	}

	for _, p := range e.Properties {
		col := fmt.Sprintf("%s %s", quoteIdent(p.StorageName), s.columnType(p))
		if !p.Nullable {
			col += " NOT NULL"
		}
		if p.Type == schema.TypeEnum && len(p.EnumValues) > 0 {
			col += fmt.Sprintf(" CHECK (%s IN (%s))", quoteIdent(p.StorageName), quoteLiterals(p.EnumValues))
		}
		cols = append(cols, col)
	}

	for _, r := range e.Relationships {
		if r.IsCollection {
			continue
		}
		cols = append(cols, fmt.Sprintf("%s %s", quoteIdent(r.ForeignKey), s.idColumnType()))
	}

	ts := s.timestampColumnType()
	cols = append(cols,
		fmt.Sprintf("%s %s NOT NULL", quoteIdent(schema.CreatedAtColumn), ts),
		fmt.Sprintf("%s %s NOT NULL", quoteIdent(schema.UpdatedAtColumn), ts),
	)
	if e.Versioned {
		cols = append(cols, fmt.Sprintf("%s INTEGER NOT NULL DEFAULT 1", quoteIdent(schema.VersionColumn)))
	}
	if e.SoftDelete {
		cols = append(cols, fmt.Sprintf("%s %s", quoteIdent(schema.DeletedAtColumn), ts))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		quoteIdent(e.StorageName), strings.Join(cols, ",\n  "))
}

func (s *Store) idColumnType() string {
	if s.dialect == DialectPostgres {
		return "UUID"
	}
	return "TEXT"
}

func (s *Store) timestampColumnType() string {
	if s.dialect == DialectPostgres {
		return "TIMESTAMP WITH TIME ZONE"
	}
	return "TIMESTAMP"
}

func (s *Store) columnType(p *schema.PropertyMetadata) string {
	if s.dialect == DialectPostgres {
		switch p.Type {
		case schema.TypeString:
			return "VARCHAR(255)"
		case schema.TypeText:
			return "TEXT"
		case schema.TypeInt:
			return "BIGINT"
		case schema.TypeFloat:
			return "DOUBLE PRECISION"
		case schema.TypeBool:
			return "BOOLEAN"
		case schema.TypeTimestamp:
			return "TIMESTAMP WITH TIME ZONE"
		case schema.TypeDate:
			return "DATE"
		case schema.TypeUUID:
			return "UUID"
		case schema.TypeEnum:
			return "TEXT"
		}
		return "TEXT"
	}

	switch p.Type {
	case schema.TypeInt:
		return "INTEGER"
	case schema.TypeFloat:
		return "REAL"
	case schema.TypeBool:
		return "BOOLEAN"
	case schema.TypeTimestamp:
		return "TIMESTAMP"
	case schema.TypeDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

// quoteLiterals renders string literals for CHECK constraints
func quoteLiterals(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return strings.Join(quoted, ", ")
}
