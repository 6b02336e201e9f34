// Package store implements the SQL persistence layer beneath the record
// tools. It is generic over discovered entity metadata: records travel as
// maps keyed by storage column name, statements are built with $N
// placeholders and quoted identifiers, and every write runs in its own
// transaction. Both the pgx stdlib driver and mattn/go-sqlite3 are
// supported.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deskclerk/deskclerk/internal/schema"
)

// Store executes generic reads and writes for discovered entities
type Store struct {
	db      *sql.DB
	tx      *Manager
	logger  *zap.Logger
	dialect Dialect
}

// Option configures a Store
type Option func(*Store)

// WithLogger attaches a logger; the default discards everything
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDialect overrides the SQL dialect used for DDL generation
func WithDialect(d Dialect) Option {
	return func(s *Store) {
		s.dialect = d
	}
}

// New wraps an open connection pool
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:      db,
		tx:      NewManager(db),
		logger:  zap.NewNop(),
		dialect: DialectPostgres,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens a connection pool for the named driver and wraps it
func Open(driver, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	opts = append([]Option{WithDialect(DialectForDriver(driver))}, opts...)
	return New(db, opts...), nil
}

// DB exposes the underlying pool
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping verifies connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying pool
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns records matching every condition, ordered by primary key so
// enumeration order is stable across calls. A non-positive limit means no
// limit. Soft-deleted rows are always filtered out.
func (s *Store) List(ctx context.Context, e *schema.EntityMetadata, conds []Condition, limit int) ([]map[string]any, error) {
	cols := columnsFor(e)

	effective := make([]Condition, 0, len(conds)+1)
	effective = append(effective, conds...)
	if e.SoftDelete {
		effective = append(effective, Condition{Column: schema.DeletedAtColumn, Op: OpEqual, Value: nil})
	}

	where, args, err := buildWhere(effective, 1)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", joinQuoted(cols), quoteIdent(e.StorageName))
	if where != "" {
		query += " WHERE " + where
	}
	query += fmt.Sprintf(" ORDER BY %s", quoteIdent(schema.IdentityColumn))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	s.logger.Debug("listing records",
		zap.String("entity", e.Name),
		zap.Int("conditions", len(conds)),
		zap.Int("limit", limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", e.Name, ConvertDBError(err))
	}
	defer rows.Close()

	results, err := scanRows(rows, cols)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s rows: %w", e.Name, ConvertDBError(err))
	}
	return results, nil
}

// Get returns the record with the given primary key
func (s *Store) Get(ctx context.Context, e *schema.EntityMetadata, id string) (map[string]any, error) {
	records, err := s.List(ctx, e, []Condition{
		{Column: schema.IdentityColumn, Op: OpEqual, Value: id},
	}, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s %s: %w", e.Name, id, ErrNotFound)
	}
	return records[0], nil
}

// Insert writes one record in its own transaction and returns the stored
// row. Values are keyed by storage column name; the primary key and audit
// columns are populated here, never by callers.
func (s *Store) Insert(ctx context.Context, e *schema.EntityMetadata, values map[string]any) (map[string]any, error) {
	record := make(map[string]any, len(values)+4)
	for k, v := range values {
		record[k] = v
	}

	now := time.Now().UTC()
	record[schema.IdentityColumn] = uuid.New().String()
	record[schema.CreatedAtColumn] = now
	record[schema.UpdatedAtColumn] = now
	if e.Versioned {
		record[schema.VersionColumn] = 1
	}

	var inserted map[string]any
	err := s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		rec, err := s.insertRecord(ctx, tx, e, record)
		if err != nil {
			return err
		}
		inserted = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("inserted record",
		zap.String("entity", e.Name),
		zap.Any("id", inserted[schema.IdentityColumn]))
	return inserted, nil
}

func (s *Store) insertRecord(ctx context.Context, tx *sql.Tx, e *schema.EntityMetadata, record map[string]any) (map[string]any, error) {
	fields := make([]string, 0, len(record))
	for col := range record {
		fields = append(fields, col)
	}
	sort.Strings(fields)

	placeholders := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for i, col := range fields {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, record[col])
	}

	returning := columnsFor(e)
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		quoteIdent(e.StorageName),
		joinQuoted(fields),
		strings.Join(placeholders, ", "),
		joinQuoted(returning),
	)

	row := tx.QueryRowContext(ctx, query, args...)
	rec, err := scanRowWithColumns(row, returning)
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s: %w", e.Name, ConvertDBError(err))
	}
	return rec, nil
}

// Update applies values to one record in its own transaction and returns
// the stored row. The updated_at column is always refreshed. Versioned
// entities get optimistic locking: the current version is read inside the
// transaction, the UPDATE matches on it, and a write that lands on a newer
// version returns ErrStaleRecord instead of clobbering it.
func (s *Store) Update(ctx context.Context, e *schema.EntityMetadata, id string, values map[string]any) (map[string]any, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("no values to update for %s", e.Name)
	}

	record := make(map[string]any, len(values)+1)
	for k, v := range values {
		record[k] = v
	}
	record[schema.UpdatedAtColumn] = time.Now().UTC()

	fields := make([]string, 0, len(record))
	for col := range record {
		fields = append(fields, col)
	}
	sort.Strings(fields)

	var updated map[string]any
	err := s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		var currentVersion int64
		if e.Versioned {
			v, err := s.readVersion(ctx, tx, e, id)
			if err != nil {
				return err
			}
			currentVersion = v
		}

		setClauses := make([]string, 0, len(fields)+1)
		args := make([]any, 0, len(fields)+3)
		for _, col := range fields {
			args = append(args, record[col])
			setClauses = append(setClauses, fmt.Sprintf("%s = $%d", quoteIdent(col), len(args)))
		}
		if e.Versioned {
			args = append(args, currentVersion+1)
			setClauses = append(setClauses, fmt.Sprintf("%s = $%d", quoteIdent(schema.VersionColumn), len(args)))
		}

		args = append(args, id)
		where := fmt.Sprintf("%s = $%d", quoteIdent(schema.IdentityColumn), len(args))
		if e.Versioned {
			args = append(args, currentVersion)
			where += fmt.Sprintf(" AND %s = $%d", quoteIdent(schema.VersionColumn), len(args))
		}
		if e.SoftDelete {
			where += fmt.Sprintf(" AND %s IS NULL", quoteIdent(schema.DeletedAtColumn))
		}

		returning := columnsFor(e)
		query := fmt.Sprintf(
			"UPDATE %s SET %s WHERE %s RETURNING %s",
			quoteIdent(e.StorageName),
			strings.Join(setClauses, ", "),
			where,
			joinQuoted(returning),
		)

		row := tx.QueryRowContext(ctx, query, args...)
		rec, err := scanRowWithColumns(row, returning)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				if e.Versioned {
					// The record was there with currentVersion moments
					// ago; another transaction committed in between.
					return fmt.Errorf("%s %s: %w", e.Name, id, ErrStaleRecord)
				}
				return fmt.Errorf("%s %s: %w", e.Name, id, ErrNotFound)
			}
			return fmt.Errorf("failed to update %s: %w", e.Name, ConvertDBError(err))
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("updated record",
		zap.String("entity", e.Name),
		zap.String("id", id))
	return updated, nil
}

// readVersion reads a versioned record's current version inside the update
// transaction
func (s *Store) readVersion(ctx context.Context, tx *sql.Tx, e *schema.EntityMetadata, id string) (int64, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		quoteIdent(schema.VersionColumn),
		quoteIdent(e.StorageName),
		quoteIdent(schema.IdentityColumn),
	)
	if e.SoftDelete {
		query += fmt.Sprintf(" AND %s IS NULL", quoteIdent(schema.DeletedAtColumn))
	}

	var version int64
	if err := tx.QueryRowContext(ctx, query, id).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s %s: %w", e.Name, id, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to read %s version: %w", e.Name, ConvertDBError(err))
	}
	return version, nil
}

// columnsFor returns the storage columns read for an entity: primary key,
// scalar properties, and to-one foreign keys, sorted so every statement is
// deterministic.
func columnsFor(e *schema.EntityMetadata) []string {
	seen := map[string]bool{schema.IdentityColumn: true}
	cols := []string{schema.IdentityColumn}

	for _, p := range e.Properties {
		if !seen[p.StorageName] {
			seen[p.StorageName] = true
			cols = append(cols, p.StorageName)
		}
	}
	for _, r := range e.Relationships {
		if r.IsCollection {
			continue
		}
		if !seen[r.ForeignKey] {
			seen[r.ForeignKey] = true
			cols = append(cols, r.ForeignKey)
		}
	}

	sort.Strings(cols)
	return cols
}

func joinQuoted(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}
