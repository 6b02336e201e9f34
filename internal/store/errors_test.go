package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestConvertDBError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{
			name: "nil passes through",
			in:   nil,
			want: nil,
		},
		{
			name: "no rows maps to not found",
			in:   sql.ErrNoRows,
			want: ErrNotFound,
		},
		{
			name: "postgres unique violation",
			in:   &pgconn.PgError{Code: "23505", Detail: "Key (name) already exists"},
			want: ErrUniqueViolation,
		},
		{
			name: "postgres foreign key violation",
			in:   &pgconn.PgError{Code: "23503", Detail: "Key (category_id) is not present"},
			want: ErrForeignKeyViolation,
		},
		{
			name: "postgres not null violation",
			in:   &pgconn.PgError{Code: "23502", ColumnName: "name"},
			want: ErrNotNullViolation,
		},
		{
			name: "postgres check violation",
			in:   &pgconn.PgError{Code: "23514", ConstraintName: "order_status_check"},
			want: ErrCheckViolation,
		},
		{
			name: "sqlite unique violation",
			in:   sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique},
			want: ErrUniqueViolation,
		},
		{
			name: "sqlite primary key violation maps to unique",
			in:   sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey},
			want: ErrUniqueViolation,
		},
		{
			name: "sqlite foreign key violation",
			in:   sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey},
			want: ErrForeignKeyViolation,
		},
		{
			name: "sqlite not null violation",
			in:   sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull},
			want: ErrNotNullViolation,
		},
		{
			name: "sqlite check violation",
			in:   sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck},
			want: ErrCheckViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertDBError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("unrecognized errors pass through unchanged", func(t *testing.T) {
		plain := errors.New("connection reset")
		assert.Equal(t, plain, ConvertDBError(plain))
	})

	t.Run("sqlite errors outside the constraint family pass through", func(t *testing.T) {
		busy := sqlite3.Error{Code: sqlite3.ErrBusy}
		got := ConvertDBError(busy)
		assert.False(t, IsConstraintViolation(got))
	})
}
