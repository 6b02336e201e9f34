package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTableSQL(t *testing.T) {
	product, order := testEntities(t)

	t.Run("postgres", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		s := New(db, WithDialect(DialectPostgres))
		stmt := s.createTableSQL(product)

		for _, want := range []string{
			`CREATE TABLE IF NOT EXISTS "Product"`,
			`"id" UUID PRIMARY KEY`,
			`"name" VARCHAR(255) NOT NULL`,
			`"unit_price" DOUBLE PRECISION NOT NULL`,
			`"discontinued" BOOLEAN`,
			`"category_id" UUID`,
			`"created_at" TIMESTAMP WITH TIME ZONE NOT NULL`,
		} {
			assert.Contains(t, stmt, want)
		}
		assert.NotContains(t, stmt, `"version"`)
	})

	t.Run("enum check and infrastructure opt-ins", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		s := New(db, WithDialect(DialectPostgres))
		stmt := s.createTableSQL(order)

		assert.Contains(t, stmt, `"status" TEXT NOT NULL CHECK ("status" IN ('New', 'Shipped'))`)
		assert.Contains(t, stmt, `"version" INTEGER NOT NULL DEFAULT 1`)
		assert.Contains(t, stmt, `"deleted_at" TIMESTAMP WITH TIME ZONE`)
	})

	t.Run("sqlite uses text keys", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		s := New(db, WithDialect(DialectSQLite))
		stmt := s.createTableSQL(product)

		assert.Contains(t, stmt, `"id" TEXT PRIMARY KEY`)
		assert.Contains(t, stmt, `"unit_price" REAL NOT NULL`)
		assert.Contains(t, stmt, `"name" TEXT NOT NULL`)
	})
}

func TestCreateTablesExecutesPerEntity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The test graph holds Category, Order, Product in name order.
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "Category"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "Order"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "Product"`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, New(db).CreateTables(context.Background(), testGraph(t)))

	assert.NoError(t, mock.ExpectationsWereMet())
}
