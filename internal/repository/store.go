package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Driver names accepted by NewSQLStore.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// SQLStore implements every repository interface over database/sql. One
// instance serves users, bags, orders, ledger entries and reports so a
// single transaction can span all of them.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore wraps an open connection. Prefer the backend-specific
// constructors, which also apply the schema.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// DB exposes the underlying connection for health checks.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type txKey struct{}

// WithTx runs fn inside a transaction. Nested calls join the transaction
// already carried by the context.
func (s *SQLStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	query = s.rebind(query)
	if tx := txFromContext(ctx); tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return s.db.ExecContext(ctx, query, args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	query = s.rebind(query)
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRowContext(ctx, query, args...)
	}
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	query = s.rebind(query)
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryContext(ctx, query, args...)
	}
	return s.db.QueryContext(ctx, query, args...)
}

// rebind converts ? placeholders to $n for PostgreSQL. Queries are written
// with ? throughout; SQLite and MySQL take them as-is.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// forUpdate returns the row-locking suffix for the current backend. SQLite
// has no FOR UPDATE; its single-writer connection serializes writes instead.
func (s *SQLStore) forUpdate() string {
	if s.driver == DriverSQLite {
		return ""
	}
	return " FOR UPDATE"
}

// insertReturningID returns the id of an INSERT. PostgreSQL does not support
// LastInsertId, so inserts there append RETURNING id and scan it.
func (s *SQLStore) insertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	if s.driver == DriverPostgres {
		var id int64
		err := s.queryRow(ctx, query+" RETURNING id", args...).Scan(&id)
		return id, err
	}

	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
