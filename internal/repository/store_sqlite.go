package repository

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// NewSQLiteStore opens (or creates) a SQLite-backed store.
// dbPath is the path to the database file (e.g., "./data/surplus.db").
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports one writer; single connection keeps the
	// read-check-write sequences in Place/Cancel serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLStore] SQLite initialized with database: %s", dbPath)
	return NewSQLStore(db, DriverSQLite), nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	balance INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS surprise_bags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	store_id INTEGER NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	contents TEXT NOT NULL,
	original_price INTEGER NOT NULL,
	discount_price INTEGER NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity >= 0),
	is_active INTEGER NOT NULL DEFAULT 1,
	status TEXT NOT NULL DEFAULT 'available',
	image_url TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bags_store ON surprise_bags(store_id);
CREATE INDEX IF NOT EXISTS idx_bags_status ON surprise_bags(status);
CREATE TABLE IF NOT EXISTS orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_id INTEGER NOT NULL REFERENCES users(id),
	status TEXT NOT NULL DEFAULT 'pending',
	total_price INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id, status);
CREATE TABLE IF NOT EXISTS order_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id INTEGER NOT NULL REFERENCES orders(id),
	surprise_bag_id INTEGER NOT NULL REFERENCES surprise_bags(id),
	quantity INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_order ON order_items(order_id);
CREATE TABLE IF NOT EXISTS ledger_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	order_id INTEGER,
	amount INTEGER NOT NULL,
	kind TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_user ON ledger_entries(user_id);
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	store_id INTEGER NOT NULL REFERENCES users(id),
	status TEXT NOT NULL DEFAULT 'pending',
	payload BLOB,
	error TEXT,
	created_at DATETIME NOT NULL,
	completed_at DATETIME
);
`
