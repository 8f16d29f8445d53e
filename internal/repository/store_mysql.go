package repository

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// NewMySQLStore opens a MySQL-backed store.
// dsn format: "user:password@tcp(host:port)/dbname?parseTime=true"
func NewMySQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	for _, stmt := range strings.Split(mysqlSchema, ";\n") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	log.Printf("[SQLStore] MySQL initialized")
	return NewSQLStore(db, DriverMySQL), nil
}

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT PRIMARY KEY AUTO_INCREMENT,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL UNIQUE,
	phone VARCHAR(64) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(16) NOT NULL,
	balance BIGINT NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS surprise_bags (
	id BIGINT PRIMARY KEY AUTO_INCREMENT,
	store_id BIGINT NOT NULL,
	title VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	contents TEXT NOT NULL,
	original_price BIGINT NOT NULL,
	discount_price BIGINT NOT NULL,
	quantity BIGINT NOT NULL,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	status VARCHAR(16) NOT NULL DEFAULT 'available',
	image_url VARCHAR(512),
	created_at DATETIME NOT NULL,
	INDEX idx_bags_store (store_id),
	INDEX idx_bags_status (status)
);
CREATE TABLE IF NOT EXISTS orders (
	id BIGINT PRIMARY KEY AUTO_INCREMENT,
	customer_id BIGINT NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'pending',
	total_price BIGINT NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	INDEX idx_orders_customer (customer_id, status)
);
CREATE TABLE IF NOT EXISTS order_items (
	id BIGINT PRIMARY KEY AUTO_INCREMENT,
	order_id BIGINT NOT NULL,
	surprise_bag_id BIGINT NOT NULL,
	quantity BIGINT NOT NULL,
	created_at DATETIME NOT NULL,
	INDEX idx_items_order (order_id)
);
CREATE TABLE IF NOT EXISTS ledger_entries (
	id BIGINT PRIMARY KEY AUTO_INCREMENT,
	user_id BIGINT NOT NULL,
	order_id BIGINT,
	amount BIGINT NOT NULL,
	kind VARCHAR(32) NOT NULL,
	created_at DATETIME NOT NULL,
	INDEX idx_ledger_user (user_id)
);
CREATE TABLE IF NOT EXISTS reports (
	id VARCHAR(36) PRIMARY KEY,
	store_id BIGINT NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'pending',
	payload BLOB,
	error TEXT,
	created_at DATETIME NOT NULL,
	completed_at DATETIME
);
`
