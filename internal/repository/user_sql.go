package repository

import (
	"context"
	"database/sql"
	"fmt"

	"surplus-saver-api/internal/model"
)

const userColumns = `id, name, email, phone, password_hash, role, balance, created_at`

// CreateUser inserts a new account and returns its id.
func (s *SQLStore) CreateUser(ctx context.Context, u model.User) (int64, error) {
	const query = `
		INSERT INTO users (name, email, phone, password_hash, role, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := s.insertReturningID(ctx, query,
		u.Name, u.Email, u.Phone, u.PasswordHash, string(u.Role), u.Balance, u.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUserByID fetches a user by primary key.
func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.scanUser(s.queryRow(ctx, query, id))
}

// GetUserByEmail fetches a user by email.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return s.scanUser(s.queryRow(ctx, query, email))
}

// EmailExists reports whether another user already owns the email.
func (s *SQLStore) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	const query = `SELECT COUNT(*) FROM users WHERE email = ? AND id != ?`

	var count int64
	if err := s.queryRow(ctx, query, email, excludeID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// PhoneExists reports whether another user already owns the phone number.
func (s *SQLStore) PhoneExists(ctx context.Context, phone string, excludeID int64) (bool, error) {
	const query = `SELECT COUNT(*) FROM users WHERE phone = ? AND id != ?`

	var count int64
	if err := s.queryRow(ctx, query, phone, excludeID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check phone: %w", err)
	}
	return count > 0, nil
}

// UpdateUser persists profile fields. Balance is never written here; it
// only moves through ApplyLedgerEntry.
func (s *SQLStore) UpdateUser(ctx context.Context, u model.User) error {
	const query = `
		UPDATE users SET name = ?, email = ?, phone = ?, password_hash = ?
		WHERE id = ?`

	res, err := s.exec(ctx, query, u.Name, u.Email, u.Phone, u.PasswordHash, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ApplyLedgerEntry moves money: the balance update and the entry insert
// succeed or fail together. The balance guard keeps it non-negative.
func (s *SQLStore) ApplyLedgerEntry(ctx context.Context, e model.LedgerEntry) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		const update = `
			UPDATE users SET balance = balance + ?
			WHERE id = ? AND balance + ? >= 0`

		res, err := s.exec(ctx, update, e.Amount, e.UserID, e.Amount)
		if err != nil {
			return fmt.Errorf("failed to adjust balance: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			if e.Amount >= 0 {
				return model.ErrNotFound
			}
			return model.ErrInsufficientFunds
		}

		const insert = `
			INSERT INTO ledger_entries (user_id, order_id, amount, kind, created_at)
			VALUES (?, ?, ?, ?, ?)`

		var orderID any
		if e.OrderID != 0 {
			orderID = e.OrderID
		}
		if _, err := s.exec(ctx, insert, e.UserID, orderID, e.Amount, string(e.Kind), e.CreatedAt); err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
		return nil
	})
}

// GetBalance returns the user's current balance.
func (s *SQLStore) GetBalance(ctx context.Context, userID int64) (int64, error) {
	const query = `SELECT balance FROM users WHERE id = ?`

	var balance int64
	err := s.queryRow(ctx, query, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, model.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// ListLedgerEntries returns the user's entries, newest first.
func (s *SQLStore) ListLedgerEntries(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	const query = `
		SELECT id, user_id, COALESCE(order_id, 0), amount, kind, created_at
		FROM ledger_entries WHERE user_id = ?
		ORDER BY id DESC`

	rows, err := s.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.UserID, &e.OrderID, &e.Amount, &kind, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Kind = model.LedgerKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLStore) scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &role, &u.Balance, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, model.ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	u.Role = model.Role(role)
	return u, nil
}
