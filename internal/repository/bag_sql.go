package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"surplus-saver-api/internal/model"
)

const bagColumns = `b.id, b.store_id, b.title, b.description, b.contents,
	b.original_price, b.discount_price, b.quantity, b.is_active, b.status,
	COALESCE(b.image_url, ''), b.created_at`

// CreateBag inserts a new surprise bag and returns its id.
func (s *SQLStore) CreateBag(ctx context.Context, b model.SurpriseBag) (int64, error) {
	const query = `
		INSERT INTO surprise_bags
			(store_id, title, description, contents, original_price, discount_price,
			 quantity, is_active, status, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := s.insertReturningID(ctx, query,
		b.StoreID, b.Title, b.Description, b.Contents, b.OriginalPrice,
		b.DiscountPrice, b.Quantity, b.IsActive, string(b.Status), nullIfEmpty(b.ImageURL), b.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to create bag: %w", err)
	}
	return id, nil
}

// GetBag fetches a bag by id regardless of owner.
func (s *SQLStore) GetBag(ctx context.Context, id int64) (model.SurpriseBag, error) {
	query := `SELECT ` + bagColumns + ` FROM surprise_bags b WHERE b.id = ?`
	return s.scanBag(s.queryRow(ctx, query, id))
}

// GetBagForUpdate fetches a bag with a row lock where the backend supports
// one. Must be called inside WithTx.
func (s *SQLStore) GetBagForUpdate(ctx context.Context, id int64) (model.SurpriseBag, error) {
	query := `SELECT ` + bagColumns + ` FROM surprise_bags b WHERE b.id = ?` + s.forUpdate()
	return s.scanBag(s.queryRow(ctx, query, id))
}

// GetBagOwned fetches a bag only if the store owns it.
func (s *SQLStore) GetBagOwned(ctx context.Context, id, storeID int64) (model.SurpriseBag, error) {
	query := `SELECT ` + bagColumns + ` FROM surprise_bags b WHERE b.id = ? AND b.store_id = ?`
	return s.scanBag(s.queryRow(ctx, query, id, storeID))
}

// UpdateBag persists all mutable bag fields.
func (s *SQLStore) UpdateBag(ctx context.Context, b model.SurpriseBag) error {
	const query = `
		UPDATE surprise_bags
		SET title = ?, description = ?, contents = ?, original_price = ?,
		    discount_price = ?, quantity = ?, is_active = ?, status = ?, image_url = ?
		WHERE id = ? AND store_id = ?`

	res, err := s.exec(ctx, query,
		b.Title, b.Description, b.Contents, b.OriginalPrice, b.DiscountPrice,
		b.Quantity, b.IsActive, string(b.Status), nullIfEmpty(b.ImageURL), b.ID, b.StoreID)
	if err != nil {
		return fmt.Errorf("failed to update bag: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteBag removes a bag owned by the store.
func (s *SQLStore) DeleteBag(ctx context.Context, id, storeID int64) error {
	const query = `DELETE FROM surprise_bags WHERE id = ? AND store_id = ?`

	res, err := s.exec(ctx, query, id, storeID)
	if err != nil {
		return fmt.Errorf("failed to delete bag: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

// AdjustBagQuantity adds delta to the quantity with a non-negative guard
// and recomputes the derived status in the same statement pair.
func (s *SQLStore) AdjustBagQuantity(ctx context.Context, bagID, delta int64) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		const update = `
			UPDATE surprise_bags
			SET quantity = quantity + ?
			WHERE id = ? AND quantity + ? >= 0`

		res, err := s.exec(ctx, update, delta, bagID, delta)
		if err != nil {
			return fmt.Errorf("failed to adjust bag quantity: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return model.ErrInsufficientStock
		}

		const restatus = `
			UPDATE surprise_bags
			SET status = CASE WHEN quantity > 0 AND is_active THEN 'available' ELSE 'sold' END
			WHERE id = ?`
		if _, err := s.exec(ctx, restatus, bagID); err != nil {
			return fmt.Errorf("failed to recompute bag status: %w", err)
		}
		return nil
	})
}

// ListAvailableBags returns the public listing with optional filters.
func (s *SQLStore) ListAvailableBags(ctx context.Context, f model.BagFilter) ([]model.SurpriseBag, error) {
	query := `
		SELECT ` + bagColumns + `, u.name
		FROM surprise_bags b
		JOIN users u ON u.id = b.store_id
		WHERE b.status = 'available' AND b.is_active`
	var args []any

	if f.PriceMin != nil {
		query += ` AND b.discount_price >= ?`
		args = append(args, *f.PriceMin)
	}
	if f.PriceMax != nil {
		query += ` AND b.discount_price <= ?`
		args = append(args, *f.PriceMax)
	}
	if f.StoreName != "" {
		query += ` AND LOWER(u.name) LIKE LOWER(?)`
		args = append(args, "%"+f.StoreName+"%")
	}
	if f.Search != "" {
		query += ` AND (LOWER(b.title) LIKE LOWER(?) OR LOWER(b.description) LIKE LOWER(?) OR LOWER(b.contents) LIKE LOWER(?))`
		term := "%" + f.Search + "%"
		args = append(args, term, term, term)
	}
	query += ` ORDER BY b.created_at DESC`

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bags: %w", err)
	}
	defer rows.Close()

	var bags []model.SurpriseBag
	for rows.Next() {
		b, err := scanBagRow(rows, true)
		if err != nil {
			return nil, err
		}
		bags = append(bags, b)
	}
	return bags, rows.Err()
}

// ListBagsByStore returns a store's own bags with optional search and sort.
func (s *SQLStore) ListBagsByStore(ctx context.Context, storeID int64, search, sort string) ([]model.SurpriseBag, error) {
	query := `SELECT ` + bagColumns + ` FROM surprise_bags b WHERE b.store_id = ?`
	args := []any{storeID}

	if search != "" {
		query += ` AND LOWER(b.title) LIKE LOWER(?)`
		args = append(args, "%"+search+"%")
	}

	switch sort {
	case model.BagSortOldest:
		query += ` ORDER BY b.created_at ASC`
	case model.BagSortPriceLowHigh:
		query += ` ORDER BY b.discount_price ASC`
	case model.BagSortPriceHighLow:
		query += ` ORDER BY b.discount_price DESC`
	default: // newest
		query += ` ORDER BY b.created_at DESC`
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list store bags: %w", err)
	}
	defer rows.Close()

	var bags []model.SurpriseBag
	for rows.Next() {
		b, err := scanBagRow(rows, false)
		if err != nil {
			return nil, err
		}
		bags = append(bags, b)
	}
	return bags, rows.Err()
}

// StoreStats aggregates listing and order counts for a store.
func (s *SQLStore) StoreStats(ctx context.Context, storeID int64) (model.StoreStats, error) {
	var stats model.StoreStats

	const totals = `SELECT COUNT(*) FROM surprise_bags WHERE store_id = ?`
	if err := s.queryRow(ctx, totals, storeID).Scan(&stats.TotalBags); err != nil {
		return stats, fmt.Errorf("failed to count bags: %w", err)
	}

	const active = `SELECT COUNT(*) FROM surprise_bags WHERE store_id = ? AND status = 'available'`
	if err := s.queryRow(ctx, active, storeID).Scan(&stats.ActiveBags); err != nil {
		return stats, fmt.Errorf("failed to count active bags: %w", err)
	}

	const orders = `
		SELECT COUNT(DISTINCT oi.order_id)
		FROM order_items oi
		JOIN surprise_bags b ON b.id = oi.surprise_bag_id
		WHERE b.store_id = ?`
	if err := s.queryRow(ctx, orders, storeID).Scan(&stats.TotalOrders); err != nil {
		return stats, fmt.Errorf("failed to count orders: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBagRow(row rowScanner, withStoreName bool) (model.SurpriseBag, error) {
	var b model.SurpriseBag
	var status string
	dest := []any{
		&b.ID, &b.StoreID, &b.Title, &b.Description, &b.Contents,
		&b.OriginalPrice, &b.DiscountPrice, &b.Quantity, &b.IsActive,
		&status, &b.ImageURL, &b.CreatedAt,
	}
	if withStoreName {
		dest = append(dest, &b.StoreName)
	}
	if err := row.Scan(dest...); err != nil {
		return model.SurpriseBag{}, fmt.Errorf("failed to scan bag: %w", err)
	}
	b.Status = model.BagStatus(status)
	return b, nil
}

func (s *SQLStore) scanBag(row *sql.Row) (model.SurpriseBag, error) {
	b, err := scanBagRow(row, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SurpriseBag{}, model.ErrNotFound
		}
		return model.SurpriseBag{}, err
	}
	return b, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
