package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"surplus-saver-api/internal/model"
)

// FindOpenOrder returns the customer's order in pending or confirmed state,
// or nil when there is none.
func (s *SQLStore) FindOpenOrder(ctx context.Context, customerID int64) (*model.Order, error) {
	const query = `
		SELECT id, customer_id, status, total_price, created_at
		FROM orders
		WHERE customer_id = ? AND status IN ('pending', 'confirmed')
		ORDER BY id LIMIT 1`

	o, err := s.scanOrder(s.queryRow(ctx, query, customerID))
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder inserts a new order and returns its id.
func (s *SQLStore) CreateOrder(ctx context.Context, o model.Order) (int64, error) {
	const query = `
		INSERT INTO orders (customer_id, status, total_price, created_at)
		VALUES (?, ?, ?, ?)`

	id, err := s.insertReturningID(ctx, query, o.CustomerID, string(o.Status), o.TotalPrice, o.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	return id, nil
}

// GetOrderInStatus fetches the order only when it matches the
// (id, customer, status...) filter, mirroring the lifecycle transitions'
// failure semantics: anything else is a NotFound.
func (s *SQLStore) GetOrderInStatus(ctx context.Context, orderID, customerID int64, statuses ...model.OrderStatus) (model.Order, error) {
	query := `
		SELECT id, customer_id, status, total_price, created_at
		FROM orders
		WHERE id = ? AND customer_id = ?`
	args := []any{orderID, customerID}

	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += s.forUpdate()

	return s.scanOrder(s.queryRow(ctx, query, args...))
}

// UpdateOrderStatus flips the order's lifecycle state.
func (s *SQLStore) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	const query = `UPDATE orders SET status = ? WHERE id = ?`

	res, err := s.exec(ctx, query, string(status), orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

// UpdateOrderTotal stores the recomputed total.
func (s *SQLStore) UpdateOrderTotal(ctx context.Context, orderID, total int64) error {
	const query = `UPDATE orders SET total_price = ? WHERE id = ?`

	res, err := s.exec(ctx, query, total, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order total: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

// AddOrderItem appends a line item to an order.
func (s *SQLStore) AddOrderItem(ctx context.Context, item model.OrderItem) (int64, error) {
	const query = `
		INSERT INTO order_items (order_id, surprise_bag_id, quantity, created_at)
		VALUES (?, ?, ?, ?)`

	id, err := s.insertReturningID(ctx, query, item.OrderID, item.SurpriseBagID, item.Quantity, item.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to add order item: %w", err)
	}
	return id, nil
}

// ListOrderItems returns an order's line items with the current bag row
// attached. Totals derived from this read reflect current prices.
func (s *SQLStore) ListOrderItems(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.surprise_bag_id, oi.quantity, oi.created_at,
			` + bagColumns + `, u.name
		FROM order_items oi
		JOIN surprise_bags b ON b.id = oi.surprise_bag_id
		JOIN users u ON u.id = b.store_id
		WHERE oi.order_id = ?
		ORDER BY oi.id`

	rows, err := s.query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		var b model.SurpriseBag
		var status string
		err := rows.Scan(
			&it.ID, &it.OrderID, &it.SurpriseBagID, &it.Quantity, &it.CreatedAt,
			&b.ID, &b.StoreID, &b.Title, &b.Description, &b.Contents,
			&b.OriginalPrice, &b.DiscountPrice, &b.Quantity, &b.IsActive,
			&status, &b.ImageURL, &b.CreatedAt, &b.StoreName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		b.Status = model.BagStatus(status)
		it.Bag = &b
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListOrdersByCustomer returns the customer's orders with items attached.
func (s *SQLStore) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	const query = `
		SELECT id, customer_id, status, total_price, created_at
		FROM orders WHERE customer_id = ?
		ORDER BY id DESC`

	return s.listOrders(ctx, query, customerID)
}

// ListOrdersByStore returns orders containing at least one of the store's
// bags, with items attached.
func (s *SQLStore) ListOrdersByStore(ctx context.Context, storeID int64) ([]model.Order, error) {
	const query = `
		SELECT DISTINCT o.id, o.customer_id, o.status, o.total_price, o.created_at
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN surprise_bags b ON b.id = oi.surprise_bag_id
		WHERE b.store_id = ?
		ORDER BY o.id DESC`

	return s.listOrders(ctx, query, storeID)
}

func (s *SQLStore) listOrders(ctx context.Context, query string, arg int64) ([]model.Order, error) {
	rows, err := s.query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var status string
		if err := rows.Scan(&o.ID, &o.CustomerID, &status, &o.TotalPrice, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Status = model.OrderStatus(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := s.ListOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *SQLStore) scanOrder(row *sql.Row) (model.Order, error) {
	var o model.Order
	var status string
	err := row.Scan(&o.ID, &o.CustomerID, &status, &o.TotalPrice, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Order{}, model.ErrNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("failed to scan order: %w", err)
	}
	o.Status = model.OrderStatus(status)
	return o, nil
}
