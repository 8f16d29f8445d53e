package service

import (
	"context"
	"fmt"
	"log"

	"surplus-saver-api/internal/clock"
	"surplus-saver-api/internal/model"
	"surplus-saver-api/internal/repository"
)

// OrderService implements the order lifecycle. Every mutation runs inside a
// single transaction so stock, order rows and ledger entries move together.
type OrderService struct {
	repo  repository.OrderRepository
	clock clock.Clock
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, clk clock.Clock) *OrderService {
	return &OrderService{repo: repo, clock: clk}
}

// Place adds quantity units of the bag to the customer's open order,
// creating a pending order when none exists. The buyer is debited by the
// change in the recomputed order total.
func (s *OrderService) Place(ctx context.Context, customerID, bagID, quantity int64) (model.Order, error) {
	if quantity <= 0 {
		return model.Order{}, fmt.Errorf("%w: quantity must be positive", model.ErrInvalidArgument)
	}

	var placed model.Order
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		bag, err := s.repo.GetBagForUpdate(ctx, bagID)
		if err != nil {
			return err
		}
		if !bag.Available() {
			return model.ErrNotFound
		}
		if bag.Quantity < quantity {
			return model.ErrInsufficientStock
		}

		candidate := bag.DiscountPrice * quantity
		balance, err := s.repo.GetBalance(ctx, customerID)
		if err != nil {
			return err
		}
		if balance < candidate {
			return model.ErrInsufficientFunds
		}

		order, err := s.repo.FindOpenOrder(ctx, customerID)
		if err != nil {
			return err
		}
		if order == nil {
			now := s.clock.Now()
			id, err := s.repo.CreateOrder(ctx, model.Order{
				CustomerID: customerID,
				Status:     model.OrderStatusPending,
				TotalPrice: 0,
				CreatedAt:  now,
			})
			if err != nil {
				return err
			}
			order = &model.Order{
				ID:         id,
				CustomerID: customerID,
				Status:     model.OrderStatusPending,
				CreatedAt:  now,
			}
		}

		if err := s.repo.AdjustBagQuantity(ctx, bagID, -quantity); err != nil {
			return err
		}
		if _, err := s.repo.AddOrderItem(ctx, model.OrderItem{
			OrderID:       order.ID,
			SurpriseBagID: bagID,
			Quantity:      quantity,
			CreatedAt:     s.clock.Now(),
		}); err != nil {
			return err
		}

		items, err := s.repo.ListOrderItems(ctx, order.ID)
		if err != nil {
			return err
		}
		newTotal := orderTotal(items)

		delta := newTotal - order.TotalPrice
		if delta > 0 {
			err = s.repo.ApplyLedgerEntry(ctx, model.LedgerEntry{
				UserID:    customerID,
				OrderID:   order.ID,
				Kind:      model.LedgerOrderDebit,
				Amount:    -delta,
				CreatedAt: s.clock.Now(),
			})
			if err != nil {
				return err
			}
		}
		if err := s.repo.UpdateOrderTotal(ctx, order.ID, newTotal); err != nil {
			return err
		}

		order.TotalPrice = newTotal
		order.Items = items
		placed = *order
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	log.Printf("[OrderService] Order %d: customer %d added %dx bag %d (total %d)",
		placed.ID, customerID, quantity, bagID, placed.TotalPrice)
	return placed, nil
}

// Confirm moves the customer's pending order to confirmed.
func (s *OrderService) Confirm(ctx context.Context, customerID, orderID int64) (model.Order, error) {
	var confirmed model.Order
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.loadOrder(ctx, orderID, customerID, model.OrderStatusPending)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateOrderStatus(ctx, orderID, model.OrderStatusConfirmed); err != nil {
			return err
		}
		order.Status = model.OrderStatusConfirmed
		confirmed = order
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	log.Printf("[OrderService] Order %d confirmed by customer %d", orderID, customerID)
	return confirmed, nil
}

// Cancel aborts a pending or confirmed order, returning stock to every bag
// and refunding the order total to the buyer.
func (s *OrderService) Cancel(ctx context.Context, customerID, orderID int64) (model.Order, error) {
	var cancelled model.Order
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.loadOrder(ctx, orderID, customerID,
			model.OrderStatusPending, model.OrderStatusConfirmed)
		if err != nil {
			return err
		}

		if err := s.restoreStock(ctx, order); err != nil {
			return err
		}
		if order.TotalPrice > 0 {
			err = s.repo.ApplyLedgerEntry(ctx, model.LedgerEntry{
				UserID:    customerID,
				OrderID:   order.ID,
				Kind:      model.LedgerCancelCredit,
				Amount:    order.TotalPrice,
				CreatedAt: s.clock.Now(),
			})
			if err != nil {
				return err
			}
		}
		if err := s.repo.UpdateOrderStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return err
		}
		order.Status = model.OrderStatusCancelled
		cancelled = order
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	log.Printf("[OrderService] Order %d cancelled by customer %d (refunded %d)",
		orderID, customerID, cancelled.TotalPrice)
	return cancelled, nil
}

// Complete marks the customer's confirmed order as picked up and pays the
// seller the order total.
func (s *OrderService) Complete(ctx context.Context, customerID, orderID int64) (model.Order, error) {
	var completed model.Order
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.loadOrder(ctx, orderID, customerID, model.OrderStatusConfirmed)
		if err != nil {
			return err
		}

		sellerID, err := s.sellerOf(order)
		if err != nil {
			return err
		}
		if order.TotalPrice > 0 {
			err = s.repo.ApplyLedgerEntry(ctx, model.LedgerEntry{
				UserID:    sellerID,
				OrderID:   order.ID,
				Kind:      model.LedgerSaleCredit,
				Amount:    order.TotalPrice,
				CreatedAt: s.clock.Now(),
			})
			if err != nil {
				return err
			}
		}
		if err := s.repo.UpdateOrderStatus(ctx, orderID, model.OrderStatusCompleted); err != nil {
			return err
		}
		order.Status = model.OrderStatusCompleted
		completed = order
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	log.Printf("[OrderService] Order %d completed by customer %d (seller paid %d)",
		orderID, customerID, completed.TotalPrice)
	return completed, nil
}

// Refund reverses a completed order: the seller is debited, stock is
// restored and the buyer is credited. The order ends up cancelled.
func (s *OrderService) Refund(ctx context.Context, customerID, orderID int64) (model.Order, error) {
	var refunded model.Order
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.loadOrder(ctx, orderID, customerID, model.OrderStatusCompleted)
		if err != nil {
			return err
		}

		sellerID, err := s.sellerOf(order)
		if err != nil {
			return err
		}
		if order.TotalPrice > 0 {
			err = s.repo.ApplyLedgerEntry(ctx, model.LedgerEntry{
				UserID:    sellerID,
				OrderID:   order.ID,
				Kind:      model.LedgerRefundDebit,
				Amount:    -order.TotalPrice,
				CreatedAt: s.clock.Now(),
			})
			if err != nil {
				return err
			}
		}
		if err := s.restoreStock(ctx, order); err != nil {
			return err
		}
		if order.TotalPrice > 0 {
			err = s.repo.ApplyLedgerEntry(ctx, model.LedgerEntry{
				UserID:    customerID,
				OrderID:   order.ID,
				Kind:      model.LedgerRefundCredit,
				Amount:    order.TotalPrice,
				CreatedAt: s.clock.Now(),
			})
			if err != nil {
				return err
			}
		}
		if err := s.repo.UpdateOrderStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return err
		}
		order.Status = model.OrderStatusCancelled
		refunded = order
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	log.Printf("[OrderService] Order %d refunded to customer %d (%d)",
		orderID, customerID, refunded.TotalPrice)
	return refunded, nil
}

// Get returns the customer's order with its items, any status.
func (s *OrderService) Get(ctx context.Context, customerID, orderID int64) (model.Order, error) {
	return s.loadOrder(ctx, orderID, customerID)
}

// ListForCustomer returns the customer's orders, newest first.
func (s *OrderService) ListForCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	return s.repo.ListOrdersByCustomer(ctx, customerID)
}

// ListForStore returns orders containing any of the store's bags.
func (s *OrderService) ListForStore(ctx context.Context, storeID int64) ([]model.Order, error) {
	return s.repo.ListOrdersByStore(ctx, storeID)
}

// loadOrder fetches the order restricted to the given states and attaches
// its line items.
func (s *OrderService) loadOrder(ctx context.Context, orderID, customerID int64, statuses ...model.OrderStatus) (model.Order, error) {
	order, err := s.repo.GetOrderInStatus(ctx, orderID, customerID, statuses...)
	if err != nil {
		return model.Order{}, err
	}
	items, err := s.repo.ListOrderItems(ctx, order.ID)
	if err != nil {
		return model.Order{}, err
	}
	order.Items = items
	return order, nil
}

func (s *OrderService) restoreStock(ctx context.Context, order model.Order) error {
	for _, item := range order.Items {
		if err := s.repo.AdjustBagQuantity(ctx, item.SurpriseBagID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// sellerOf resolves the payee: the owner of the first line item's bag.
func (s *OrderService) sellerOf(order model.Order) (int64, error) {
	if len(order.Items) == 0 {
		return 0, model.ErrOrderEmpty
	}
	first := order.Items[0]
	if first.Bag == nil {
		return 0, fmt.Errorf("order %d: item %d has no bag loaded", order.ID, first.ID)
	}
	return first.Bag.StoreID, nil
}

func orderTotal(items []model.OrderItem) int64 {
	var total int64
	for _, item := range items {
		if item.Bag == nil {
			continue
		}
		total += item.Quantity * item.Bag.DiscountPrice
	}
	return total
}
