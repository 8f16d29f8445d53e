package model

import "time"

// OrderStatus is the order lifecycle state. Transitions:
// pending -> confirmed -> completed, and pending|confirmed -> cancelled.
// A refund moves completed -> cancelled while reversing the seller credit.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order groups a customer's line items. TotalPrice is recomputed from line
// items at current bag prices rather than frozen at line-item creation.
type Order struct {
	ID         int64       `json:"id"`
	CustomerID int64       `json:"customer_id"`
	Status     OrderStatus `json:"status"`
	TotalPrice int64       `json:"total_price"`
	CreatedAt  time.Time   `json:"created_at"`
	Items      []OrderItem `json:"items"`
}

// OrderItem records what was purchased: (order, bag, quantity). Immutable
// once created; quantities flow back to the bag only on cancellation.
type OrderItem struct {
	ID            int64        `json:"id"`
	OrderID       int64        `json:"order_id"`
	SurpriseBagID int64        `json:"surprise_bag_id"`
	Quantity      int64        `json:"quantity"`
	Bag           *SurpriseBag `json:"surprise_bag,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}
