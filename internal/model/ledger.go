package model

import "time"

// LedgerKind classifies a balance movement.
type LedgerKind string

const (
	LedgerDeposit      LedgerKind = "deposit"       // top-up by the user
	LedgerOrderDebit   LedgerKind = "order_debit"   // buyer pays on placement
	LedgerCancelCredit LedgerKind = "cancel_credit" // buyer refunded on cancel
	LedgerSaleCredit   LedgerKind = "sale_credit"   // seller paid on completion
	LedgerRefundDebit  LedgerKind = "refund_debit"  // seller pays back on refund
	LedgerRefundCredit LedgerKind = "refund_credit" // buyer refunded on refund
)

// LedgerEntry is an append-only record of a single credit or debit. Amount
// is signed; a user's balance is the sum of their entries.
type LedgerEntry struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	OrderID   int64      `json:"order_id,omitempty"`
	Amount    int64      `json:"amount"`
	Kind      LedgerKind `json:"kind"`
	CreatedAt time.Time  `json:"created_at"`
}
