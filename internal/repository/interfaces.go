package repository

import (
	"context"

	"surplus-saver-api/internal/model"
)

// Tx runs fn inside a single database transaction. Repository calls made
// with the context passed to fn join that transaction.
type Tx interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines account and ledger data access.
type UserRepository interface {
	Tx

	CreateUser(ctx context.Context, u model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	PhoneExists(ctx context.Context, phone string, excludeID int64) (bool, error)
	UpdateUser(ctx context.Context, u model.User) error

	// ApplyLedgerEntry applies the signed amount to the user's balance and
	// appends the entry. Fails with model.ErrInsufficientFunds if the
	// balance would go negative; no entry is written in that case.
	ApplyLedgerEntry(ctx context.Context, e model.LedgerEntry) error
	GetBalance(ctx context.Context, userID int64) (int64, error)
	ListLedgerEntries(ctx context.Context, userID int64) ([]model.LedgerEntry, error)
}

// BagRepository defines surprise-bag data access.
type BagRepository interface {
	Tx

	CreateBag(ctx context.Context, b model.SurpriseBag) (int64, error)
	GetBag(ctx context.Context, id int64) (model.SurpriseBag, error)
	// GetBagOwned fails with model.ErrNotFound when the bag does not exist
	// or belongs to a different store.
	GetBagOwned(ctx context.Context, id, storeID int64) (model.SurpriseBag, error)
	UpdateBag(ctx context.Context, b model.SurpriseBag) error
	DeleteBag(ctx context.Context, id, storeID int64) error
	ListAvailableBags(ctx context.Context, f model.BagFilter) ([]model.SurpriseBag, error)
	ListBagsByStore(ctx context.Context, storeID int64, search, sort string) ([]model.SurpriseBag, error)
	StoreStats(ctx context.Context, storeID int64) (model.StoreStats, error)
}

// OrderRepository defines everything the order lifecycle touches: orders,
// line items, bag quantities and user balances. The quantity and balance
// methods live here so a single transaction can cover the whole transition.
type OrderRepository interface {
	Tx

	GetBagForUpdate(ctx context.Context, bagID int64) (model.SurpriseBag, error)
	GetBag(ctx context.Context, bagID int64) (model.SurpriseBag, error)
	// AdjustBagQuantity adds delta to the bag's quantity and recomputes its
	// status. Fails with model.ErrInsufficientStock if the quantity would
	// go negative.
	AdjustBagQuantity(ctx context.Context, bagID, delta int64) error

	FindOpenOrder(ctx context.Context, customerID int64) (*model.Order, error)
	CreateOrder(ctx context.Context, o model.Order) (int64, error)
	// GetOrderInStatus fails with model.ErrNotFound when no order matches
	// the (id, customer, status...) filter.
	GetOrderInStatus(ctx context.Context, orderID, customerID int64, statuses ...model.OrderStatus) (model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	UpdateOrderTotal(ctx context.Context, orderID, total int64) error

	AddOrderItem(ctx context.Context, item model.OrderItem) (int64, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]model.OrderItem, error)

	ApplyLedgerEntry(ctx context.Context, e model.LedgerEntry) error
	GetBalance(ctx context.Context, userID int64) (int64, error)

	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]model.Order, error)
	ListOrdersByStore(ctx context.Context, storeID int64) ([]model.Order, error)
}

// ReportRepository defines background report data access.
type ReportRepository interface {
	CreateReport(ctx context.Context, r model.Report) error
	GetReportOwned(ctx context.Context, id string, storeID int64) (model.Report, error)
	GetReport(ctx context.Context, id string) (model.Report, error)
	CompleteReport(ctx context.Context, id string, payload []byte) error
	FailReport(ctx context.Context, id string, errMsg string) error
}

// Ensure SQLStore implements every repository interface.
var (
	_ UserRepository   = (*SQLStore)(nil)
	_ BagRepository    = (*SQLStore)(nil)
	_ OrderRepository  = (*SQLStore)(nil)
	_ ReportRepository = (*SQLStore)(nil)
)
