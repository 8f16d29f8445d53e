package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"surplus-saver-api/internal/model"
	"surplus-saver-api/internal/repository"
)

// fakeStore is an in-memory stand-in for the SQL store. It applies the same
// guards the SQL layer does: balances and quantities never go negative, and
// guard failures happen before any mutation.
type fakeStore struct {
	mu      sync.Mutex
	users   map[int64]model.User
	bags    map[int64]model.SurpriseBag
	orders  map[int64]model.Order
	items   map[int64][]model.OrderItem
	ledger  []model.LedgerEntry
	reports map[string]model.Report
	nextID  int64

	statsErrs int // remaining StoreStats calls to fail
}

var (
	_ repository.UserRepository   = (*fakeStore)(nil)
	_ repository.BagRepository    = (*fakeStore)(nil)
	_ repository.OrderRepository  = (*fakeStore)(nil)
	_ repository.ReportRepository = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[int64]model.User),
		bags:    make(map[int64]model.SurpriseBag),
		orders:  make(map[int64]model.Order),
		items:   make(map[int64][]model.OrderItem),
		reports: make(map[string]model.Report),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addUser(u model.User) model.User {
	u.ID = f.id()
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) addBag(b model.SurpriseBag) model.SurpriseBag {
	b.ID = f.id()
	b.Status = model.ComputeBagStatus(b.Quantity, b.IsActive)
	f.bags[b.ID] = b
	return b
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeStore) CreateUser(ctx context.Context, u model.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.id()
	f.users[u.ID] = u
	return u.ID, nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (f *fakeStore) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) PhoneExists(ctx context.Context, phone string, excludeID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Phone == phone && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, u model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.users[u.ID]
	if !ok {
		return model.ErrNotFound
	}
	existing.Name = u.Name
	existing.Email = u.Email
	existing.Phone = u.Phone
	existing.PasswordHash = u.PasswordHash
	f.users[u.ID] = existing
	return nil
}

func (f *fakeStore) ApplyLedgerEntry(ctx context.Context, e model.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[e.UserID]
	if !ok {
		return model.ErrNotFound
	}
	if u.Balance+e.Amount < 0 {
		return model.ErrInsufficientFunds
	}
	u.Balance += e.Amount
	f.users[e.UserID] = u
	e.ID = f.id()
	f.ledger = append(f.ledger, e)
	return nil
}

func (f *fakeStore) GetBalance(ctx context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return 0, model.ErrNotFound
	}
	return u.Balance, nil
}

func (f *fakeStore) ListLedgerEntries(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.LedgerEntry
	for _, e := range f.ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ledgerSum recomputes a user's balance from entries alone.
func (f *fakeStore) ledgerSum(userID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, e := range f.ledger {
		if e.UserID == userID {
			sum += e.Amount
		}
	}
	return sum
}

func (f *fakeStore) CreateBag(ctx context.Context, b model.SurpriseBag) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.id()
	f.bags[b.ID] = b
	return b.ID, nil
}

func (f *fakeStore) GetBag(ctx context.Context, id int64) (model.SurpriseBag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bags[id]
	if !ok {
		return model.SurpriseBag{}, model.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) GetBagOwned(ctx context.Context, id, storeID int64) (model.SurpriseBag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bags[id]
	if !ok || b.StoreID != storeID {
		return model.SurpriseBag{}, model.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) UpdateBag(ctx context.Context, b model.SurpriseBag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bags[b.ID]; !ok {
		return model.ErrNotFound
	}
	f.bags[b.ID] = b
	return nil
}

func (f *fakeStore) DeleteBag(ctx context.Context, id, storeID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bags[id]
	if !ok || b.StoreID != storeID {
		return model.ErrNotFound
	}
	delete(f.bags, id)
	return nil
}

func (f *fakeStore) ListAvailableBags(ctx context.Context, filter model.BagFilter) ([]model.SurpriseBag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.SurpriseBag
	for _, b := range f.bags {
		if b.Status != model.BagStatusAvailable {
			continue
		}
		if filter.PriceMin != nil && b.DiscountPrice < *filter.PriceMin {
			continue
		}
		if filter.PriceMax != nil && b.DiscountPrice > *filter.PriceMax {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListBagsByStore(ctx context.Context, storeID int64, search, sortOrder string) ([]model.SurpriseBag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.SurpriseBag
	for _, b := range f.bags {
		if b.StoreID != storeID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(search)) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		switch sortOrder {
		case model.BagSortPriceLowHigh:
			return out[i].DiscountPrice < out[j].DiscountPrice
		case model.BagSortPriceHighLow:
			return out[i].DiscountPrice > out[j].DiscountPrice
		case model.BagSortOldest:
			return out[i].ID < out[j].ID
		default:
			return out[i].ID > out[j].ID
		}
	})
	return out, nil
}

func (f *fakeStore) StoreStats(ctx context.Context, storeID int64) (model.StoreStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statsErrs > 0 {
		f.statsErrs--
		return model.StoreStats{}, fmt.Errorf("stats backend unavailable")
	}
	var stats model.StoreStats
	seen := make(map[int64]bool)
	for _, b := range f.bags {
		if b.StoreID != storeID {
			continue
		}
		stats.TotalBags++
		if b.Status == model.BagStatusAvailable {
			stats.ActiveBags++
		}
	}
	for orderID, items := range f.items {
		for _, it := range items {
			b, ok := f.bags[it.SurpriseBagID]
			if ok && b.StoreID == storeID && !seen[orderID] {
				seen[orderID] = true
				stats.TotalOrders++
			}
		}
	}
	return stats, nil
}

func (f *fakeStore) GetBagForUpdate(ctx context.Context, bagID int64) (model.SurpriseBag, error) {
	return f.GetBag(ctx, bagID)
}

func (f *fakeStore) AdjustBagQuantity(ctx context.Context, bagID, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bags[bagID]
	if !ok {
		return model.ErrNotFound
	}
	if b.Quantity+delta < 0 {
		return model.ErrInsufficientStock
	}
	b.Quantity += delta
	b.Status = model.ComputeBagStatus(b.Quantity, b.IsActive)
	f.bags[bagID] = b
	return nil
}

func (f *fakeStore) FindOpenOrder(ctx context.Context, customerID int64) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.CustomerID == customerID &&
			(o.Status == model.OrderStatusPending || o.Status == model.OrderStatusConfirmed) {
			found := o
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateOrder(ctx context.Context, o model.Order) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = f.id()
	f.orders[o.ID] = o
	return o.ID, nil
}

func (f *fakeStore) GetOrderInStatus(ctx context.Context, orderID, customerID int64, statuses ...model.OrderStatus) (model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.CustomerID != customerID {
		return model.Order{}, model.ErrNotFound
	}
	if len(statuses) == 0 {
		return o, nil
	}
	for _, st := range statuses {
		if o.Status == st {
			return o, nil
		}
	}
	return model.Order{}, model.ErrNotFound
}

func (f *fakeStore) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return model.ErrNotFound
	}
	o.Status = status
	f.orders[orderID] = o
	return nil
}

func (f *fakeStore) UpdateOrderTotal(ctx context.Context, orderID, total int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return model.ErrNotFound
	}
	o.TotalPrice = total
	f.orders[orderID] = o
	return nil
}

func (f *fakeStore) AddOrderItem(ctx context.Context, item model.OrderItem) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = f.id()
	f.items[item.OrderID] = append(f.items[item.OrderID], item)
	return item.ID, nil
}

func (f *fakeStore) ListOrderItems(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]model.OrderItem, 0, len(f.items[orderID]))
	for _, it := range f.items[orderID] {
		if b, ok := f.bags[it.SurpriseBagID]; ok {
			bag := b
			it.Bag = &bag
		}
		items = append(items, it)
	}
	return items, nil
}

func (f *fakeStore) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	f.mu.Lock()
	var ids []int64
	for id, o := range f.orders {
		if o.CustomerID == customerID {
			ids = append(ids, id)
		}
	}
	f.mu.Unlock()
	return f.collectOrders(ctx, ids)
}

func (f *fakeStore) ListOrdersByStore(ctx context.Context, storeID int64) ([]model.Order, error) {
	f.mu.Lock()
	var ids []int64
	for id, items := range f.items {
		for _, it := range items {
			if b, ok := f.bags[it.SurpriseBagID]; ok && b.StoreID == storeID {
				ids = append(ids, id)
				break
			}
		}
	}
	f.mu.Unlock()
	return f.collectOrders(ctx, ids)
}

func (f *fakeStore) collectOrders(ctx context.Context, ids []int64) ([]model.Order, error) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	out := make([]model.Order, 0, len(ids))
	for _, id := range ids {
		f.mu.Lock()
		o := f.orders[id]
		f.mu.Unlock()
		items, err := f.ListOrderItems(ctx, id)
		if err != nil {
			return nil, err
		}
		o.Items = items
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeStore) CreateReport(ctx context.Context, r model.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[r.ID] = r
	return nil
}

func (f *fakeStore) GetReportOwned(ctx context.Context, id string, storeID int64) (model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok || r.StoreID != storeID {
		return model.Report{}, model.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) GetReport(ctx context.Context, id string) (model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return model.Report{}, model.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) CompleteReport(ctx context.Context, id string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return model.ErrNotFound
	}
	r.Status = model.ReportStatusCompleted
	r.Payload = payload
	f.reports[id] = r
	return nil
}

func (f *fakeStore) FailReport(ctx context.Context, id string, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return model.ErrNotFound
	}
	r.Status = model.ReportStatusFailed
	r.Error = errMsg
	f.reports[id] = r
	return nil
}
