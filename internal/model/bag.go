package model

import "time"

// BagStatus is derived purely from (quantity, is_active) and recomputed on
// every write.
type BagStatus string

const (
	BagStatusAvailable BagStatus = "available"
	BagStatusSold      BagStatus = "sold"
)

// ComputeBagStatus returns the status a bag must carry for the given
// quantity and active flag.
func ComputeBagStatus(quantity int64, isActive bool) BagStatus {
	if quantity > 0 && isActive {
		return BagStatusAvailable
	}
	return BagStatusSold
}

// SurpriseBag is a discounted surplus-food offer listed by a store.
// Prices are in minor currency units.
type SurpriseBag struct {
	ID            int64     `json:"id"`
	StoreID       int64     `json:"store_id"`
	StoreName     string    `json:"store_name,omitempty"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Contents      string    `json:"contents"`
	OriginalPrice int64     `json:"original_price"`
	DiscountPrice int64     `json:"discount_price"`
	Quantity      int64     `json:"quantity"`
	IsActive      bool      `json:"is_active"`
	Status        BagStatus `json:"status"`
	ImageURL      string    `json:"image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Available reports whether the bag can currently be ordered.
func (b *SurpriseBag) Available() bool {
	return b.IsActive && b.Status == BagStatusAvailable && b.Quantity > 0
}

// BagUpdate carries optional bag changes. Nil fields are left untouched.
type BagUpdate struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Contents      *string `json:"contents"`
	OriginalPrice *int64  `json:"original_price"`
	DiscountPrice *int64  `json:"discount_price"`
	Quantity      *int64  `json:"quantity"`
	IsActive      *bool   `json:"is_active"`
	ImageURL      *string `json:"image_url"`
}

// IsEmpty reports whether the update would change nothing.
func (u BagUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Contents == nil &&
		u.OriginalPrice == nil && u.DiscountPrice == nil &&
		u.Quantity == nil && u.IsActive == nil && u.ImageURL == nil
}

// BagFilter narrows the public bag listing.
type BagFilter struct {
	PriceMin  *int64
	PriceMax  *int64
	StoreName string
	Search    string
}

// Sort orders for the store's own bag listing.
const (
	BagSortNewest        = "newest"
	BagSortOldest        = "oldest"
	BagSortPriceLowHigh  = "price_low_to_high"
	BagSortPriceHighLow  = "price_high_to_low"
)

// StoreStats summarizes a store's listings and sales.
type StoreStats struct {
	TotalBags   int64 `json:"total_surprise_bags"`
	ActiveBags  int64 `json:"active_surprise_bags"`
	TotalOrders int64 `json:"total_orders"`
}
