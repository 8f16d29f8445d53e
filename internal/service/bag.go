package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"surplus-saver-api/internal/cache"
	"surplus-saver-api/internal/clock"
	"surplus-saver-api/internal/model"
	"surplus-saver-api/internal/repository"
)

// BagService handles surprise bag management and listings.
type BagService struct {
	repo     repository.BagRepository
	cache    cache.Cache
	cacheTTL time.Duration
	clock    clock.Clock
}

// NewBagService creates a new bag service. cache may be nil to disable
// listing caching.
func NewBagService(repo repository.BagRepository, c cache.Cache, cacheTTL time.Duration, clk clock.Clock) *BagService {
	return &BagService{
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		clock:    clk,
	}
}

// CreateBagInput carries the fields of a new bag.
type CreateBagInput struct {
	Title         string
	Description   string
	Contents      string
	OriginalPrice int64
	DiscountPrice int64
	Quantity      int64
	IsActive      bool
	ImageURL      string
}

// Create validates and stores a new bag for the store.
func (s *BagService) Create(ctx context.Context, storeID int64, in CreateBagInput) (model.SurpriseBag, error) {
	if in.Title == "" || in.Description == "" || in.Contents == "" {
		return model.SurpriseBag{}, fmt.Errorf("%w: title, description and contents are required", model.ErrInvalidArgument)
	}
	if err := validatePrices(in.OriginalPrice, in.DiscountPrice); err != nil {
		return model.SurpriseBag{}, err
	}
	if in.Quantity < 0 {
		return model.SurpriseBag{}, fmt.Errorf("%w: quantity cannot be negative", model.ErrInvalidArgument)
	}

	bag := model.SurpriseBag{
		StoreID:       storeID,
		Title:         in.Title,
		Description:   in.Description,
		Contents:      in.Contents,
		OriginalPrice: in.OriginalPrice,
		DiscountPrice: in.DiscountPrice,
		Quantity:      in.Quantity,
		IsActive:      in.IsActive,
		Status:        model.ComputeBagStatus(in.Quantity, in.IsActive),
		ImageURL:      in.ImageURL,
		CreatedAt:     s.clock.Now(),
	}

	id, err := s.repo.CreateBag(ctx, bag)
	if err != nil {
		return model.SurpriseBag{}, err
	}
	bag.ID = id

	s.invalidateListing(ctx)
	log.Printf("[BagService] Bag %d created by store %d", id, storeID)
	return bag, nil
}

// Update applies the non-nil fields and recomputes the derived status.
// Fails with NotFound when the bag does not exist or is not owned by the
// store.
func (s *BagService) Update(ctx context.Context, bagID, storeID int64, in model.BagUpdate) (model.SurpriseBag, error) {
	if in.IsEmpty() {
		return model.SurpriseBag{}, fmt.Errorf("%w: at least one field must be provided to update", model.ErrInvalidArgument)
	}

	var updated model.SurpriseBag
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		bag, err := s.repo.GetBagOwned(ctx, bagID, storeID)
		if err != nil {
			return err
		}

		if in.Title != nil {
			bag.Title = *in.Title
		}
		if in.Description != nil {
			bag.Description = *in.Description
		}
		if in.Contents != nil {
			bag.Contents = *in.Contents
		}
		if in.OriginalPrice != nil {
			bag.OriginalPrice = *in.OriginalPrice
		}
		if in.DiscountPrice != nil {
			bag.DiscountPrice = *in.DiscountPrice
		}
		if in.Quantity != nil {
			if *in.Quantity < 0 {
				return fmt.Errorf("%w: quantity cannot be negative", model.ErrInvalidArgument)
			}
			bag.Quantity = *in.Quantity
		}
		if in.IsActive != nil {
			bag.IsActive = *in.IsActive
		}
		if in.ImageURL != nil {
			bag.ImageURL = *in.ImageURL
		}

		if err := validatePrices(bag.OriginalPrice, bag.DiscountPrice); err != nil {
			return err
		}

		bag.Status = model.ComputeBagStatus(bag.Quantity, bag.IsActive)
		if err := s.repo.UpdateBag(ctx, bag); err != nil {
			return err
		}
		updated = bag
		return nil
	})
	if err != nil {
		return model.SurpriseBag{}, err
	}

	s.invalidateListing(ctx)
	log.Printf("[BagService] Bag %d updated by store %d", bagID, storeID)
	return updated, nil
}

// Delete removes the store's bag.
func (s *BagService) Delete(ctx context.Context, bagID, storeID int64) error {
	if err := s.repo.DeleteBag(ctx, bagID, storeID); err != nil {
		return err
	}
	s.invalidateListing(ctx)
	log.Printf("[BagService] Bag %d deleted by store %d", bagID, storeID)
	return nil
}

// ListAvailable returns the public listing, served from cache when possible.
func (s *BagService) ListAvailable(ctx context.Context, f model.BagFilter) ([]model.SurpriseBag, error) {
	if s.cache == nil {
		return s.repo.ListAvailableBags(ctx, f)
	}

	key := listingCacheKey(f)
	data, err := s.cache.GetOrSet(ctx, key, s.cacheTTL, func() ([]byte, error) {
		bags, err := s.repo.ListAvailableBags(ctx, f)
		if err != nil {
			return nil, err
		}
		return json.Marshal(bags)
	})
	if err != nil {
		// Cache trouble should not take the listing down.
		return s.repo.ListAvailableBags(ctx, f)
	}

	var bags []model.SurpriseBag
	if err := json.Unmarshal(data, &bags); err != nil {
		return s.repo.ListAvailableBags(ctx, f)
	}
	return bags, nil
}

// ListByStore returns the store's own bags with optional search and sort.
func (s *BagService) ListByStore(ctx context.Context, storeID int64, search, sort string) ([]model.SurpriseBag, error) {
	return s.repo.ListBagsByStore(ctx, storeID, search, sort)
}

// Stats aggregates the store's listing and order counts.
func (s *BagService) Stats(ctx context.Context, storeID int64) (model.StoreStats, error) {
	return s.repo.StoreStats(ctx, storeID)
}

func (s *BagService) invalidateListing(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(ctx); err != nil {
		log.Printf("[BagService] Failed to invalidate listing cache: %v", err)
	}
}

func listingCacheKey(f model.BagFilter) string {
	min, max := int64(-1), int64(-1)
	if f.PriceMin != nil {
		min = *f.PriceMin
	}
	if f.PriceMax != nil {
		max = *f.PriceMax
	}
	return fmt.Sprintf("bags:%d:%d:%s:%s", min, max, f.StoreName, f.Search)
}

func validatePrices(original, discount int64) error {
	if original <= 0 {
		return fmt.Errorf("%w: original price must be positive", model.ErrInvalidArgument)
	}
	if discount <= 0 {
		return fmt.Errorf("%w: discount price must be positive", model.ErrInvalidArgument)
	}
	if original <= discount {
		return fmt.Errorf("%w: original price must be greater than discount price", model.ErrInvalidArgument)
	}
	return nil
}
