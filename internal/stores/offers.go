package stores

import (
	"fmt"
	"strings"
)

// Offer is a store-scoped coupon for one user.
type Offer struct {
	StoreID     string `json:"store_id"`
	CouponCode  string `json:"coupon_code"`
	Description string `json:"description"`
	ValidTill   string `json:"valid_till"`
	LoyaltyTier string `json:"loyalty_tier"`
}

// discountForTier maps a loyalty tier to its hot-beverage discount percent.
func discountForTier(tier string) int {
	switch strings.ToLower(tier) {
	case "gold":
		return 15
	case "silver":
		return 10
	default: // bronze and unknown tiers
		return 5
	}
}

// OffersForStores builds one loyalty-aware offer per candidate store.
func OffersForStores(loyaltyTier string, stores []Store) []Offer {
	discount := discountForTier(loyaltyTier)

	offers := make([]Offer, 0, len(stores))
	for i, s := range stores {
		offers = append(offers, Offer{
			StoreID:     s.ID,
			CouponCode:  fmt.Sprintf("HOT%d_%d", discount, i+1),
			Description: fmt.Sprintf("%d%% off hot beverages", discount),
			ValidTill:   "2025-12-31",
			LoyaltyTier: loyaltyTier,
		})
	}
	return offers
}
