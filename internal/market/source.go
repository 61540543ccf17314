package market

import (
	"context"
	"math"
)

// CompetitorPrice is one reference price for an item at a competing store
type CompetitorPrice struct {
	Price float64 `json:"price"`
	Store string  `json:"store"`
}

// PriceSource answers "what does this item cost elsewhere". Implementations
// may be local and free (Catalog), remote and rate-limited (OpenFoodFacts),
// or simulated. A nil result with a nil error means no reference price was
// found, which is not a failure.
type PriceSource interface {
	Lookup(ctx context.Context, itemName string, receiptPrice float64) (*CompetitorPrice, error)
}

// round2 rounds a dollar amount to cents
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
