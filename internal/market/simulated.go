package market

import (
	"context"
	"math/rand"
	"sync"
)

// Simulated mimics a competitor price feed for demo use when no real source
// is configured: roughly 70% of items get a competitor price, 5-15% below
// the receipt price.
type Simulated struct {
	mu   sync.Mutex
	rand *rand.Rand
}

const (
	simulatedHitRate     = 0.7
	simulatedMinDiscount = 0.05
	simulatedMaxDiscount = 0.15
)

// NewSimulated creates a Simulated source with the given seed. The seed is
// fixed at construction so tests can pin the sequence.
func NewSimulated(seed int64) *Simulated {
	return &Simulated{rand: rand.New(rand.NewSource(seed))}
}

// Lookup implements PriceSource with a randomized discount. It never fails.
func (s *Simulated) Lookup(_ context.Context, _ string, receiptPrice float64) (*CompetitorPrice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rand.Float64() >= simulatedHitRate {
		return nil, nil
	}
	discount := simulatedMinDiscount + s.rand.Float64()*(simulatedMaxDiscount-simulatedMinDiscount)
	return &CompetitorPrice{
		Price: round2(receiptPrice * (1 - discount)),
		Store: referenceStore + " (est.)",
	}, nil
}
