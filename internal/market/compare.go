package market

import (
	"context"
	"log/slog"

	"github.com/grocerwatch/grocerwatch/internal/parsing"
)

// AdvocacyThreshold is the minimum fractional markup over a competitor price
// that flags a receipt line as a questionable sale
const AdvocacyThreshold = 0.20

// PriceComparison pairs one receipt line with its reference market price.
// Savings and the questionable flag are both derivable from the record;
// their conditions overlap (a large markup implies positive savings), so the
// record carries the raw numbers and consumers apply their own precedence.
type PriceComparison struct {
	ItemName        string   `json:"item_name"`
	ReceiptPrice    float64  `json:"receipt_price"`
	CompetitorPrice *float64 `json:"competitor_price"`
	Savings         float64  `json:"savings"`
	StoreName       string   `json:"store_name"`
}

// OverMarketPercent is the fractional markup of the receipt price over the
// competitor price. The second return is false when no competitor price
// exists or it is not positive.
func (p PriceComparison) OverMarketPercent() (float64, bool) {
	if p.CompetitorPrice == nil || *p.CompetitorPrice <= 0 {
		return 0, false
	}
	return (p.ReceiptPrice - *p.CompetitorPrice) / *p.CompetitorPrice, true
}

// Questionable reports whether the markup over the competitor price meets
// the advocacy threshold. It is independent of Savings: both can be true for
// the same record.
func (p PriceComparison) Questionable() bool {
	pct, ok := p.OverMarketPercent()
	return ok && pct >= AdvocacyThreshold
}

// Compare derives one PriceComparison per item, in item order, against the
// given price source. A failed or empty lookup degrades that single item to
// "no competitor price"; nothing aborts the batch, and no error ever reaches
// the caller.
func Compare(ctx context.Context, items []parsing.ParsedLineItem, source PriceSource) []PriceComparison {
	comparisons := make([]PriceComparison, 0, len(items))

	for _, item := range items {
		receiptPrice := round2(item.Price * item.Quantity)

		competitor, err := source.Lookup(ctx, item.ItemName, receiptPrice)
		if err != nil {
			slog.Warn("Price lookup failed", "item", item.ItemName, "error", err)
			competitor = nil
		}

		comparison := PriceComparison{
			ItemName:     item.ItemName,
			ReceiptPrice: receiptPrice,
			StoreName:    referenceStore,
		}
		if competitor != nil {
			price := round2(competitor.Price)
			comparison.CompetitorPrice = &price
			comparison.StoreName = competitor.Store
			if price < receiptPrice {
				comparison.Savings = round2(receiptPrice - price)
			}
		}
		comparisons = append(comparisons, comparison)
	}

	return comparisons
}
