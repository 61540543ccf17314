package scan

import (
	"fmt"
	"time"

	"github.com/grocerwatch/grocerwatch/internal/market"
	"github.com/grocerwatch/grocerwatch/internal/parsing"
)

// Credit awards per scan, keyed by reward tier
const (
	CreditsStandard = 10
	CreditsLocalGem = 25
)

// Record is one processed receipt scan: the transcript it came from and
// everything derived from it
type Record struct {
	ID          string                   `json:"id"`
	StoreName   string                   `json:"store_name,omitempty"`
	StoreType   parsing.StoreType        `json:"store_type"`
	RawText     string                   `json:"raw_text"`
	Items       []parsing.ParsedLineItem `json:"items"`
	Comparisons []market.PriceComparison `json:"comparisons"`
	CreditAward int                      `json:"credit_award"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// PriceRow is a persisted price observation, one per extracted item. Price is
// the full line price (unit price times quantity); Unit records multi-unit
// purchases.
type PriceRow struct {
	ItemName           string  `json:"item_name"`
	Price              float64 `json:"price"`
	Unit               string  `json:"unit,omitempty"`
	StoreName          string  `json:"store_name,omitempty"`
	IsDeliveryAppPrice bool    `json:"is_delivery_app_price"`
	ReceiptScanID      string  `json:"receipt_scan_id"`
}

// CreditsFor returns the credit award for a scan at the given store tier
func CreditsFor(storeType parsing.StoreType) int {
	if storeType == parsing.StoreTypeLocalGem {
		return CreditsLocalGem
	}
	return CreditsStandard
}

// priceRowsFor flattens a scan's items into persistable price observations
func priceRowsFor(record *Record) []PriceRow {
	rows := make([]PriceRow, 0, len(record.Items))
	for _, item := range record.Items {
		row := PriceRow{
			ItemName:      item.ItemName,
			Price:         item.Price * item.Quantity,
			StoreName:     record.StoreName,
			ReceiptScanID: record.ID,
		}
		if item.Quantity > 1 {
			row.Unit = fmt.Sprintf("%g units", item.Quantity)
		}
		rows = append(rows, row)
	}
	return rows
}
