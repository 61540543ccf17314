package parsing

// ParsedLineItem is one purchased product line extracted from a receipt
// transcript. Price is the per-line (or per-kg, for weighted items) price in
// dollars; Quantity is a count for regular lines and kilograms for weighted
// lines, so it may be fractional.
type ParsedLineItem struct {
	ItemName string  `json:"item_name"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// StoreType classifies the issuing merchant for reward purposes
type StoreType string

const (
	// StoreTypeLocalGem marks a curated independent merchant
	StoreTypeLocalGem StoreType = "Local Gem"
	// StoreTypeStandard marks a chain or unrecognized merchant
	StoreTypeStandard StoreType = "Standard"
)

// StoreExtraction is the merchant identity derived from a receipt header.
// StoreName is empty when no known merchant matched.
type StoreExtraction struct {
	StoreName string    `json:"store_name,omitempty"`
	StoreType StoreType `json:"store_type"`
}
