package market

import (
	"context"
	"regexp"
	"strings"
)

// CatalogEntry is one row of the static reference price table
type CatalogEntry struct {
	Key   string  `json:"key"`
	Price float64 `json:"price"`
	Store string  `json:"store"`
}

// referenceStore labels the simulated market data
const referenceStore = "Superstore"

// catalogEntries is the curated reference price table for the Vancouver
// market. Keys are normalized product terms, not SKUs; receipt names are
// collapsed onto them by the matcher.
var catalogEntries = map[string]float64{
	"milk":              4.49,
	"milk 2%":           4.49,
	"milk 2l":           4.49,
	"milk 1%":           4.49,
	"milk whole":        4.99,
	"eggs":              3.99,
	"eggs dozen":        3.99,
	"eggs large":        3.99,
	"bread":             2.49,
	"bread white":       2.49,
	"bread whole wheat": 2.99,
	"butter":            5.99,
	"cheese":            6.49,
	"yogurt":            3.49,
	"banana":            0.79,
	"bananas":           0.79,
	"apple":             1.29,
	"apples":            1.29,
	"chicken":           8.99,
	"beef":              12.99,
	"rice":              4.99,
	"pasta":             1.99,
	"cereal":            4.49,
	"coffee":            9.99,
	"juice":             3.99,
	"water":             2.49,
	"soda":              2.99,
	"chips":             3.49,
	"cookies":           2.99,
	"soup":              2.49,
	"tomato":            2.99,
	"tomatoes":          2.99,
	"potato":            1.49,
	"potatoes":          1.49,
	"onion":             1.29,
	"onions":            1.29,
	"lettuce":           2.49,
	"carrot":            1.99,
	"carrots":           1.99,
}

// Brand and package-size noise stripped before matching, so "Lucerne Milk 2L"
// and "PC White Bread" collapse onto generic catalog keys
var brandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(lucerne|natrel|dairyland|saputo|black diamond|no name|pc\s*brand|president's choice|great value|kirkland|organic)\b`),
	regexp.MustCompile(`(?i)\b\d+\s*(ml|l|oz|g|kg)\b`),
}

var (
	rePunct      = regexp.MustCompile(`[^\w\s]`)
	reMultiSpace = regexp.MustCompile(`\s+`)
)

// Catalog is the static reference price table. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	entries map[string]float64
	store   string
}

// NewCatalog builds the catalog from the built-in reference table
func NewCatalog() *Catalog {
	return &Catalog{entries: catalogEntries, store: referenceStore}
}

// NormalizeKey reduces a receipt item name to catalog-key form: lowercase,
// punctuation and brand/size noise removed, whitespace collapsed.
func NormalizeKey(itemName string) string {
	key := strings.ToLower(itemName)
	key = rePunct.ReplaceAllString(key, " ")
	for _, p := range brandPatterns {
		key = p.ReplaceAllString(key, " ")
	}
	return strings.TrimSpace(reMultiSpace.ReplaceAllString(key, " "))
}

// Match fuzzy-matches a receipt item name against the catalog. Precedence:
// the exact normalized name, then any single word of it, then any adjacent
// word pair. A miss returns false, never an error.
func (c *Catalog) Match(itemName string) (CatalogEntry, bool) {
	key := NormalizeKey(itemName)
	if key == "" {
		return CatalogEntry{}, false
	}

	if price, ok := c.entries[key]; ok {
		return CatalogEntry{Key: key, Price: price, Store: c.store}, true
	}

	words := meaningfulWords(key)
	for _, w := range words {
		if price, ok := c.entries[w]; ok {
			return CatalogEntry{Key: w, Price: price, Store: c.store}, true
		}
	}
	for i := 0; i+1 < len(words); i++ {
		pair := words[i] + " " + words[i+1]
		if price, ok := c.entries[pair]; ok {
			return CatalogEntry{Key: pair, Price: price, Store: c.store}, true
		}
	}

	return CatalogEntry{}, false
}

// Lookup implements PriceSource over the local table. It never errs and
// degrades a miss to a nil price.
func (c *Catalog) Lookup(_ context.Context, itemName string, _ float64) (*CompetitorPrice, error) {
	entry, ok := c.Match(itemName)
	if !ok {
		return nil, nil
	}
	return &CompetitorPrice{Price: round2(entry.Price), Store: entry.Store}, nil
}

// meaningfulWords drops single-character fragments left over from stripping
func meaningfulWords(key string) []string {
	fields := strings.Fields(key)
	words := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			words = append(words, f)
		}
	}
	return words
}
