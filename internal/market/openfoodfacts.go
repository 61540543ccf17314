package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultOFFBaseURL = "https://world.openfoodfacts.org/api/v2/search"

	// Minimum gap between requests; keeps us near 8 req/min against the
	// upstream 10 req/min ceiling
	defaultOFFInterval = 7 * time.Second

	offSearchTermLimit = 50
)

// Size/percentage noise trimmed from search terms before querying
var reSearchNoise = regexp.MustCompile(`(?i)\d+%|\d+ml|\d+g`)

// OpenFoodFacts looks up competitor prices from the Open Food Facts search
// API. Requests are issued strictly one at a time with a minimum interval
// between them, so a batch of lookups can never burst past the upstream
// quota. Safe for concurrent use; concurrent callers serialize on the
// limiter.
type OpenFoodFacts struct {
	baseURL  string
	interval time.Duration
	client   *http.Client

	mu       sync.Mutex
	lastReq  time.Time
	timeNow  func() time.Time
	sleepCtx func(ctx context.Context, d time.Duration) error
}

// NewOpenFoodFacts creates an OpenFoodFacts source against the public API
func NewOpenFoodFacts() *OpenFoodFacts {
	return NewOpenFoodFactsWithBase(defaultOFFBaseURL, defaultOFFInterval)
}

// NewOpenFoodFactsWithBase creates an OpenFoodFacts source against a custom
// endpoint and request interval, for testing against a local server
func NewOpenFoodFactsWithBase(baseURL string, interval time.Duration) *OpenFoodFacts {
	return &OpenFoodFacts{
		baseURL:  baseURL,
		interval: interval,
		client:   &http.Client{Timeout: 15 * time.Second},
		timeNow:  time.Now,
		sleepCtx: sleepContext,
	}
}

type offProduct struct {
	ProductName    string          `json:"product_name"`
	Price          json.RawMessage `json:"price"`
	ComparedPrices []struct {
		Value json.RawMessage `json:"value"`
	} `json:"compared_prices"`
}

type offSearchResponse struct {
	Count    int          `json:"count"`
	Products []offProduct `json:"products"`
}

// Lookup implements PriceSource. The returned error covers transport and
// decode failures only; an item the API simply has no price for comes back
// as a nil result.
func (o *OpenFoodFacts) Lookup(ctx context.Context, itemName string, _ float64) (*CompetitorPrice, error) {
	if err := o.waitTurn(ctx); err != nil {
		return nil, err
	}

	term := searchTerm(itemName)
	resp, err := o.search(ctx, term)
	if err != nil {
		return nil, err
	}

	for _, p := range resp.Products {
		if price, ok := coercePrice(p.Price); ok {
			return &CompetitorPrice{Price: round2(price), Store: "Open Food Facts"}, nil
		}
		if len(p.ComparedPrices) > 0 {
			if price, ok := coercePrice(p.ComparedPrices[0].Value); ok {
				return &CompetitorPrice{Price: round2(price), Store: "Open Food Facts"}, nil
			}
		}
	}
	return nil, nil
}

// waitTurn enforces the minimum inter-request interval. The wait respects
// the caller's context so an abandoned scan does not keep the limiter busy.
func (o *OpenFoodFacts) waitTurn(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.lastReq.IsZero() {
		if wait := o.interval - o.timeNow().Sub(o.lastReq); wait > 0 {
			if err := o.sleepCtx(ctx, wait); err != nil {
				return err
			}
		}
	}
	o.lastReq = o.timeNow()
	return nil
}

func (o *OpenFoodFacts) search(ctx context.Context, term string) (*offSearchResponse, error) {
	params := url.Values{}
	params.Set("search_terms", term)
	params.Set("page_size", "3")
	params.Set("fields", "product_name,price,compared_prices")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling open food facts API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open food facts API error (status %d)", resp.StatusCode)
	}

	var searchResp offSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &searchResp, nil
}

// searchTerm trims size noise from the item name and bounds its length
func searchTerm(itemName string) string {
	term := reSearchNoise.ReplaceAllString(itemName, "")
	term = strings.TrimSpace(reMultiSpace.ReplaceAllString(term, " "))
	if term == "" {
		term = itemName
	}
	if len(term) > offSearchTermLimit {
		term = term[:offSearchTermLimit]
	}
	return term
}

// coercePrice accepts the API's number-or-string price representations
func coercePrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, n > 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, perr := strconv.ParseFloat(s, 64); perr == nil {
			return n, n > 0
		}
	}
	return 0, false
}

// sleepContext waits for d or until ctx is done, whichever comes first
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
