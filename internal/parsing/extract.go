package parsing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// Price-like token: optional dollar sign, digits, optional cents
	rePriceToken = regexp.MustCompile(`\$?\d+\.?\d{0,2}`)

	// Weighted produce form: "2.5kg @ 1.99/kg"
	reWeighted = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*kg\s*@\s*(\d+\.?\d{0,2})\s*/?\s*kg`)

	// Leading quantity marker: "2 x ", "3@ "
	reQuantityPrefix = regexp.MustCompile(`^(\d+)\s*[xX@]\s*`)

	reWhitespace = regexp.MustCompile(`\s+`)

	// Lines (and derived names) that are never items
	skipPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(total|subtotal|tax|hst|gst|change|cash|card|debit|credit)$`),
		regexp.MustCompile(`^\d{2}/\d{2}/\d{2,4}$`), // date
		regexp.MustCompile(`^\d{2}:\d{2}$`),         // time
		regexp.MustCompile(`^#\d+$`),                // receipt number
	}
)

// ExtractLineItems segments a normalized receipt transcript into purchased
// line items. Lines that cannot be read as an item are dropped silently so a
// single garbled line never loses the rest of the receipt. Output order
// follows the transcript; duplicate lines (receipts sometimes echo a line)
// are emitted once.
func ExtractLineItems(normalized string) []ParsedLineItem {
	items := make([]ParsedLineItem, 0)
	seen := make(map[string]struct{})

	for _, line := range strings.Split(normalized, "\n") {
		cleaned := strings.TrimSpace(StripTaxMarkers(strings.TrimSpace(line)))
		if cleaned == "" || matchesSkip(cleaned) {
			continue
		}

		item, key, matched, ok := matchWeighted(cleaned, len(items))
		if !matched {
			item, key, ok = matchGeneric(cleaned, len(items))
		}
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, item)
	}

	return items
}

func matchesSkip(line string) bool {
	for _, p := range skipPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// matchWeighted handles produce sold by weight ("2.5kg @ 1.99/kg GROUND
// BEEF"): quantity is kilograms and price is the per-kg unit price. matched
// reports whether the line carries a weight expression at all; when it does,
// the line never falls through to the generic path even if it fails to parse.
func matchWeighted(line string, accepted int) (item ParsedLineItem, key string, matched, ok bool) {
	m := reWeighted.FindStringSubmatch(line)
	if m == nil {
		return ParsedLineItem{}, "", false, false
	}

	qty, qtyErr := strconv.ParseFloat(m[1], 64)
	unitPrice, priceErr := strconv.ParseFloat(m[2], 64)
	if qtyErr != nil || priceErr != nil || qty <= 0 || !validPrice(unitPrice) || unitPrice >= 1000 {
		return ParsedLineItem{}, "", true, false
	}

	name := collapseWhitespace(strings.Replace(line, m[0], "", 1))
	if name == "" {
		name = fmt.Sprintf("Item %d", accepted+1)
	}

	item = ParsedLineItem{ItemName: name, Price: unitPrice, Quantity: qty}
	key = fmt.Sprintf("%s|%s|%s", name, fmtNum(unitPrice), fmtNum(qty))
	return item, key, true, true
}

// matchGeneric reads the last standalone price-like token on the line as the
// price; everything else, minus any leading quantity marker, is the item name.
func matchGeneric(line string, accepted int) (ParsedLineItem, string, bool) {
	spans := priceSpans(line)
	if len(spans) == 0 {
		return ParsedLineItem{}, "", false
	}

	last := spans[len(spans)-1]
	rawPrice := strings.TrimPrefix(line[last[0]:last[1]], "$")
	price, err := strconv.ParseFloat(rawPrice, 64)
	if err != nil || !validPrice(price) {
		return ParsedLineItem{}, "", false
	}
	if looksLikeDate(rawPrice) {
		return ParsedLineItem{}, "", false
	}

	quantity := 1.0
	nameSrc := line
	if m := reQuantityPrefix.FindStringSubmatch(line); m != nil {
		if q, qerr := strconv.Atoi(m[1]); qerr == nil && q >= 1 {
			quantity = float64(q)
		}
		nameSrc = line[len(m[0]):]
	}

	name := deriveName(nameSrc)
	if matchesSkip(name) {
		return ParsedLineItem{}, "", false
	}
	if utf8.RuneCountInString(name) < 2 {
		name = fmt.Sprintf("Item %d", accepted+1)
	}

	item := ParsedLineItem{ItemName: name, Price: price, Quantity: quantity}
	key := fmt.Sprintf("%s|%s", name, fmtNum(price))
	return item, key, true
}

// deriveName strips the price-like tokens and tax markers out of a line,
// leaving the product description.
func deriveName(line string) string {
	var b strings.Builder
	prev := 0
	for _, s := range priceSpans(line) {
		b.WriteString(line[prev:s[0]])
		prev = s[1]
	}
	b.WriteString(line[prev:])
	return collapseWhitespace(StripTaxMarkers(b.String()))
}

// priceSpans locates standalone price-like tokens. A candidate glued to a
// letter, digit, or percent sign ("2%" in "MILK 2%", the "2" in "2L") is part
// of the product description, not a price, and is left alone.
func priceSpans(line string) [][]int {
	spans := rePriceToken.FindAllStringIndex(line, -1)
	out := spans[:0]
	for _, s := range spans {
		if s[0] > 0 {
			r, _ := utf8.DecodeLastRuneInString(line[:s[0]])
			if tokenGlue(r) {
				continue
			}
		}
		if s[1] < len(line) {
			r, _ := utf8.DecodeRuneInString(line[s[1]:])
			if tokenGlue(r) {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func tokenGlue(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '%'
}

// looksLikeDate reports whether a price token reads like a DD.MM-style date
// fragment: both parts at most 31 with a one- or two-digit fraction.
func looksLikeDate(rawPrice string) bool {
	intPart, decPart, found := strings.Cut(rawPrice, ".")
	if !found || decPart == "" || len(decPart) > 2 {
		return false
	}
	a, _ := strconv.Atoi(intPart)
	b, _ := strconv.Atoi(decPart)
	return a <= 31 && b <= 31
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p > 0 && p <= 9999
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
