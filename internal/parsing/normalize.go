package parsing

import "regexp"

// OCR engines routinely confuse a handful of glyphs on thermal receipts. The
// patterns here are anchored narrowly so they only ever touch the known
// misreads and never rewrite legitimate text.
var (
	// "S4.99" where the scanner read a dollar sign as a capital S
	reCurrencyMisread = regexp.MustCompile(`\bS(\d+\.?\d*)\b`)

	// "4O" where a trailing zero was read as a capital O
	reTrailingOh = regexp.MustCompile(`\b(\d+)O\b`)

	// "l49" where a leading one was read as a lowercase L
	reLeadingEl = regexp.MustCompile(`\bl(\d+)\b`)

	// Standalone G/P/H tax flags (GST, PST, HST) printed after a price
	reTaxMarker = regexp.MustCompile(`(?i)\s*\b[GPH]\b`)
)

// Normalize corrects common OCR character substitutions in a raw transcript.
// It is pure and never fails; each substitution no longer matches its own
// output, so repeated application is a no-op.
func Normalize(raw string) string {
	text := reCurrencyMisread.ReplaceAllString(raw, `$$$1`)
	text = reTrailingOh.ReplaceAllString(text, `${1}0`)
	text = reLeadingEl.ReplaceAllString(text, `1$1`)
	return text
}

// StripTaxMarkers removes standalone single-letter tax flags from a line so
// they are not mistaken for part of an item name or price.
func StripTaxMarkers(line string) string {
	return reTaxMarker.ReplaceAllString(line, "")
}
