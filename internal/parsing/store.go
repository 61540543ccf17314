package parsing

import (
	"regexp"
	"strings"
)

// headerLines is how deep into the transcript the merchant name can appear
const headerLines = 10

// localGems maps a lowercase search term to the merchant's display name.
// Membership is hand-maintained; these independents earn the higher reward
// tier. Order matters only for merchants with multiple spellings.
var localGems = []struct {
	search  string
	display string
}{
	{"aria", "Aria"},
	{"kin's", "Kin's Market"},
	{"kins market", "Kin's Market"},
	{"donald's", "Donald's Market"},
	{"donalds market", "Donald's Market"},
	{"persia foods", "Persia Foods"},
	{"famous foods", "Famous Foods"},
	{"sunrise market", "Sunrise Market"},
	{"stong's", "Stong's"},
	{"stongs", "Stong's"},
}

var reChain = regexp.MustCompile(`\b(loblaws|superstore|real canadian|save[- ]?on|safeway|walmart|costco|whole foods|t&t|tnt)\b`)

// IdentifyStore classifies the issuing merchant from the transcript header.
// Only the first few non-blank lines are inspected; store identity is always
// printed at the top of a receipt. Curated local gems win over chain
// patterns, and an unrecognized header comes back as a nameless Standard
// store rather than an error.
func IdentifyStore(raw string) StoreExtraction {
	header := headerText(raw)

	for _, gem := range localGems {
		if strings.Contains(header, gem.search) {
			return StoreExtraction{StoreName: gem.display, StoreType: StoreTypeLocalGem}
		}
	}

	if m := reChain.FindStringSubmatch(header); m != nil {
		return StoreExtraction{StoreName: m[1], StoreType: StoreTypeStandard}
	}

	return StoreExtraction{StoreType: StoreTypeStandard}
}

func headerText(raw string) string {
	lines := make([]string, 0, headerLines)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == headerLines {
			break
		}
	}
	return strings.Join(lines, " ")
}
