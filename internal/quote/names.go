package quote

import (
	"fmt"
	"strings"
)

// The quote endpoint returns prices only, so display names come from a small
// static table with a generic fallback.
var stockNames = map[string]string{
	"AAPL":  "Apple Inc.",
	"AMZN":  "Amazon.com Inc.",
	"GOOGL": "Alphabet Inc.",
	"JPM":   "JPMorgan Chase & Co.",
	"META":  "Meta Platforms Inc.",
	"MSFT":  "Microsoft Corporation",
	"NFLX":  "Netflix Inc.",
	"NVDA":  "NVIDIA Corporation",
	"TSLA":  "Tesla Inc.",
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func displayName(symbol string) string {
	if name, ok := stockNames[symbol]; ok {
		return name
	}
	return fmt.Sprintf("%s Corporation", symbol)
}
