package venue

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sawpanic/arbiscan/internal/domain"
)

// explicit per-venue mappings for symbols that do not follow any of the
// auto-normalization patterns below (Kraken's legacy XBT/Z-prefixed codes).
var explicitMappings = map[string]map[string]string{
	"kraken": {
		"XBTUSD":   "BTC/USD",
		"XBTUSDT":  "BTC/USDT",
		"XETHZUSD": "ETH/USD",
		"XETHZUSDT": "ETH/USDT",
		"XXBTZUSD": "BTC/USD",
		"XXBTZUSDT": "BTC/USDT",
		"XETHXXBT": "ETH/BTC",
	},
}

var quoteSuffixes = []string{"USDT", "USDC", "USD", "EUR", "BTC", "ETH", "BNB"}

var (
	reSuffixQuote = regexp.MustCompile(`^([A-Z]{2,5})(USDT|USDC|USD|EUR|BTC|ETH|BNB)$`)
	reKrakenXBT   = regexp.MustCompile(`^X([A-Z]{2,4}?)Z(USD|EUR)$`)
	reTrailingXBT = regexp.MustCompile(`^([A-Z]{2,4})XBT$`)
)

// NormalizeSymbol converts a venue-native symbol (e.g. Binance's "BTCUSDT"
// or Kraken's "XBTUSD") into the canonical Symbol used throughout the
// module. It tries an explicit venue mapping first, then falls back to
// pattern-based splitting.
func NormalizeSymbol(venueName, raw string) (domain.Symbol, error) {
	clean := strings.ToUpper(strings.TrimSpace(raw))

	if mapped, ok := explicitMappings[venueName]; ok {
		if std, ok := mapped[clean]; ok {
			return domain.ParseSymbol(std)
		}
	}

	if strings.Contains(clean, "/") {
		return domain.ParseSymbol(clean)
	}

	if std, ok := autoNormalize(clean); ok {
		return domain.ParseSymbol(std)
	}

	return domain.Symbol{}, fmt.Errorf("venue: cannot normalize symbol %q for %s", raw, venueName)
}

// DenormalizeSymbol converts a canonical Symbol back into the venue-native
// wire format used to request it (e.g. "BTC/USDT" -> "BTCUSDT" on Binance).
// When several native codes map to the same symbol, the shortest one (then
// the lexically first) is returned.
func DenormalizeSymbol(venueName string, sym domain.Symbol) string {
	if mapped, ok := explicitMappings[venueName]; ok {
		std := sym.String()
		best := ""
		for native, canon := range mapped {
			if canon == std && (best == "" || len(native) < len(best) || (len(native) == len(best) && native < best)) {
				best = native
			}
		}
		if best != "" {
			return best
		}
	}
	return sym.Base.String() + sym.Quote.String()
}

func autoNormalize(clean string) (string, bool) {
	if m := reKrakenXBT.FindStringSubmatch(clean); m != nil {
		base := m[1]
		if base == "XBT" {
			base = "BTC"
		}
		return base + "/" + m[2], true
	}
	if m := reSuffixQuote.FindStringSubmatch(clean); m != nil {
		return m[1] + "/" + m[2], true
	}
	if m := reTrailingXBT.FindStringSubmatch(clean); m != nil {
		return m[1] + "/BTC", true
	}

	for _, q := range quoteSuffixes {
		if len(clean) > len(q) && strings.HasSuffix(clean, q) {
			return clean[:len(clean)-len(q)] + "/" + q, true
		}
	}
	return "", false
}
