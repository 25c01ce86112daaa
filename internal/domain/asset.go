package domain

import "strings"

// Asset is an uppercase ticker symbol, e.g. "BTC" or "USDT".
type Asset string

// NormalizeAsset uppercases and trims an asset ticker.
func NormalizeAsset(raw string) Asset {
	return Asset(strings.ToUpper(strings.TrimSpace(raw)))
}

func (a Asset) String() string { return string(a) }
