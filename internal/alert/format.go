package alert

import (
	"fmt"
	"strings"

	"github.com/sawpanic/arbiscan/internal/domain"
)

// formatCross renders a human-readable, newline-separated text block for a
// CrossOpportunity. The wire format is ASCII, kept well under the 512-byte
// notification limit.
func formatCross(o domain.CrossOpportunity) string {
	depth := o.BuyLevelsUsed
	if o.SellLevelsUsed > depth {
		depth = o.SellLevelsUsed
	}
	return strings.TrimSpace(fmt.Sprintf(
		"[ARB] %s %s->%s\nspread: %.2f bps | notional: %.0f\nbuy@%.6f / sell@%.6f\ndepth: top%d | fees: taker | mode: %s\n%s",
		o.Symbol, o.BuyVenue, o.SellVenue,
		o.SpreadBPS, o.Notional,
		o.BuyPriceAfter, o.SellPriceAfter,
		depth, o.Mode,
		o.DetectionTS.UTC().Format("15:04:05 UTC"),
	))
}

// formatTriangular renders a text block for a TriOpportunity.
func formatTriangular(o domain.TriOpportunity) string {
	path := fmt.Sprintf("%s->%s->%s->%s", o.BaseAsset, o.CycleA2, o.CycleA3, o.BaseAsset)
	return strings.TrimSpace(fmt.Sprintf(
		"[TRI] %s %s cycle: %s\ngain: %.2f bps | start: %.0f %s -> end: %.4f %s\nleg1 %s@%.6f | leg2 %s@%.6f | leg3 %s@%.6f\nfees: taker\n%s",
		o.Venue, o.BaseAsset, path,
		o.GainBPS, o.StartAmount, o.BaseAsset, o.EndAmount, o.BaseAsset,
		o.Legs[0].Symbol, o.Legs[0].Price,
		o.Legs[1].Symbol, o.Legs[1].Price,
		o.Legs[2].Symbol, o.Legs[2].Price,
		o.DetectionTS.UTC().Format("15:04:05 UTC"),
	))
}
