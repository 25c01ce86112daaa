package domain

import (
	"fmt"
	"math"
	"time"
)

// DetectionMode tags how fresh the inputs behind an opportunity were.
type DetectionMode string

const (
	ModeStream DetectionMode = "stream"
	ModePoll   DetectionMode = "poll"
)

// Side is which side of a market a leg trades against.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// CrossOpportunity is a same-symbol, two-venue arbitrage detection.
type CrossOpportunity struct {
	Symbol           Symbol
	BuyVenue         string
	SellVenue        string
	BuyPriceBefore   float64
	SellPriceBefore  float64
	BuyPriceAfter    float64
	SellPriceAfter   float64
	SpreadBPS        float64
	Notional         float64
	BuyLevelsUsed    int
	SellLevelsUsed   int
	BuyFees          FeeRate
	SellFees         FeeRate
	DetectionTS      time.Time
	Mode             DetectionMode
}

// NewCrossOpportunity computes spread_bps from the after-fee prices and
// validates the cross-venue invariants before returning.
func NewCrossOpportunity(symbol Symbol, buyVenue, sellVenue string, buyBefore, sellBefore, buyAfter, sellAfter, notional float64,
	buyLevels, sellLevels int, buyFees, sellFees FeeRate, ts time.Time, mode DetectionMode) (CrossOpportunity, error) {

	if buyVenue == sellVenue {
		return CrossOpportunity{}, fmt.Errorf("cross opportunity: buy and sell venue are both %q", buyVenue)
	}
	if sellAfter <= buyAfter {
		return CrossOpportunity{}, fmt.Errorf("cross opportunity: sell_after %v does not exceed buy_after %v", sellAfter, buyAfter)
	}

	mid := (buyAfter + sellAfter) / 2
	spreadBPS := (sellAfter - buyAfter) / mid * 10000

	return CrossOpportunity{
		Symbol:          symbol,
		BuyVenue:        buyVenue,
		SellVenue:       sellVenue,
		BuyPriceBefore:  buyBefore,
		SellPriceBefore: sellBefore,
		BuyPriceAfter:   buyAfter,
		SellPriceAfter:  sellAfter,
		SpreadBPS:       spreadBPS,
		Notional:        notional,
		BuyLevelsUsed:   buyLevels,
		SellLevelsUsed:  sellLevels,
		BuyFees:         buyFees,
		SellFees:        sellFees,
		DetectionTS:     ts,
		Mode:            mode,
	}, nil
}

// DedupKey renders the CROSS dedup key: CROSS|buy|sell|symbol|floor(notional).
func (o CrossOpportunity) DedupKey() string {
	return fmt.Sprintf("CROSS|%s|%s|%s|%d", o.BuyVenue, o.SellVenue, o.Symbol, int64(math.Floor(o.Notional)))
}

// Leg is one hop of a triangular cycle.
type Leg struct {
	Symbol Symbol
	Price  float64
	Side   Side
}

// TriOpportunity is a single-venue, three-leg cycle arbitrage detection.
type TriOpportunity struct {
	Venue        string
	BaseAsset    Asset
	CycleA2      Asset
	CycleA3      Asset
	StartAmount  float64
	EndAmount    float64
	GainBPS      float64
	Legs         [3]Leg
	Fees         FeeRate
	DetectionTS  time.Time
}

// NewTriOpportunity computes gain_bps and validates the closed-cycle and
// profitability invariants before returning.
func NewTriOpportunity(venue string, base, a2, a3 Asset, startAmount, endAmount float64, legs [3]Leg, fees FeeRate, ts time.Time) (TriOpportunity, error) {
	if base == a2 || base == a3 || a2 == a3 {
		return TriOpportunity{}, fmt.Errorf("triangular opportunity: assets %s/%s/%s are not distinct", base, a2, a3)
	}
	if endAmount <= startAmount {
		return TriOpportunity{}, fmt.Errorf("triangular opportunity: end_amount %v does not exceed start_amount %v", endAmount, startAmount)
	}

	gainBPS := (endAmount/startAmount - 1) * 10000

	return TriOpportunity{
		Venue:       venue,
		BaseAsset:   base,
		CycleA2:     a2,
		CycleA3:     a3,
		StartAmount: startAmount,
		EndAmount:   endAmount,
		GainBPS:     gainBPS,
		Legs:        legs,
		Fees:        fees,
		DetectionTS: ts,
	}, nil
}

// DedupKey renders the TRI dedup key: TRI|venue|base|a2|a3|floor(notional).
func (o TriOpportunity) DedupKey() string {
	return fmt.Sprintf("TRI|%s|%s|%s|%s|%d", o.Venue, o.BaseAsset, o.CycleA2, o.CycleA3, int64(math.Floor(o.StartAmount)))
}
