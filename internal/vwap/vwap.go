// Package vwap computes volume-weighted average fill prices over a sorted
// order-book side. It is pure and deterministic: no I/O, no clocks.
package vwap

import "github.com/sawpanic/arbiscan/internal/domain"

// Result is the outcome of sweeping a side of a book for a target notional.
type Result struct {
	VWAP         float64
	Volume       float64 // base-asset amount consumed
	LevelsUsed   int
	FullyFilled  bool
}

// Sweep walks levels (asks for a buy, bids for a sell) accumulating notional
// until it reaches target, and returns the volume-weighted average price
// paid/received. An empty side or non-positive target returns the zero
// Result with FullyFilled=false.
func Sweep(levels []domain.DepthLevel, target float64) Result {
	if len(levels) == 0 || target <= 0 {
		return Result{}
	}

	var cumNotional, cumAmount float64
	for i, lvl := range levels {
		levelNotional := lvl.Price * lvl.Amount
		if cumNotional+levelNotional >= target {
			remaining := target - cumNotional
			amountAtLevel := remaining / lvl.Price
			totalAmount := cumAmount + amountAtLevel
			return Result{
				VWAP:        (cumNotional + lvl.Price*amountAtLevel) / totalAmount,
				Volume:      totalAmount,
				LevelsUsed:  i + 1,
				FullyFilled: true,
			}
		}
		cumNotional += levelNotional
		cumAmount += lvl.Amount
	}

	if cumAmount == 0 {
		return Result{}
	}
	return Result{
		VWAP:        cumNotional / cumAmount,
		Volume:      cumAmount,
		LevelsUsed:  len(levels),
		FullyFilled: false,
	}
}

// AfterFeeBuy applies the taker fee to a buy-side vwap: the effective price
// paid per unit is higher than the raw vwap.
func AfterFeeBuy(vwapPrice, taker float64) float64 {
	return vwapPrice * (1 + taker)
}

// AfterFeeSell applies the taker fee to a sell-side vwap: the effective
// price received per unit is lower than the raw vwap.
func AfterFeeSell(vwapPrice, taker float64) float64 {
	return vwapPrice * (1 - taker)
}
