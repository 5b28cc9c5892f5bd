// Package payoff implements the bounded option payoff math for the
// 2/3/4-strike structures traded on Thetanuts (spread, butterfly, condor).
// Strikes and premiums arrive from the indexer as integer strings scaled by
// 1e8.
package payoff

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var strikeScale = decimal.New(1, 8)

// ParseStrikes converts raw 1e8-scaled strike strings to decimals.
func ParseStrikes(raw []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, 0, len(raw))
	for _, s := range raw {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid strike %q: %w", s, err)
		}
		out = append(out, d.Div(strikeScale))
	}
	return out, nil
}

// TypeLabel names a structure from its strike count and direction.
func TypeLabel(strikesCount int, isCall bool) string {
	direction := "PUT"
	if isCall {
		direction = "CALL"
	}
	switch strikesCount {
	case 1:
		return direction + "_BASIC"
	case 2:
		return direction + "_SPREAD"
	case 3:
		return direction + "_BUTTERFLY"
	case 4:
		return direction + "_CONDOR"
	default:
		return fmt.Sprintf("UNKNOWN_%d", strikesCount)
	}
}

// MaxPayout returns strike width times contracts. The width of a butterfly
// or condor is its lower wing.
func MaxPayout(strikes []decimal.Decimal, contracts decimal.Decimal) decimal.Decimal {
	var width decimal.Decimal
	switch len(strikes) {
	case 2:
		width = strikes[1].Sub(strikes[0]).Abs()
	case 3, 4:
		width = strikes[1].Sub(strikes[0])
	default:
		return decimal.Zero
	}
	return width.Mul(contracts)
}

// PayoutAtPrice evaluates the piecewise-linear payout at a settlement price:
// flat zero outside the structure's bounds, a plateau at full width inside,
// linear in between.
func PayoutAtPrice(strikes []decimal.Decimal, isCall bool, contracts, settlement decimal.Decimal) decimal.Decimal {
	s := settlement

	switch len(strikes) {
	case 2:
		lower, upper := strikes[0], strikes[1]
		if isCall {
			if s.LessThanOrEqual(lower) {
				return decimal.Zero
			}
			if s.GreaterThanOrEqual(upper) {
				return upper.Sub(lower).Mul(contracts)
			}
			return s.Sub(lower).Mul(contracts)
		}
		if s.GreaterThanOrEqual(upper) {
			return decimal.Zero
		}
		if s.LessThanOrEqual(lower) {
			return upper.Sub(lower).Mul(contracts)
		}
		return upper.Sub(s).Mul(contracts)

	case 3:
		lower, mid, upper := strikes[0], strikes[1], strikes[2]
		if s.LessThanOrEqual(lower) || s.GreaterThanOrEqual(upper) {
			return decimal.Zero
		}
		if s.Equal(mid) {
			return mid.Sub(lower).Mul(contracts)
		}
		if s.LessThan(mid) {
			return s.Sub(lower).Mul(contracts)
		}
		return upper.Sub(s).Mul(contracts)

	case 4:
		k1, k2, k3, k4 := strikes[0], strikes[1], strikes[2], strikes[3]
		max := k2.Sub(k1).Mul(contracts)
		if s.LessThanOrEqual(k1) || s.GreaterThanOrEqual(k4) {
			return decimal.Zero
		}
		if s.GreaterThanOrEqual(k2) && s.LessThanOrEqual(k3) {
			return max
		}
		if s.LessThan(k2) {
			lowWing := k2.Sub(k1)
			if lowWing.IsZero() {
				return max
			}
			return s.Sub(k1).Div(lowWing).Mul(max)
		}
		highWing := k4.Sub(k3)
		if highWing.IsZero() {
			return max
		}
		return k4.Sub(s).Div(highWing).Mul(max)
	}

	return decimal.Zero
}

// Breakeven is defined for spreads only: lower strike plus per-contract
// premium for calls, upper strike minus it for puts. The second return is
// false for other structures.
func Breakeven(strikes []decimal.Decimal, isCall bool, premiumPerContract decimal.Decimal) (decimal.Decimal, bool) {
	if len(strikes) != 2 {
		return decimal.Zero, false
	}
	if isCall {
		return strikes[0].Add(premiumPerContract), true
	}
	return strikes[1].Sub(premiumPerContract), true
}
