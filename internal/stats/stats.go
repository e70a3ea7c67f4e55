// Package stats computes aggregated P&L, Greeks, and strike statistics for
// a strategy group. All functions are pure: they read legs and return a
// value, never mutating group state.
package stats

import (
	"math"

	"firefight-trader/internal/models"
)

// Aggregated holds derived statistics for one strategy group. It is
// recomputed on each read and never stored.
type Aggregated struct {
	TotalPnL       float64 `json:"total_pnl"`
	RealisedPnL    float64 `json:"realised_pnl"`
	UnrealisedPnL  float64 `json:"unrealised_pnl"`
	NetDelta       float64 `json:"net_delta"`
	NetTheta       float64 `json:"net_theta"`
	NetCredit      float64 `json:"net_credit"`
	AvgShortStrike float64 `json:"avg_short_strike"`
	TotalShortLots int     `json:"total_short_lots"`
}

// Compute aggregates stats over all legs of a group.
//
// Realised P&L sums over closed legs, unrealised over active legs. Net
// credit accumulates entry premiums over ALL legs regardless of status:
// +premium for shorts, -premium for longs. Greeks accumulate only over
// active legs; shorts subtract delta and add theta, longs the reverse
// (the theta convention follows the operator's accounting, where short
// positions earn decay).
//
// The average short strike is lot-weighted over active short legs,
// excluding reference hedges: those are directional insurance, not part
// of the strategy's short base. With no eligible lots the average is 0,
// which disables firefighting.
func Compute(group *models.StrategyGroup) Aggregated {
	var agg Aggregated
	if group == nil || len(group.Legs) == 0 {
		return agg
	}

	fallbackLotSize := models.DefaultLotSize(group.Instrument)

	var weightedStrikeSum float64
	for _, leg := range group.Legs {
		lots := float64(leg.EffectiveLots())
		size := float64(leg.EffectiveLotSize(fallbackLotSize))
		entry := coerce(leg.EntryPremium)
		delta := coerce(leg.Delta)
		theta := coerce(leg.Theta)
		pnl := coerce(leg.PnL(fallbackLotSize))

		if leg.Status == models.LegClosed {
			agg.RealisedPnL += pnl
		} else {
			agg.UnrealisedPnL += pnl
		}

		switch leg.Side {
		case models.SideShort:
			agg.NetCredit += entry * lots * size
		case models.SideLong:
			agg.NetCredit -= entry * lots * size
		}

		if !leg.IsActive() {
			continue
		}

		switch leg.Side {
		case models.SideShort:
			agg.NetDelta -= delta * lots * size
			agg.NetTheta += theta * lots * size
		case models.SideLong:
			agg.NetDelta += delta * lots * size
			agg.NetTheta -= theta * lots * size
		}

		if leg.Side == models.SideShort && !leg.Tag.IsReferenceHedge() {
			agg.TotalShortLots += leg.EffectiveLots()
			weightedStrikeSum += coerce(leg.Strike) * lots
		}
	}

	if agg.TotalShortLots > 0 {
		agg.AvgShortStrike = weightedStrikeSum / float64(agg.TotalShortLots)
	}
	agg.TotalPnL = agg.RealisedPnL + agg.UnrealisedPnL

	return agg
}

// coerce maps NaN and infinities to 0 so that a hand-edited data file can
// never poison the aggregates. Missing JSON fields already decode as 0.
func coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
