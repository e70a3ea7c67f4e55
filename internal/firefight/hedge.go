package firefight

import (
	"math"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
)

// HedgePlan is the weekly protection proposal: buy far-week options at
// the strategy's break-even strikes so a runaway move is capped while
// the monthly base keeps earning decay.
type HedgePlan struct {
	TotalPremiumPoints float64 `json:"total_premium_points"`
	CallBreakEven      float64 `json:"call_break_even"`
	PutBreakEven       float64 `json:"put_break_even"`
	CallHedgeStrike    float64 `json:"call_hedge_strike"`
	PutHedgeStrike     float64 `json:"put_hedge_strike"`
}

// WeeklyProtection computes hedge strikes from the active base short
// legs. The call break-even is the highest short call strike plus the
// total premium collected; the put break-even mirrors it below the
// lowest short put strike. A one-sided base borrows the other side's
// strike. Returns ErrLegNotFound when no active base shorts exist or
// their entry premiums were never recorded.
func WeeklyProtection(group *models.StrategyGroup, step float64) (HedgePlan, error) {
	var (
		plan       HedgePlan
		callStrike float64
		putStrike  float64
		haveCall   bool
		havePut    bool
	)

	for _, leg := range group.Legs {
		if !leg.IsActive() || leg.Side != models.SideShort || !leg.Tag.IsBase() {
			continue
		}
		plan.TotalPremiumPoints += leg.EntryPremium
		switch leg.OptionType {
		case models.OptionCall:
			if !haveCall || leg.Strike > callStrike {
				callStrike = leg.Strike
			}
			haveCall = true
		case models.OptionPut:
			if !havePut || leg.Strike < putStrike {
				putStrike = leg.Strike
			}
			havePut = true
		}
	}

	if !haveCall && !havePut {
		return HedgePlan{}, apperrors.ErrLegNotFound
	}
	if haveCall && !havePut {
		putStrike = callStrike
	}
	if havePut && !haveCall {
		callStrike = putStrike
	}

	plan.CallBreakEven = callStrike + plan.TotalPremiumPoints
	plan.PutBreakEven = putStrike - plan.TotalPremiumPoints
	plan.CallHedgeStrike = math.Round(plan.CallBreakEven/step) * step
	plan.PutHedgeStrike = math.Round(plan.PutBreakEven/step) * step
	return plan, nil
}
