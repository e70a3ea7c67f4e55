// Package firefight implements the rule-based adjustment advisor: safety
// band triggers around the average short strike, breach classification,
// and the strike computations for each adjustment technique. Evaluation
// and planning are pure functions; execution goes through the registry.
package firefight

import (
	"math"

	"firefight-trader/internal/models"
)

// Zone classifies spot relative to the safety band.
type Zone string

const (
	ZoneSafe       Zone = "SAFE"
	ZoneBreachUp   Zone = "BREACH_UP"
	ZoneBreachDown Zone = "BREACH_DOWN"
)

// Technique identifies an adjustment technique.
type Technique string

const (
	TechniqueShiftBase Technique = "SHIFT_BASE"
	TechniqueAveraging Technique = "AVERAGING"
	TechniqueReference Technique = "REFERENCE"
	TechniqueExtension Technique = "EXTENSION"
)

// Signal is the advisor's evaluation of one strategy group against spot.
type Signal struct {
	Enabled        bool    `json:"enabled"`
	Zone           Zone    `json:"zone"`
	AvgShortStrike float64 `json:"avg_short_strike"`
	Buffer         float64 `json:"buffer"`
	UpperTrigger   float64 `json:"upper_trigger"`
	LowerTrigger   float64 `json:"lower_trigger"`
	Spot           float64 `json:"spot"`
	ATMStrike      float64 `json:"atm_strike"`
	TotalPnL       float64 `json:"total_pnl"`
}

// ATM rounds spot to the nearest strike step.
func ATM(spot, step float64) float64 {
	if step <= 0 {
		return spot
	}
	return math.Round(spot/step) * step
}

// S2 computes the averaging strike: the strike whose midpoint with the
// current average short strike sits at the ATM strike (S2 = 2*ATM - S1).
func S2(avgShortStrike, spot, step float64) float64 {
	return 2*ATM(spot, step) - avgShortStrike
}

// Evaluate classifies spot against the safety band around the average
// short strike. With no eligible short base (avg strike 0) firefighting
// is disabled and no signal is produced.
func Evaluate(avgShortStrike, buffer, step, spot, totalPnL float64) Signal {
	sig := Signal{
		AvgShortStrike: avgShortStrike,
		Buffer:         buffer,
		Spot:           spot,
		ATMStrike:      ATM(spot, step),
		TotalPnL:       totalPnL,
	}
	if avgShortStrike == 0 {
		return sig
	}

	sig.Enabled = true
	sig.UpperTrigger = avgShortStrike + buffer
	sig.LowerTrigger = avgShortStrike - buffer

	switch {
	case spot > sig.UpperTrigger:
		sig.Zone = ZoneBreachUp
	case spot < sig.LowerTrigger:
		sig.Zone = ZoneBreachDown
	default:
		sig.Zone = ZoneSafe
	}
	return sig
}

// Breached reports whether spot is outside the safety band.
func (s Signal) Breached() bool {
	return s.Enabled && s.Zone != ZoneSafe
}

// ReferenceStrike computes the reference-adjustment strike: sell a single
// option on the side opposite the breach, one buffer inside the average
// strike, rounded to the step. Breach up sells a put below; breach down
// sells a call above.
func ReferenceStrike(avgShortStrike, buffer, step float64, zone Zone) (float64, models.OptionType) {
	switch zone {
	case ZoneBreachUp:
		return math.Round((avgShortStrike-buffer)/step) * step, models.OptionPut
	default:
		return math.Round((avgShortStrike+buffer)/step) * step, models.OptionCall
	}
}

// ExtensionStrike computes the range-extension strike: sell a single
// option on the breach side, two buffers beyond the average strike,
// further from spot than the reference adjustment.
func ExtensionStrike(avgShortStrike, buffer, step float64, zone Zone) (float64, models.OptionType) {
	switch zone {
	case ZoneBreachUp:
		return math.Round((avgShortStrike+2*buffer)/step) * step, models.OptionCall
	default:
		return math.Round((avgShortStrike-2*buffer)/step) * step, models.OptionPut
	}
}

// Action is one concrete adjustment a breach offers.
type Action struct {
	Technique   Technique         `json:"technique"`
	Strike      float64           `json:"strike"`
	OptionType  models.OptionType `json:"option_type,omitempty"` // empty for straddle actions
	Description string            `json:"description"`
	Recommended bool              `json:"recommended"`
}

// Plan lists the recommended primary action and the three techniques a
// breach always offers. Outside a breach zone the plan is empty.
//
// In profit the primary is Shift Base: realize the gain, re-center the
// straddle at ATM. In loss the primary is Averaging: sell a second
// straddle at S2 so the blended average strike moves to ATM.
type Plan struct {
	Signal  Signal   `json:"signal"`
	Actions []Action `json:"actions"`
}

// BuildPlan computes the action set for a signal.
func BuildPlan(sig Signal, step float64) Plan {
	plan := Plan{Signal: sig}
	if !sig.Breached() {
		return plan
	}

	s2 := S2(sig.AvgShortStrike, sig.Spot, step)
	refStrike, refType := ReferenceStrike(sig.AvgShortStrike, sig.Buffer, step, sig.Zone)
	extStrike, extType := ExtensionStrike(sig.AvgShortStrike, sig.Buffer, step, sig.Zone)

	inProfit := sig.TotalPnL >= 0
	if inProfit {
		plan.Actions = append(plan.Actions, Action{
			Technique:   TechniqueShiftBase,
			Strike:      sig.ATMStrike,
			Description: "Close all active legs and sell a fresh straddle at ATM",
			Recommended: true,
		})
	}
	plan.Actions = append(plan.Actions, Action{
		Technique:   TechniqueAveraging,
		Strike:      s2,
		Description: "Sell a second straddle at S2 to re-center the average strike",
		Recommended: !inProfit,
	})
	plan.Actions = append(plan.Actions, Action{
		Technique:   TechniqueReference,
		Strike:      refStrike,
		OptionType:  refType,
		Description: "Sell a reference hedge on the side opposite the breach",
	})
	plan.Actions = append(plan.Actions, Action{
		Technique:   TechniqueExtension,
		Strike:      extStrike,
		OptionType:  extType,
		Description: "Extend the range: sell on the breach side, two buffers out",
	})
	return plan
}
