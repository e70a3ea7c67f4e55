package firefight

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// For any average strike, buffer, and spot, the evaluation must place the
// spot in exactly one zone, and the zone must agree with the triggers.
func TestZoneClassificationIsConsistent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("zone agrees with triggers", prop.ForAll(
		func(avg, buffer, spot float64) bool {
			sig := Evaluate(avg, buffer, 50, spot, 0)
			if avg == 0 {
				return !sig.Enabled
			}
			switch sig.Zone {
			case ZoneBreachUp:
				return spot > avg+buffer
			case ZoneBreachDown:
				return spot < avg-buffer
			case ZoneSafe:
				return spot >= avg-buffer && spot <= avg+buffer
			default:
				return false
			}
		},
		gen.Float64Range(1000, 60000),
		gen.Float64Range(0, 2000),
		gen.Float64Range(1000, 60000),
	))

	properties.TestingRun(t)
}

// Averaging re-centers the short base: the midpoint of the current
// average strike and the S2 strike is always the ATM strike.
func TestAveragingRecentersOnATM(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("midpoint of S1 and S2 is ATM", prop.ForAll(
		func(avg, spot float64) bool {
			step := 50.0
			s2 := S2(avg, spot, step)
			mid := (avg + s2) / 2
			return math.Abs(mid-ATM(spot, step)) < 1e-6
		},
		gen.Float64Range(10000, 60000),
		gen.Float64Range(10000, 60000),
	))

	properties.TestingRun(t)
}

// Reference hedges always sell on the side opposite the breach, inside
// the band; extensions always sell on the breach side, beyond it.
func TestAdjustmentStrikesRelativeToAverage(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("reference below and extension above on breach up", prop.ForAll(
		func(avg, buffer float64) bool {
			step := 100.0
			refStrike, _ := ReferenceStrike(avg, buffer, step, ZoneBreachUp)
			extStrike, _ := ExtensionStrike(avg, buffer, step, ZoneBreachUp)
			// Rounding to the step can move each strike at most half a step.
			return refStrike <= avg-buffer+step/2 && extStrike >= avg+2*buffer-step/2
		},
		gen.Float64Range(10000, 60000),
		gen.Float64Range(100, 2000),
	))

	properties.TestingRun(t)
}
