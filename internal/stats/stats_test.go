package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"firefight-trader/internal/models"
)

func shortLeg(strike float64, lots int, entry, ltp float64, tag models.StrategyTag) *models.Leg {
	return &models.Leg{
		Side:         models.SideShort,
		OptionType:   models.OptionCall,
		Strike:       strike,
		Lots:         lots,
		EntryPremium: entry,
		CurrentLTP:   ltp,
		Status:       models.LegActive,
		Delta:        0.5,
		Theta:        5,
		Tag:          tag,
		LotSize:      15,
	}
}

func TestComputeEmptyGroup(t *testing.T) {
	agg := Compute(&models.StrategyGroup{Instrument: "BANKNIFTY"})
	assert.Equal(t, Aggregated{}, agg)

	assert.Equal(t, Aggregated{}, Compute(nil))
}

func TestComputePnLSplit(t *testing.T) {
	group := &models.StrategyGroup{
		Instrument: "BANKNIFTY",
		Legs: []*models.Leg{
			shortLeg(48000, 2, 250, 150, models.TagBaseStraddle), // unrealised (250-150)*2*15 = 3000
			{
				Side: models.SideShort, OptionType: models.OptionPut,
				Strike: 48000, Lots: 1, EntryPremium: 200, CurrentLTP: 999,
				ExitPrice: 150, Status: models.LegClosed, LotSize: 15,
			}, // realised (200-150)*1*15 = 750
		},
	}

	agg := Compute(group)
	assert.Equal(t, 3000.0, agg.UnrealisedPnL)
	assert.Equal(t, 750.0, agg.RealisedPnL)
	assert.Equal(t, 3750.0, agg.TotalPnL)
}

func TestComputeNetCreditCountsAllLegs(t *testing.T) {
	group := &models.StrategyGroup{
		Instrument: "BANKNIFTY",
		Legs: []*models.Leg{
			shortLeg(48000, 1, 200, 180, models.TagBaseStraddle), // +200*1*15 = 3000
			{
				Side: models.SideLong, OptionType: models.OptionPut,
				Strike: 47000, Lots: 1, EntryPremium: 50, Status: models.LegClosed,
				LotSize: 15,
			}, // -50*1*15 = -750, closed legs still count
		},
	}

	agg := Compute(group)
	assert.Equal(t, 2250.0, agg.NetCredit)
}

func TestComputeGreeksOnlyActiveLegs(t *testing.T) {
	closed := shortLeg(48000, 1, 200, 150, models.TagBaseStraddle)
	closed.Status = models.LegClosed

	long := &models.Leg{
		Side: models.SideLong, OptionType: models.OptionPut,
		Strike: 47000, Lots: 1, Delta: -0.5, Theta: 5,
		Status: models.LegActive, LotSize: 15,
	}

	group := &models.StrategyGroup{
		Instrument: "BANKNIFTY",
		Legs: []*models.Leg{
			shortLeg(48000, 1, 200, 180, models.TagBaseStraddle),
			closed,
			long,
		},
	}

	agg := Compute(group)
	// Active short: -0.5*15 delta, +5*15 theta.
	// Active long: +(-0.5)*15 delta, -5*15 theta.
	assert.InDelta(t, -15.0, agg.NetDelta, 1e-9)
	assert.InDelta(t, 0.0, agg.NetTheta, 1e-9)
}

func TestAvgShortStrikeExcludesReferenceHedges(t *testing.T) {
	group := &models.StrategyGroup{
		Instrument: "BANKNIFTY",
		Legs: []*models.Leg{
			shortLeg(48000, 1, 200, 180, models.TagBaseStraddle),
			shortLeg(48200, 3, 150, 120, models.TagFFAverage),
			shortLeg(47000, 10, 90, 70, models.TagFFReference), // excluded
		},
	}

	agg := Compute(group)
	// (48000*1 + 48200*3) / 4 = 48150
	assert.InDelta(t, 48150.0, agg.AvgShortStrike, 1e-9)
	assert.Equal(t, 4, agg.TotalShortLots)
}

func TestAvgShortStrikeSkipsClosedAndLongs(t *testing.T) {
	closed := shortLeg(50000, 5, 200, 150, models.TagBaseStraddle)
	closed.Status = models.LegClosed

	group := &models.StrategyGroup{
		Instrument: "BANKNIFTY",
		Legs: []*models.Leg{
			closed,
			{
				Side: models.SideLong, OptionType: models.OptionCall,
				Strike: 49000, Lots: 2, Status: models.LegActive, LotSize: 15,
			},
			shortLeg(48000, 2, 200, 180, models.TagBaseStraddle),
		},
	}

	agg := Compute(group)
	assert.InDelta(t, 48000.0, agg.AvgShortStrike, 1e-9)
	assert.Equal(t, 2, agg.TotalShortLots)
}

func TestAvgShortStrikeZeroWithoutEligibleShorts(t *testing.T) {
	group := &models.StrategyGroup{
		Instrument: "BANKNIFTY",
		Legs: []*models.Leg{
			shortLeg(47000, 1, 90, 70, models.TagFFReference),
		},
	}

	agg := Compute(group)
	assert.Equal(t, 0.0, agg.AvgShortStrike)
	assert.Equal(t, 0, agg.TotalShortLots)
}

func TestComputeCoercesNaN(t *testing.T) {
	leg := shortLeg(48000, 1, math.NaN(), 100, models.TagBaseStraddle)
	leg.Delta = math.Inf(1)

	group := &models.StrategyGroup{Instrument: "BANKNIFTY", Legs: []*models.Leg{leg}}
	agg := Compute(group)

	assert.False(t, math.IsNaN(agg.NetCredit))
	assert.False(t, math.IsInf(agg.NetDelta, 0))
	assert.Equal(t, 0.0, agg.NetCredit)
}
