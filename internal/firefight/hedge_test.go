package firefight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
)

func baseShort(optType models.OptionType, strike, entry float64) *models.Leg {
	return &models.Leg{
		Side:         models.SideShort,
		OptionType:   optType,
		Strike:       strike,
		EntryPremium: entry,
		Status:       models.LegActive,
		Tag:          models.TagBaseStrangle,
		Lots:         1,
	}
}

func TestWeeklyProtectionTwoSided(t *testing.T) {
	group := &models.StrategyGroup{
		Instrument: "BANKNIFTY",
		Legs: []*models.Leg{
			baseShort(models.OptionCall, 48500, 120),
			baseShort(models.OptionPut, 47500, 140),
		},
	}

	plan, err := WeeklyProtection(group, 100)
	require.NoError(t, err)

	assert.Equal(t, 260.0, plan.TotalPremiumPoints)
	assert.Equal(t, 48760.0, plan.CallBreakEven)
	assert.Equal(t, 47240.0, plan.PutBreakEven)
	assert.Equal(t, 48800.0, plan.CallHedgeStrike)
	assert.Equal(t, 47200.0, plan.PutHedgeStrike)
}

func TestWeeklyProtectionUsesExtremeStrikes(t *testing.T) {
	group := &models.StrategyGroup{
		Instrument: "BANKNIFTY",
		Legs: []*models.Leg{
			baseShort(models.OptionCall, 48500, 100),
			baseShort(models.OptionCall, 48800, 60), // highest call strike wins
			baseShort(models.OptionPut, 47500, 120),
			baseShort(models.OptionPut, 47200, 80), // lowest put strike wins
		},
	}

	plan, err := WeeklyProtection(group, 100)
	require.NoError(t, err)

	assert.Equal(t, 360.0, plan.TotalPremiumPoints)
	assert.Equal(t, 48800.0+360, plan.CallBreakEven)
	assert.Equal(t, 47200.0-360, plan.PutBreakEven)
}

func TestWeeklyProtectionOneSidedMirrors(t *testing.T) {
	group := &models.StrategyGroup{
		Instrument: "NIFTY",
		Legs: []*models.Leg{
			baseShort(models.OptionCall, 24000, 110),
		},
	}

	plan, err := WeeklyProtection(group, 50)
	require.NoError(t, err)

	// The missing put side borrows the call strike.
	assert.Equal(t, 24110.0, plan.CallBreakEven)
	assert.Equal(t, 23890.0, plan.PutBreakEven)
}

func TestWeeklyProtectionIgnoresNonBaseAndClosed(t *testing.T) {
	closed := baseShort(models.OptionCall, 48000, 200)
	closed.Status = models.LegClosed

	reference := baseShort(models.OptionPut, 47000, 90)
	reference.Tag = models.TagFFReference

	long := baseShort(models.OptionCall, 49000, 50)
	long.Side = models.SideLong

	group := &models.StrategyGroup{
		Instrument: "BANKNIFTY",
		Legs:       []*models.Leg{closed, reference, long},
	}

	_, err := WeeklyProtection(group, 100)
	assert.ErrorIs(t, err, apperrors.ErrLegNotFound)
}
