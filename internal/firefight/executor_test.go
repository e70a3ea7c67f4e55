package firefight

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
	"firefight-trader/internal/registry"
)

func chainWith(strikes ...float64) *models.OptionChain {
	chain := &models.OptionChain{Instrument: "BANKNIFTY", Expiry: time.Now()}
	for _, s := range strikes {
		chain.Strikes = append(chain.Strikes, models.ChainStrike{
			Strike: s,
			Call:   models.Contract{Symbol: "CE", Token: "1", Exchange: models.NFO, LotSize: 15},
			Put:    models.Contract{Symbol: "PE", Token: "2", Exchange: models.NFO, LotSize: 15},
		})
	}
	return chain
}

func newExecutorFixture(t *testing.T) (*Executor, *registry.Registry, string) {
	t.Helper()
	reg := registry.New(nil, nil, nil, zerolog.Nop())
	group, err := reg.CreateGroup("G", "BANKNIFTY")
	require.NoError(t, err)
	return NewExecutor(reg, zerolog.Nop()), reg, group.ID
}

func TestExecutorShiftBaseReplacesLegs(t *testing.T) {
	exec, reg, groupID := newExecutorFixture(t)
	_, err := reg.AddLeg(groupID, models.SideShort, models.OptionCall, 48200, 1, 200, models.Contract{}, "")
	require.NoError(t, err)

	require.NoError(t, exec.ShiftBase(groupID, chainWith(48500), 48500))

	group, err := reg.Group(groupID)
	require.NoError(t, err)
	active := group.ActiveLegs()
	require.Len(t, active, 2)
	for _, leg := range active {
		assert.Equal(t, 48500.0, leg.Strike)
		assert.Equal(t, models.TagBaseStraddle, leg.Tag)
	}
	// The original leg is closed, not removed.
	assert.Len(t, group.Legs, 3)
}

func TestExecutorRejectsUnlistedStrike(t *testing.T) {
	exec, _, groupID := newExecutorFixture(t)

	err := exec.Average(groupID, chainWith(48500), 48700)
	assert.ErrorIs(t, err, apperrors.ErrStrikeNotFound)
}

func TestExecutorApplyWeeklyHedgeBuysBothSides(t *testing.T) {
	exec, reg, groupID := newExecutorFixture(t)
	chain := &models.OptionChain{
		Instrument: "BANKNIFTY",
		Expiry:     time.Now(),
		Strikes: []models.ChainStrike{
			{
				Strike: 48300,
				Call:   models.Contract{Symbol: "48300CE", Token: "301", Exchange: models.NFO, LotSize: 15},
				Put:    models.Contract{Symbol: "48300PE", Token: "302", Exchange: models.NFO, LotSize: 15},
			},
			{
				Strike: 48700,
				Call:   models.Contract{Symbol: "48700CE", Token: "401", Exchange: models.NFO, LotSize: 15},
				Put:    models.Contract{Symbol: "48700PE", Token: "402", Exchange: models.NFO, LotSize: 15},
			},
		},
	}
	plan := HedgePlan{CallHedgeStrike: 48700, PutHedgeStrike: 48300}
	prices := map[string]float64{"401": 120.5, "302": 95.25}

	require.NoError(t, exec.ApplyWeeklyHedge(groupID, chain, plan, prices))

	group, err := reg.Group(groupID)
	require.NoError(t, err)
	require.Len(t, group.Legs, 2)

	call, put := group.Legs[0], group.Legs[1]
	assert.Equal(t, models.SideLong, call.Side)
	assert.Equal(t, models.OptionCall, call.OptionType)
	assert.Equal(t, 48700.0, call.Strike)
	assert.Equal(t, models.TagWeeklyHedge, call.Tag)
	assert.Equal(t, "401", call.Token)
	assert.Equal(t, 120.5, call.EntryPremium)

	assert.Equal(t, models.SideLong, put.Side)
	assert.Equal(t, models.OptionPut, put.OptionType)
	assert.Equal(t, 48300.0, put.Strike)
	assert.Equal(t, models.TagWeeklyHedge, put.Tag)
	assert.Equal(t, 95.25, put.EntryPremium)
}

func TestExecutorApplyWeeklyHedgeRejectsUnlistedStrike(t *testing.T) {
	exec, reg, groupID := newExecutorFixture(t)

	// The put strike is not listed; nothing may be recorded.
	err := exec.ApplyWeeklyHedge(groupID, chainWith(48700), HedgePlan{
		CallHedgeStrike: 48700,
		PutHedgeStrike:  48300,
	}, nil)
	assert.ErrorIs(t, err, apperrors.ErrStrikeNotFound)

	group, err := reg.Group(groupID)
	require.NoError(t, err)
	assert.Empty(t, group.Legs)
}

func TestExecutorExecuteDispatch(t *testing.T) {
	exec, reg, groupID := newExecutorFixture(t)
	chain := chainWith(47800, 48500, 48700)

	require.NoError(t, exec.Execute(groupID, chain, Action{
		Technique: TechniqueAveraging, Strike: 48500,
	}))
	require.NoError(t, exec.Execute(groupID, chain, Action{
		Technique: TechniqueReference, Strike: 47800, OptionType: models.OptionPut,
	}))
	require.NoError(t, exec.Execute(groupID, chain, Action{
		Technique: TechniqueExtension, Strike: 48700, OptionType: models.OptionCall,
	}))

	group, err := reg.Group(groupID)
	require.NoError(t, err)
	require.Len(t, group.Legs, 4)
	assert.Equal(t, models.TagFFAverage, group.Legs[0].Tag)
	assert.Equal(t, models.TagFFAverage, group.Legs[1].Tag)
	assert.Equal(t, models.TagFFReference, group.Legs[2].Tag)
	assert.Equal(t, models.TagFFExtension, group.Legs[3].Tag)

	err = exec.Execute(groupID, chain, Action{Technique: "UNKNOWN"})
	assert.Error(t, err)
}
