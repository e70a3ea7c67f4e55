package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegPnLShort(t *testing.T) {
	leg := &Leg{
		Side:         SideShort,
		OptionType:   OptionCall,
		EntryPremium: 250,
		CurrentLTP:   150,
		Lots:         2,
		LotSize:      5,
		Status:       LegActive,
	}
	// (250-150) * 2 * 5 = 1000
	assert.Equal(t, 1000.0, leg.PnL(25))
}

func TestLegPnLLong(t *testing.T) {
	leg := &Leg{
		Side:         SideLong,
		OptionType:   OptionPut,
		EntryPremium: 80,
		CurrentLTP:   100,
		Lots:         1,
		LotSize:      15,
		Status:       LegActive,
	}
	// (100-80) * 1 * 15 = 300
	assert.Equal(t, 300.0, leg.PnL(25))
}

func TestLegPnLUsesExitPriceWhenClosed(t *testing.T) {
	leg := &Leg{
		Side:         SideShort,
		EntryPremium: 200,
		CurrentLTP:   999, // stale, must be ignored
		ExitPrice:    150,
		Lots:         1,
		LotSize:      15,
		Status:       LegClosed,
	}
	assert.Equal(t, 750.0, leg.PnL(25))
}

func TestLegEffectiveLotsDefaultsToOne(t *testing.T) {
	leg := &Leg{Lots: 0}
	assert.Equal(t, 1, leg.EffectiveLots())

	leg.Lots = -3
	assert.Equal(t, 1, leg.EffectiveLots())

	leg.Lots = 4
	assert.Equal(t, 4, leg.EffectiveLots())
}

func TestLegEffectiveLotSizeFallback(t *testing.T) {
	leg := &Leg{LotSize: 0}
	assert.Equal(t, 15, leg.EffectiveLotSize(15))

	leg.LotSize = 25
	assert.Equal(t, 25, leg.EffectiveLotSize(15))
}

func TestStrategyTagClassification(t *testing.T) {
	assert.True(t, TagBaseTrade.IsBase())
	assert.True(t, TagBaseStraddle.IsBase())
	assert.True(t, StrategyTag("base_ironfly").IsBase())
	assert.False(t, TagFFAverage.IsBase())
	assert.False(t, TagFFReference.IsBase())

	assert.True(t, TagFFReference.IsReferenceHedge())
	assert.False(t, TagFFExtension.IsReferenceHedge())
}

func TestIndexMap(t *testing.T) {
	spec, ok := IndexFor("BANKNIFTY")
	assert.True(t, ok)
	assert.Equal(t, "26009", spec.Token)
	assert.Equal(t, 15, spec.LotSize)
	assert.Equal(t, 100.0, spec.Step)

	_, ok = IndexFor("SENSEX")
	assert.False(t, ok)

	assert.Equal(t, 25, DefaultLotSize("NIFTY"))
	assert.Equal(t, 25, DefaultLotSize("UNKNOWN"))
}

func TestGroupActiveLegs(t *testing.T) {
	group := &StrategyGroup{
		Status: GroupActive,
		Legs: []*Leg{
			{ID: "a", Status: LegActive},
			{ID: "b", Status: LegClosed},
			{ID: "c", Status: LegActive},
		},
	}
	active := group.ActiveLegs()
	assert.Len(t, active, 2)
	assert.Equal(t, "a", active[0].ID)
	assert.Equal(t, "c", active[1].ID)

	assert.Equal(t, "b", group.FindLeg("b").ID)
	assert.Nil(t, group.FindLeg("missing"))
}
