package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firefight-trader/internal/models"
)

// hedgeFixture holds a short 48500 CE / 48000 PE base collecting 350
// points, so the hedge strikes land at 48900 CE and 47700 PE.
func hedgeFixture(t *testing.T, b *stubBroker) (*App, string) {
	t.Helper()
	app, groupID := newLegFixture(t, b, true)
	_, err := app.Registry.AddLeg(groupID, models.SideShort, models.OptionCall, 48500, 1, 200,
		models.Contract{Token: "11", Exchange: models.NFO, LotSize: 15}, "")
	require.NoError(t, err)
	_, err = app.Registry.AddLeg(groupID, models.SideShort, models.OptionPut, 48000, 1, 150,
		models.Contract{Token: "12", Exchange: models.NFO, LotSize: 15}, "")
	require.NoError(t, err)
	return app, groupID
}

func weeklyInstrument(token, symbol string, strike float64, expiry time.Time) models.Instrument {
	return models.Instrument{
		Token: token, Symbol: symbol, Name: "BANKNIFTY",
		Expiry: expiry, Strike: strike, LotSize: 15,
		Exchange: models.NFO, InstrType: "OPTIDX",
	}
}

func TestHedgeProposalLeavesLegsUntouched(t *testing.T) {
	app, groupID := hedgeFixture(t, &stubBroker{})

	require.NoError(t, runCmd(newHedgeCmd(app)))

	group, err := app.Registry.Group(groupID)
	require.NoError(t, err)
	assert.Len(t, group.Legs, 2)
}

func TestHedgeApplyRecordsWeeklyLegs(t *testing.T) {
	expiry := time.Now().AddDate(0, 0, 3)
	b := &stubBroker{
		prices: map[string]float64{"901": 80.5, "902": 60.25},
		instruments: []models.Instrument{
			weeklyInstrument("901", "BANKNIFTY48900CE", 48900, expiry),
			weeklyInstrument("903", "BANKNIFTY48900PE", 48900, expiry),
			weeklyInstrument("904", "BANKNIFTY47700CE", 47700, expiry),
			weeklyInstrument("902", "BANKNIFTY47700PE", 47700, expiry),
		},
	}
	app, groupID := hedgeFixture(t, b)

	require.NoError(t, runCmd(newHedgeCmd(app), "--apply"))

	group, err := app.Registry.Group(groupID)
	require.NoError(t, err)
	require.Len(t, group.Legs, 4)

	call, put := group.Legs[2], group.Legs[3]
	assert.Equal(t, models.SideLong, call.Side)
	assert.Equal(t, models.OptionCall, call.OptionType)
	assert.Equal(t, 48900.0, call.Strike)
	assert.Equal(t, models.TagWeeklyHedge, call.Tag)
	assert.Equal(t, "901", call.Token)
	assert.Equal(t, 80.5, call.EntryPremium)

	assert.Equal(t, models.SideLong, put.Side)
	assert.Equal(t, models.OptionPut, put.OptionType)
	assert.Equal(t, 47700.0, put.Strike)
	assert.Equal(t, models.TagWeeklyHedge, put.Tag)
	assert.Equal(t, 60.25, put.EntryPremium)
}

func TestHedgeApplyAbortsOnUnlistedHedgeStrike(t *testing.T) {
	expiry := time.Now().AddDate(0, 0, 3)
	b := &stubBroker{
		instruments: []models.Instrument{
			weeklyInstrument("901", "BANKNIFTY48900CE", 48900, expiry),
			weeklyInstrument("903", "BANKNIFTY48900PE", 48900, expiry),
		},
	}
	app, groupID := hedgeFixture(t, b)

	// The put hedge strike is not listed on the weekly chain.
	err := runCmd(newHedgeCmd(app), "--apply")
	require.Error(t, err)

	group, err := app.Registry.Group(groupID)
	require.NoError(t, err)
	assert.Len(t, group.Legs, 2)
}
