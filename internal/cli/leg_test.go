package cli

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firefight-trader/internal/models"
	"firefight-trader/internal/registry"
	"firefight-trader/internal/store"
	"firefight-trader/internal/trading"
)

func newLegFixture(t *testing.T, b *stubBroker, withCache bool) (*App, string) {
	t.Helper()
	reg := registry.New(nil, nil, nil, zerolog.Nop())
	group, err := reg.CreateGroup("Monthly", "BANKNIFTY")
	require.NoError(t, err)

	app := &App{
		Logger:   zerolog.Nop(),
		Broker:   b,
		Registry: reg,
	}
	if withCache {
		cache, err := store.NewInstrumentCache(filepath.Join(t.TempDir(), "instruments.db"))
		require.NoError(t, err)
		t.Cleanup(func() { cache.Close() })
		app.Instruments = trading.NewInstrumentService(b, cache, time.Hour, zerolog.Nop())
	}
	return app, group.ID
}

func TestLegAddAbortsWhenContractMissing(t *testing.T) {
	expiry := time.Now().AddDate(0, 0, 7)
	b := &stubBroker{instruments: []models.Instrument{{
		Token: "501", Symbol: "BANKNIFTY48500CE", Name: "BANKNIFTY",
		Expiry: expiry, Strike: 48500, LotSize: 15,
		Exchange: models.NFO, InstrType: "OPTIDX",
	}, {
		Token: "502", Symbol: "BANKNIFTY48500PE", Name: "BANKNIFTY",
		Expiry: expiry, Strike: 48500, LotSize: 15,
		Exchange: models.NFO, InstrType: "OPTIDX",
	}}}
	app, groupID := newLegFixture(t, b, true)

	// 49900 is not a listed strike; the add must not record a leg.
	err := runCmd(newLegAddCmd(app), "--type", "CE", "--strike", "49900")
	require.Error(t, err)

	group, err := app.Registry.Group(groupID)
	require.NoError(t, err)
	assert.Empty(t, group.Legs)
}

func TestLegAddAbortsWhenMasterUnavailable(t *testing.T) {
	b := &stubBroker{downloadErr: errors.New("scrip master down")}
	app, groupID := newLegFixture(t, b, true)

	// The cache is empty and cannot be refreshed, so the contract has
	// no source of truth.
	err := runCmd(newLegAddCmd(app), "--type", "CE", "--strike", "48000")
	require.Error(t, err)

	group, err := app.Registry.Group(groupID)
	require.NoError(t, err)
	assert.Empty(t, group.Legs)
}

func TestLegAddRejectsMalformedExpiry(t *testing.T) {
	app, groupID := newLegFixture(t, &stubBroker{}, true)

	err := runCmd(newLegAddCmd(app), "--type", "PE", "--strike", "48000", "--expiry", "next-week")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expiry")

	group, err := app.Registry.Group(groupID)
	require.NoError(t, err)
	assert.Empty(t, group.Legs)
}

func TestLegAddResolvesListedContract(t *testing.T) {
	expiry := time.Now().AddDate(0, 0, 7)
	b := &stubBroker{instruments: []models.Instrument{{
		Token: "501", Symbol: "BANKNIFTY48500CE", Name: "BANKNIFTY",
		Expiry: expiry, Strike: 48500, LotSize: 15,
		Exchange: models.NFO, InstrType: "OPTIDX",
	}}}
	app, groupID := newLegFixture(t, b, true)

	require.NoError(t, runCmd(newLegAddCmd(app), "--type", "CE", "--strike", "48500", "--entry", "220"))

	group, err := app.Registry.Group(groupID)
	require.NoError(t, err)
	require.Len(t, group.Legs, 1)
	leg := group.Legs[0]
	assert.Equal(t, "501", leg.Token)
	assert.Equal(t, "BANKNIFTY48500CE", leg.Symbol)
	assert.Equal(t, 15, leg.LotSize)
	assert.Equal(t, 220.0, leg.EntryPremium)
}

func TestLegAddWithoutCacheRecordsBareLeg(t *testing.T) {
	app, groupID := newLegFixture(t, &stubBroker{}, false)

	require.NoError(t, runCmd(newLegAddCmd(app), "--type", "CE", "--strike", "48000"))

	group, err := app.Registry.Group(groupID)
	require.NoError(t, err)
	require.Len(t, group.Legs, 1)
	assert.Empty(t, group.Legs[0].Token)
}
