package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
)

func tempCache(t *testing.T) *InstrumentCache {
	t.Helper()
	cache, err := NewInstrumentCache(filepath.Join(t.TempDir(), "instruments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func option(token, symbol string, strike float64, expiry time.Time) models.Instrument {
	return models.Instrument{
		Token:     token,
		Symbol:    symbol,
		Name:      "BANKNIFTY",
		Expiry:    expiry,
		Strike:    strike,
		LotSize:   15,
		Exchange:  models.NFO,
		InstrType: "OPTIDX",
		TickSize:  0.05,
	}
}

func TestInstrumentCacheRoundTrip(t *testing.T) {
	cache := tempCache(t)
	ctx := context.Background()

	near := time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC)
	far := time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, cache.ReplaceAll(ctx, []models.Instrument{
		option("101", "BANKNIFTY05SEP2648500CE", 48500, near),
		option("102", "BANKNIFTY05SEP2648500PE", 48500, near),
		option("103", "BANKNIFTY05SEP2648600CE", 48600, near),
		option("104", "BANKNIFTY05SEP2648600PE", 48600, near),
		option("105", "BANKNIFTY30SEP2648500CE", 48500, far),
		option("106", "BANKNIFTY30SEP2648500PE", 48500, far),
	}))

	count, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	lastSync, err := cache.LastSync(ctx)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), lastSync, time.Minute)

	// Stored dates must read back as dates, not be silently dropped.
	expiries, err := cache.Expiries(ctx, "BANKNIFTY", time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, expiries, 2)
	assert.Equal(t, "2026-09-05", expiries[0].Format("2006-01-02"))
	assert.Equal(t, "2026-09-30", expiries[1].Format("2006-01-02"))
}

func TestInstrumentCacheExpiriesSkipsPast(t *testing.T) {
	cache := tempCache(t)
	ctx := context.Background()

	near := time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, cache.ReplaceAll(ctx, []models.Instrument{
		option("101", "BANKNIFTY05SEP2648500CE", 48500, near),
	}))

	expiries, err := cache.Expiries(ctx, "BANKNIFTY", near.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, expiries)
}

func TestInstrumentCacheChainPairsStrikes(t *testing.T) {
	cache := tempCache(t)
	ctx := context.Background()

	expiry := time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, cache.ReplaceAll(ctx, []models.Instrument{
		option("101", "BANKNIFTY05SEP2648500CE", 48500, expiry),
		option("102", "BANKNIFTY05SEP2648500PE", 48500, expiry),
		option("103", "BANKNIFTY05SEP2648400CE", 48400, expiry),
		option("104", "BANKNIFTY05SEP2648400PE", 48400, expiry),
		// Put side missing; the strike cannot form a chain row.
		option("105", "BANKNIFTY05SEP2648700CE", 48700, expiry),
	}))

	chain, err := cache.Chain(ctx, "BANKNIFTY", expiry)
	require.NoError(t, err)
	require.Len(t, chain.Strikes, 2)

	assert.Equal(t, 48400.0, chain.Strikes[0].Strike)
	assert.Equal(t, 48500.0, chain.Strikes[1].Strike)
	assert.Equal(t, "103", chain.Strikes[0].Call.Token)
	assert.Equal(t, "104", chain.Strikes[0].Put.Token)
	assert.Equal(t, "2026-09-05", chain.Strikes[0].Call.Expiry.String())
}

func TestInstrumentCacheLookup(t *testing.T) {
	cache := tempCache(t)
	ctx := context.Background()

	expiry := time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, cache.ReplaceAll(ctx, []models.Instrument{
		option("101", "BANKNIFTY05SEP2648500CE", 48500, expiry),
		option("102", "BANKNIFTY05SEP2648500PE", 48500, expiry),
	}))

	contract, err := cache.Lookup(ctx, "BANKNIFTY", expiry, 48500, models.OptionPut)
	require.NoError(t, err)
	assert.Equal(t, "102", contract.Token)
	assert.Equal(t, "BANKNIFTY05SEP2648500PE", contract.Symbol)
	assert.Equal(t, 15, contract.LotSize)
	assert.Equal(t, models.NFO, contract.Exchange)
	assert.True(t, contract.Expiry.Valid())
	assert.Equal(t, "2026-09-05", contract.Expiry.String())

	_, err = cache.Lookup(ctx, "BANKNIFTY", expiry, 48600, models.OptionCall)
	assert.ErrorIs(t, err, apperrors.ErrInstrumentNotFound)
}

func TestInstrumentCacheReplaceAllSwaps(t *testing.T) {
	cache := tempCache(t)
	ctx := context.Background()

	expiry := time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, cache.ReplaceAll(ctx, []models.Instrument{
		option("101", "BANKNIFTY05SEP2648500CE", 48500, expiry),
	}))
	require.NoError(t, cache.ReplaceAll(ctx, []models.Instrument{
		option("201", "BANKNIFTY05SEP2648600CE", 48600, expiry),
	}))

	count, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = cache.Lookup(ctx, "BANKNIFTY", expiry, 48500, models.OptionCall)
	assert.ErrorIs(t, err, apperrors.ErrInstrumentNotFound)
}
