package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firefight-trader/internal/models"
)

func optionRow() scripRow {
	return scripRow{
		Token:          "43125",
		Symbol:         "BANKNIFTY29AUG2448500CE",
		Name:           "BANKNIFTY",
		Expiry:         "29AUG2024",
		Strike:         "4850000.000000",
		LotSize:        "15",
		InstrumentType: "OPTIDX",
		ExchSeg:        "NFO",
		TickSize:       "5.000000",
	}
}

func TestParseScripRow(t *testing.T) {
	inst, ok := parseScripRow(optionRow())
	require.True(t, ok)

	assert.Equal(t, "43125", inst.Token)
	assert.Equal(t, "BANKNIFTY", inst.Name)
	// Strike arrives in paise.
	assert.Equal(t, 48500.0, inst.Strike)
	assert.Equal(t, 15, inst.LotSize)
	assert.Equal(t, models.Exchange("NFO"), inst.Exchange)
	assert.Equal(t, 0.05, inst.TickSize)
	assert.Equal(t, time.Date(2024, time.August, 29, 0, 0, 0, 0, time.UTC), inst.Expiry)
}

func TestParseScripRowFilters(t *testing.T) {
	future := optionRow()
	future.InstrumentType = "FUTIDX"
	_, ok := parseScripRow(future)
	assert.False(t, ok)

	stock := optionRow()
	stock.Name = "RELIANCE"
	_, ok = parseScripRow(stock)
	assert.False(t, ok)

	badStrike := optionRow()
	badStrike.Strike = "-100"
	_, ok = parseScripRow(badStrike)
	assert.False(t, ok)

	badExpiry := optionRow()
	badExpiry.Expiry = "whenever"
	_, ok = parseScripRow(badExpiry)
	assert.False(t, ok)

	badLot := optionRow()
	badLot.LotSize = "0"
	_, ok = parseScripRow(badLot)
	assert.False(t, ok)
}

func TestParseExpiry(t *testing.T) {
	for raw, want := range map[string]time.Time{
		"29AUG2024": time.Date(2024, time.August, 29, 0, 0, 0, 0, time.UTC),
		"05SEP2024": time.Date(2024, time.September, 5, 0, 0, 0, 0, time.UTC),
		"01JAN2025": time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	} {
		got, err := parseExpiry(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := parseExpiry("")
	assert.Error(t, err)
	_, err = parseExpiry("32AUG2024")
	assert.Error(t, err)
}

func TestSessionSameDay(t *testing.T) {
	now := time.Date(2024, time.August, 29, 9, 30, 0, 0, time.UTC)
	assert.True(t, sameDay(now, now.Add(5*time.Hour)))
	assert.False(t, sameDay(now, now.Add(24*time.Hour)))
}
