package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
	"firefight-trader/pkg/utils"
)

// scripRow mirrors one entry of the OpenAPIScripMaster dump. All fields
// arrive as strings; strike is quoted in paise.
type scripRow struct {
	Token          string `json:"token"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	Expiry         string `json:"expiry"`
	Strike         string `json:"strike"`
	LotSize        string `json:"lotsize"`
	InstrumentType string `json:"instrumenttype"`
	ExchSeg        string `json:"exch_seg"`
	TickSize       string `json:"tick_size"`
}

// DownloadInstruments fetches the full scrip master dump and keeps only
// the index option contracts this tool trades. The dump is tens of
// megabytes of JSON, so it is filtered while decoding instead of held
// whole.
func (b *AngelOneBroker) DownloadInstruments(ctx context.Context) ([]models.Instrument, error) {
	return utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() ([]models.Instrument, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, scripMasterURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := b.httpClient.Do(req)
		if err != nil {
			return nil, apperrors.NewUpstreamError("instruments", "scrip master download failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, apperrors.NewUpstreamError("instruments",
				fmt.Sprintf("scrip master returned status %d", resp.StatusCode), nil)
		}

		dec := json.NewDecoder(resp.Body)
		if _, err := dec.Token(); err != nil { // opening '['
			return nil, apperrors.NewUpstreamError("instruments", "malformed scrip master", err)
		}

		var out []models.Instrument
		for dec.More() {
			var row scripRow
			if err := dec.Decode(&row); err != nil {
				return nil, apperrors.NewUpstreamError("instruments", "malformed scrip master row", err)
			}
			inst, ok := parseScripRow(row)
			if !ok {
				continue
			}
			out = append(out, inst)
		}
		if len(out) == 0 {
			return nil, apperrors.NewUpstreamError("instruments", "scrip master held no index options", nil)
		}
		return out, nil
	})
}

// parseScripRow converts a raw master row into an Instrument, dropping
// everything that is not an index option on a supported underlying.
func parseScripRow(row scripRow) (models.Instrument, bool) {
	if row.InstrumentType != "OPTIDX" {
		return models.Instrument{}, false
	}
	if _, ok := models.IndexFor(row.Name); !ok {
		return models.Instrument{}, false
	}

	expiry, err := parseExpiry(row.Expiry)
	if err != nil {
		return models.Instrument{}, false
	}

	// Strike arrives in paise ("2000000.000000" means 20000).
	strikePaise, err := strconv.ParseFloat(row.Strike, 64)
	if err != nil || strikePaise <= 0 {
		return models.Instrument{}, false
	}

	lotSize, err := strconv.Atoi(row.LotSize)
	if err != nil || lotSize <= 0 {
		return models.Instrument{}, false
	}

	tickSize, _ := strconv.ParseFloat(row.TickSize, 64)

	return models.Instrument{
		Token:     row.Token,
		Symbol:    row.Symbol,
		Name:      row.Name,
		Expiry:    expiry,
		Strike:    strikePaise / 100,
		LotSize:   lotSize,
		Exchange:  models.Exchange(row.ExchSeg),
		InstrType: row.InstrumentType,
		TickSize:  tickSize / 100,
	}, true
}

// parseExpiry handles the master's "29AUG2024" style dates.
func parseExpiry(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty expiry")
	}
	// Go's layout parser wants mixed case for month abbreviations
	// ("29AUG2024" must become "29Aug2024").
	normalized := raw
	if len(raw) >= 9 {
		normalized = raw[:3] + strings.ToLower(raw[3:5]) + raw[5:]
	}
	return time.Parse("02Jan2006", normalized)
}
