// Package trading coordinates market data refresh between the broker
// and the strategy registry.
package trading

import (
	"context"

	"github.com/rs/zerolog"

	"firefight-trader/internal/broker"
	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/firefight"
	"firefight-trader/internal/logging"
	"firefight-trader/internal/models"
	"firefight-trader/internal/registry"
)

// Refresher pulls quotes for a group's spot index and active legs in a
// single broker call and applies them to the registry.
type Refresher struct {
	broker   broker.Broker
	registry *registry.Registry
	logger   zerolog.Logger
}

// NewRefresher creates a refresher.
func NewRefresher(b broker.Broker, reg *registry.Registry, logger zerolog.Logger) *Refresher {
	return &Refresher{broker: b, registry: reg, logger: logger}
}

// RefreshResult summarizes one refresh pass over a group.
type RefreshResult struct {
	Spot        float64 `json:"spot"`
	ATMStrike   float64 `json:"atm_strike"`
	LegsUpdated int     `json:"legs_updated"`
}

// RefreshGroup fetches the index spot and every active leg's LTP in one
// batched quote call, then writes the prices back onto the legs. Legs
// whose tokens the API omits keep their prior prices.
func (r *Refresher) RefreshGroup(ctx context.Context, groupID string) (RefreshResult, error) {
	group, err := r.registry.Group(groupID)
	if err != nil {
		return RefreshResult{}, err
	}

	spec, hasIndex := models.IndexFor(group.Instrument)

	tokens := make(map[models.Exchange][]string)
	if hasIndex {
		tokens[spec.Exchange] = append(tokens[spec.Exchange], spec.Token)
	}
	seen := map[string]bool{}
	for _, leg := range group.ActiveLegs() {
		if leg.Token == "" || seen[leg.Token] {
			continue
		}
		seen[leg.Token] = true
		exchange := leg.Exchange
		if exchange == "" {
			exchange = models.NFO
		}
		tokens[exchange] = append(tokens[exchange], leg.Token)
	}
	if len(tokens) == 0 {
		return RefreshResult{}, apperrors.NewValidationError("group", group.Name, "nothing to refresh: no index token and no active legs")
	}

	prices, err := r.broker.GetQuotes(ctx, tokens)
	if err != nil {
		return RefreshResult{}, err
	}

	updated, err := r.registry.ApplyQuotes(groupID, prices)
	if err != nil {
		return RefreshResult{}, err
	}

	result := RefreshResult{LegsUpdated: updated}
	if hasIndex {
		if spot, ok := prices[spec.Token]; ok {
			result.Spot = spot
			result.ATMStrike = firefight.ATM(spot, spec.Step)
		}
	}

	logging.LogQuoteRefresh(r.logger, group.Name, updated, result.Spot)
	return result, nil
}

// Spot fetches just the index spot price for an instrument.
func (r *Refresher) Spot(ctx context.Context, instrument string) (float64, error) {
	spec, ok := models.IndexFor(instrument)
	if !ok {
		return 0, apperrors.NewValidationError("instrument", instrument, "unsupported index")
	}
	prices, err := r.broker.GetQuotes(ctx, map[models.Exchange][]string{
		spec.Exchange: {spec.Token},
	})
	if err != nil {
		return 0, err
	}
	spot, ok := prices[spec.Token]
	if !ok {
		return 0, apperrors.NewUpstreamError("quotes", "no quote returned for "+instrument, nil)
	}
	return spot, nil
}

// IndexLevel is one index's snapshot for the monitor view.
type IndexLevel struct {
	Instrument string  `json:"instrument"`
	Spot       float64 `json:"spot"`
	ATMStrike  float64 `json:"atm_strike"`
}

// RefreshIndices fetches spot for every supported index in one call.
func (r *Refresher) RefreshIndices(ctx context.Context) ([]IndexLevel, error) {
	tokens := make(map[models.Exchange][]string)
	for _, name := range models.SupportedIndices() {
		spec := models.IndexMap[name]
		tokens[spec.Exchange] = append(tokens[spec.Exchange], spec.Token)
	}

	prices, err := r.broker.GetQuotes(ctx, tokens)
	if err != nil {
		return nil, err
	}

	var out []IndexLevel
	for _, name := range models.SupportedIndices() {
		spec := models.IndexMap[name]
		spot, ok := prices[spec.Token]
		if !ok {
			continue
		}
		out = append(out, IndexLevel{
			Instrument: name,
			Spot:       spot,
			ATMStrike:  firefight.ATM(spot, spec.Step),
		})
	}
	return out, nil
}
