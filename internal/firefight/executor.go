package firefight

import (
	"github.com/rs/zerolog"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
	"firefight-trader/internal/registry"
)

// Executor turns advisor actions into leg mutations. Every action
// requires its strike to exist in the materialized option chain; a
// missing strike aborts before any state is touched.
type Executor struct {
	registry *registry.Registry
	logger   zerolog.Logger
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(reg *registry.Registry, logger zerolog.Logger) *Executor {
	return &Executor{registry: reg, logger: logger}
}

// ShiftBase closes every active leg and opens a short straddle at the
// ATM strike. The only firefighting action that performs a bulk close.
func (e *Executor) ShiftBase(groupID string, chain *models.OptionChain, atmStrike float64) error {
	row, ok := chain.FindStrike(atmStrike)
	if !ok {
		return apperrors.ErrStrikeNotFound
	}
	if err := e.registry.ShiftBase(groupID, atmStrike, row.Call, row.Put); err != nil {
		return err
	}
	e.logger.Info().Str("group_id", groupID).Float64("atm", atmStrike).Msg("Base shifted to ATM")
	return nil
}

// Average opens a short straddle at the S2 strike, tagged ff_average so
// the new legs pull the average short strike toward spot.
func (e *Executor) Average(groupID string, chain *models.OptionChain, strike float64) error {
	row, ok := chain.FindStrike(strike)
	if !ok {
		return apperrors.ErrStrikeNotFound
	}
	if err := e.registry.AddStraddle(groupID, strike, row.Call, row.Put, models.TagFFAverage); err != nil {
		return err
	}
	e.logger.Info().Str("group_id", groupID).Float64("strike", strike).Msg("Averaging straddle added")
	return nil
}

// Reference sells a single option as a directional hedge, tagged
// ff_reference so it never dilutes the average short strike.
func (e *Executor) Reference(groupID string, chain *models.OptionChain, strike float64, optType models.OptionType) error {
	contract, ok := chain.Contract(strike, optType)
	if !ok {
		return apperrors.ErrStrikeNotFound
	}
	if err := e.registry.AddFirefightLeg(groupID, optType, strike, contract, models.TagFFReference, "REF"); err != nil {
		return err
	}
	e.logger.Info().Str("group_id", groupID).Float64("strike", strike).Str("type", string(optType)).Msg("Reference hedge added")
	return nil
}

// Extend sells a single option on the breach side, two buffers beyond
// the average strike, tagged ff_extension.
func (e *Executor) Extend(groupID string, chain *models.OptionChain, strike float64, optType models.OptionType) error {
	contract, ok := chain.Contract(strike, optType)
	if !ok {
		return apperrors.ErrStrikeNotFound
	}
	if err := e.registry.AddFirefightLeg(groupID, optType, strike, contract, models.TagFFExtension, "EXT"); err != nil {
		return err
	}
	e.logger.Info().Str("group_id", groupID).Float64("strike", strike).Str("type", string(optType)).Msg("Range extension added")
	return nil
}

// ApplyWeeklyHedge buys one lot of protection at each hedge strike of
// the plan, tagged weekly_hedge. Both strikes must resolve in the
// weekly chain before either leg is recorded.
func (e *Executor) ApplyWeeklyHedge(groupID string, chain *models.OptionChain, plan HedgePlan, priceByToken map[string]float64) error {
	call, ok := chain.Contract(plan.CallHedgeStrike, models.OptionCall)
	if !ok {
		return apperrors.ErrStrikeNotFound
	}
	put, ok := chain.Contract(plan.PutHedgeStrike, models.OptionPut)
	if !ok {
		return apperrors.ErrStrikeNotFound
	}

	if _, err := e.registry.AddLeg(groupID, models.SideLong, models.OptionCall, plan.CallHedgeStrike, 1, priceByToken[call.Token], call, models.TagWeeklyHedge); err != nil {
		return err
	}
	if _, err := e.registry.AddLeg(groupID, models.SideLong, models.OptionPut, plan.PutHedgeStrike, 1, priceByToken[put.Token], put, models.TagWeeklyHedge); err != nil {
		return err
	}
	e.logger.Info().
		Str("group_id", groupID).
		Float64("call_strike", plan.CallHedgeStrike).
		Float64("put_strike", plan.PutHedgeStrike).
		Msg("Weekly hedges bought")
	return nil
}

// Execute dispatches a planned action against the chain.
func (e *Executor) Execute(groupID string, chain *models.OptionChain, action Action) error {
	switch action.Technique {
	case TechniqueShiftBase:
		return e.ShiftBase(groupID, chain, action.Strike)
	case TechniqueAveraging:
		return e.Average(groupID, chain, action.Strike)
	case TechniqueReference:
		return e.Reference(groupID, chain, action.Strike, action.OptionType)
	case TechniqueExtension:
		return e.Extend(groupID, chain, action.Strike, action.OptionType)
	default:
		return apperrors.NewValidationError("technique", action.Technique, "unknown firefighting technique")
	}
}
