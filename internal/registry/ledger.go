package registry

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
)

// AddLeg appends a new leg to a group. Zero lots defaults to one lot; a
// zero entry premium records an unfilled leg the operator completes via
// UpdateLeg. No live price is fetched here.
func (r *Registry) AddLeg(groupID string, side models.Side, optType models.OptionType, strike float64, lots int, entry float64, contract models.Contract, tag models.StrategyTag) (*models.Leg, error) {
	if lots < 0 {
		return nil, apperrors.NewValidationError("lots", lots, "lots must be a positive integer")
	}
	if math.IsNaN(entry) || math.IsInf(entry, 0) || entry < 0 {
		return nil, apperrors.NewValidationError("entry_premium", entry, "entry premium must be a non-negative number")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[groupID]
	if !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	if !group.IsActive() {
		return nil, apperrors.ErrGroupClosed
	}
	if tag == "" {
		tag = models.TagBaseTrade
	}

	leg := r.addLegLocked(group, side, optType, strike, contract, tag)
	if lots > 0 {
		leg.Lots = lots
	}
	leg.EntryPremium = entry
	r.persist()

	r.logger.Info().
		Str("group", group.Name).
		Str("leg_id", leg.ID).
		Str("side", string(side)).
		Str("type", string(optType)).
		Float64("strike", strike).
		Str("tag", string(tag)).
		Msg("Leg added")
	return leg, nil
}

// UpdateLeg mutates an active leg's lots, entry premium, and tag. Only
// changed fields are touched; one history entry summarizes all changes,
// and nothing is persisted when nothing changed.
func (r *Registry) UpdateLeg(groupID, legID string, newLots int, newEntry float64, newTag models.StrategyTag) error {
	if newLots < 1 {
		return apperrors.NewValidationError("lots", newLots, "lots must be a positive integer")
	}
	if math.IsNaN(newEntry) || math.IsInf(newEntry, 0) {
		return apperrors.NewValidationError("entry_premium", newEntry, "entry premium must be a number")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[groupID]
	if !ok {
		return apperrors.ErrGroupNotFound
	}
	leg := group.FindLeg(legID)
	if leg == nil {
		return apperrors.ErrLegNotFound
	}
	if !leg.IsActive() {
		return apperrors.ErrLegClosed
	}

	var changes []string
	if leg.Lots != newLots {
		changes = append(changes, fmt.Sprintf("LOTS from %d to %d", leg.Lots, newLots))
		leg.Lots = newLots
	}
	if leg.EntryPremium != newEntry {
		changes = append(changes, fmt.Sprintf("ENTRY from %.2f to %.2f", leg.EntryPremium, newEntry))
		leg.EntryPremium = newEntry
	}
	if newTag != "" && leg.Tag != newTag {
		changes = append(changes, fmt.Sprintf("TAG to '%s'", newTag))
		leg.Tag = newTag
	}

	if len(changes) == 0 {
		return nil
	}

	r.appendHistory(fmt.Sprintf("UPDATE LEG (%s | %v %s): %s",
		group.Name, leg.Strike, leg.OptionType, strings.Join(changes, ", ")))
	r.persist()
	return nil
}

// ExitLeg closes a single leg, freezing the last observed price as the
// exit price. If prices were never refreshed this locks in a stale or
// zero exit; the operator is expected to refresh first.
func (r *Registry) ExitLeg(groupID, legID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[groupID]
	if !ok {
		return apperrors.ErrGroupNotFound
	}
	leg := group.FindLeg(legID)
	if leg == nil {
		return apperrors.ErrLegNotFound
	}
	if !leg.IsActive() {
		return apperrors.ErrLegClosed
	}

	leg.Status = models.LegClosed
	leg.ExitPrice = leg.CurrentLTP

	r.appendHistory(fmt.Sprintf("EXIT LEG (%s): %s %s @ %v at %.2f",
		group.Name, strings.ToUpper(string(leg.Side)), leg.OptionType, leg.Strike, leg.ExitPrice))
	r.persist()

	r.logger.Info().Str("group", group.Name).Str("leg_id", legID).Float64("exit", leg.ExitPrice).Msg("Leg exited")
	return nil
}

// CloseAllLegs closes every active leg at its last observed price, marks
// the group closed, and clears the selection if it pointed here. Already
// closed legs are skipped; their exit prices are never rewritten.
func (r *Registry) CloseAllLegs(groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[groupID]
	if !ok {
		return apperrors.ErrGroupNotFound
	}

	closed := 0
	for _, leg := range group.Legs {
		if !leg.IsActive() {
			continue
		}
		leg.Status = models.LegClosed
		leg.ExitPrice = leg.CurrentLTP
		closed++
	}
	group.Status = models.GroupClosed
	if r.activeGroupID == groupID {
		r.activeGroupID = ""
	}

	r.appendHistory(fmt.Sprintf("ACTION: Close All Positions executed for %s. Strategy moved to 'Closed'.", group.Name))
	r.persist()

	r.logger.Info().Str("group", group.Name).Int("legs_closed", closed).Msg("All positions closed")
	return nil
}

// closeActiveLegsLocked closes the active legs of a group without closing
// the group itself. Used by the shift-base firefighting action. Callers
// hold the mutex.
func (r *Registry) closeActiveLegsLocked(group *models.StrategyGroup) int {
	closed := 0
	for _, leg := range group.Legs {
		if !leg.IsActive() {
			continue
		}
		leg.Status = models.LegClosed
		leg.ExitPrice = leg.CurrentLTP
		closed++
	}
	return closed
}

// ShiftBase is the one firefighting action that mutates existing legs: it
// closes every active leg and opens a fresh short straddle at the ATM
// strike, keeping the group itself open.
func (r *Registry) ShiftBase(groupID string, atmStrike float64, call, put models.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[groupID]
	if !ok {
		return apperrors.ErrGroupNotFound
	}
	if !group.IsActive() {
		return apperrors.ErrGroupClosed
	}

	r.closeActiveLegsLocked(group)
	r.addLegLocked(group, models.SideShort, models.OptionCall, atmStrike, call, models.TagBaseStraddle)
	r.addLegLocked(group, models.SideShort, models.OptionPut, atmStrike, put, models.TagBaseStraddle)

	r.appendHistory(fmt.Sprintf("FIREFIGHT (SHIFT) (%s): Closed active legs. Added new Straddle @ %v", group.Name, atmStrike))
	r.persist()
	return nil
}

// AddStraddle opens a short straddle at the given strike, used by the
// averaging firefighting technique.
func (r *Registry) AddStraddle(groupID string, strike float64, call, put models.Contract, tag models.StrategyTag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[groupID]
	if !ok {
		return apperrors.ErrGroupNotFound
	}
	if !group.IsActive() {
		return apperrors.ErrGroupClosed
	}

	r.addLegLocked(group, models.SideShort, models.OptionCall, strike, call, tag)
	r.addLegLocked(group, models.SideShort, models.OptionPut, strike, put, tag)

	r.appendHistory(fmt.Sprintf("FIREFIGHT (AVG) (%s): Added Straddle @ %v", group.Name, strike))
	r.persist()
	return nil
}

// AddFirefightLeg opens a single short leg for the reference or extension
// techniques, logging under the technique's label.
func (r *Registry) AddFirefightLeg(groupID string, optType models.OptionType, strike float64, contract models.Contract, tag models.StrategyTag, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[groupID]
	if !ok {
		return apperrors.ErrGroupNotFound
	}
	if !group.IsActive() {
		return apperrors.ErrGroupClosed
	}

	r.addLegLocked(group, models.SideShort, optType, strike, contract, tag)

	r.appendHistory(fmt.Sprintf("FIREFIGHT (%s) (%s): Added %s @ %v", label, group.Name, optType, strike))
	r.persist()
	return nil
}

// addLegLocked appends a leg and its ADD LEG history entry without
// persisting; the caller owns the write-through. Callers hold the mutex.
func (r *Registry) addLegLocked(group *models.StrategyGroup, side models.Side, optType models.OptionType, strike float64, contract models.Contract, tag models.StrategyTag) *models.Leg {
	leg := &models.Leg{
		ID:         uuid.NewString(),
		Side:       side,
		OptionType: optType,
		Strike:     strike,
		Lots:       1,
		Status:     models.LegActive,
		Delta:      models.DefaultDelta(optType),
		Theta:      models.DefaultTheta,
		Tag:        tag,
		Symbol:     contract.Symbol,
		Token:      contract.Token,
		Exchange:   contract.Exchange,
		LotSize:    contract.LotSize,
		Expiry:     contract.Expiry,
	}
	group.Legs = append(group.Legs, leg)
	r.appendHistory(fmt.Sprintf("ADD LEG (%s): %s %s @ %v (Tag: %s)",
		group.Name, strings.ToUpper(string(side)), optType, strike, tag))
	return leg
}

// ApplyQuotes injects refreshed last-traded prices into the active legs
// of a group, keyed by instrument token. Legs whose token is absent keep
// their previous price; a partial quote response never zeroes anything.
// Prices are transient market state and are not persisted here.
func (r *Registry) ApplyQuotes(groupID string, priceByToken map[string]float64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[groupID]
	if !ok {
		return 0, apperrors.ErrGroupNotFound
	}

	updated := 0
	for _, leg := range group.Legs {
		if !leg.IsActive() {
			continue
		}
		if ltp, ok := priceByToken[leg.Token]; ok {
			leg.CurrentLTP = ltp
			updated++
		}
	}
	return updated, nil
}
