// Package models provides domain models for the firefighting dashboard.
package models

import "strings"

// Exchange represents a stock exchange segment.
type Exchange string

const (
	NSE Exchange = "NSE"
	BSE Exchange = "BSE"
	NFO Exchange = "NFO" // F&O
)

// Side represents the side of an option leg.
type Side string

const (
	SideShort Side = "short"
	SideLong  Side = "long"
)

// OptionType represents the option contract type.
type OptionType string

const (
	OptionCall OptionType = "CE"
	OptionPut  OptionType = "PE"
)

// LegStatus represents the lifecycle state of a leg.
// Transitions are monotonic: active -> closed, never back.
type LegStatus string

const (
	LegActive LegStatus = "active"
	LegClosed LegStatus = "closed"
)

// GroupStatus represents the lifecycle state of a strategy group.
type GroupStatus string

const (
	GroupActive GroupStatus = "active"
	GroupClosed GroupStatus = "closed"
)

// StrategyTag classifies a leg within a strategy. Tags drive aggregation
// and firefighting eligibility. The field remains free text so operators
// can record their own labels; only the constants below carry semantics.
type StrategyTag string

const (
	TagBaseTrade    StrategyTag = "base_trade"
	TagBaseStraddle StrategyTag = "base_straddle"
	TagBaseStrangle StrategyTag = "base_strangle"
	TagFFAverage    StrategyTag = "ff_average"
	TagFFReference  StrategyTag = "ff_reference"
	TagFFExtension  StrategyTag = "ff_extension"
	TagWeeklyHedge  StrategyTag = "weekly_hedge"
)

// IsBase reports whether the tag marks a base leg (straddle/strangle core).
// Base legs are matched by prefix so custom labels like "base_ironfly" count.
func (t StrategyTag) IsBase() bool {
	return strings.HasPrefix(string(t), "base_")
}

// IsReferenceHedge reports whether the tag marks a reference hedge.
// Reference hedges are directional insurance and are excluded from the
// average short strike.
func (t StrategyTag) IsReferenceHedge() bool {
	return t == TagFFReference
}

// Leg is one option position within a strategy group.
type Leg struct {
	ID           string      `json:"id"`
	Side         Side        `json:"side"`
	OptionType   OptionType  `json:"type"`
	Strike       float64     `json:"strike"`
	Lots         int         `json:"lots"`
	EntryPremium float64     `json:"entry_premium"`
	CurrentLTP   float64     `json:"current_ltp"`
	ExitPrice    float64     `json:"exit_price"`
	Status       LegStatus   `json:"status"`
	Delta        float64     `json:"delta"`
	Theta        float64     `json:"theta"`
	Tag          StrategyTag `json:"strategy"`

	// Contract identity, copied from the instrument master at creation.
	Symbol   string     `json:"symbol"`
	Token    string     `json:"token"`
	Exchange Exchange   `json:"exchange"`
	LotSize  int        `json:"lot_size"`
	Expiry   ExpiryDate `json:"expiry,omitempty"`
}

// IsActive reports whether the leg is still open.
func (l *Leg) IsActive() bool {
	return l.Status == LegActive
}

// EffectivePrice returns the price used for P&L: the last refreshed LTP
// while active, the frozen exit price once closed.
func (l *Leg) EffectivePrice() float64 {
	if l.IsActive() {
		return l.CurrentLTP
	}
	return l.ExitPrice
}

// EffectiveLots returns the lot count, defaulting to 1 when the field is
// missing from a hand-edited or legacy data file.
func (l *Leg) EffectiveLots() int {
	if l.Lots <= 0 {
		return 1
	}
	return l.Lots
}

// EffectiveLotSize returns the contract multiplier, falling back to the
// instrument default when the leg predates lot size capture.
func (l *Leg) EffectiveLotSize(fallback int) int {
	if l.LotSize <= 0 {
		return fallback
	}
	return l.LotSize
}

// PnL computes the leg's profit and loss in currency terms.
// Short: (entry - price) x lots x lotSize. Long: (price - entry) x lots x lotSize.
func (l *Leg) PnL(fallbackLotSize int) float64 {
	lots := float64(l.EffectiveLots())
	size := float64(l.EffectiveLotSize(fallbackLotSize))
	switch l.Side {
	case SideShort:
		return (l.EntryPremium - l.EffectivePrice()) * lots * size
	case SideLong:
		return (l.EffectivePrice() - l.EntryPremium) * lots * size
	default:
		return 0
	}
}

// DefaultDelta returns the placeholder delta assigned at leg creation.
func DefaultDelta(t OptionType) float64 {
	if t == OptionCall {
		return 0.5
	}
	return -0.5
}

// DefaultTheta is the placeholder theta assigned at leg creation.
const DefaultTheta = 5.0

// DefaultBuffer is the firefighting tolerance in points for new groups.
const DefaultBuffer = 100.0

// StrategyGroup is a named collection of legs tracked as one economic unit.
type StrategyGroup struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Instrument string      `json:"instrument"`
	Legs       []*Leg      `json:"legs"`
	Buffer     float64     `json:"buffer"`
	Status     GroupStatus `json:"status"`
}

// IsActive reports whether the group accepts mutations.
func (g *StrategyGroup) IsActive() bool {
	return g.Status == GroupActive
}

// ActiveLegs returns the legs that are still open, in insertion order.
func (g *StrategyGroup) ActiveLegs() []*Leg {
	var out []*Leg
	for _, l := range g.Legs {
		if l.IsActive() {
			out = append(out, l)
		}
	}
	return out
}

// FindLeg returns the leg with the given id, or nil.
func (g *StrategyGroup) FindLeg(legID string) *Leg {
	for _, l := range g.Legs {
		if l.ID == legID {
			return l
		}
	}
	return nil
}
