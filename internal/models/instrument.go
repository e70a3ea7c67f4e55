package models

import "time"

// Instrument is one row of the broker's instrument master.
type Instrument struct {
	Token      string
	Symbol     string
	Name       string
	Expiry     time.Time
	Strike     float64
	LotSize    int
	Exchange   Exchange
	InstrType  string // OPTIDX, FUTIDX, ...
	TickSize   float64
}

// Contract is the identity of a tradable option contract, resolved from
// the instrument master and copied onto a leg at creation.
type Contract struct {
	Symbol   string
	Token    string
	Exchange Exchange
	LotSize  int
	Expiry   ExpiryDate
}

// ChainStrike is a single strike row in a materialized option chain,
// pairing the call and put contracts at that strike.
type ChainStrike struct {
	Strike float64
	Call   Contract
	Put    Contract
}

// OptionChain is the materialized option chain for one instrument and expiry.
type OptionChain struct {
	Instrument string
	Expiry     time.Time
	Strikes    []ChainStrike
}

// FindStrike returns the chain row for an exact strike, or false when the
// strike is not listed for this expiry.
func (c *OptionChain) FindStrike(strike float64) (ChainStrike, bool) {
	for _, row := range c.Strikes {
		if row.Strike == strike {
			return row, true
		}
	}
	return ChainStrike{}, false
}

// Contract returns the call or put contract at a strike.
func (c *OptionChain) Contract(strike float64, t OptionType) (Contract, bool) {
	row, ok := c.FindStrike(strike)
	if !ok {
		return Contract{}, false
	}
	if t == OptionCall {
		return row.Call, true
	}
	return row.Put, true
}
