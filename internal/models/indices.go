package models

// IndexSpec describes a supported index: its spot token for quotes, the
// exchange the spot trades on, the option lot size, and the strike step.
type IndexSpec struct {
	Name     string
	Token    string
	Exchange Exchange
	Symbol   string
	LotSize  int
	Step     float64
}

// IndexMap is the static table of supported indices. Spot quotes use the
// NSE index token; option contracts trade on NFO.
var IndexMap = map[string]IndexSpec{
	"NIFTY":     {Name: "NIFTY", Token: "26000", Exchange: NSE, Symbol: "NIFTY 50", LotSize: 25, Step: 50},
	"BANKNIFTY": {Name: "BANKNIFTY", Token: "26009", Exchange: NSE, Symbol: "NIFTY BANK", LotSize: 15, Step: 100},
	"FINNIFTY":  {Name: "FINNIFTY", Token: "26037", Exchange: NSE, Symbol: "NIFTY FIN SERVICE", LotSize: 25, Step: 50},
}

// SupportedIndices returns the instrument names accepted for new groups,
// in a stable display order.
func SupportedIndices() []string {
	return []string{"NIFTY", "BANKNIFTY", "FINNIFTY"}
}

// IndexFor returns the index definition for an instrument name.
func IndexFor(name string) (IndexSpec, bool) {
	spec, ok := IndexMap[name]
	return spec, ok
}

// DefaultLotSize returns the lot size for an instrument, or 25 when the
// instrument is unknown (legacy data files).
func DefaultLotSize(name string) int {
	if spec, ok := IndexMap[name]; ok {
		return spec.LotSize
	}
	return 25
}
