// Package broker provides broker integration interfaces and implementations.
package broker

import (
	"context"

	"firefight-trader/internal/models"
)

// Broker defines the operations the dashboard needs from a brokerage.
type Broker interface {
	// Authentication
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	IsAuthenticated() bool

	// Market data. GetQuotes requests last-traded prices for
	// exchange-qualified tokens and returns them keyed by token.
	GetQuotes(ctx context.Context, tokensByExchange map[models.Exchange][]string) (map[string]float64, error)

	// Instrument master
	DownloadInstruments(ctx context.Context) ([]models.Instrument, error)
}
