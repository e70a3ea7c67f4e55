package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"firefight-trader/internal/broker"
	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
	"firefight-trader/internal/store"
)

// InstrumentService keeps the local instrument cache in sync with the
// broker's daily scrip master and resolves contracts and chains from it.
type InstrumentService struct {
	broker broker.Broker
	cache  *store.InstrumentCache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewInstrumentService creates an instrument service. ttl controls how
// stale the cache may get before EnsureFresh re-downloads the master.
func NewInstrumentService(b broker.Broker, cache *store.InstrumentCache, ttl time.Duration, logger zerolog.Logger) *InstrumentService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &InstrumentService{broker: b, cache: cache, ttl: ttl, logger: logger}
}

// EnsureFresh re-downloads the scrip master when the cache is older than
// the TTL or empty. A download failure over a non-empty cache degrades
// to serving stale data with a warning instead of failing the command.
func (s *InstrumentService) EnsureFresh(ctx context.Context) error {
	lastSync, err := s.cache.LastSync(ctx)
	if err == nil && time.Since(lastSync) < s.ttl {
		return nil
	}

	instruments, err := s.broker.DownloadInstruments(ctx)
	if err != nil {
		count, countErr := s.cache.Count(ctx)
		if countErr == nil && count > 0 {
			s.logger.Warn().Err(err).Time("last_sync", lastSync).Msg("Instrument download failed, serving stale cache")
			return nil
		}
		return apperrors.Wrap(err, "refreshing instrument master")
	}

	if err := s.cache.ReplaceAll(ctx, instruments); err != nil {
		return apperrors.Wrap(err, "storing instrument master")
	}
	s.logger.Info().Int("instruments", len(instruments)).Msg("Instrument master refreshed")
	return nil
}

// Sync forces a download regardless of cache age.
func (s *InstrumentService) Sync(ctx context.Context) (int, error) {
	instruments, err := s.broker.DownloadInstruments(ctx)
	if err != nil {
		return 0, apperrors.Wrap(err, "downloading instrument master")
	}
	if err := s.cache.ReplaceAll(ctx, instruments); err != nil {
		return 0, apperrors.Wrap(err, "storing instrument master")
	}
	return len(instruments), nil
}

// NearestExpiry returns the first listed expiry on or after today.
func (s *InstrumentService) NearestExpiry(ctx context.Context, instrument string) (time.Time, error) {
	expiries, err := s.cache.Expiries(ctx, instrument, startOfDay(time.Now()))
	if err != nil {
		return time.Time{}, err
	}
	if len(expiries) == 0 {
		return time.Time{}, apperrors.ErrNoExpiry
	}
	return expiries[0], nil
}

// Chain materializes the option chain for an instrument and expiry. A
// zero expiry selects the nearest one.
func (s *InstrumentService) Chain(ctx context.Context, instrument string, expiry time.Time) (*models.OptionChain, error) {
	if expiry.IsZero() {
		nearest, err := s.NearestExpiry(ctx, instrument)
		if err != nil {
			return nil, err
		}
		expiry = nearest
	}
	return s.cache.Chain(ctx, instrument, expiry)
}

// Contract resolves a single option contract.
func (s *InstrumentService) Contract(ctx context.Context, instrument string, expiry time.Time, strike float64, optType models.OptionType) (models.Contract, error) {
	if expiry.IsZero() {
		nearest, err := s.NearestExpiry(ctx, instrument)
		if err != nil {
			return models.Contract{}, err
		}
		expiry = nearest
	}
	return s.cache.Lookup(ctx, instrument, expiry, strike, optType)
}

// Expiries lists the upcoming expiries for an instrument.
func (s *InstrumentService) Expiries(ctx context.Context, instrument string) ([]time.Time, error) {
	return s.cache.Expiries(ctx, instrument, startOfDay(time.Now()))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
