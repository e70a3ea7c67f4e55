// Package store provides data persistence implementations: the JSON-backed
// strategy state file and the SQLite instrument master cache.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"firefight-trader/internal/models"
)

// snapshot is the on-disk shape of the strategy state file. Field names
// match the historical data file so existing files keep loading.
type snapshot struct {
	StrategyGroups map[string]*models.StrategyGroup `json:"strategy_groups"`
	TradeHistory   []string                         `json:"trade_history"`
}

// JSONStore persists the strategy registry to a single JSON file with
// write-through semantics. Writes are atomic: temp file then rename.
type JSONStore struct {
	mu     sync.Mutex
	path   string
	logger zerolog.Logger
}

// NewJSONStore creates a store backed by the given file path.
func NewJSONStore(path string, logger zerolog.Logger) *JSONStore {
	return &JSONStore{path: path, logger: logger}
}

// Load reads the state file. A missing file yields empty state. A corrupt
// file is logged and also yields empty state; the program must not crash
// on a bad data file.
func (s *JSONStore) Load() (map[string]*models.StrategyGroup, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*models.StrategyGroup{}, nil, nil
		}
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to read strategy file, starting empty")
		return map[string]*models.StrategyGroup{}, nil, nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Corrupt strategy file, starting empty")
		return map[string]*models.StrategyGroup{}, nil, nil
	}

	if snap.StrategyGroups == nil {
		snap.StrategyGroups = map[string]*models.StrategyGroup{}
	}
	return snap.StrategyGroups, snap.TradeHistory, nil
}

// Save writes the full registry state. Failures are returned for logging
// but are treated as best-effort by callers: in-memory state stays
// authoritative for the running session.
func (s *JSONStore) Save(groups map[string]*models.StrategyGroup, history []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{StrategyGroups: groups, TradeHistory: history}
	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling strategy state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// Path returns the backing file path.
func (s *JSONStore) Path() string {
	return s.path
}
