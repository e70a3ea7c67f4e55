// Package registry owns the mutable strategy state: the set of strategy
// groups, the current selection, and the trade history audit log. Every
// mutating operation appends a human-readable history entry and writes
// the full state through to the persister.
//
// The registry is designed for a single logical thread of control; the
// mutex only serializes mutations if the CLI is ever driven from more
// than one goroutine (e.g. the watch loop).
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
)

// Persister writes the registry state through to durable storage.
// Write failures are best-effort: logged, never surfaced as blocking
// errors, because in-memory state stays authoritative for the session.
type Persister interface {
	Save(groups map[string]*models.StrategyGroup, history []string) error
}

// Registry is the process-wide strategy state.
type Registry struct {
	mu            sync.Mutex
	groups        map[string]*models.StrategyGroup
	activeGroupID string
	tradeHistory  []string // newest first

	persister Persister
	logger    zerolog.Logger
	now       func() time.Time
}

// ist is the timezone used for history timestamps; trading happens on
// Indian exchanges.
var ist = loadIST()

func loadIST() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

// New creates a registry from previously loaded state. When no group is
// selected, the first active group (by name) becomes the selection, so a
// restart lands the operator back on a live strategy.
func New(groups map[string]*models.StrategyGroup, history []string, persister Persister, logger zerolog.Logger) *Registry {
	if groups == nil {
		groups = map[string]*models.StrategyGroup{}
	}
	r := &Registry{
		groups:       groups,
		tradeHistory: history,
		persister:    persister,
		logger:       logger,
		now:          time.Now,
	}

	var active []*models.StrategyGroup
	for _, g := range groups {
		if g.IsActive() {
			active = append(active, g)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].Name != active[j].Name {
			return active[i].Name < active[j].Name
		}
		return active[i].ID < active[j].ID
	})
	if len(active) > 0 {
		r.activeGroupID = active[0].ID
	}
	return r
}

// CreateGroup registers a new strategy group and selects it.
func (r *Registry) CreateGroup(name, instrument string) (*models.StrategyGroup, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("name", name, "strategy name must not be empty")
	}
	if _, ok := models.IndexFor(instrument); !ok {
		return nil, apperrors.NewValidationError("instrument", instrument, "unsupported instrument")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	group := &models.StrategyGroup{
		ID:         uuid.NewString(),
		Name:       name,
		Instrument: instrument,
		Legs:       []*models.Leg{},
		Buffer:     models.DefaultBuffer,
		Status:     models.GroupActive,
	}
	r.groups[group.ID] = group
	r.activeGroupID = group.ID

	r.appendHistory(fmt.Sprintf("ACTION: Created new strategy '%s'.", name))
	r.persist()

	r.logger.Info().Str("group_id", group.ID).Str("name", name).Str("instrument", instrument).Msg("Strategy group created")
	return group, nil
}

// SelectGroup makes the given group the active selection. Closed groups
// may be selected for viewing; mutation stays blocked by status checks.
func (r *Registry) SelectGroup(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.groups[id]; !ok {
		return apperrors.ErrGroupNotFound
	}
	r.activeGroupID = id
	return nil
}

// DeleteGroup removes a group permanently, clearing the selection if it
// pointed at the deleted group.
func (r *Registry) DeleteGroup(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[id]
	if !ok {
		return apperrors.ErrGroupNotFound
	}
	delete(r.groups, id)
	if r.activeGroupID == id {
		r.activeGroupID = ""
	}

	r.appendHistory(fmt.Sprintf("ACTION: Deleted strategy '%s'.", group.Name))
	r.persist()

	r.logger.Info().Str("group_id", id).Str("name", group.Name).Msg("Strategy group deleted")
	return nil
}

// Group returns the group with the given id.
func (r *Registry) Group(id string) (*models.StrategyGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[id]
	if !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	return group, nil
}

// ActiveGroup returns the selected group, or ErrGroupNotFound when
// nothing is selected.
func (r *Registry) ActiveGroup() (*models.StrategyGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeGroupID == "" {
		return nil, apperrors.ErrGroupNotFound
	}
	group, ok := r.groups[r.activeGroupID]
	if !ok {
		// Selection pointing at a vanished group is cleared, not kept dangling.
		r.activeGroupID = ""
		return nil, apperrors.ErrGroupNotFound
	}
	return group, nil
}

// ActiveGroupID returns the current selection, or "".
func (r *Registry) ActiveGroupID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeGroupID
}

// Groups returns all groups sorted by name.
func (r *Registry) Groups() []*models.StrategyGroup {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.StrategyGroup, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GroupsByStatus returns all groups with the given status, sorted by name.
func (r *Registry) GroupsByStatus(status models.GroupStatus) []*models.StrategyGroup {
	var out []*models.StrategyGroup
	for _, g := range r.Groups() {
		if g.Status == status {
			out = append(out, g)
		}
	}
	return out
}

// History returns the audit log, newest entry first.
func (r *Registry) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.tradeHistory))
	copy(out, r.tradeHistory)
	return out
}

// ClearHistory wipes the audit log.
func (r *Registry) ClearHistory() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tradeHistory = nil
	r.persist()
}

// SetBuffer updates a group's firefighting buffer.
func (r *Registry) SetBuffer(groupID string, buffer float64) error {
	if buffer < 0 {
		return apperrors.NewValidationError("buffer", buffer, "buffer must be non-negative")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[groupID]
	if !ok {
		return apperrors.ErrGroupNotFound
	}
	if !group.IsActive() {
		return apperrors.ErrGroupClosed
	}
	if group.Buffer != buffer {
		group.Buffer = buffer
		r.persist()
	}
	return nil
}

// appendHistory prepends a timestamped entry. Callers hold the mutex.
func (r *Registry) appendHistory(entry string) {
	stamped := fmt.Sprintf("[%s] %s", r.now().In(ist).Format("15:04:05"), entry)
	r.tradeHistory = append([]string{stamped}, r.tradeHistory...)
}

// persist writes state through to storage. Callers hold the mutex.
// Failures are logged only; the session keeps running on memory state.
func (r *Registry) persist() {
	if r.persister == nil {
		return
	}
	if err := r.persister.Save(r.groups, r.tradeHistory); err != nil {
		r.logger.Error().Err(err).Msg("Failed to persist strategy state")
	}
}
