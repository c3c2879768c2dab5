package floor

import (
	"sync"

	"buzzquiz/arbiter/internal/types"
)

// Decision represents what the floor manager did with a buzz signal.
type Decision struct {
	Granted    bool
	Contestant types.ContestantID
	Reason     string // e.g., "floor_held", "already_buzzed"
}

const (
	ReasonClosed        = "round_closed"
	ReasonFloorHeld     = "floor_held"
	ReasonAlreadyBuzzed = "already_buzzed"
	ReasonQuotaReached  = "quota_reached"
	ReasonIneligible    = "ineligible"
)

// Manager owns the floor-holder and the current round's buzz order. All
// reads and writes go through one mutex so a grant is a single
// check-and-set.
type Manager struct {
	mu sync.Mutex

	open    bool
	quota   int
	minID   types.ContestantID
	maxID   types.ContestantID
	holding bool
	holder  types.ContestantID
	buzzed  []types.ContestantID
	seen    map[types.ContestantID]struct{}
}

// New returns a manager accepting contestant IDs in [firstID, firstID+count).
func New(firstID, count int) *Manager {
	return &Manager{
		minID: types.ContestantID(firstID),
		maxID: types.ContestantID(firstID + count - 1),
	}
}

// Open starts a fresh round: empty buzz order, no holder.
func (m *Manager) Open(quota int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	m.quota = quota
	m.holding = false
	m.buzzed = make([]types.ContestantID, 0, quota)
	m.seen = make(map[types.ContestantID]struct{}, quota)
}

// Close stops accepting buzzes until the next Open.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
}

func (m *Manager) OnBuzz(id types.ContestantID) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := Decision{Contestant: id}
	switch {
	case id < m.minID || id > m.maxID:
		d.Reason = ReasonIneligible
	case !m.open:
		d.Reason = ReasonClosed
	case m.holding:
		d.Reason = ReasonFloorHeld
	case m.hasBuzzed(id):
		d.Reason = ReasonAlreadyBuzzed
	case len(m.buzzed) >= m.quota:
		d.Reason = ReasonQuotaReached
	default:
		m.holding = true
		m.holder = id
		m.buzzed = append(m.buzzed, id)
		m.seen[id] = struct{}{}
		d.Granted = true
	}
	return d
}

// Release clears the floor if id holds it. It reports whether anything changed.
func (m *Manager) Release(id types.ContestantID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.holding || m.holder != id {
		return false
	}
	m.holding = false
	return true
}

// Holder returns the current floor-holder, if any.
func (m *Manager) Holder() (types.ContestantID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holder, m.holding
}

// Buzzed returns the round's buzz order.
func (m *Manager) Buzzed() []types.ContestantID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.ContestantID, len(m.buzzed))
	copy(out, m.buzzed)
	return out
}

func (m *Manager) hasBuzzed(id types.ContestantID) bool {
	_, ok := m.seen[id]
	return ok
}
