// Package round holds the state of one question's processing. A Round is
// created fresh when a question starts and dropped once it completes.
package round

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"buzzquiz/arbiter/internal/types"
)

// State is the round lifecycle position.
type State int

const (
	AwaitingBuzzes State = iota
	Judging
	Dispatching
	Complete
)

func (s State) String() string {
	switch s {
	case AwaitingBuzzes:
		return "AWAITING_BUZZES"
	case Judging:
		return "JUDGING"
	case Dispatching:
		return "DISPATCHING"
	case Complete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// Round accumulates outcomes for one question.
type Round struct {
	ID       string
	Question types.Question
	Quota    int
	Opened   time.Time

	mu       sync.Mutex
	state    State
	outcomes []types.Outcome // in buzz order
	recorded map[types.ContestantID]struct{}
	flagged  *FlagSet
}

func New(q types.Question, quota int) *Round {
	return &Round{
		ID:       uuid.New().String(),
		Question: q,
		Quota:    quota,
		Opened:   time.Now().UTC(),
		outcomes: make([]types.Outcome, 0, quota),
		recorded: make(map[types.ContestantID]struct{}, quota),
		flagged:  NewFlagSet(),
	}
}

// Record stores one contestant's outcome. Empty and OffTopic outcomes flag
// the contestant immediately.
func (r *Round) Record(o types.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != AwaitingBuzzes {
		return fmt.Errorf("round %s: record in state %s", r.ID, r.state)
	}
	if _, dup := r.recorded[o.Contestant]; dup {
		return fmt.Errorf("round %s: contestant %d already recorded", r.ID, o.Contestant)
	}
	if len(r.outcomes) >= r.Quota {
		return fmt.Errorf("round %s: quota %d reached", r.ID, r.Quota)
	}
	r.recorded[o.Contestant] = struct{}{}
	o.Seq = len(r.outcomes)
	r.outcomes = append(r.outcomes, o)
	switch o.Kind {
	case types.Empty:
		r.flagged.Add(types.Flag{Contestant: o.Contestant, Violation: types.NoAnswer})
	case types.OffTopic:
		r.flagged.Add(types.Flag{Contestant: o.Contestant, Violation: types.OffTopicAnswer, Similarity: o.Relevance})
	}
	return nil
}

// Flag adds a violation; repeated flags for a contestant are ignored.
func (r *Round) Flag(f types.Flag) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flagged.Add(f)
}

// QuotaReached reports whether every allowed contestant has an outcome.
func (r *Round) QuotaReached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes) >= r.Quota
}

// Answered returns the number of recorded outcomes.
func (r *Round) Answered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

// Outcomes returns all outcomes in buzz order.
func (r *Round) Outcomes() []types.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Accepted returns the Accepted outcomes in buzz order.
func (r *Round) Accepted() []types.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Outcome
	for _, o := range r.outcomes {
		if o.Kind == types.Accepted {
			out = append(out, o)
		}
	}
	return out
}

func (r *Round) Flags() []types.Flag {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flagged.Flags()
}

func (r *Round) Flagged() []types.ContestantID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flagged.Contestants()
}

func (r *Round) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Advance moves to the next lifecycle state. Only forward single steps are
// allowed, and Judging requires the quota to be met.
func (r *Round) Advance(to State) (from State, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	from = r.state
	if to != from+1 {
		return from, fmt.Errorf("round %s: illegal transition %s -> %s", r.ID, from, to)
	}
	if to == Judging && len(r.outcomes) < r.Quota {
		return from, fmt.Errorf("round %s: judging with %d/%d answers", r.ID, len(r.outcomes), r.Quota)
	}
	r.state = to
	return from, nil
}
