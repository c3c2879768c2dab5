package events

import (
	"sync"
	"time"
)

type Event struct {
	Seq       int64          `json:"seq"`
	RoundID   string         `json:"round_id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

const (
	QuestionAnnounced = "question_announced"
	RoundOpened       = "round_opened"
	BuzzGranted       = "buzz_granted"
	BuzzDropped       = "buzz_dropped"
	Outcome           = "outcome"
	Flagged           = "flagged"
	PenaltySent       = "penalty_sent"
	PenaltyFailed     = "penalty_failed"
	RoundComplete     = "round_complete"
	StateChanged      = "state_changed"
	SessionStopped    = "session_stopped"
)

// Cap total events per round to avoid unbounded growth
const maxEvents = 200

// Store is the in-memory journal of round events.
type Store struct {
	mu      sync.RWMutex
	seq     int64
	rounds  []string
	byRound map[string][]Event

	// OnAppend, when set, sees every event after it is stored.
	OnAppend func(Event)
}

func NewStore() *Store {
	return &Store{byRound: make(map[string][]Event)}
}

func (s *Store) Append(roundID, typ string, payload map[string]any) Event {
	s.mu.Lock()
	s.seq++
	evt := Event{
		Seq:       s.seq,
		RoundID:   roundID,
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if _, ok := s.byRound[roundID]; !ok {
		s.rounds = append(s.rounds, roundID)
	}
	evs := append(s.byRound[roundID], evt)
	if l := len(evs); l > maxEvents {
		evs = append([]Event(nil), evs[l-maxEvents:]...)
	}
	s.byRound[roundID] = evs
	hook := s.OnAppend
	s.mu.Unlock()

	if hook != nil {
		hook(evt)
	}
	return evt
}

// List returns a round's events in append order.
func (s *Store) List(roundID string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// return a shallow copy to avoid external mutation
	src := s.byRound[roundID]
	out := make([]Event, len(src))
	copy(out, src)
	return out
}

// All returns every retained event, rounds in the order they started.
func (s *Store) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, id := range s.rounds {
		out = append(out, s.byRound[id]...)
	}
	return out
}
