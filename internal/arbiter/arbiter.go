// Package arbiter turns the controller's buzz signals into floor grants.
// It is the only consumer of the device event stream and never blocks on
// capture or judging: grants are handed to the round controller over a
// channel.
package arbiter

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"buzzquiz/arbiter/internal/device"
	"buzzquiz/arbiter/internal/events"
	"buzzquiz/arbiter/internal/floor"
	"buzzquiz/arbiter/internal/types"
)

// Grant hands the floor to one contestant.
type Grant struct {
	RoundID    string
	Contestant types.ContestantID
	At         time.Time
}

type Loop struct {
	link    device.Link
	floor   *floor.Manager
	journal *events.Store
	log     *zap.Logger

	grants chan Grant

	mu        sync.Mutex
	roundID   string
	grantedAt time.Time
}

func New(link device.Link, fm *floor.Manager, journal *events.Store, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	if journal == nil {
		journal = events.NewStore()
	}
	return &Loop{
		link:    link,
		floor:   fm,
		journal: journal,
		log:     log.Named("arbiter"),
		// The floor admits one grant at a time, so one slot never fills up.
		grants: make(chan Grant, 1),
	}
}

// Grants delivers floor grants in the order they were decided.
func (l *Loop) Grants() <-chan Grant { return l.grants }

// Open starts accepting buzzes for a round.
func (l *Loop) Open(roundID string, quota int) {
	l.mu.Lock()
	l.roundID = roundID
	l.mu.Unlock()
	l.floor.Open(quota)
}

// Close stops accepting buzzes until the next Open.
func (l *Loop) Close() { l.floor.Close() }

// Run consumes device events until the link ends or ctx is cancelled.
// A lost link is returned as an error; cancellation and a local close are not.
func (l *Loop) Run(ctx context.Context) error {
	evs := l.link.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-evs:
			if !ok {
				return l.link.Err()
			}
			l.OnBuzz(ev.Contestant)
		}
	}
}

// OnBuzz admits the first eligible buzz and silently drops the rest.
func (l *Loop) OnBuzz(id types.ContestantID) {
	d := l.floor.OnBuzz(id)
	roundID := l.currentRound()
	if !d.Granted {
		metricBuzzes.WithLabelValues(d.Reason).Inc()
		if d.Reason == floor.ReasonIneligible {
			l.log.Warn("buzz from unknown station", zap.Stringer("contestant", id))
		} else {
			l.log.Debug("buzz dropped", zap.Stringer("contestant", id), zap.String("reason", d.Reason))
		}
		l.journal.Append(roundID, events.BuzzDropped, map[string]any{"contestant": int(id), "reason": d.Reason})
		return
	}

	metricBuzzes.WithLabelValues("granted").Inc()
	now := time.Now()
	l.mu.Lock()
	l.grantedAt = now
	l.mu.Unlock()
	l.log.Info("floor granted", zap.Stringer("contestant", id), zap.String("round_id", roundID))
	l.journal.Append(roundID, events.BuzzGranted, map[string]any{"contestant": int(id)})

	select {
	case l.grants <- Grant{RoundID: roundID, Contestant: id, At: now}:
	default:
		// unreachable while the floor is exclusive; undo rather than wedge
		l.log.Error("grant slot busy, releasing floor", zap.Stringer("contestant", id))
		l.floor.Release(id)
	}
}

// Release frees the floor held by id and re-arms the controller with UNLOCK.
func (l *Loop) Release(id types.ContestantID) {
	if !l.floor.Release(id) {
		return
	}
	l.mu.Lock()
	held := time.Since(l.grantedAt)
	l.mu.Unlock()
	metricFloorHeldMS.Observe(float64(held.Milliseconds()))

	if err := l.link.Send(device.Unlock()); err != nil {
		l.log.Warn("unlock command failed", zap.Error(err))
	}
	l.log.Debug("floor released", zap.Stringer("contestant", id), zap.Duration("held", held))
}

func (l *Loop) currentRound() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.roundID
}
