// Package answer runs one contestant's turn once they hold the floor.
package answer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"buzzquiz/arbiter/internal/device"
	"buzzquiz/arbiter/internal/events"
	"buzzquiz/arbiter/internal/judge"
	"buzzquiz/arbiter/internal/round"
	"buzzquiz/arbiter/internal/stt"
	"buzzquiz/arbiter/internal/types"
)

// DefaultCaptureTimeout is the capture window for one answer.
const DefaultCaptureTimeout = 10 * time.Second

// Commander sends controller commands.
type Commander interface {
	Send(cmd device.Command) error
}

// Releaser hands the floor back once a turn is over.
type Releaser interface {
	Release(id types.ContestantID)
}

type Session struct {
	cmd     Commander
	stt     stt.Transcriber
	judge   *judge.Judge
	floor   Releaser
	journal *events.Store
	timeout time.Duration
	log     *zap.Logger
}

func New(cmd Commander, tr stt.Transcriber, j *judge.Judge, fl Releaser, journal *events.Store, timeout time.Duration, log *zap.Logger) *Session {
	if journal == nil {
		journal = events.NewStore()
	}
	if timeout <= 0 {
		timeout = DefaultCaptureTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{cmd: cmd, stt: tr, judge: j, floor: fl, journal: journal, timeout: timeout, log: log.Named("answer")}
}

// Run executes the turn for id and records its outcome in r and the
// journal. The floor is released on every path, after both.
func (s *Session) Run(ctx context.Context, r *round.Round, id types.ContestantID) types.Outcome {
	defer s.floor.Release(id)
	log := s.log.With(zap.String("round_id", r.ID), zap.Stringer("contestant", id))

	transcript := s.capture(ctx, log, id)
	out := s.assess(ctx, log, r, id, transcript)

	if err := r.Record(out); err != nil {
		log.Error("outcome not recorded", zap.Error(err))
	}
	s.journal.Append(r.ID, events.Outcome, map[string]any{
		"contestant": int(out.Contestant),
		"kind":       out.Kind.String(),
		"transcript": out.Transcript,
		"relevance":  out.Relevance,
	})
	metricOutcomes.WithLabelValues(out.Kind.String()).Inc()
	log.Info("answer judged",
		zap.Stringer("outcome", out.Kind),
		zap.String("transcript", out.Transcript),
		zap.Float64("relevance", out.Relevance))
	return out
}

// capture brackets the recording with LED_ON/LED_OFF. Any failure, including
// a panicking transcriber, comes back as an empty transcript.
func (s *Session) capture(ctx context.Context, log *zap.Logger, id types.ContestantID) (text string) {
	if err := s.cmd.Send(device.LEDOn(id)); err != nil {
		log.Warn("indicator on failed", zap.Error(err))
	}
	defer func() {
		if err := s.cmd.Send(device.LEDOff(id)); err != nil {
			log.Warn("indicator off failed", zap.Error(err))
		}
	}()
	defer func() {
		if p := recover(); p != nil {
			log.Error("transcriber panicked", zap.Any("panic", p))
			metricCaptureFailures.WithLabelValues("panic").Inc()
			text = ""
		}
	}()

	log.Info("answering", zap.Duration("timeout", s.timeout))
	text, err := s.stt.Capture(ctx, s.timeout)
	if err != nil {
		log.Info("no answer captured", zap.Error(err))
		metricCaptureFailures.WithLabelValues(failureKind(err)).Inc()
		return ""
	}
	return text
}

// assess judges the transcript. A panicking embedder yields an Empty outcome.
func (s *Session) assess(ctx context.Context, log *zap.Logger, r *round.Round, id types.ContestantID, transcript string) (out types.Outcome) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("judging panicked", zap.Any("panic", p))
			metricCaptureFailures.WithLabelValues("panic").Inc()
			out = types.Outcome{Contestant: id, Kind: types.Empty, At: time.Now().UTC()}
		}
	}()
	return s.judge.Assess(ctx, r.Question, id, transcript)
}

func failureKind(err error) string {
	if errors.Is(err, stt.ErrNoSpeech) {
		return "no_speech"
	}
	return "error"
}
