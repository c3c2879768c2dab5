// Package quiz drives the question sequence. Each question gets a fresh
// round that moves AwaitingBuzzes -> Judging -> Dispatching -> Complete.
package quiz

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"buzzquiz/arbiter/internal/answer"
	"buzzquiz/arbiter/internal/arbiter"
	"buzzquiz/arbiter/internal/device"
	"buzzquiz/arbiter/internal/events"
	"buzzquiz/arbiter/internal/judge"
	"buzzquiz/arbiter/internal/round"
	"buzzquiz/arbiter/internal/types"
)

// Result summarises a completed round.
type Result struct {
	RoundID  string          `json:"round_id"`
	Question types.Question  `json:"question"`
	Outcomes []types.Outcome `json:"outcomes"`
	Flags    []types.Flag    `json:"flags"`
}

type Options struct {
	Questions     []string
	Quota         int
	QuestionDelay time.Duration
	RoundPause    time.Duration
}

type Controller struct {
	opts    Options
	arb     *arbiter.Loop
	session *answer.Session
	judge   *judge.Judge
	cmd     answer.Commander
	journal *events.Store
	log     *zap.Logger
}

func New(opts Options, arb *arbiter.Loop, session *answer.Session, j *judge.Judge, cmd answer.Commander, journal *events.Store, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if journal == nil {
		journal = events.NewStore()
	}
	return &Controller{
		opts:    opts,
		arb:     arb,
		session: session,
		judge:   j,
		cmd:     cmd,
		journal: journal,
		log:     log.Named("quiz"),
	}
}

// Run plays every question in order. It stops early only when ctx ends.
func (c *Controller) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(c.opts.Questions))
	for i, text := range c.opts.Questions {
		res, err := c.RunRound(ctx, types.Question{Index: i, Text: text})
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if i < len(c.opts.Questions)-1 {
			if err := sleep(ctx, c.opts.RoundPause); err != nil {
				return results, err
			}
		}
	}
	c.log.Info("all questions completed", zap.Int("rounds", len(results)))
	return results, nil
}

// RunRound processes one question from announcement to penalty dispatch.
func (c *Controller) RunRound(ctx context.Context, q types.Question) (Result, error) {
	r := round.New(q, c.opts.Quota)
	log := c.log.With(zap.String("round_id", r.ID), zap.Int("question", q.Index))
	start := time.Now()

	c.journal.Append(r.ID, events.QuestionAnnounced, map[string]any{"index": q.Index, "text": q.Text})
	log.Info("question", zap.String("text", q.Text))
	if err := sleep(ctx, c.opts.QuestionDelay); err != nil {
		return Result{}, err
	}

	c.arb.Open(r.ID, r.Quota)
	c.journal.Append(r.ID, events.RoundOpened, map[string]any{"quota": r.Quota})
	log.Info("buzzing open", zap.Int("quota", r.Quota))

	for !r.QuotaReached() {
		select {
		case <-ctx.Done():
			c.arb.Close()
			return Result{}, ctx.Err()
		case g := <-c.arb.Grants():
			c.session.Run(ctx, r, g.Contestant)
		}
	}
	c.arb.Close()

	if err := c.advance(r, round.Judging); err != nil {
		return Result{}, err
	}
	for _, f := range c.judge.CrossCheck(ctx, r.Accepted()) {
		r.Flag(f)
	}
	for _, f := range r.Flags() {
		metricFlags.WithLabelValues(f.Violation.String()).Inc()
		payload := map[string]any{"contestant": int(f.Contestant), "violation": f.Violation.String()}
		if f.Of != nil {
			payload["of"] = int(*f.Of)
			payload["similarity"] = f.Similarity
		}
		c.journal.Append(r.ID, events.Flagged, payload)
	}

	if err := c.advance(r, round.Dispatching); err != nil {
		return Result{}, err
	}
	c.dispatch(r, log)

	if err := c.advance(r, round.Complete); err != nil {
		return Result{}, err
	}
	metricRoundSeconds.Observe(time.Since(start).Seconds())
	c.journal.Append(r.ID, events.RoundComplete, map[string]any{"flagged": len(r.Flagged())})
	log.Info("round complete", zap.Any("flagged", r.Flagged()))

	return Result{RoundID: r.ID, Question: q, Outcomes: r.Outcomes(), Flags: r.Flags()}, nil
}

// dispatch sends one penalty per flagged contestant in flag order. A failed
// command is logged and skipped.
func (c *Controller) dispatch(r *round.Round, log *zap.Logger) {
	for _, id := range r.Flagged() {
		if err := c.cmd.Send(device.Rotate(id)); err != nil {
			metricPenalties.WithLabelValues("failed").Inc()
			log.Warn("penalty command failed", zap.Stringer("contestant", id), zap.Error(err))
			c.journal.Append(r.ID, events.PenaltyFailed, map[string]any{"contestant": int(id), "error": err.Error()})
			continue
		}
		metricPenalties.WithLabelValues("sent").Inc()
		log.Info("penalty sent", zap.Stringer("contestant", id))
		c.journal.Append(r.ID, events.PenaltySent, map[string]any{"contestant": int(id)})
	}
}

func (c *Controller) advance(r *round.Round, to round.State) error {
	from, err := r.Advance(to)
	if err != nil {
		return fmt.Errorf("advance round: %w", err)
	}
	metricStateTransitions.WithLabelValues(from.String(), to.String()).Inc()
	c.journal.Append(r.ID, events.StateChanged, map[string]any{"from": from.String(), "to": to.String()})
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
