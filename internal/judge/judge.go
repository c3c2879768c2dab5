// Package judge decides whether answers are relevant and whether any
// accepted answer in a round copies an earlier one.
package judge

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"buzzquiz/arbiter/internal/embed"
	"buzzquiz/arbiter/internal/types"
)

const (
	DefaultRelevance = 0.5
	DefaultDuplicate = 0.8
)

type Judge struct {
	emb       embed.Embedder
	relevance float64
	duplicate float64
	log       *zap.Logger

	mu        sync.Mutex
	questions map[string]embed.Vector
}

func New(emb embed.Embedder, relevance, duplicate float64, log *zap.Logger) *Judge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Judge{
		emb:       emb,
		relevance: relevance,
		duplicate: duplicate,
		log:       log.Named("judge"),
		questions: make(map[string]embed.Vector),
	}
}

// Assess classifies one transcript against its question. Blank transcripts
// and any embedding failure yield Empty; similarity at or below the
// relevance threshold yields OffTopic.
func (j *Judge) Assess(ctx context.Context, q types.Question, id types.ContestantID, transcript string) types.Outcome {
	out := types.Outcome{Contestant: id, Kind: types.Empty, At: time.Now().UTC()}
	if types.Blank(transcript) {
		return out
	}
	out.Transcript = transcript

	qv, err := j.questionVector(ctx, q.Text)
	if err != nil {
		j.log.Warn("question embedding failed", zap.Int("question", q.Index), zap.Error(err))
		metricFailures.WithLabelValues("relevance").Inc()
		return out
	}
	av, err := j.emb.Embed(ctx, transcript)
	if err != nil {
		j.log.Warn("answer embedding failed", zap.Stringer("contestant", id), zap.Error(err))
		metricFailures.WithLabelValues("relevance").Inc()
		return out
	}
	sim, err := j.emb.Similarity(qv, av)
	if err != nil {
		j.log.Warn("relevance scoring failed", zap.Stringer("contestant", id), zap.Error(err))
		metricFailures.WithLabelValues("relevance").Inc()
		return out
	}
	metricSimilarity.WithLabelValues("relevance").Observe(sim)

	out.Relevance = sim
	out.Vector = av
	if sim <= j.relevance {
		out.Kind = types.OffTopic
	} else {
		out.Kind = types.Accepted
	}
	return out
}

// CrossCheck compares every pair of Accepted answers and returns the flags
// it raises, in discovery order. For a pair over the duplicate threshold
// only the contestant who buzzed later is flagged. A contestant whose
// answer cannot be embedded is flagged and left out of the comparison.
func (j *Judge) CrossCheck(ctx context.Context, accepted []types.Outcome) []types.Flag {
	pool := make([]types.Outcome, 0, len(accepted))
	for _, o := range accepted {
		if o.Kind == types.Accepted && !types.Blank(o.Transcript) {
			pool = append(pool, o)
		}
	}
	if len(pool) < 2 {
		return nil
	}
	sort.SliceStable(pool, func(a, b int) bool { return pool[a].Seq < pool[b].Seq })

	var flags []types.Flag
	vecs := make([]embed.Vector, len(pool))
	for i, o := range pool {
		if len(o.Vector) > 0 {
			vecs[i] = o.Vector
			continue
		}
		v, err := j.emb.Embed(ctx, o.Transcript)
		if err != nil {
			j.log.Warn("answer embedding failed in cross-check", zap.Stringer("contestant", o.Contestant), zap.Error(err))
			metricFailures.WithLabelValues("duplicate").Inc()
			flags = append(flags, types.Flag{Contestant: o.Contestant, Violation: types.JudgingFailed})
			continue
		}
		vecs[i] = v
	}

	for a := 0; a < len(pool); a++ {
		for b := a + 1; b < len(pool); b++ {
			if vecs[a] == nil || vecs[b] == nil {
				continue
			}
			first, second := pool[a].Contestant, pool[b].Contestant
			sim, err := j.emb.Similarity(vecs[a], vecs[b])
			if err != nil {
				j.log.Warn("duplicate scoring failed",
					zap.Stringer("first", first), zap.Stringer("second", second), zap.Error(err))
				metricFailures.WithLabelValues("duplicate").Inc()
				flags = append(flags, types.Flag{Contestant: second, Violation: types.JudgingFailed})
				continue
			}
			metricSimilarity.WithLabelValues("duplicate").Observe(sim)
			if sim > j.duplicate {
				of := first
				flags = append(flags, types.Flag{Contestant: second, Violation: types.DuplicateAnswer, Of: &of, Similarity: sim})
				j.log.Info("duplicate answer",
					zap.Stringer("contestant", second), zap.Stringer("of", first), zap.Float64("similarity", sim))
			}
		}
	}
	return flags
}

func (j *Judge) questionVector(ctx context.Context, text string) (embed.Vector, error) {
	j.mu.Lock()
	v, ok := j.questions[text]
	j.mu.Unlock()
	if ok {
		return v, nil
	}
	v, err := j.emb.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	j.mu.Lock()
	j.questions[text] = v
	j.mu.Unlock()
	return v, nil
}
