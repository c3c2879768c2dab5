package answer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buzzquiz/arbiter/internal/device"
	"buzzquiz/arbiter/internal/embed"
	"buzzquiz/arbiter/internal/events"
	"buzzquiz/arbiter/internal/judge"
	"buzzquiz/arbiter/internal/round"
	"buzzquiz/arbiter/internal/stt"
	"buzzquiz/arbiter/internal/testutil"
	"buzzquiz/arbiter/internal/types"
)

const question = "What is the Earth's satellite?"

// floorSpy records releases alongside the commands sent and the events
// journaled so far.
type floorSpy struct {
	mu         sync.Mutex
	link       *testutil.Link
	journal    *events.Store
	released   []types.ContestantID
	seenCmds   [][]string
	seenEvents [][]events.Event
}

func (f *floorSpy) Release(id types.ContestantID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, id)
	f.seenCmds = append(f.seenCmds, f.link.Commands())
	f.seenEvents = append(f.seenEvents, f.journal.All())
}

// panicEmbedder blows up on every call.
type panicEmbedder struct{}

func (panicEmbedder) Embed(context.Context, string) (embed.Vector, error) { panic("model crashed") }

func (panicEmbedder) Similarity(a, b embed.Vector) (float64, error) { panic("model crashed") }

func setup(replies ...testutil.Reply) (*Session, *testutil.Link, *floorSpy, *round.Round) {
	emb := testutil.NewEmbedder().
		Score(question, "The Moon orbits Earth", 0.7).
		Score(question, "I like pizza", 0.1)
	return setupWith(emb, replies...)
}

func setupWith(emb embed.Embedder, replies ...testutil.Reply) (*Session, *testutil.Link, *floorSpy, *round.Round) {
	link := testutil.NewLink()
	journal := events.NewStore()
	spy := &floorSpy{link: link, journal: journal}
	j := judge.New(emb, judge.DefaultRelevance, judge.DefaultDuplicate, nil)
	tr := testutil.NewTranscriber(stt.ErrNoSpeech, replies...)
	r := round.New(types.Question{Text: question}, 4)
	return New(link, tr, j, spy, journal, 0, nil), link, spy, r
}

func TestRunAccepted(t *testing.T) {
	s, link, spy, r := setup(testutil.Reply{Text: "The Moon orbits Earth"})

	out := s.Run(context.Background(), r, 2)
	assert.Equal(t, types.Accepted, out.Kind)
	assert.Equal(t, []string{"LED_ON:2", "LED_OFF:2"}, link.Commands())
	assert.Equal(t, []types.ContestantID{2}, spy.released)
	// floor released only after the indicator went off
	assert.Equal(t, []string{"LED_ON:2", "LED_OFF:2"}, spy.seenCmds[0])
	require.Len(t, r.Accepted(), 1)
	assert.Empty(t, r.Flagged())
}

func TestRunOffTopicIsFlagged(t *testing.T) {
	s, _, _, r := setup(testutil.Reply{Text: "I like pizza"})
	out := s.Run(context.Background(), r, 1)
	assert.Equal(t, types.OffTopic, out.Kind)
	assert.Equal(t, []types.ContestantID{1}, r.Flagged())
}

func TestRunTimeoutIsEmpty(t *testing.T) {
	s, link, spy, r := setup(testutil.Reply{Err: stt.ErrNoSpeech})
	out := s.Run(context.Background(), r, 0)
	assert.Equal(t, types.Empty, out.Kind)
	assert.Equal(t, []string{"LED_ON:0", "LED_OFF:0"}, link.Commands())
	assert.Equal(t, []types.ContestantID{0}, spy.released)
	assert.Equal(t, []types.ContestantID{0}, r.Flagged())
}

func TestRunCaptureErrorAndBlankAreEmpty(t *testing.T) {
	s, _, _, r := setup(testutil.Reply{Err: errors.New("sidecar gone")}, testutil.Reply{Text: "   "})
	assert.Equal(t, types.Empty, s.Run(context.Background(), r, 0).Kind)
	assert.Equal(t, types.Empty, s.Run(context.Background(), r, 1).Kind)
	assert.Equal(t, []types.ContestantID{0, 1}, r.Flagged())
}

func TestRunSurvivesPanickingTranscriber(t *testing.T) {
	s, link, spy, r := setup(testutil.Reply{Panic: true})
	out := s.Run(context.Background(), r, 3)
	assert.Equal(t, types.Empty, out.Kind)
	assert.Equal(t, []string{"LED_ON:3", "LED_OFF:3"}, link.Commands())
	assert.Equal(t, []types.ContestantID{3}, spy.released)
}

func TestRunSurvivesPanickingEmbedder(t *testing.T) {
	s, link, spy, r := setupWith(panicEmbedder{}, testutil.Reply{Text: "The Moon"})
	var out types.Outcome
	require.NotPanics(t, func() { out = s.Run(context.Background(), r, 1) })
	assert.Equal(t, types.Empty, out.Kind)
	assert.Equal(t, 1, r.Answered())
	assert.Equal(t, []types.ContestantID{1}, r.Flagged())
	assert.Equal(t, []string{"LED_ON:1", "LED_OFF:1"}, link.Commands())
	assert.Equal(t, []types.ContestantID{1}, spy.released)
}

func TestRunJournalsOutcomeBeforeRelease(t *testing.T) {
	s, _, spy, r := setup(testutil.Reply{Text: "The Moon orbits Earth"})
	s.Run(context.Background(), r, 2)

	require.Len(t, spy.seenEvents, 1)
	seen := spy.seenEvents[0]
	require.Len(t, seen, 1)
	assert.Equal(t, events.Outcome, seen[0].Type)
	assert.Equal(t, r.ID, seen[0].RoundID)
	assert.Equal(t, 2, seen[0].Payload["contestant"])
	assert.Equal(t, "accepted", seen[0].Payload["kind"])
}

func TestRunIgnoresIndicatorFailures(t *testing.T) {
	s, link, spy, r := setup(testutil.Reply{Text: "The Moon orbits Earth"})
	link.SendErr = func(device.Command) error { return errors.New("write: broken pipe") }
	out := s.Run(context.Background(), r, 2)
	assert.Equal(t, types.Accepted, out.Kind)
	assert.Equal(t, []types.ContestantID{2}, spy.released)
}
