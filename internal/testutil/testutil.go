// Package testutil provides scripted stand-ins for the controller link,
// the transcriber and the embedder.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"buzzquiz/arbiter/internal/device"
	"buzzquiz/arbiter/internal/embed"
	"buzzquiz/arbiter/internal/types"
)

// Link is an in-memory device.Link that records every command.
type Link struct {
	mu       sync.Mutex
	commands []device.Command
	err      error
	closed   bool

	// OnSend runs after a command is recorded, outside the lock.
	OnSend  func(device.Command)
	SendErr func(device.Command) error

	events chan device.Event
}

func NewLink() *Link {
	return &Link{events: make(chan device.Event, 64)}
}

func (l *Link) Events() <-chan device.Event { return l.events }

func (l *Link) Send(cmd device.Command) error {
	if l.SendErr != nil {
		if err := l.SendErr(cmd); err != nil {
			return err
		}
	}
	l.mu.Lock()
	l.commands = append(l.commands, cmd)
	hook := l.OnSend
	l.mu.Unlock()
	if hook != nil {
		hook(cmd)
	}
	return nil
}

func (l *Link) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.events)
	}
	return nil
}

// Buzz injects a buzz signal as if read from the wire.
func (l *Link) Buzz(id types.ContestantID) {
	l.events <- device.Event{Contestant: id, Raw: fmt.Sprintf("BUZZER:%d", id)}
}

// Lose ends the event stream with a link-lost error.
func (l *Link) Lose(cause error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.err = fmt.Errorf("%w: %v", device.ErrLinkLost, cause)
	l.closed = true
	close(l.events)
}

// Commands returns the sent commands as wire strings without newlines.
func (l *Link) Commands() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.commands))
	for i, c := range l.commands {
		out[i] = c.String()
	}
	return out
}

// Reply is one scripted capture result.
type Reply struct {
	Text  string
	Err   error
	Delay time.Duration
	Panic bool
}

// Transcriber returns scripted replies in call order. Once the script is
// exhausted every capture reports no speech.
type Transcriber struct {
	mu      sync.Mutex
	replies []Reply
	calls   int
	active  int
	// MaxActive is the highest number of overlapping captures seen.
	MaxActive int
	NoSpeech  error
}

func NewTranscriber(noSpeech error, replies ...Reply) *Transcriber {
	return &Transcriber{replies: replies, NoSpeech: noSpeech}
}

func (t *Transcriber) Capture(ctx context.Context, timeout time.Duration) (string, error) {
	t.mu.Lock()
	t.active++
	if t.active > t.MaxActive {
		t.MaxActive = t.active
	}
	var r Reply
	if t.calls < len(t.replies) {
		r = t.replies[t.calls]
	} else {
		r = Reply{Err: t.NoSpeech}
	}
	t.calls++
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.active--
		t.mu.Unlock()
	}()

	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if r.Panic {
		panic("microphone exploded")
	}
	return r.Text, r.Err
}

func (t *Transcriber) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Embedder gives each distinct text its own token vector and answers
// similarity from a table of text pairs. Identical texts score 1, unknown
// pairs score 0.
type Embedder struct {
	mu     sync.Mutex
	texts  []string
	index  map[string]int
	scores map[[2]string]float64
	fail   map[string]error
}

func NewEmbedder() *Embedder {
	return &Embedder{
		index:  make(map[string]int),
		scores: make(map[[2]string]float64),
		fail:   make(map[string]error),
	}
}

// Score sets the symmetric similarity of a and b.
func (e *Embedder) Score(a, b string, s float64) *Embedder {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scores[[2]string{a, b}] = s
	e.scores[[2]string{b, a}] = s
	return e
}

// Fail makes embedding text return err.
func (e *Embedder) Fail(text string, err error) *Embedder {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail[text] = err
	return e
}

func (e *Embedder) Embed(_ context.Context, text string) (embed.Vector, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.fail[text]; err != nil {
		return nil, err
	}
	i, ok := e.index[text]
	if !ok {
		i = len(e.texts)
		e.texts = append(e.texts, text)
		e.index[text] = i
	}
	return embed.Vector{float32(i + 1)}, nil
}

func (e *Embedder) Similarity(a, b embed.Vector) (float64, error) {
	if len(a) != 1 || len(b) != 1 {
		return 0, embed.ErrDimensionMismatch
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ta, tb := e.texts[int(a[0])-1], e.texts[int(b[0])-1]
	if ta == tb {
		return 1, nil
	}
	return e.scores[[2]string{ta, tb}], nil
}
