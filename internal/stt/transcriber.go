// Package stt captures a contestant's spoken answer and returns its text.
package stt

import (
	"context"
	"errors"
	"time"
)

// ErrNoSpeech means nothing was said within the capture window.
var ErrNoSpeech = errors.New("no speech within capture window")

// Transcriber records one answer. Implementations must release the
// capture device before returning, including on timeout.
type Transcriber interface {
	Capture(ctx context.Context, timeout time.Duration) (string, error)
}
