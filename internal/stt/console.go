package stt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Console reads typed answers, one per line, for dry runs without a
// microphone. It honours the same capture window as a real recording.
type Console struct {
	out   io.Writer
	lines chan string
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	c := &Console{out: out, lines: make(chan string, 16)}
	go func() {
		defer close(c.lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			c.lines <- sc.Text()
		}
	}()
	return c
}

func (c *Console) Capture(ctx context.Context, timeout time.Duration) (text string, err error) {
	start := time.Now()
	defer func() { observeCapture(start, err) }()

	// Lines typed before the floor was granted do not count.
	for drained := false; !drained; {
		select {
		case _, ok := <-c.lines:
			if !ok {
				return "", ErrNoSpeech
			}
		default:
			drained = true
		}
	}
	if c.out != nil {
		fmt.Fprintf(c.out, "answer within %s> ", timeout)
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case line, ok := <-c.lines:
		if !ok || strings.TrimSpace(line) == "" {
			return "", ErrNoSpeech
		}
		return strings.TrimSpace(line), nil
	case <-t.C:
		return "", ErrNoSpeech
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
