package device

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrLinkLost = errors.New("device link lost")
	ErrClosed   = errors.New("device link closed")
)

// Link is the duplex channel to the buzzer controller.
type Link interface {
	// Events yields decoded buzz signals; it is closed when the link ends.
	Events() <-chan Event
	// Send writes one command. Writes are ordered but never acknowledged.
	Send(cmd Command) error
	// Err reports why the link ended; nil after a local Close.
	Err() error
	Close() error
}

// Conn implements Link over any line-oriented byte stream.
type Conn struct {
	rwc io.ReadWriteCloser
	log *zap.Logger

	wmu sync.Mutex

	events chan Event
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	err    error
}

// NewConn starts the read loop immediately.
func NewConn(rwc io.ReadWriteCloser, log *zap.Logger) *Conn {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Conn{
		rwc:    rwc,
		log:    log.Named("device"),
		events: make(chan Event, 32),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Conn) Events() <-chan Event { return c.events }

func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Conn) Send(cmd Command) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := io.WriteString(c.rwc, cmd.Line()); err != nil {
		metricWriteErrors.Inc()
		return fmt.Errorf("write %s: %w", cmd, err)
	}
	metricCommands.WithLabelValues(string(cmd.Op)).Inc()
	c.log.Debug("command sent", zap.Stringer("cmd", cmd))
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()
	return c.rwc.Close()
}

func (c *Conn) readLoop() {
	defer close(c.events)

	sc := bufio.NewScanner(c.rwc)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		ev, err := ParseEvent(line)
		if err != nil {
			metricMalformed.Inc()
			c.log.Warn("ignoring device line", zap.String("line", line))
			continue
		}
		metricBuzzSignals.Inc()
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	cause := sc.Err()
	if cause == nil {
		cause = io.EOF
	}
	c.err = fmt.Errorf("%w: %v", ErrLinkLost, cause)
	c.log.Error("device link lost", zap.Error(cause))
}
