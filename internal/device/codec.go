package device

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"buzzquiz/arbiter/internal/types"
)

var ErrMalformed = errors.New("malformed device line")

// Op is an outgoing controller command verb.
type Op string

const (
	OpUnlock Op = "UNLOCK"
	OpLEDOn  Op = "LED_ON"
	OpLEDOff Op = "LED_OFF"
	OpRotate Op = "ROTATE"
)

// Command is one newline-terminated line sent to the controller.
type Command struct {
	Op         Op
	Contestant types.ContestantID
}

func Unlock() Command { return Command{Op: OpUnlock} }

func LEDOn(c types.ContestantID) Command { return Command{Op: OpLEDOn, Contestant: c} }

func LEDOff(c types.ContestantID) Command { return Command{Op: OpLEDOff, Contestant: c} }

func Rotate(c types.ContestantID) Command { return Command{Op: OpRotate, Contestant: c} }

func (c Command) String() string { return strings.TrimSuffix(c.Line(), "\n") }

// Line encodes the command including its trailing newline.
func (c Command) Line() string {
	if c.Op == OpUnlock {
		return string(OpUnlock) + "\n"
	}
	return fmt.Sprintf("%s:%d\n", c.Op, int(c.Contestant))
}

// Event is a decoded incoming line. Only buzz signals exist on the wire.
type Event struct {
	Contestant types.ContestantID
	Raw        string
}

const buzzPrefix = "BUZZER:"

// ParseEvent decodes a `BUZZER:<id>` line. Any other line yields ErrMalformed.
func ParseEvent(line string) (Event, error) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, buzzPrefix) {
		return Event{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s[len(buzzPrefix):]))
	if err != nil || n < 0 {
		return Event{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return Event{Contestant: types.ContestantID(n), Raw: s}, nil
}
