// Package status prints the quiz-master's console view of a running
// session, one styled line per journal event.
package status

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"buzzquiz/arbiter/internal/events"
)

var (
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#F87171") // Red
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray

	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	okStyle       = lipgloss.NewStyle().Foreground(successColor)
	warnStyle     = lipgloss.NewStyle().Foreground(warningColor)
	errStyle      = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
)

// Printer renders events to w. Buzz drops and state changes are only shown
// when Verbose is set.
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	Verbose bool
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Attach makes p print every event appended to s.
func (p *Printer) Attach(s *events.Store) {
	prev := s.OnAppend
	s.OnAppend = func(e events.Event) {
		if prev != nil {
			prev(e)
		}
		p.Print(e)
	}
}

func (p *Printer) Print(e events.Event) {
	line := p.Render(e)
	if line == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, line)
}

// Render formats e, or returns "" for events that are not shown.
func (p *Printer) Render(e events.Event) string {
	v := e.Payload
	switch e.Type {
	case events.QuestionAnnounced:
		return questionStyle.Render(fmt.Sprintf("Question %v: %v", num(v["index"])+1, v["text"]))
	case events.RoundOpened:
		return mutedStyle.Render(fmt.Sprintf("  buzzers open (quota %v)", v["quota"]))
	case events.BuzzGranted:
		return okStyle.Render(fmt.Sprintf("  contestant %v has the floor", v["contestant"]))
	case events.Outcome:
		style := okStyle
		if v["kind"] != "accepted" {
			style = warnStyle
		}
		text := fmt.Sprintf("  contestant %v: %v", v["contestant"], v["kind"])
		if t, _ := v["transcript"].(string); t != "" {
			text += fmt.Sprintf(" %q", t)
		}
		return style.Render(text)
	case events.Flagged:
		text := fmt.Sprintf("  flagged contestant %v: %v", v["contestant"], v["violation"])
		if of, ok := v["of"]; ok {
			text += fmt.Sprintf(" (matches %v)", of)
		}
		return warnStyle.Render(text)
	case events.PenaltySent:
		return warnStyle.Render(fmt.Sprintf("  rotated contestant %v", v["contestant"]))
	case events.PenaltyFailed:
		return errStyle.Render(fmt.Sprintf("  penalty for contestant %v failed: %v", v["contestant"], v["error"]))
	case events.RoundComplete:
		return questionStyle.Render(fmt.Sprintf("Round complete, %v flagged", v["flagged"]))
	case events.SessionStopped:
		return errStyle.Render(fmt.Sprintf("Session stopped: %v", v["reason"]))
	case events.BuzzDropped, events.StateChanged:
		if p.Verbose {
			return mutedStyle.Render(fmt.Sprintf("  %s %v", e.Type, v))
		}
	}
	return ""
}

func num(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
