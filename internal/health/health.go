package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nhooyr.io/websocket"

	"buzzquiz/arbiter/internal/config"
	"buzzquiz/arbiter/internal/device"
	"buzzquiz/arbiter/internal/embed"
)

type CheckResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency_ms"`
	Detail  string        `json:"detail,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type HealthStatus struct {
	OK        bool          `json:"ok"`
	Checks    []CheckResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

func (h HealthStatus) String() string {
	status := "OK"
	if !h.OK {
		status = "FAIL"
	}
	s := fmt.Sprintf("Health: %s\n", status)
	for _, c := range h.Checks {
		mark := "✓"
		if !c.OK {
			mark = "✗"
		}
		s += fmt.Sprintf("  %s %s (%dms)", mark, c.Name, c.Latency.Milliseconds())
		if c.Detail != "" {
			s += fmt.Sprintf(" %s", c.Detail)
		}
		if c.Error != "" {
			s += fmt.Sprintf(" - %s", c.Error)
		}
		s += "\n"
	}
	return s
}

// Check probes one dependency. A non-empty detail is shown next to a pass.
type Check struct {
	Name string
	Run  func(ctx context.Context) (detail string, err error)
}

// CheckAll runs the standard checks for cfg and returns combined status.
func CheckAll(ctx context.Context, cfg config.Config) HealthStatus {
	return Run(ctx, Checks(cfg)...)
}

// Checks returns the probes for the controller, the capture source and the
// embedder as configured.
func Checks(cfg config.Config) []Check {
	return []Check{
		{Name: "controller", Run: func(context.Context) (string, error) {
			return device.Discover(cfg.Device.Port)
		}},
		{Name: "capture", Run: func(ctx context.Context) (string, error) {
			if cfg.Capture.Source == "console" {
				return "console", nil
			}
			return cfg.Capture.URL, DialSidecar(ctx, cfg.Capture.URL)
		}},
		{Name: "embedder", Run: func(ctx context.Context) (string, error) {
			if cfg.Embedder.Kind == "local" {
				return "local (" + embed.LocalCaveat + ")", nil
			}
			return cfg.Embedder.URL, embed.NewHTTP(cfg.Embedder.URL, cfg.Embedder.Model, cfg.Embedder.APIKey, cfg.Embedder.Timeout).Ping(ctx)
		}},
	}
}

// Run executes checks in order, each bounded by a five second timeout.
func Run(ctx context.Context, checks ...Check) HealthStatus {
	results := make([]CheckResult, 0, len(checks))
	allOK := true
	for _, c := range checks {
		r := runOne(ctx, c)
		if !r.OK {
			allOK = false
		}
		results = append(results, r)
	}
	return HealthStatus{
		OK:        allOK,
		Checks:    results,
		CheckedAt: time.Now().UTC(),
	}
}

func runOne(ctx context.Context, c Check) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	detail, err := c.Run(ctx)
	result := CheckResult{Name: c.Name, Latency: time.Since(start), Detail: detail}
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.OK = true
	return result
}

// DialSidecar opens and cleanly closes a websocket to the capture sidecar.
func DialSidecar(ctx context.Context, url string) error {
	if url == "" {
		return errors.New("capture.url not set")
	}
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	return ws.Close(websocket.StatusNormalClosure, "probe")
}
