package api

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"buzzquiz/arbiter/internal/events"
)

// Handlers serves the read-only session view: readiness and the round journal.
type Handlers struct {
	journal *events.Store
	ready   atomic.Bool
}

func NewHandlers(journal *events.Store) *Handlers {
	return &Handlers{journal: journal}
}

// SetReady flips the /readyz answer.
func (h *Handlers) SetReady(ok bool) { h.ready.Store(ok) }

func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// HandleListEvents returns every retained event, rounds in start order.
func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	writeEvents(w, "", h.journal.All())
}

func (h *Handlers) HandleListRoundEvents(w http.ResponseWriter, r *http.Request, id string) {
	evs := h.journal.List(id)
	if len(evs) == 0 {
		http.Error(w, "round not found", http.StatusNotFound)
		return
	}
	writeEvents(w, id, evs)
}

func writeEvents(w http.ResponseWriter, roundID string, evs []events.Event) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"round_id": roundID,
		"events":   evs,
	})
}
