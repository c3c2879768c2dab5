package api

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", h.HandleReady)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.HandleListEvents(w, r)
	})

	mux.HandleFunc("/rounds/", func(w http.ResponseWriter, r *http.Request) {
		// /rounds/{id}/events
		path := strings.TrimSuffix(r.URL.Path, "/")
		parts := strings.Split(strings.TrimPrefix(path, "/rounds/"), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] != "events" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.HandleListRoundEvents(w, r, parts[0])
	})

	return mux
}
