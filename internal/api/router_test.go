package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buzzquiz/arbiter/internal/events"
)

func newServer(t *testing.T) (*httptest.Server, *Handlers, *events.Store) {
	t.Helper()
	journal := events.NewStore()
	h := NewHandlers(journal)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, h, journal
}

func TestReadyzFollowsSession(t *testing.T) {
	srv, h, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	h.SetReady(true)
	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoundEvents(t *testing.T) {
	srv, _, journal := newServer(t)
	journal.Append("r1", events.RoundOpened, map[string]any{"quota": 4})
	journal.Append("r1", events.BuzzGranted, map[string]any{"contestant": 2})
	journal.Append("r2", events.RoundOpened, map[string]any{"quota": 4})

	resp, err := http.Get(srv.URL + "/rounds/r1/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		RoundID string         `json:"round_id"`
		Events  []events.Event `json:"events"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "r1", body.RoundID)
	require.Len(t, body.Events, 2)
	assert.Equal(t, events.BuzzGranted, body.Events[1].Type)
}

func TestUnknownRoundAndMethods(t *testing.T) {
	srv, _, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/rounds/unknown/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/events", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/rounds/r1/start")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
