package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"buzzquiz/arbiter/internal/config"
)

func TestRunCombinesResults(t *testing.T) {
	st := Run(context.Background(),
		Check{Name: "controller", Run: func(context.Context) (string, error) { return "/dev/ttyACM0", nil }},
		Check{Name: "embedder", Run: func(context.Context) (string, error) { return "", errors.New("connection refused") }},
	)
	require.Len(t, st.Checks, 2)
	assert.False(t, st.OK)
	assert.True(t, st.Checks[0].OK)
	assert.Equal(t, "connection refused", st.Checks[1].Error)

	out := st.String()
	assert.True(t, strings.HasPrefix(out, "Health: FAIL\n"))
	assert.Contains(t, out, "✓ controller")
	assert.Contains(t, out, "/dev/ttyACM0")
	assert.Contains(t, out, "✗ embedder")
}

func TestRunBoundsSlowChecks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	st := Run(ctx, Check{Name: "slow", Run: func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}})
	assert.False(t, st.OK)
}

func TestLocalCaptureAndEmbedderPass(t *testing.T) {
	var cfg config.Config
	cfg.Capture.Source = "console"
	cfg.Embedder.Kind = "local"
	checks := Checks(cfg)
	require.Len(t, checks, 3)

	st := Run(context.Background(), checks[1], checks[2])
	assert.True(t, st.OK, st.String())
	assert.Contains(t, st.Checks[1].Detail, "lexical dry-run")
}

func TestDialSidecar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")
		_, _, _ = c.Read(r.Context())
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	require.NoError(t, DialSidecar(context.Background(), url))
	assert.Error(t, DialSidecar(context.Background(), ""))
}
