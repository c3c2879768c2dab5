package stt

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

// sidecar replies to a start frame with the given frames.
func sidecar(t *testing.T, frames ...string) (*httptest.Server, chan startMsg) {
	t.Helper()
	starts := make(chan startMsg, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")
		_, data, err := c.Read(r.Context())
		if err != nil {
			return
		}
		var s startMsg
		_ = json.Unmarshal(data, &s)
		starts <- s
		for _, f := range frames {
			if err := c.Write(r.Context(), websocket.MessageText, []byte(f)); err != nil {
				return
			}
		}
		// hold until the client hangs up
		_, _, _ = c.Read(r.Context())
	}))
	return srv, starts
}

func wsURL(srv *httptest.Server) string { return "ws" + strings.TrimPrefix(srv.URL, "http") }

func TestWebSocketFinal(t *testing.T) {
	srv, starts := sidecar(t, `{"type":"metadata"}`, `{"type":"interim","text":"the"}`, `{"type":"final","text":" The Moon "}`)
	defer srv.Close()

	w := NewWebSocket(wsURL(srv), "", nil)
	text, err := w.Capture(context.Background(), 10*time.Second)
	require.NoError(t, err)
	require.Equal(t, "The Moon", text)

	s := <-starts
	require.Equal(t, "start", s.Type)
	require.Equal(t, int64(10000), s.TimeoutMs)
	require.Equal(t, "en-US", s.Language)
	require.NotEmpty(t, s.RequestID)
}

func TestWebSocketUtteranceEndFallsBackToInterim(t *testing.T) {
	srv, _ := sidecar(t, `not json`, `{"type":"interim","text":"H2O"}`, `{"type":"utterance_end"}`)
	defer srv.Close()

	text, err := NewWebSocket(wsURL(srv), "en-US", nil).Capture(context.Background(), time.Second)
	require.NoError(t, err)
	require.Equal(t, "H2O", text)
}

func TestWebSocketNoSpeech(t *testing.T) {
	srv, _ := sidecar(t, `{"type":"no_speech"}`)
	defer srv.Close()

	_, err := NewWebSocket(wsURL(srv), "", nil).Capture(context.Background(), time.Second)
	require.ErrorIs(t, err, ErrNoSpeech)
}

func TestWebSocketProviderError(t *testing.T) {
	srv, _ := sidecar(t, `{"type":"error","message":"mic busy"}`)
	defer srv.Close()

	_, err := NewWebSocket(wsURL(srv), "", nil).Capture(context.Background(), time.Second)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNoSpeech))
	require.Contains(t, err.Error(), "mic busy")
}

func TestWebSocketSilentSidecarTimesOut(t *testing.T) {
	srv, _ := sidecar(t)
	defer srv.Close()

	w := NewWebSocket(wsURL(srv), "", nil)
	w.PostRoll = 0
	start := time.Now()
	_, err := w.Capture(context.Background(), 200*time.Millisecond)
	require.ErrorIs(t, err, ErrNoSpeech)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestWebSocketDialFailure(t *testing.T) {
	_, err := NewWebSocket("ws://127.0.0.1:1/capture", "", nil).Capture(context.Background(), 100*time.Millisecond)
	require.Error(t, err)
}

func TestConsoleCapture(t *testing.T) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	c := NewConsole(inR, outW)

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := c.Capture(context.Background(), 5*time.Second)
		done <- result{text, err}
	}()

	prompt, err := bufio.NewReader(outR).ReadString('>')
	require.NoError(t, err)
	require.Contains(t, prompt, "answer within")

	_, err = inW.Write([]byte("  the moon \n"))
	require.NoError(t, err)
	r := <-done
	require.NoError(t, r.err)
	require.Equal(t, "the moon", r.text)
}

func TestConsoleTimeout(t *testing.T) {
	inR, _ := io.Pipe()
	c := NewConsole(inR, nil)
	_, err := c.Capture(context.Background(), 50*time.Millisecond)
	require.ErrorIs(t, err, ErrNoSpeech)
}
