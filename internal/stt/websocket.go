package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// WebSocket asks a capture sidecar to record from the microphone and
// stream transcripts back. One connection is opened per capture so the
// sidecar releases the microphone when the socket closes.
//
// Protocol (JSON text frames):
//
//	-> {"type":"start","request_id":"...","timeout_ms":10000,"language":"en-US"}
//	<- {"type":"interim","text":"..."}
//	<- {"type":"final","text":"..."}
//	<- {"type":"utterance_end"}
//	<- {"type":"no_speech"}
//	<- {"type":"error","message":"..."}
type WebSocket struct {
	url      string
	language string
	// PostRoll bounds transcription time after the capture window closes.
	PostRoll time.Duration
	log      *zap.Logger
}

func NewWebSocket(url, language string, log *zap.Logger) *WebSocket {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebSocket{url: url, language: orDefault(language, "en-US"), PostRoll: 15 * time.Second, log: log.Named("stt")}
}

type startMsg struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	TimeoutMs int64  `json:"timeout_ms"`
	Language  string `json:"language"`
}

func (w *WebSocket) Capture(ctx context.Context, timeout time.Duration) (text string, err error) {
	start := time.Now()
	defer func() { observeCapture(start, err) }()

	ctx, cancel := context.WithTimeout(ctx, timeout+w.PostRoll)
	defer cancel()

	ws, _, err := websocket.Dial(ctx, w.url, nil)
	if err != nil {
		return "", fmt.Errorf("dial capture sidecar: %w", err)
	}
	defer ws.Close(websocket.StatusNormalClosure, "bye")

	reqID := uuid.New().String()
	b, _ := json.Marshal(startMsg{Type: "start", RequestID: reqID, TimeoutMs: timeout.Milliseconds(), Language: w.language})
	if err := ws.Write(ctx, websocket.MessageText, b); err != nil {
		return "", fmt.Errorf("send start: %w", err)
	}
	w.log.Debug("capture started", zap.String("request_id", reqID), zap.Duration("timeout", timeout))

	// Track last interim text for utterance_end fallback
	lastText := ""
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return "", fmt.Errorf("%w: %v", ErrNoSpeech, err)
			}
			return "", fmt.Errorf("read transcript: %w", err)
		}
		if len(data) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			w.log.Warn("capture sidecar sent invalid JSON", zap.Error(err))
			continue
		}
		switch strings.ToLower(toString(m["type"])) {
		case "interim":
			if t := strings.TrimSpace(toString(m["text"])); t != "" {
				lastText = t
			}
		case "final":
			return strings.TrimSpace(toString(m["text"])), nil
		case "utterance_end":
			if lastText == "" {
				return "", ErrNoSpeech
			}
			return lastText, nil
		case "no_speech", "timeout":
			return "", ErrNoSpeech
		case "error":
			msg := toString(m["message"])
			if msg == "" {
				msg = "provider_error"
			}
			return "", fmt.Errorf("capture sidecar: %s", msg)
		default:
			// metadata and unknown frames
		}
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
