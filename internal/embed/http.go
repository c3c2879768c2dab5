package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTP calls an OpenAI-compatible embeddings endpoint (`POST /v1/embeddings`),
// as served by sentence-transformers model servers.
type HTTP struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

func NewHTTP(baseURL, model, apiKey string, timeout time.Duration) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (h *HTTP) Embed(ctx context.Context, text string) (Vector, error) {
	start := time.Now()
	defer func() { metricEmbedMS.Observe(float64(time.Since(start).Milliseconds())) }()

	body, err := json.Marshal(embeddingRequest{Model: h.model, Input: []string{text}})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request build failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		metricEmbedErrors.Inc()
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metricEmbedErrors.Inc()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("embed: unexpected status %d: %s", resp.StatusCode, string(b))
	}
	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metricEmbedErrors.Inc()
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		metricEmbedErrors.Inc()
		return nil, ErrZeroVector
	}
	return Vector(out.Data[0].Embedding), nil
}

func (h *HTTP) Similarity(a, b Vector) (float64, error) { return Cosine(a, b) }

// Ping embeds a short probe text.
func (h *HTTP) Ping(ctx context.Context) error {
	_, err := h.Embed(ctx, "ping")
	return err
}
