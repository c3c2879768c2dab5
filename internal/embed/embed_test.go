package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	s, err := Cosine(Vector{1, 0}, Vector{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-9)

	s, err = Cosine(Vector{1, 0}, Vector{0, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, s, 1e-9)

	s, err = Cosine(Vector{1, 1}, Vector{-1, -1})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, s, 1e-9)

	_, err = Cosine(Vector{1}, Vector{1, 2})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = Cosine(Vector{0, 0}, Vector{1, 2})
	require.ErrorIs(t, err, ErrZeroVector)
}

func TestLocalIgnoresCaseAndPunctuation(t *testing.T) {
	l := NewLocal(256)
	ctx := context.Background()
	a, err := l.Embed(ctx, "The Moon")
	require.NoError(t, err)
	b, err := l.Embed(ctx, "the moon!")
	require.NoError(t, err)
	s, err := l.Similarity(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-9)
}

func TestLocalUnrelatedTextsScoreLow(t *testing.T) {
	l := NewLocal(512)
	ctx := context.Background()
	a, _ := l.Embed(ctx, "the moon")
	b, _ := l.Embed(ctx, "I like pizza")
	s, err := l.Similarity(a, b)
	require.NoError(t, err)
	assert.LessOrEqual(t, s, 0.5)
}

func TestLocalBlankTextFailsSimilarity(t *testing.T) {
	l := NewLocal(64)
	blank, _ := l.Embed(context.Background(), "   ")
	word, _ := l.Embed(context.Background(), "moon")
	_, err := l.Similarity(blank, word)
	require.ErrorIs(t, err, ErrZeroVector)
}

func TestHTTPEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)
		require.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "m", req.Model)
		require.Equal(t, []string{"hello"}, req.Input)
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,0.25,0]}]}`))
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL+"/", "m", "k", time.Second)
	v, err := h.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, Vector{0.5, 0.25, 0}, v)
}

func TestHTTPEmbedErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, "m", "", time.Second)
	_, err := h.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	require.Error(t, h.Ping(context.Background()))
}
