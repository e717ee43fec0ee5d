package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandevgo/medichat/internal/config"
	"github.com/sandevgo/medichat/pkg/log"
	"github.com/sandevgo/medichat/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var sum float64
	for n := range a {
		sum += float64(a[n]) * float64(b[n])
	}
	return sum
}

func TestHashingEmbedder(t *testing.T) {
	ctx := context.Background()
	e := NewHashingEmbedder(0)
	assert.Equal(t, DefaultHashingDimensions, e.Dimensions())

	docs, err := e.EmbedDocuments(ctx, []string{
		"Metformin is the first-line therapy for type 2 diabetes.",
		"Aspirin reduces the risk of heart attack.",
		"",
	})
	require.NoError(t, err)
	require.Len(t, docs, 3)

	for _, v := range docs[:2] {
		assert.Len(t, v, DefaultHashingDimensions)
		assert.InDelta(t, 1.0, math.Sqrt(dot(v, v)), 1e-5)
	}
	assert.Zero(t, dot(docs[2], docs[2]))

	q, err := e.EmbedQuery(ctx, "metformin diabetes therapy")
	require.NoError(t, err)
	assert.Greater(t, dot(q, docs[0]), dot(q, docs[1]))

	again, err := e.EmbedQuery(ctx, "metformin diabetes therapy")
	require.NoError(t, err)
	assert.Equal(t, q, again)
}

func TestHashingEmbedder_StopwordsIgnored(t *testing.T) {
	e := NewHashingEmbedder(64)
	a, err := e.EmbedQuery(context.Background(), "the insulin")
	require.NoError(t, err)
	b, err := e.EmbedQuery(context.Background(), "INSULIN")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashingEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHashingEmbedder(8).EmbedDocuments(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func embeddingServer(t *testing.T, handler func(w http.ResponseWriter, req embeddingRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		handler(w, req)
	}))
}

func writeEmbeddings(w http.ResponseWriter, inputs []string, dims int) {
	type datum struct {
		Object    string    `json:"object"`
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	}
	data := make([]datum, len(inputs))
	// reversed order checks that results are placed by index
	for n := range inputs {
		pos := len(inputs) - 1 - n
		vec := make([]float32, dims)
		vec[0] = float32(len(inputs[pos]))
		data[n] = datum{Object: "embedding", Embedding: vec, Index: pos}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": "m"})
}

func fastRetrier() *retry.Retrier {
	return retry.NewRetrier(&retry.Config{
		MaxRetries:    2,
		BackoffFactor: 1,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
	})
}

func TestOpenAIEmbedder_Batches(t *testing.T) {
	var requests atomic.Int32
	srv := embeddingServer(t, func(w http.ResponseWriter, req embeddingRequest) {
		requests.Add(1)
		assert.Equal(t, "text-embedding-3-small", req.Model)
		assert.LessOrEqual(t, len(req.Input), 2)
		writeEmbeddings(w, req.Input, 3)
	})
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIEmbedderConfig{
		APIKey:    "sk",
		BaseURL:   srv.URL + "/v1",
		Model:     "text-embedding-3-small",
		BatchSize: 2,
	}).WithRetrier(fastRetrier())

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := e.EmbedDocuments(log.Discard(context.Background()), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for n, v := range vectors {
		assert.Equal(t, float32(len(texts[n])), v[0])
	}
	assert.EqualValues(t, 3, requests.Load())
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, req embeddingRequest) {
		writeEmbeddings(w, req.Input, 3)
	})
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIEmbedderConfig{BaseURL: srv.URL + "/v1", Model: "m", Dimensions: 1536})
	_, err := e.EmbedQuery(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestOpenAIEmbedder_Retry(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
		wantErr   bool
	}{
		{name: "server error is retried", status: http.StatusInternalServerError, wantCalls: 3, wantErr: true},
		{name: "rate limit is retried", status: http.StatusTooManyRequests, wantCalls: 3, wantErr: true},
		{name: "bad request is permanent", status: http.StatusBadRequest, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := embeddingServer(t, func(w http.ResponseWriter, req embeddingRequest) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, `{"error":{"message":"nope","type":"invalid_request_error"}}`)
			})
			defer srv.Close()

			e := NewOpenAIEmbedder(OpenAIEmbedderConfig{BaseURL: srv.URL + "/v1", Model: "m"}).WithRetrier(fastRetrier())
			_, err := e.EmbedQuery(context.Background(), "q")

			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestOpenAIEmbedder_RecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := embeddingServer(t, func(w http.ResponseWriter, req embeddingRequest) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = fmt.Fprint(w, `{"error":{"message":"upstream"}}`)
			return
		}
		writeEmbeddings(w, req.Input, 2)
	})
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIEmbedderConfig{BaseURL: srv.URL + "/v1", Model: "m"}).WithRetrier(fastRetrier())
	v, err := e.EmbedQuery(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, float32(3), v[0])
}

func TestNewEmbedder(t *testing.T) {
	ctx := log.Discard(context.Background())

	e, err := NewEmbedder(ctx, &config.EmbeddingConfig{Provider: "local", Dimensions: 32})
	require.NoError(t, err)
	assert.IsType(t, &HashingEmbedder{}, e)

	e, err = NewEmbedder(ctx, &config.EmbeddingConfig{Provider: "openai", APIKey: "sk", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, e)

	_, err = NewEmbedder(ctx, &config.EmbeddingConfig{Provider: "openai"})
	assert.Error(t, err)

	_, err = NewEmbedder(ctx, &config.EmbeddingConfig{Provider: "word2vec"})
	assert.Error(t, err)
}
