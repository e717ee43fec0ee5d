package rag

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sandevgo/medichat/pkg/log"
	"github.com/sandevgo/medichat/pkg/retry"
	openai "github.com/sashabaranov/go-openai"
)

const DefaultBatchSize = 64

type OpenAIEmbedderConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	BatchSize  int
}

// OpenAIEmbedder calls the embeddings endpoint of any OpenAI-compatible API.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
	retrier   *retry.Retrier
}

func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig) *OpenAIEmbedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		dimension: cfg.Dimensions,
		batchSize: cfg.BatchSize,
		retrier:   retry.NewDefaultRetrier(),
	}
}

// WithRetrier replaces the default backoff policy.
func (e *OpenAIEmbedder) WithRetrier(r *retry.Retrier) *OpenAIEmbedder {
	e.retrier = r
	return e
}

func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)

		log.FromCtx(ctx).Debug().
			Int("done", end).
			Int("total", len(texts)).
			Msg("embedded batch")
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var resp openai.EmbeddingResponse
	err := e.retrier.Do(ctx, func() error {
		var err error
		resp, err = e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(e.model),
			Input: texts,
		})
		if err != nil && !retryable(err) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create openai embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	results := make([][]float32, len(texts))
	for _, datum := range resp.Data {
		if datum.Index < 0 || datum.Index >= len(texts) {
			return nil, fmt.Errorf("openai embedding index %d out of range", datum.Index)
		}
		if e.dimension > 0 && len(datum.Embedding) != e.dimension {
			return nil, fmt.Errorf("openai embedding dimension mismatch: expected %d, got %d", e.dimension, len(datum.Embedding))
		}
		results[datum.Index] = datum.Embedding
	}
	return results, nil
}

// retryable reports whether the failure is rate limiting or a server fault.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}
