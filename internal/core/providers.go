package core

import "context"

// Generator turns a fully composed prompt into model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]RetrievalResult, error)
	Built() bool
}

type Index interface {
	Retriever
	Build(ctx context.Context, chunks []Chunk) error
	Size() int
}
