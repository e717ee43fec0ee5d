package command

import (
	"context"

	"github.com/sandevgo/medichat/internal/service/assistant"
	"github.com/sandevgo/medichat/internal/service/library"
)

type Sessions interface {
	Get(id string) *assistant.Session
}

type DocumentLibrary interface {
	Documents() []library.Document
	ChunkCount() int
	IngestFile(ctx context.Context, path string) (library.Document, error)
}

type ModelSwitcher interface {
	GetModel() string
	SetModel(ctx context.Context, model string) error
}

type URLIngester interface {
	IngestURL(ctx context.Context, rawURL string) (library.Document, error)
}
