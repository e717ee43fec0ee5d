// Package library owns the cumulative chunk set and keeps the retrieval
// index in step with it.
package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/internal/providers/rag"
	"github.com/sandevgo/medichat/internal/service/index"
	"github.com/sandevgo/medichat/pkg/log"
)

const DefaultMaxFileBytes = 20 << 20

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrEmptyDocument   = errors.New("document has no extractable text")
	ErrFileTooLarge    = errors.New("file exceeds the upload limit")
)

// Indexer is rebuilt over the full chunk set on every submission.
type Indexer interface {
	Build(ctx context.Context, chunks []core.Chunk) error
}

// Document describes one ingested file.
type Document struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Pages      int       `json:"pages,omitempty"`
	Chunks     int       `json:"chunks"`
	Tokens     int       `json:"tokens"`
	IngestedAt time.Time `json:"ingested_at"`
}

type Config struct {
	Chunker      rag.ChunkerConfig
	MaxFileBytes int64
}

type Library struct {
	mu     sync.Mutex
	index  Indexer
	cfg    Config
	chunks []core.Chunk
	docs   []Document
	now    func() time.Time
}

func New(idx Indexer, cfg Config) *Library {
	if cfg.Chunker.MaxTokens <= 0 {
		cfg.Chunker = rag.DefaultChunkerConfig()
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	return &Library{
		index: idx,
		cfg:   cfg,
		now:   time.Now,
	}
}

// SubmitChunks appends chunks to everything submitted so far and rebuilds the
// index over the union. The repository only changes when the rebuild succeeds.
func (l *Library) SubmitChunks(ctx context.Context, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return index.ErrEmptyCorpus
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.submitLocked(ctx, chunks)
}

func (l *Library) submitLocked(ctx context.Context, chunks []core.Chunk) error {
	all := make([]core.Chunk, 0, len(l.chunks)+len(chunks))
	all = append(all, l.chunks...)
	all = append(all, chunks...)

	if err := l.index.Build(ctx, all); err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}
	l.chunks = all

	log.FromCtx(ctx).Info().
		Int("added", len(chunks)).
		Int("total", len(all)).
		Msg("index rebuilt")
	return nil
}

// Ingest extracts, chunks and submits one document.
func (l *Library) Ingest(ctx context.Context, name string, data []byte) (Document, error) {
	name = filepath.Base(name)

	kind, err := DetectType(name)
	if err != nil {
		return Document{}, err
	}
	if int64(len(data)) > l.cfg.MaxFileBytes {
		return Document{}, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, name, len(data), l.cfg.MaxFileBytes)
	}
	if len(data) == 0 {
		return Document{}, fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}

	extracted, err := Extract(kind, data)
	if err != nil {
		return Document{}, fmt.Errorf("failed to extract %s: %w", name, err)
	}

	chunks, err := rag.ChunkDocument(extracted.Text, name, string(kind), l.cfg.Chunker)
	if err != nil {
		return Document{}, fmt.Errorf("failed to chunk %s: %w", name, err)
	}
	if len(chunks) == 0 {
		return Document{}, fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}
	tokens, err := rag.CountTokens(extracted.Text)
	if err != nil {
		return Document{}, fmt.Errorf("failed to count tokens in %s: %w", name, err)
	}

	doc := Document{
		Name:   name,
		Type:   string(kind),
		Pages:  extracted.Pages,
		Chunks: len(chunks),
		Tokens: tokens,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.submitLocked(ctx, chunks); err != nil {
		return Document{}, err
	}
	doc.IngestedAt = l.now()
	l.docs = append(l.docs, doc)

	log.FromCtx(ctx).Info().
		Str("document", doc.Name).
		Str("type", doc.Type).
		Int("chunks", doc.Chunks).
		Int("tokens", doc.Tokens).
		Msg("document ingested")
	return doc, nil
}

// IngestFile checks the size on disk before reading the file.
func (l *Library) IngestFile(ctx context.Context, path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("%w: %s is a directory", ErrUnsupportedFile, path)
	}
	if info.Size() > l.cfg.MaxFileBytes {
		return Document{}, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, path, info.Size(), l.cfg.MaxFileBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return l.Ingest(ctx, path, data)
}

func (l *Library) Documents() []Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.docs)
}

func (l *Library) ChunkCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.chunks)
}
