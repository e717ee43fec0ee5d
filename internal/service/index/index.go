// Package index keeps an in-memory vector index over the chunk corpus.
//
// Every Build embeds the complete chunk set into a fresh immutable snapshot
// and publishes it with an atomic pointer swap. Searches load the current
// snapshot without locking, so they observe either the previous or the new
// index and never a partially built one.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/pkg/log"
)

var (
	ErrEmptyCorpus = errors.New("cannot build index from an empty corpus")
	ErrNotBuilt    = errors.New("index has not been built")
	ErrInvalidK    = errors.New("k must be positive")
)

type snapshot struct {
	chunks    []core.Chunk
	vectors   [][]float32
	norms     []float64
	dimension int
	builtAt   time.Time
}

type Index struct {
	embedder core.Embedder
	current  atomic.Pointer[snapshot]
	// single writer, readers never take it
	buildMu sync.Mutex
}

var _ core.Index = (*Index)(nil)

func New(embedder core.Embedder) *Index {
	return &Index{embedder: embedder}
}

// Build replaces the whole index with one built from chunks.
// On failure the previously published snapshot stays in place.
func (i *Index) Build(ctx context.Context, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return ErrEmptyCorpus
	}

	i.buildMu.Lock()
	defer i.buildMu.Unlock()

	start := time.Now()
	texts := make([]string, len(chunks))
	owned := make([]core.Chunk, len(chunks))
	for n, c := range chunks {
		texts[n] = c.Content
		owned[n] = core.Chunk{Content: c.Content, Metadata: c.Metadata.Clone()}
	}

	vectors, err := i.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("failed to embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	dim := len(vectors[0])
	norms := make([]float64, len(vectors))
	for n, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return fmt.Errorf("failed to embed chunks: vector %d has dimension %d, want %d", n, len(v), dim)
		}
		norms[n] = norm(v)
	}

	i.current.Store(&snapshot{
		chunks:    owned,
		vectors:   vectors,
		norms:     norms,
		dimension: dim,
		builtAt:   time.Now(),
	})

	log.FromCtx(ctx).Info().
		Int("chunks", len(owned)).
		Int("dimension", dim).
		Dur("took", time.Since(start)).
		Msg("retrieval index built")
	return nil
}

// Search returns at most k results ordered by decreasing cosine similarity.
// Equal scores keep corpus order.
func (i *Index) Search(ctx context.Context, query string, k int) ([]core.RetrievalResult, error) {
	snap := i.current.Load()
	if snap == nil {
		return nil, ErrNotBuilt
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	qv, err := i.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(qv) != snap.dimension {
		return nil, fmt.Errorf("query vector has dimension %d, index has %d", len(qv), snap.dimension)
	}
	qnorm := norm(qv)

	scores := make([]float64, len(snap.vectors))
	order := make([]int, len(snap.vectors))
	for n, v := range snap.vectors {
		scores[n] = cosine(qv, v, qnorm, snap.norms[n])
		order[n] = n
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	k = min(k, len(order))
	results := make([]core.RetrievalResult, k)
	for n, idx := range order[:k] {
		score := scores[idx]
		results[n] = core.RetrievalResult{
			Content:  snap.chunks[idx].Content,
			Metadata: snap.chunks[idx].Metadata.Clone(),
			Score:    &score,
		}
	}

	log.FromCtx(ctx).Debug().Int("k", k).Int("corpus", len(order)).Msg("index searched")
	return results, nil
}

func (i *Index) Built() bool {
	return i.current.Load() != nil
}

// Size is the number of chunks in the published snapshot.
func (i *Index) Size() int {
	if snap := i.current.Load(); snap != nil {
		return len(snap.chunks)
	}
	return 0
}

// BuiltAt is the zero time until the first successful build.
func (i *Index) BuiltAt() time.Time {
	if snap := i.current.Load(); snap != nil {
		return snap.builtAt
	}
	return time.Time{}
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for n := range a {
		dot += float64(a[n]) * float64(b[n])
	}
	return dot / (na * nb)
}
