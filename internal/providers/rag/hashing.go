package rag

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

const DefaultHashingDimensions = 512

// HashingEmbedder is an offline embedder that projects stopword-filtered
// terms into a fixed number of signed buckets. It holds no corpus state, so
// every rebuild of the index sees the same vector space.
type HashingEmbedder struct {
	dimensions   int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultHashingDimensions
	}
	return &HashingEmbedder{
		dimensions:   dimensions,
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`),
		stopwords:    defaultStopwords(),
	}
}

func (e *HashingEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *HashingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for n, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[n] = e.embed(text)
	}
	return vectors, nil
}

func (e *HashingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

func (e *HashingEmbedder) embed(text string) []float32 {
	acc := make([]float64, e.dimensions)
	for _, tok := range e.tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()

		bucket := sum % uint64(e.dimensions)
		if sum>>63 == 1 {
			acc[bucket]--
		} else {
			acc[bucket]++
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, e.dimensions)
	if norm == 0 {
		return vec
	}
	for n, v := range acc {
		vec[n] = float32(v / norm)
	}
	return vec
}

func (e *HashingEmbedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := e.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same",
		"too", "very", "can", "will", "just", "don", "should", "now", "what", "does", "do", "how", "i", "my",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
