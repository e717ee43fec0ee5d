package rag

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"github.com/sandevgo/medichat/internal/core"
)

const encodingName = "cl100k_base"

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once
)

// The BPE ranks ship with the binary so chunking never touches the network.
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

type Chunk struct {
	Text      string
	TokenSize int
	Index     int
}

type ChunkerConfig struct {
	MaxTokens     int
	OverlapTokens int
}

// DefaultChunkerConfig keeps chunks well below the context window of the
// common embedding models while leaving room for several hits in a prompt.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxTokens:     250,
		OverlapTokens: 50,
	}
}

// ChunkDocument splits text and tags every piece with its source, document
// type and sequence number.
func ChunkDocument(text, source, docType string, cfg ChunkerConfig) ([]core.Chunk, error) {
	pieces, err := ChunkText(text, cfg)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, nil
	}
	chunks := make([]core.Chunk, 0, len(pieces))
	for _, p := range pieces {
		if p.Text == "" {
			continue
		}
		chunks = append(chunks, core.NewChunk(p.Text, source, docType, len(chunks)))
	}
	return chunks, nil
}

func ChunkText(text string, cfg ChunkerConfig) ([]Chunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if cfg.MaxTokens <= 0 {
		cfg = DefaultChunkerConfig()
	}

	enc, err := tokenizer()
	if err != nil {
		return nil, err
	}

	sentences := splitSentences(text)

	var chunks []Chunk
	var current strings.Builder
	currentTokens := 0
	chunkIndex := 0

	flush := func() {
		chunks = append(chunks, Chunk{
			Text:      strings.TrimSpace(current.String()),
			TokenSize: currentTokens,
			Index:     chunkIndex,
		})
		chunkIndex++
		current.Reset()
		currentTokens = 0
	}

	for i, sentence := range sentences {
		sentenceTokens := countTokens(enc, sentence)

		// a sentence larger than the budget is sliced by tokens
		if sentenceTokens > cfg.MaxTokens {
			if current.Len() > 0 {
				flush()
			}
			for _, sc := range splitByTokens(enc, sentence, cfg.MaxTokens) {
				chunks = append(chunks, Chunk{
					Text:      strings.TrimSpace(sc.Text),
					TokenSize: sc.TokenSize,
					Index:     chunkIndex,
				})
				chunkIndex++
			}
			continue
		}

		if currentTokens+sentenceTokens > cfg.MaxTokens && current.Len() > 0 {
			flush()

			overlap := overlapFromSentences(enc, sentences, i, cfg.OverlapTokens)
			if overlapTokens := countTokens(enc, overlap); overlapTokens+sentenceTokens <= cfg.MaxTokens {
				current.WriteString(overlap)
				currentTokens = overlapTokens
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
		currentTokens += sentenceTokens
	}

	if current.Len() > 0 {
		flush()
	}

	return chunks, nil
}

// splitByTokens encodes text and slices the token array.
func splitByTokens(enc *tiktoken.Tiktoken, text string, maxTokens int) []Chunk {
	tokens := enc.Encode(text, nil, nil)

	var chunks []Chunk
	for i := 0; i < len(tokens); i += maxTokens {
		end := min(i+maxTokens, len(tokens))
		part := tokens[i:end]
		chunks = append(chunks, Chunk{
			Text:      enc.Decode(part),
			TokenSize: len(part),
		})
	}
	return chunks
}

var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true, '．': true, '…': true,
}

func splitSentences(text string) []string {
	var sentences []string

	for _, para := range splitParagraphs(text) {
		var current strings.Builder
		runes := []rune(para)

		for i, r := range runes {
			current.WriteRune(r)

			if !sentenceEnders[r] {
				continue
			}
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) || isCJK(runes[i+1]) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}

		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 && text != "" {
		return []string{text}
	}
	return sentences
}

// splitParagraphs splits on blank lines and unwraps soft line breaks.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\n", " "))
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func tokenizer() (*tiktoken.Tiktoken, error) {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding(encodingName)
		if tkErr != nil {
			tkErr = fmt.Errorf("failed to load %s tokenizer: %w", encodingName, tkErr)
		}
	})
	return tk, tkErr
}

// CountTokens counts cl100k_base tokens.
func CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	enc, err := tokenizer()
	if err != nil {
		return 0, err
	}
	return countTokens(enc, text), nil
}

func countTokens(enc *tiktoken.Tiktoken, text string) int {
	if text == "" {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}

func overlapFromSentences(enc *tiktoken.Tiktoken, sentences []string, currentIdx int, targetTokens int) string {
	if currentIdx == 0 || targetTokens <= 0 {
		return ""
	}

	var overlap []string
	tokens := 0
	for i := currentIdx - 1; i >= 0 && tokens < targetTokens; i-- {
		overlap = append([]string{sentences[i]}, overlap...)
		tokens += countTokens(enc, sentences[i])
	}
	return strings.Join(overlap, " ")
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
