package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/internal/providers/rag"
	"github.com/sandevgo/medichat/internal/service/index"
	"github.com/sandevgo/medichat/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockIndexer struct {
	buildFunc func(ctx context.Context, chunks []core.Chunk) error
	builds    [][]core.Chunk
}

func (m *mockIndexer) Build(ctx context.Context, chunks []core.Chunk) error {
	m.builds = append(m.builds, chunks)
	if m.buildFunc != nil {
		return m.buildFunc(ctx, chunks)
	}
	return nil
}

func chunk(content string) core.Chunk {
	return core.NewChunk(content, "notes.txt", "text", 0)
}

func TestLibrary_SubmitChunks(t *testing.T) {
	ctx := log.Discard(context.Background())
	idx := &mockIndexer{}
	lib := New(idx, Config{})

	require.NoError(t, lib.SubmitChunks(ctx, []core.Chunk{chunk("a"), chunk("b")}))
	require.NoError(t, lib.SubmitChunks(ctx, []core.Chunk{chunk("c")}))

	require.Len(t, idx.builds, 2)
	assert.Len(t, idx.builds[0], 2)
	require.Len(t, idx.builds[1], 3)
	assert.Equal(t, "a", idx.builds[1][0].Content)
	assert.Equal(t, "c", idx.builds[1][2].Content)
	assert.Equal(t, 3, lib.ChunkCount())
}

func TestLibrary_SubmitChunks_Empty(t *testing.T) {
	idx := &mockIndexer{}
	lib := New(idx, Config{})

	err := lib.SubmitChunks(context.Background(), nil)
	assert.ErrorIs(t, err, index.ErrEmptyCorpus)
	assert.Empty(t, idx.builds)
}

func TestLibrary_SubmitChunks_FailedBuildKeepsRepository(t *testing.T) {
	ctx := log.Discard(context.Background())
	boom := errors.New("embedding service down")
	idx := &mockIndexer{}
	lib := New(idx, Config{})

	require.NoError(t, lib.SubmitChunks(ctx, []core.Chunk{chunk("a")}))

	idx.buildFunc = func(ctx context.Context, chunks []core.Chunk) error { return boom }
	err := lib.SubmitChunks(ctx, []core.Chunk{chunk("b")})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, lib.ChunkCount())

	idx.buildFunc = nil
	require.NoError(t, lib.SubmitChunks(ctx, []core.Chunk{chunk("c")}))
	last := idx.builds[len(idx.builds)-1]
	require.Len(t, last, 2)
	assert.Equal(t, "c", last[1].Content)
}

func TestLibrary_Ingest(t *testing.T) {
	ctx := log.Discard(context.Background())

	tests := []struct {
		name     string
		file     string
		data     string
		maxBytes int64
		wantErr  error
		wantType string
	}{
		{name: "text", file: "notes.txt", data: "Metformin is first-line therapy. It lowers glucose.", wantType: "text"},
		{name: "markdown", file: "dir/guide.MD", data: "# Insulin\n\nInsulin is a hormone.", wantType: "markdown"},
		{name: "html", file: "page.html", data: "<html><body><h1>Aspirin</h1><p>Aspirin thins the blood.</p></body></html>", wantType: "html"},
		{name: "unsupported", file: "scan.docx", data: "x", wantErr: ErrUnsupportedFile},
		{name: "empty file", file: "empty.txt", data: "", wantErr: ErrEmptyDocument},
		{name: "blank text", file: "blank.txt", data: "  \n\t ", wantErr: ErrEmptyDocument},
		{name: "too large", file: "big.txt", data: strings.Repeat("a", 11), maxBytes: 10, wantErr: ErrFileTooLarge},
		{name: "broken pdf", file: "broken.pdf", data: "not a pdf at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := &mockIndexer{}
			lib := New(idx, Config{MaxFileBytes: tt.maxBytes})

			doc, err := lib.Ingest(ctx, tt.file, []byte(tt.data))
			if tt.wantErr != nil || tt.wantType == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				assert.Empty(t, idx.builds)
				assert.Empty(t, lib.Documents())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, filepath.Base(tt.file), doc.Name)
			assert.Equal(t, tt.wantType, doc.Type)
			assert.Positive(t, doc.Chunks)
			assert.Positive(t, doc.Tokens)
			assert.False(t, doc.IngestedAt.IsZero())

			require.Len(t, idx.builds, 1)
			for n, c := range idx.builds[0] {
				assert.Equal(t, doc.Name, c.Metadata.Source())
				assert.Equal(t, tt.wantType, c.Metadata.Type())
				id, ok := c.Metadata.ChunkID()
				require.True(t, ok)
				assert.Equal(t, n, id)
			}
			assert.Equal(t, []Document{doc}, lib.Documents())
		})
	}
}

func TestLibrary_IngestFile(t *testing.T) {
	ctx := log.Discard(context.Background())
	dir := t.TempDir()
	path := filepath.Join(dir, "cardiology.txt")
	require.NoError(t, os.WriteFile(path, []byte("Beta blockers slow the heart rate."), 0o644))

	lib := New(&mockIndexer{}, Config{})
	doc, err := lib.IngestFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "cardiology.txt", doc.Name)

	_, err = lib.IngestFile(ctx, dir)
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = lib.IngestFile(ctx, filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	small := New(&mockIndexer{}, Config{MaxFileBytes: 5})
	_, err = small.IngestFile(ctx, path)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestLibrary_IngestIntoRealIndex(t *testing.T) {
	ctx := log.Discard(context.Background())
	idx := index.New(rag.NewHashingEmbedder(256))
	lib := New(idx, Config{Chunker: rag.ChunkerConfig{MaxTokens: 20}})

	_, err := lib.Ingest(ctx, "diabetes.txt", []byte("Metformin is the first-line drug for type 2 diabetes."))
	require.NoError(t, err)
	_, err = lib.Ingest(ctx, "cardio.txt", []byte("Aspirin lowers the risk of a second heart attack."))
	require.NoError(t, err)

	assert.Equal(t, lib.ChunkCount(), idx.Size())

	results, err := idx.Search(ctx, "aspirin heart attack", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "cardio.txt", results[0].Metadata.Source())
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name    string
		want    DocType
		wantErr bool
	}{
		{name: "a.pdf", want: TypePDF},
		{name: "A.PDF", want: TypePDF},
		{name: "b.htm", want: TypeHTML},
		{name: "c.markdown", want: TypeMarkdown},
		{name: "d.txt", want: TypeText},
		{name: "e", wantErr: true},
		{name: "f.exe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectType(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFile)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_RejectsInvalidUTF8(t *testing.T) {
	_, err := Extract(TypeText, []byte{0xff, 0xfe, 0xfd})
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}
