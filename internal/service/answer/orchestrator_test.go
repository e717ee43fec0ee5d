package answer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/internal/service/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRetriever struct {
	built       bool
	results     []core.RetrievalResult
	err         error
	builtCalls  int
	searchCalls []int
}

func (m *mockRetriever) Built() bool {
	m.builtCalls++
	return m.built
}

func (m *mockRetriever) Search(ctx context.Context, query string, k int) ([]core.RetrievalResult, error) {
	m.searchCalls = append(m.searchCalls, k)
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockGenerator struct {
	generateFunc func(ctx context.Context, prompt string) (string, error)
	prompts      []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.generateFunc != nil {
		return m.generateFunc(ctx, prompt)
	}
	return "generated answer", nil
}

func score(v float64) *float64 { return &v }

func hits() []core.RetrievalResult {
	return []core.RetrievalResult{
		{Content: "Metformin is first-line therapy.", Metadata: core.Metadata{"source": "a.pdf", "chunk_id": 3}, Score: score(0.9)},
		{Content: "Insulin may be added later.", Metadata: core.Metadata{"source": "b.pdf", "chunk_id": 1}},
	}
}

func TestOrchestrator_Answer(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		retriever     *mockRetriever
		wantKind      core.OutcomeKind
		wantPath      core.AnswerPath
		wantIntent    core.Intent
		wantText      string
		wantPool      []string
		wantCitations int
		wantSearches  int
		wantLLMCalls  int
		promptHas     []string
		promptLacks   []string
	}{
		{
			name:         "greeting skips the index entirely",
			query:        "hello",
			retriever:    &mockRetriever{built: true, results: hits()},
			wantKind:     core.OutcomeAnswered,
			wantPath:     core.PathUngrounded,
			wantIntent:   core.IntentGreeting,
			wantText:     "generated answer",
			wantSearches: 0,
			wantLLMCalls: 1,
			promptHas:    []string{"USER QUESTION: hello", "respond warmly"},
		},
		{
			name:         "farewell is canned",
			query:        "thanks, bye",
			retriever:    &mockRetriever{built: true, results: hits()},
			wantKind:     core.OutcomeAnswered,
			wantPath:     core.PathCanned,
			wantIntent:   core.IntentFarewell,
			wantPool:     FarewellMessages,
			wantLLMCalls: 0,
		},
		{
			name:         "unclear is canned",
			query:        "idk",
			retriever:    &mockRetriever{built: true, results: hits()},
			wantKind:     core.OutcomeAnswered,
			wantPath:     core.PathCanned,
			wantIntent:   core.IntentUnclear,
			wantPool:     ClarificationMessages,
			wantLLMCalls: 0,
		},
		{
			name:         "no index answers from general knowledge",
			query:        "What does the document say about metformin?",
			retriever:    &mockRetriever{built: false},
			wantKind:     core.OutcomeAnswered,
			wantPath:     core.PathUngrounded,
			wantIntent:   core.IntentDocumentTargeted,
			wantText:     "generated answer",
			wantSearches: 0,
			wantLLMCalls: 1,
		},
		{
			name:          "document question with hits is grounded",
			query:         "What does the document say about metformin?",
			retriever:     &mockRetriever{built: true, results: hits()},
			wantKind:      core.OutcomeAnswered,
			wantPath:      core.PathGrounded,
			wantIntent:    core.IntentDocumentTargeted,
			wantText:      "generated answer",
			wantCitations: 2,
			wantSearches:  1,
			wantLLMCalls:  1,
			promptHas: []string{
				"[Document 1 - a.pdf]\nMetformin is first-line therapy.",
				"\n---\n[Document 2 - b.pdf]",
				"Answer ONLY using information from the provided context",
				InsufficientContextPhrase,
			},
		},
		{
			name:         "document question without hits is refused",
			query:        "Is aspirin mentioned in the pdf?",
			retriever:    &mockRetriever{built: true},
			wantKind:     core.OutcomeRefused,
			wantPath:     core.PathNone,
			wantIntent:   core.IntentDocumentTargeted,
			wantText:     RefusalMessage,
			wantSearches: 1,
			wantLLMCalls: 0,
		},
		{
			name:         "general question discards hits",
			query:        "What is metformin?",
			retriever:    &mockRetriever{built: true, results: hits()},
			wantKind:     core.OutcomeAnswered,
			wantPath:     core.PathUngrounded,
			wantIntent:   core.IntentGeneral,
			wantText:     "generated answer",
			wantSearches: 1,
			wantLLMCalls: 1,
			promptLacks:  []string{"Metformin is first-line therapy.", "CONTEXT:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{}
			o := NewOrchestrator(tt.retriever, gen, WithPicker(FirstPicker))

			out, err := o.Answer(context.Background(), tt.query)
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantPath, out.Path)
			assert.Equal(t, tt.wantIntent, out.Intent)
			assert.Len(t, out.Citations, tt.wantCitations)
			assert.Len(t, tt.retriever.searchCalls, tt.wantSearches)
			assert.Len(t, gen.prompts, tt.wantLLMCalls)
			assert.Nil(t, out.Err)

			if tt.wantPool != nil {
				assert.Contains(t, tt.wantPool, out.Text)
			} else {
				assert.Equal(t, tt.wantText, out.Text)
			}

			for _, want := range tt.promptHas {
				require.NotEmpty(t, gen.prompts)
				assert.Contains(t, gen.prompts[0], want)
			}
			for _, bad := range tt.promptLacks {
				require.NotEmpty(t, gen.prompts)
				assert.NotContains(t, gen.prompts[0], bad)
			}
		})
	}
}

func TestOrchestrator_SocialIntentsNeverTouchIndex(t *testing.T) {
	for _, q := range []string{"hi", "good morning doc", "see you", "nah"} {
		r := &mockRetriever{built: true, results: hits()}
		o := NewOrchestrator(r, &mockGenerator{})

		_, err := o.Answer(context.Background(), q)
		require.NoError(t, err)
		assert.Zero(t, r.builtCalls, "query %q consulted index state", q)
		assert.Empty(t, r.searchCalls, "query %q searched the index", q)
	}
}

func TestOrchestrator_CitationsPreserveMetadata(t *testing.T) {
	r := &mockRetriever{built: true, results: hits()}
	o := NewOrchestrator(r, &mockGenerator{})

	out, err := o.Answer(context.Background(), "what do my documents say about insulin")
	require.NoError(t, err)
	require.Len(t, out.Citations, 2)

	assert.Equal(t, "a.pdf", out.Citations[0].Metadata.Source())
	id, ok := out.Citations[0].Metadata.ChunkID()
	assert.True(t, ok)
	assert.Equal(t, 3, id)
	assert.Nil(t, out.Citations[1].Score, "unknown score must stay unknown")
}

func TestOrchestrator_UsesTopK(t *testing.T) {
	r := &mockRetriever{built: true, results: hits()}
	o := NewOrchestrator(r, &mockGenerator{}, WithTopK(3))

	_, err := o.Answer(context.Background(), "summarize the file")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, r.searchCalls)
	assert.Equal(t, 3, o.TopK())

	// non-positive values keep the default
	assert.Equal(t, DefaultTopK, NewOrchestrator(r, &mockGenerator{}, WithTopK(0)).TopK())
}

func TestOrchestrator_GenerationErrors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantPath core.AnswerPath
	}{
		{name: "grounded failure", query: "what does the document say", wantPath: core.PathGrounded},
		{name: "ungrounded failure", query: "what is anemia", wantPath: core.PathUngrounded},
		{name: "greeting failure", query: "hello", wantPath: core.PathUngrounded},
	}

	cause := errors.New("rate limited")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{generateFunc: func(ctx context.Context, prompt string) (string, error) {
				return "", cause
			}}
			o := NewOrchestrator(&mockRetriever{built: true, results: hits()}, gen)

			out, err := o.Answer(context.Background(), tt.query)
			require.Error(t, err)

			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, tt.wantPath, genErr.Path)
			assert.ErrorIs(t, err, cause)
			assert.Contains(t, err.Error(), string(tt.wantPath))

			assert.Equal(t, core.OutcomeFailed, out.Kind)
			assert.False(t, out.Ok())
			assert.Same(t, err, out.Err)
			assert.Empty(t, out.Text)
			assert.Len(t, gen.prompts, 1, "generation must not be retried")
		})
	}
}

func TestOrchestrator_RetrievalErrorPropagates(t *testing.T) {
	r := &mockRetriever{built: true, err: index.ErrNotBuilt}
	gen := &mockGenerator{}
	o := NewOrchestrator(r, gen)

	out, err := o.Answer(context.Background(), "what is in the document")
	require.Error(t, err)
	assert.ErrorIs(t, err, index.ErrNotBuilt)
	assert.Equal(t, core.OutcomeFailed, out.Kind)
	assert.Equal(t, core.PathRetrieval, out.Path)
	assert.Empty(t, gen.prompts)
}

func TestOrchestrator_Timeout(t *testing.T) {
	gen := &mockGenerator{generateFunc: func(ctx context.Context, prompt string) (string, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected generation context to carry a deadline")
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return "too late", nil
		}
	}}
	o := NewOrchestrator(&mockRetriever{}, gen, WithTimeout(20*time.Millisecond))

	_, err := o.Answer(context.Background(), "what is anemia")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOrchestrator_HistoryInPrompt(t *testing.T) {
	gen := &mockGenerator{}
	o := NewOrchestrator(&mockRetriever{}, gen)

	history := []core.Message{
		{Role: core.RoleUser, Content: "I have type 2 diabetes"},
		{Role: core.RoleAssistant, Content: "Thanks for sharing."},
	}
	_, err := o.AnswerWithHistory(context.Background(), "what should I eat", history)
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "RECENT CONVERSATION:\nUSER: I have type 2 diabetes\nASSISTANT: Thanks for sharing.")

	_, err = o.Answer(context.Background(), "what should I eat")
	require.NoError(t, err)
	assert.NotContains(t, gen.prompts[1], "RECENT CONVERSATION")
}

func TestRandomPicker(t *testing.T) {
	a := NewRandomPicker(42)
	b := NewRandomPicker(42)

	for n := 0; n < 20; n++ {
		pa, pb := a(FarewellMessages), b(FarewellMessages)
		assert.Equal(t, pa, pb, "same seed must give the same sequence")
		assert.Contains(t, FarewellMessages, pa)
	}

	assert.Empty(t, a(nil))
	assert.Empty(t, FirstPicker(nil))
	assert.Equal(t, ClarificationMessages[0], FirstPicker(ClarificationMessages))
}

func TestFormatContext_UnknownSource(t *testing.T) {
	got := FormatContext([]core.RetrievalResult{{Content: "text"}})
	assert.True(t, strings.HasPrefix(got, "[Document 1 - Unknown]\ntext"))
}
