package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/internal/service/answer"
	"github.com/sandevgo/medichat/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAnswerer struct {
	answerFunc func(ctx context.Context, query string, history []core.Message) (core.Outcome, error)

	queries   []string
	histories [][]core.Message
}

func (m *mockAnswerer) AnswerWithHistory(ctx context.Context, query string, history []core.Message) (core.Outcome, error) {
	m.queries = append(m.queries, query)
	m.histories = append(m.histories, history)
	if m.answerFunc != nil {
		return m.answerFunc(ctx, query, history)
	}
	return core.Outcome{Kind: core.OutcomeAnswered, Path: core.PathUngrounded, Text: "answer to " + query}, nil
}

type mockTranscripts struct {
	mu    sync.Mutex
	saved map[string][]core.Message
	err   error
}

func (m *mockTranscripts) SaveMessage(ctx context.Context, conversationID string, msg core.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = make(map[string][]core.Message)
	}
	m.saved[conversationID] = append(m.saved[conversationID], msg)
	return nil
}

func (m *mockTranscripts) ListMessages(ctx context.Context, conversationID string, limit int) ([]core.Message, error) {
	return m.saved[conversationID], nil
}

func (m *mockTranscripts) ListConversations(ctx context.Context, limit int) ([]core.ConversationInfo, error) {
	return nil, nil
}

func TestSession_Ask(t *testing.T) {
	ctx := log.Discard(context.Background())
	score := 0.9
	citations := []core.RetrievalResult{{Content: "c", Metadata: core.Metadata{core.MetaSource: "a.pdf"}, Score: &score}}

	am := &mockAnswerer{
		answerFunc: func(ctx context.Context, query string, history []core.Message) (core.Outcome, error) {
			return core.Outcome{Kind: core.OutcomeAnswered, Path: core.PathGrounded, Text: "grounded", Citations: citations}, nil
		},
	}
	tr := &mockTranscripts{}
	s := NewSession("cli", am, Options{Transcripts: tr})

	out, err := s.Ask(ctx, "  What does   the <document> say?  ")
	require.NoError(t, err)
	assert.Equal(t, "grounded", out.Text)
	assert.Equal(t, []string{"What does the document say?"}, am.queries)

	history := s.Conversation().History()
	require.Len(t, history, 2)
	assert.Equal(t, core.RoleUser, history[0].Role)
	assert.Equal(t, "What does the document say?", history[0].Content)
	assert.Equal(t, core.RoleAssistant, history[1].Role)
	assert.Equal(t, citations, history[1].Sources)

	assert.Len(t, tr.saved[s.Conversation().ID()], 2)
}

func TestSession_FailedTurnKeepsOnlyUserMessage(t *testing.T) {
	ctx := log.Discard(context.Background())
	genErr := &answer.GenerationError{Path: core.PathUngrounded, Err: errors.New("timeout")}

	am := &mockAnswerer{
		answerFunc: func(ctx context.Context, query string, history []core.Message) (core.Outcome, error) {
			return core.Outcome{Kind: core.OutcomeFailed, Path: core.PathUngrounded, Err: genErr}, genErr
		},
	}
	tr := &mockTranscripts{}
	s := NewSession("cli", am, Options{Transcripts: tr})

	out, err := s.Ask(ctx, "What is anemia?")
	require.Error(t, err)
	assert.Equal(t, core.OutcomeFailed, out.Kind)

	var target *answer.GenerationError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, core.PathUngrounded, target.Path)

	history := s.Conversation().History()
	require.Len(t, history, 1)
	assert.Equal(t, core.RoleUser, history[0].Role)
	assert.Len(t, tr.saved[s.Conversation().ID()], 1)
}

func TestSession_EmptyQuery(t *testing.T) {
	am := &mockAnswerer{}
	s := NewSession("cli", am, Options{})

	_, err := s.Ask(context.Background(), "  <>{}  ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Empty(t, am.queries)
	assert.Zero(t, s.Conversation().Count())
}

func TestSession_ContextMessages(t *testing.T) {
	ctx := log.Discard(context.Background())

	tests := []struct {
		name            string
		contextMessages int
		wantLastHistory int
	}{
		{name: "none by default", contextMessages: 0, wantLastHistory: 0},
		{name: "last two", contextMessages: 2, wantLastHistory: 2},
		{name: "more than held", contextMessages: 10, wantLastHistory: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			am := &mockAnswerer{}
			s := NewSession("cli", am, Options{ContextMessages: tt.contextMessages})

			for _, q := range []string{"one", "two", "three"} {
				_, err := s.Ask(ctx, q)
				require.NoError(t, err)
			}

			last := am.histories[len(am.histories)-1]
			assert.Len(t, last, tt.wantLastHistory)
			for _, m := range last {
				assert.NotEqual(t, "three", m.Content)
			}
		})
	}
}

func TestSession_TranscriptErrorDoesNotFailTurn(t *testing.T) {
	ctx := log.Discard(context.Background())
	s := NewSession("cli", &mockAnswerer{}, Options{Transcripts: &mockTranscripts{err: errors.New("disk full")}})

	_, err := s.Ask(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Conversation().Count())
}

func TestManager(t *testing.T) {
	m := NewManager(&mockAnswerer{}, Options{MaxHistory: 4})

	a := m.Get("a")
	assert.Same(t, a, m.Get("a"))
	assert.NotSame(t, a, m.Get("b"))
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 4, a.Conversation().MaxHistory())

	_, ok := m.Lookup("c")
	assert.False(t, ok)

	m.Remove("a")
	_, ok = m.Lookup("a")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestManager_EvictsIdleSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(&mockAnswerer{}, Options{IdleTTL: time.Hour})
	m.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		m.Get(fmt.Sprintf("anon-%d", i))
	}
	kept := m.Get("kept")
	assert.Equal(t, 101, m.Len())

	now = now.Add(40 * time.Minute)
	assert.Same(t, kept, m.Get("kept"))

	now = now.Add(40 * time.Minute)
	_, ok := m.Lookup("kept")
	require.True(t, ok)
	assert.Equal(t, 1, m.Len())

	now = now.Add(2 * time.Hour)
	assert.NotSame(t, kept, m.Get("kept"))
	assert.Equal(t, 1, m.Len())
}

func TestManager_NoTTLKeepsSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(&mockAnswerer{}, Options{})
	m.now = func() time.Time { return now }

	a := m.Get("a")
	now = now.Add(30 * 24 * time.Hour)
	assert.Same(t, a, m.Get("a"))
}
