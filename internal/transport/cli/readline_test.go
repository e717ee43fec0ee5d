package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/internal/service/answer"
	"github.com/sandevgo/medichat/internal/service/assistant"
	"github.com/sandevgo/medichat/pkg/log"
	"github.com/stretchr/testify/assert"
)

type mockAnswerer struct {
	answerFunc func(ctx context.Context, query string, history []core.Message) (core.Outcome, error)
}

func (m *mockAnswerer) AnswerWithHistory(ctx context.Context, query string, history []core.Message) (core.Outcome, error) {
	return m.answerFunc(ctx, query, history)
}

type mockRouter struct {
	executeFunc func(ctx context.Context, sessionID, input string) (string, bool)
}

func (m *mockRouter) Execute(ctx context.Context, sessionID, input string) (string, bool) {
	return m.executeFunc(ctx, sessionID, input)
}

func (m *mockRouter) ListCommands() []core.Command { return nil }

func TestReadLine_Respond(t *testing.T) {
	ctx := log.Discard(context.Background())
	score := 0.5

	tests := []struct {
		name    string
		input   string
		outcome core.Outcome
		err     error
		want    []string
	}{
		{
			name:  "command",
			input: "/docs",
			want:  []string{"routed /docs"},
		},
		{
			name:  "grounded answer with sources",
			input: "what does the document say",
			outcome: core.Outcome{
				Kind: core.OutcomeAnswered,
				Text: "It recommends metformin.",
				Citations: []core.RetrievalResult{
					{Metadata: core.Metadata{core.MetaSource: "a.pdf", core.MetaChunkID: 1}, Score: &score},
				},
			},
			want: []string{"It recommends metformin.", "Sources:", "a.pdf (Chunk 1, relevance 0.50)"},
		},
		{
			name:    "refusal",
			input:   "what does the pdf say about x",
			outcome: core.Outcome{Kind: core.OutcomeRefused, Text: answer.RefusalMessage},
			want:    []string{answer.RefusalMessage},
		},
		{
			name:  "generation failure",
			input: "what is anemia",
			err:   &answer.GenerationError{Path: core.PathUngrounded, Err: errors.New("503")},
			want:  []string{"ungrounded answer: 503"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			am := &mockAnswerer{
				answerFunc: func(ctx context.Context, query string, history []core.Message) (core.Outcome, error) {
					return tt.outcome, tt.err
				},
			}
			router := &mockRouter{
				executeFunc: func(ctx context.Context, sessionID, input string) (string, bool) {
					assert.Equal(t, SessionID, sessionID)
					if input == "/docs" {
						return "routed /docs", true
					}
					return "", false
				},
			}

			r := &ReadLine{session: assistant.NewSession(SessionID, am, assistant.Options{}), router: router}
			out := r.respond(ctx, tt.input)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}
