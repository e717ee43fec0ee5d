// Package assistant runs conversational turns: it keeps the conversation
// log around each call to the answer orchestrator.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sandevgo/medichat/internal/core"
	"github.com/sandevgo/medichat/internal/service/conversation"
	"github.com/sandevgo/medichat/pkg/log"
)

var ErrEmptyQuery = errors.New("question is empty")

type Answerer interface {
	AnswerWithHistory(ctx context.Context, query string, history []core.Message) (core.Outcome, error)
}

type Options struct {
	MaxHistory      int
	ContextMessages int
	Transcripts     core.TranscriptRepository
	// IdleTTL drops sessions unused for longer than this. Zero keeps them forever.
	IdleTTL time.Duration
}

type Session struct {
	id       string
	conv     *conversation.Conversation
	answerer Answerer
	opts     Options

	// one turn at a time per session
	turnMu sync.Mutex
}

func NewSession(id string, answerer Answerer, opts Options) *Session {
	return &Session{
		id:       id,
		conv:     conversation.New(opts.MaxHistory),
		answerer: answerer,
		opts:     opts,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Conversation() *conversation.Conversation {
	return s.conv
}

// Ask answers one user turn. The user message is recorded before answering;
// the assistant message only when the turn did not fail.
func (s *Session) Ask(ctx context.Context, input string) (core.Outcome, error) {
	query := SanitizeInput(input)
	if query == "" {
		return core.Outcome{}, ErrEmptyQuery
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	logger := log.FromCtx(ctx).With().Str("session", s.id).Logger()

	history := s.conv.ContextMessages(s.opts.ContextMessages)

	userMsg, err := s.conv.AddUserMessage(query)
	if err != nil {
		return core.Outcome{}, fmt.Errorf("failed to record question: %w", err)
	}
	s.persist(ctx, userMsg)

	outcome, err := s.answerer.AnswerWithHistory(ctx, query, history)
	if err != nil {
		logger.Error().Err(err).Str("path", string(outcome.Path)).Msg("turn failed")
		return outcome, err
	}

	assistantMsg, err := s.conv.AddAssistantMessage(outcome.Text, outcome.Citations)
	if err != nil {
		return outcome, fmt.Errorf("failed to record answer: %w", err)
	}
	s.persist(ctx, assistantMsg)

	logger.Info().
		Str("intent", outcome.Intent.String()).
		Str("outcome", outcome.Kind.String()).
		Str("path", string(outcome.Path)).
		Int("citations", len(outcome.Citations)).
		Msg("turn answered")
	return outcome, nil
}

// persist failures are logged, the in-memory conversation stays authoritative.
func (s *Session) persist(ctx context.Context, msg core.Message) {
	if s.opts.Transcripts == nil {
		return
	}
	if err := s.opts.Transcripts.SaveMessage(ctx, s.conv.ID(), msg); err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("session", s.id).Msg("failed to save transcript message")
	}
}

// Manager hands out one Session per transport session id.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	lastUsed  map[string]time.Time
	lastSweep time.Time
	answerer  Answerer
	opts      Options
	now       func() time.Time
}

func NewManager(answerer Answerer, opts Options) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		lastUsed: make(map[string]time.Time),
		answerer: answerer,
		opts:     opts,
		now:      time.Now,
	}
}

func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweepLocked(now)
	m.lastUsed[id] = now

	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := NewSession(id, m.answerer, m.opts)
	m.sessions[id] = s
	return s
}

func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweepLocked(now)

	s, ok := m.sessions[id]
	if ok {
		m.lastUsed[id] = now
	}
	return s, ok
}

func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.lastUsed, id)
}

// sweepLocked evicts idle sessions, at most twice per IdleTTL.
func (m *Manager) sweepLocked(now time.Time) {
	ttl := m.opts.IdleTTL
	if ttl <= 0 || now.Sub(m.lastSweep) < ttl/2 {
		return
	}
	m.lastSweep = now

	for id, used := range m.lastUsed {
		if now.Sub(used) > ttl {
			delete(m.sessions, id)
			delete(m.lastUsed, id)
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
