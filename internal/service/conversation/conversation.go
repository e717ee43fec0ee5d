// Package conversation keeps the bounded message log of one chat session.
package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/sandevgo/medichat/internal/core"
)

const (
	DefaultMaxHistory      = 20
	DefaultContextMessages = 10

	idLayout = "20060102_150405"
)

type Conversation struct {
	mu         sync.RWMutex
	id         string
	startedAt  time.Time
	maxHistory int
	messages   []core.Message
	now        func() time.Time
}

type Option func(*Conversation)

// WithClock replaces time.Now, used for ids, timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		c.now = now
	}
}

// New creates an empty conversation. Non-positive maxHistory falls back to the default.
func New(maxHistory int, opts ...Option) *Conversation {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	c := &Conversation{
		maxHistory: maxHistory,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c
}

func (c *Conversation) reset() {
	c.startedAt = c.now()
	c.id = c.startedAt.Format(idLayout)
	c.messages = nil
}

func (c *Conversation) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

func (c *Conversation) StartedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startedAt
}

func (c *Conversation) MaxHistory() int {
	return c.maxHistory
}

// Add appends msg, dropping the oldest messages beyond the retention bound.
func (c *Conversation) Add(msg core.Message) error {
	if _, err := core.ParseRole(string(msg.Role)); err != nil {
		return err
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = c.now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)
	if over := len(c.messages) - c.maxHistory; over > 0 {
		// copy so the dropped prefix can be collected
		c.messages = append([]core.Message(nil), c.messages[over:]...)
	}
	return nil
}

func (c *Conversation) AddUserMessage(content string) (core.Message, error) {
	return c.add(core.RoleUser, content, nil)
}

func (c *Conversation) AddAssistantMessage(content string, sources []core.RetrievalResult) (core.Message, error) {
	return c.add(core.RoleAssistant, content, sources)
}

func (c *Conversation) add(role core.Role, content string, sources []core.RetrievalResult) (core.Message, error) {
	msg, err := core.NewMessage(role, content, sources...)
	if err != nil {
		return core.Message{}, fmt.Errorf("failed to create message: %w", err)
	}
	msg.Timestamp = c.now()
	if err := c.Add(msg); err != nil {
		return core.Message{}, err
	}
	return msg, nil
}

// History returns a copy of all retained messages, oldest first.
func (c *Conversation) History() []core.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]core.Message(nil), c.messages...)
}

// ContextMessages returns the last n messages. Non-positive n yields none.
func (c *Conversation) ContextMessages(n int) []core.Message {
	if n <= 0 {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	start := max(len(c.messages)-n, 0)
	return append([]core.Message(nil), c.messages[start:]...)
}

// Clear drops all messages and starts a new conversation id.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Conversation) LastUserMessage() (core.Message, bool) {
	return c.last(core.RoleUser)
}

func (c *Conversation) LastAssistantMessage() (core.Message, bool) {
	return c.last(core.RoleAssistant)
}

func (c *Conversation) last(role core.Role) (core.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for n := len(c.messages) - 1; n >= 0; n-- {
		if c.messages[n].Role == role {
			return c.messages[n], true
		}
	}
	return core.Message{}, false
}

func (c *Conversation) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

func (c *Conversation) CountByRole(role core.Role) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	count := 0
	for _, m := range c.messages {
		if m.Role == role {
			count++
		}
	}
	return count
}

// Sources lists distinct cited source names in first-citation order.
func (c *Conversation) Sources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	var sources []string
	for _, m := range c.messages {
		if m.Role != core.RoleAssistant {
			continue
		}
		for _, s := range m.Sources {
			name := s.Metadata.Source()
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			sources = append(sources, name)
		}
	}
	return sources
}
