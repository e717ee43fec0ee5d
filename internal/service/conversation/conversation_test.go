package conversation

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/sandevgo/medichat/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)}
}

func TestConversation_ID(t *testing.T) {
	clock := newClock()
	c := New(0, WithClock(clock.Now))

	assert.Equal(t, "20240309_140507", c.ID())
	assert.Equal(t, DefaultMaxHistory, c.MaxHistory())

	clock.Advance(time.Minute)
	c.Clear()
	assert.Equal(t, "20240309_140607", c.ID())
}

func TestConversation_RetentionWindow(t *testing.T) {
	c := New(DefaultMaxHistory, WithClock(newClock().Now))

	total := DefaultMaxHistory + 5
	for n := range total {
		_, err := c.AddUserMessage(fmt.Sprintf("message %d", n))
		require.NoError(t, err)
	}

	history := c.History()
	require.Len(t, history, DefaultMaxHistory)
	assert.Equal(t, "message 5", history[0].Content)
	assert.Equal(t, fmt.Sprintf("message %d", total-1), history[len(history)-1].Content)
}

func TestConversation_RejectsInvalidRole(t *testing.T) {
	c := New(5)

	err := c.Add(core.Message{Role: "system", Content: "you are a bot"})
	assert.ErrorIs(t, err, core.ErrInvalidRole)
	assert.Zero(t, c.Count())
}

func TestConversation_HistoryIsCopy(t *testing.T) {
	c := New(5)
	_, err := c.AddUserMessage("original")
	require.NoError(t, err)

	history := c.History()
	history[0].Content = "mutated"

	assert.Equal(t, "original", c.History()[0].Content)
}

func TestConversation_ContextMessages(t *testing.T) {
	c := New(10)
	for n := range 4 {
		_, err := c.AddUserMessage(fmt.Sprintf("m%d", n))
		require.NoError(t, err)
	}

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{name: "zero", n: 0, want: nil},
		{name: "negative", n: -1, want: nil},
		{name: "last two", n: 2, want: []string{"m2", "m3"}},
		{name: "more than held", n: 9, want: []string{"m0", "m1", "m2", "m3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, m := range c.ContextMessages(tt.n) {
				got = append(got, m.Content)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConversation_LastAndCounts(t *testing.T) {
	c := New(10)

	_, ok := c.LastUserMessage()
	assert.False(t, ok)

	_, err := c.AddUserMessage("q1")
	require.NoError(t, err)
	_, err = c.AddAssistantMessage("a1", nil)
	require.NoError(t, err)
	_, err = c.AddUserMessage("q2")
	require.NoError(t, err)

	user, ok := c.LastUserMessage()
	require.True(t, ok)
	assert.Equal(t, "q2", user.Content)

	assistant, ok := c.LastAssistantMessage()
	require.True(t, ok)
	assert.Equal(t, "a1", assistant.Content)

	assert.Equal(t, 3, c.Count())
	assert.Equal(t, 2, c.CountByRole(core.RoleUser))
	assert.Equal(t, 1, c.CountByRole(core.RoleAssistant))

	c.Clear()
	assert.Zero(t, c.Count())
}

func TestConversation_Sources(t *testing.T) {
	c := New(10)
	cite := func(source string) core.RetrievalResult {
		return core.RetrievalResult{Content: "x", Metadata: core.Metadata{core.MetaSource: source}}
	}

	_, err := c.AddAssistantMessage("a1", []core.RetrievalResult{cite("b.pdf"), cite("a.pdf")})
	require.NoError(t, err)
	_, err = c.AddAssistantMessage("a2", []core.RetrievalResult{cite("a.pdf"), cite(""), cite("c.txt")})
	require.NoError(t, err)

	assert.Equal(t, []string{"b.pdf", "a.pdf", "c.txt"}, c.Sources())
}

func TestConversation_Summary(t *testing.T) {
	clock := newClock()
	c := New(10, WithClock(clock.Now))

	_, err := c.AddUserMessage("hello")
	require.NoError(t, err)
	_, err = c.AddAssistantMessage("hi", nil)
	require.NoError(t, err)

	clock.Advance(3*time.Minute + 20*time.Second)
	s := c.Summary()

	assert.Equal(t, "20240309_140507", s.ConversationID)
	assert.Equal(t, 2, s.TotalMessages)
	assert.Equal(t, 1, s.UserMessages)
	assert.Equal(t, 1, s.AssistantMessages)
	assert.Equal(t, "3m 20s", s.DurationText)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "0s"},
		{in: 42 * time.Second, want: "42s"},
		{in: 3*time.Minute + 20*time.Second, want: "3m 20s"},
		{in: time.Hour + 5*time.Minute + 9*time.Second, want: "1h 5m"},
		{in: -time.Second, want: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}

func TestConversation_Export(t *testing.T) {
	clock := newClock()
	c := New(10, WithClock(clock.Now))

	_, err := c.AddUserMessage("What is metformin?")
	require.NoError(t, err)
	clock.Advance(2 * time.Second)
	_, err = c.AddAssistantMessage("A diabetes drug.", nil)
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		out, err := c.Export(FormatText)
		require.NoError(t, err)
		assert.Equal(t, "[14:05:07] USER:\nWhat is metformin?\n\n[14:05:09] ASSISTANT:\nA diabetes drug.\n", out)
	})

	t.Run("json", func(t *testing.T) {
		out, err := c.Export(FormatJSON)
		require.NoError(t, err)

		var got transcript
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, c.ID(), got.ConversationID)
		require.Len(t, got.Messages, 2)
		assert.Equal(t, core.RoleAssistant, got.Messages[1].Role)
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := c.Export(FormatYAML)
		require.NoError(t, err)

		var got transcript
		require.NoError(t, yaml.Unmarshal([]byte(out), &got))
		require.Len(t, got.Messages, 2)
		assert.Equal(t, "What is metformin?", got.Messages[0].Content)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := c.Export("xml")
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("csv")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
