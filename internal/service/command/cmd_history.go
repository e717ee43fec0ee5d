package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sandevgo/medichat/internal/service/assistant"
)

const (
	defaultHistoryItems = 10
	historyPreviewRunes = 200
)

type HistoryCommand struct {
	sessions  Sessions
	formatter *ResponseFormatter
}

func NewHistoryCommand(sessions Sessions) *HistoryCommand {
	return &HistoryCommand{
		sessions:  sessions,
		formatter: NewResponseFormatter(),
	}
}

func (c *HistoryCommand) Name() string {
	return "history"
}

func (c *HistoryCommand) Description() string {
	return "Show recent messages of this conversation"
}

func (c *HistoryCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	n := defaultHistoryItems
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return c.formatter.Usage("/history [count]"), nil
		}
		n = v
	}

	messages := c.sessions.Get(sessionID).Conversation().ContextMessages(n)
	if len(messages) == 0 {
		return c.formatter.Combine(
			c.formatter.Info("History"),
			"No messages yet.",
		), nil
	}

	items := make([]string, len(messages))
	for i, m := range messages {
		items[i] = fmt.Sprintf("[%s] **%s**: %s",
			m.Timestamp.Format("15:04:05"),
			strings.ToUpper(string(m.Role)),
			assistant.Truncate(m.Content, historyPreviewRunes))
	}

	return c.formatter.Combine(
		c.formatter.Info("History"),
		c.formatter.List(items),
	), nil
}
