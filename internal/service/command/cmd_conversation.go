package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/medichat/internal/service/conversation"
)

type ClearCommand struct {
	sessions  Sessions
	formatter *ResponseFormatter
}

func NewClearCommand(sessions Sessions) *ClearCommand {
	return &ClearCommand{
		sessions:  sessions,
		formatter: NewResponseFormatter(),
	}
}

func (c *ClearCommand) Name() string {
	return "clear"
}

func (c *ClearCommand) Description() string {
	return "Start a new conversation"
}

func (c *ClearCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	conv := c.sessions.Get(sessionID).Conversation()
	conv.Clear()
	return c.formatter.Combine(
		c.formatter.Success("Conversation cleared"),
		c.formatter.Label("Conversation", conv.ID()),
	), nil
}

type SummaryCommand struct {
	sessions  Sessions
	formatter *ResponseFormatter
}

func NewSummaryCommand(sessions Sessions) *SummaryCommand {
	return &SummaryCommand{
		sessions:  sessions,
		formatter: NewResponseFormatter(),
	}
}

func (c *SummaryCommand) Name() string {
	return "summary"
}

func (c *SummaryCommand) Description() string {
	return "Show conversation statistics"
}

func (c *SummaryCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	s := c.sessions.Get(sessionID).Conversation().Summary()

	sources := "none"
	if len(s.Sources) > 0 {
		sources = strings.Join(s.Sources, ", ")
	}

	return c.formatter.Combine(
		c.formatter.Info("Conversation Summary"),
		c.formatter.Label("Conversation", s.ConversationID),
		c.formatter.Label("Messages", fmt.Sprintf("%d (%d user, %d assistant)", s.TotalMessages, s.UserMessages, s.AssistantMessages)),
		c.formatter.Label("Duration", s.DurationText),
		c.formatter.Label("Sources", sources),
	), nil
}

type ExportCommand struct {
	sessions  Sessions
	formatter *ResponseFormatter
}

func NewExportCommand(sessions Sessions) *ExportCommand {
	return &ExportCommand{
		sessions:  sessions,
		formatter: NewResponseFormatter(),
	}
}

func (c *ExportCommand) Name() string {
	return "export"
}

func (c *ExportCommand) Description() string {
	return "Export the conversation as text, json or yaml"
}

func (c *ExportCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	format := conversation.FormatText
	if len(args) > 0 {
		f, err := conversation.ParseFormat(args[0])
		if err != nil {
			return c.formatter.Combine(
				c.formatter.Usage("/export [text|json|yaml]"),
			), nil
		}
		format = f
	}

	conv := c.sessions.Get(sessionID).Conversation()
	if conv.Count() == 0 {
		return "Nothing to export yet.", nil
	}

	out, err := conv.Export(format)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("```%s\n%s\n```", format, strings.TrimRight(out, "\n")), nil
}
