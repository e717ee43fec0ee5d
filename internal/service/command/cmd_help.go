package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/medichat/internal/core"
)

type HelpCommand struct {
	router    core.CmdRouter
	formatter *ResponseFormatter
}

func NewHelpCommand(router core.CmdRouter) *HelpCommand {
	return &HelpCommand{
		router:    router,
		formatter: NewResponseFormatter(),
	}
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Description() string {
	return "List available commands"
}

func (c *HelpCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	cmds := c.router.ListCommands()
	items := make([]string, len(cmds))
	for i, cmd := range cmds {
		items[i] = fmt.Sprintf("`/%s` %s", cmd.Name(), cmd.Description())
	}

	return c.formatter.Combine(
		c.formatter.Info("Commands"),
		c.formatter.List(items),
		c.formatter.Tip("Ask about your documents, e.g. \"What does the document say about dosage?\""),
	), nil
}
