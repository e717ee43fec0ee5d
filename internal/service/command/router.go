package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sandevgo/medichat/internal/core"
)

type Router struct {
	commands map[string]core.Command
}

// New registers commands plus a /help command listing all of them.
func New(commands []core.Command) *Router {
	c := &Router{
		commands: make(map[string]core.Command),
	}

	for _, cmd := range commands {
		c.commands[cmd.Name()] = cmd
	}
	if _, ok := c.commands["help"]; !ok {
		help := NewHelpCommand(c)
		c.commands[help.Name()] = help
	}
	return c
}

func (c *Router) Execute(ctx context.Context, sessionID, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", false
	}

	parts := strings.Fields(input)
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	// telegram appends the bot name in groups: /help@medichat_bot
	name, _, _ = strings.Cut(name, "@")
	args := parts[1:]

	cmd, ok := c.commands[name]
	if !ok {
		return fmt.Sprintf("Unknown command: /%s. Type /help for the list.", name), true
	}

	result, err := cmd.Execute(ctx, sessionID, args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), true
	}
	return result, true
}

// ListCommands returns the commands sorted by name.
func (c *Router) ListCommands() []core.Command {
	res := make([]core.Command, 0, len(c.commands))
	for _, cmd := range c.commands {
		res = append(res, cmd)
	}
	slices.SortFunc(res, func(a, b core.Command) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return res
}
