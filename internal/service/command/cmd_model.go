package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/medichat/internal/core"
)

type ModelCommand struct {
	cfg       core.ProviderConfig
	models    ModelSwitcher
	formatter *ResponseFormatter
}

func NewModelCommand(
	cfg core.ProviderConfig,
	models ModelSwitcher,
) *ModelCommand {
	return &ModelCommand{
		cfg:       cfg,
		models:    models,
		formatter: NewResponseFormatter(),
	}
}

func (c *ModelCommand) Name() string {
	return "model"
}

func (c *ModelCommand) Description() string {
	return "Show or change current model"
}

func (c *ModelCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	if len(args) == 0 {
		return c.formatter.Combine(
			c.formatter.Info("Current Model"),
			c.formatter.Label("Provider", c.cfg.GetProvider()),
			c.formatter.Label("Model", c.models.GetModel()),
			c.formatter.Usage("/model [model]"),
			c.formatter.Examples([]string{
				"/model gpt-4o-mini",
				"/model openai/gpt-4o",
				"/model llama3.1:8b",
			}),
		), nil
	}

	if err := c.models.SetModel(ctx, args[0]); err != nil {
		return "", fmt.Errorf("failed to set model: %w", err)
	}

	return c.formatter.Combine(
		c.formatter.Success(fmt.Sprintf("Model changed to: `%s/%s`", c.cfg.GetProvider(), c.models.GetModel())),
	), nil
}
