package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sandevgo/medichat/internal/service/assistant"
	"github.com/sandevgo/medichat/internal/transport/cli"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:          "ask [question]",
	Short:        "Answer a single question and exit",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	Example:      `  medichat ask -f leaflet.pdf "What does the document say about the dosage?"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := NewApp(ctx, appOptions{})
		defer shutdownNow(ctx, app.Services())
		app.Preload(ctx, files)

		outcome, err := app.Sessions.Get(cli.SessionID).Ask(ctx, strings.Join(args, " "))
		if err != nil {
			return errors.New(assistant.FormatError(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderOutcome(outcome))
		return nil
	},
}

func init() {
	addFileFlag(askCmd)
	rootCmd.AddCommand(askCmd)
}
