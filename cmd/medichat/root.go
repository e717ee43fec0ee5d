package main

import (
	"context"
	"io"
	"os"

	"github.com/sandevgo/medichat/internal/config"
	"github.com/sandevgo/medichat/internal/service/ui"
	"github.com/sandevgo/medichat/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug bool
	files []string
)

var rootCmd = &cobra.Command{
	Use:   "medichat",
	Short: "MediChat, a medical document assistant",
	Long: `MediChat answers medical questions. Questions about "the document"
are answered only from the files you give it, with cited sources.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
	CustomizeHelp(rootCmd)
}

// addFileFlag registers --file on commands that preload documents.
func addFileFlag(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "document to index before starting (repeatable)")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	return setupLoggerTo(ctx, os.Stdout)
}

func setupLoggerTo(ctx context.Context, out io.Writer) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithWriter(ctx, isDebug, out)
}

func CustomizeHelp(rootCmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleTitle", func(s string) string { return ui.TitleStyle.Render(s) })
	cobra.AddTemplateFunc("StyleUsage", func(s string) string { return ui.UsageStyle.Render(s) })
	cobra.AddTemplateFunc("StyleFlag", func(s string) string { return ui.FlagStyle.Render(s) })
	cobra.AddTemplateFunc("StyleDesc", func(s string) string { return ui.DescStyle.Render(s) })

	template := `
{{StyleTitle "USAGE"}}
  {{StyleUsage .UseLine}}
{{if gt (len .Commands) 0}}{{StyleTitle "AVAILABLE COMMANDS"}}
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding}} {{StyleDesc .Short}}{{end}}
{{end}}{{end}}
{{if .HasAvailableLocalFlags}}{{StyleTitle "FLAGS"}}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}
`
	rootCmd.SetHelpTemplate(template)
}
