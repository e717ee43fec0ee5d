package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/medichat/internal/service/library"
	"github.com/sandevgo/medichat/internal/transport/mcp"
	"github.com/sandevgo/medichat/pkg/srv"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant as MCP tools over stdio",
	Long: `Exposes ask, ingest_file, ingest_url, list_documents and history as Model Context
Protocol tools on stdin/stdout. Logs go to stderr.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLoggerTo(ctx, os.Stderr)
		defer flushLog()

		app := NewApp(ctx, appOptions{})
		app.Preload(ctx, files)

		server := mcp.NewServer(app.Sessions, app.Library, app.Fetcher, os.Stdin, os.Stdout)
		var background []srv.Service
		if dir := app.Config.WatchDir; dir != "" {
			background = append(background, library.NewWatcher(dir, app.Library))
		}
		srv.StartServices(ctx, background)

		err := server.Start(ctx)
		stop()
		srv.ShutdownServices(ctx, app.Services(background...))
		return err
	},
}

func init() {
	addFileFlag(mcpCmd)
	rootCmd.AddCommand(mcpCmd)
}
