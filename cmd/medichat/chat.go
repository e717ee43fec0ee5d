package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/sandevgo/medichat/internal/service/library"
	"github.com/sandevgo/medichat/internal/transport/cli"
	"github.com/sandevgo/medichat/pkg/log"
	"github.com/sandevgo/medichat/pkg/srv"
	"github.com/spf13/cobra"
)

var chatWatchDir string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		app := NewApp(ctx, appOptions{allowUpload: true})
		app.Preload(ctx, files)

		rl, err := cli.NewReadLine(app.Sessions.Get(cli.SessionID), app.Router, app.Config.GetHistoryFilePath())
		if err != nil {
			return err
		}

		var background []srv.Service
		if dir := firstNonEmpty(chatWatchDir, app.Config.WatchDir); dir != "" {
			background = append(background, library.NewWatcher(dir, app.Library))
		}
		services := app.Services(append(background, rl)...)

		ctx, cancel := context.WithCancel(ctx)
		srv.StartServices(ctx, background)

		err = rl.Start(ctx)
		cancel()
		srv.ShutdownServices(ctx, services)

		log.FromCtx(ctx).Debug().Msg("chat session closed")
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	addFileFlag(chatCmd)
	chatCmd.Flags().StringVarP(&chatWatchDir, "watch", "w", "", "directory to watch for new documents")
	rootCmd.AddCommand(chatCmd)
}
