package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/medichat/internal/config"
	"github.com/sandevgo/medichat/internal/service/library"
	"github.com/sandevgo/medichat/internal/transport/http"
	"github.com/sandevgo/medichat/internal/transport/telegram"
	"github.com/sandevgo/medichat/pkg/log"
	"github.com/sandevgo/medichat/pkg/srv"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the enabled transports (Telegram, HTTP API) and the document watcher",
	Long: `Starts every transport enabled in the configuration:
MEDICHAT_ENABLE_TELEGRAM, MEDICHAT_ENABLE_HTTP and MEDICHAT_WATCH_DIR.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		app := NewApp(ctx, appOptions{})
		app.Preload(ctx, files)

		var transports []srv.Service
		if app.Config.IsTelegramSelected() {
			bot, err := telegram.NewBot(ctx, config.NewTelegramConfig(ctx), app.Sessions, app.Router, app.Library, app.Config.GetMaxUploadBytes())
			if err != nil {
				return err
			}
			transports = append(transports, bot)
		}
		if app.Config.IsHTTPSelected() {
			transports = append(transports, http.NewServer(ctx, app.Config.HTTPAddr, app.HTTPSessions, app.Library, app.Config.GetMaxUploadBytes()))
		}
		if len(transports) == 0 {
			shutdownNow(ctx, app.Services())
			return errors.New("no transport enabled, set MEDICHAT_ENABLE_TELEGRAM or MEDICHAT_ENABLE_HTTP")
		}
		if dir := app.Config.WatchDir; dir != "" {
			transports = append(transports, library.NewWatcher(dir, app.Library))
		}

		services := app.Services(transports...)
		logger.Info().Int("services", len(services)).Msg("starting medichat")

		srv.StartServices(ctx, services)
		srv.ShutdownServices(ctx, services)

		logger.Info().Msg("medichat has been shut down gracefully")
		return nil
	},
}

func init() {
	addFileFlag(serveCmd)
	rootCmd.AddCommand(serveCmd)
}
