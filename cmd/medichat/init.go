package main

import (
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/medichat/internal/config"
	"github.com/sandevgo/medichat/internal/service/installer"
	"github.com/sandevgo/medichat/pkg/log"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:          "init",
	Short:        "Create the runtime directory and .env with an interactive wizard",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		logger := log.FromCtx(ctx)
		runtimePath := config.GetRuntimePath()

		state, err := installer.RunWizard(runtimePath)
		if err != nil {
			return err
		}

		envPath := filepath.Join(runtimePath, ".env")
		if err := godotenv.Load(envPath); err != nil {
			logger.Warn().Err(err).Str("path", envPath).Msg("failed to load .env file")
		}
		if _, err := config.ParseAppConfig(); err != nil {
			logger.Warn().Err(err).Msg("generated configuration does not validate")
		}

		logger.Info().
			Str("provider", state.Provider()).
			Msgf("initialized runtime directory at: %s", runtimePath)
		logger.Info().Msg("Setup complete! Run 'medichat chat' or 'medichat serve'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
