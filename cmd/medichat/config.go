package main

import (
	"fmt"

	"github.com/sandevgo/medichat/internal/config"
	"github.com/sandevgo/medichat/pkg/env"
	"github.com/spf13/cobra"
)

var showSecrets bool

var configCmd = &cobra.Command{
	Use:          "config",
	Short:        "Print the effective configuration as .env lines",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		appCfg, err := config.ParseAppConfig()
		if err != nil {
			return err
		}
		sections := []any{appCfg, config.NewLLMConfig(ctx), config.NewEmbeddingConfig(ctx)}
		if appCfg.IsTelegramSelected() {
			sections = append(sections, config.NewTelegramConfig(ctx))
		}

		var opts []env.Option
		if !showSecrets {
			opts = append(opts, env.WithMaskedSecrets())
		}

		out := cmd.OutOrStdout()
		for _, section := range sections {
			lines, err := env.MarshalEnv(section, opts...)
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			fmt.Fprint(out, lines)
		}
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print API keys and tokens unmasked")
	rootCmd.AddCommand(configCmd)
}
