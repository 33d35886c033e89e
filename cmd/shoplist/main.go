package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/shoplist/internal/config"
	"github.com/dukerupert/shoplist/internal/logging"
)

type rootOptions struct {
	configDir string
	logLevel  string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "shoplist",
		Short:        "Shared shopping list server and client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configDir)
			if err != nil {
				return err
			}
			level := cfg.Log.Level
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			opts.cfg = cfg
			opts.logger = logging.Setup(level, cfg.Log.File)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", ".", "directory holding the .env file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (debug|info|warn|error)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newUserCommand(opts))
	cmd.AddCommand(newRecipeCommand(opts))
	cmd.AddCommand(newClientCommand(opts))

	return cmd
}
