package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/park285/llm-chess-arena/internal/arenabuilder"
	"github.com/park285/llm-chess-arena/internal/config"
	"github.com/park285/llm-chess-arena/internal/obslog"
	"github.com/spf13/cobra"
)

// spinner charset used by every waiting command
const spin = 14

func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "arena",
		Short: "Run LLM vs LLM chess matches against a remote game service",
		Args:  cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if v, _ := cmd.Flags().GetString("service"); v != "" {
				if err := os.Setenv("GAME_SERVICE_URL", v); err != nil {
					return err
				}
			}
			opts := obslog.OptionsFromEnv()
			if cmd.Flag("debug").Changed {
				opts.Level = "debug"
			}
			logger, err := obslog.New(opts)
			if err != nil {
				return err
			}
			obslog.Replace(logger)
			return nil
		},
	}

	// global flags
	root.PersistentFlags().StringP("service", "s", "", "Game service base URL (overrides GAME_SERVICE_URL)")
	root.PersistentFlags().BoolP("debug", "d", false, "Show debug logs")

	root.AddCommand(Serve())
	root.AddCommand(Run())
	root.AddCommand(Agents())
	root.AddCommand(State())
	root.AddCommand(Move())
	root.AddCommand(Reset())
	root.AddCommand(MCP())
	root.AddCommand(Watch())

	return root
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func loadDeps(ctx context.Context, opts ...arenabuilder.Option) (*arenabuilder.Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return arenabuilder.New(ctx, cfg, obslog.L(), opts...)
}
