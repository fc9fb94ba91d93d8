package cmd

import (
	"context"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/park285/llm-chess-arena/internal/console"
	"github.com/park285/llm-chess-arena/internal/obslog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// arena serve
func Serve() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the operator console",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`serve starts the HTTP console on CONSOLE_ADDR (default
			127.0.0.1:8090). Agents are chosen and matches are started,
			paused, resumed and reset through the JSON API; /ws streams
			every state change.

			When REDIS_URL is set each ply is published to the
			arena:events channel, and when DATABASE_URL is set finished
			matches are archived to Postgres, otherwise in memory.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			deps, err := loadDeps(ctx)
			if err != nil {
				return err
			}
			defer func() {
				cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				deps.Close(cctx)
			}()

			addr := deps.Config.ConsoleAddr
			if v, _ := cmd.Flags().GetString("addr"); v != "" {
				addr = v
			}

			opts := []console.Option{console.WithLogger(obslog.Named("console"))}
			if deps.Archive != nil {
				opts = append(opts, console.WithHistory(deps.Archive))
			}
			srv := console.NewServer(deps.Orchestrator, deps.Registry, opts...)
			obslog.L().Info("arena_serve",
				zap.String("service", deps.Client.BaseURL()),
				zap.String("addr", addr),
				zap.Bool("feed", deps.Publisher != nil),
				zap.Bool("archive_db", deps.Config.DatabaseURL != ""),
			)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides CONSOLE_ADDR)")
	return cmd
}
