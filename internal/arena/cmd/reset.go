package cmd

import (
	"fmt"

	"github.com/park285/llm-chess-arena/internal/arenabuilder"
	"github.com/spf13/cobra"
)

// arena reset
func Reset() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the game service to the initial position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			deps, err := loadDeps(ctx, arenabuilder.WithoutSinks(), arenabuilder.WithoutInitialSync())
			if err != nil {
				return err
			}
			defer deps.Close(ctx)

			if err := deps.Orchestrator.Reset(ctx); err != nil {
				return err
			}
			fmt.Println(deps.Formatter.Board(deps.Orchestrator.Snapshot().State.Board))
			return nil
		},
	}
}
