package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/park285/llm-chess-arena/internal/adapter/matchpresenter"
	"github.com/park285/llm-chess-arena/internal/arenabuilder"
	"github.com/spf13/cobra"
)

// arena state
func State() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the game service's current position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			deps, err := loadDeps(ctx, arenabuilder.WithoutSinks(), arenabuilder.WithoutInitialSync())
			if err != nil {
				return err
			}
			defer deps.Close(ctx)

			if _, err := deps.Orchestrator.Sync(ctx); err != nil {
				return err
			}
			snap := deps.Orchestrator.Snapshot()

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(snap.State)
			}
			fmt.Println(deps.Formatter.Board(snap.State.Board))
			fmt.Println(deps.Formatter.Turn(snap))
			if snap.State.Checkmate || snap.State.GameOver {
				fmt.Println(deps.Messages.RenderOr("status.game_over", nil, "Game over"))
			}

			if path, _ := cmd.Flags().GetString("png"); path != "" {
				p := matchpresenter.NewPresenter(nil, func(b []byte) error { return os.WriteFile(path, b, 0o644) }, nil)
				if err := p.Board(ctx, "", snap); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the raw state as JSON")
	cmd.Flags().String("png", "", "Also write the board as a PNG image")
	return cmd
}
