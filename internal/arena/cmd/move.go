package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/park285/llm-chess-arena/internal/arenabuilder"
	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/park285/llm-chess-arena/internal/match"
	"github.com/park285/llm-chess-arena/internal/obslog"
	"github.com/spf13/cobra"
)

// arena move
func Move() *cobra.Command {
	return &cobra.Command{
		Use:   "move <agent>",
		Short: "Ask one agent for a single move",
		Args:  cobra.ExactArgs(1),
		Long: heredoc.Doc(`move asks the given agent to play one move for whichever
			side is to move in the service's current position, prints
			the result and exits. No match is started, so nothing is
			published or archived.

			Useful to check that a model id works before putting it in
			a full match.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			deps, err := loadDeps(ctx, arenabuilder.WithoutSinks(), arenabuilder.WithoutInitialSync())
			if err != nil {
				return err
			}
			defer deps.Close(ctx)

			agent := domain.AgentID(args[0])
			if !deps.Registry.Contains(agent) {
				return fmt.Errorf("%w: unknown agent %q", match.ErrInvalidAgents, agent)
			}

			st, err := match.FetchState(ctx, deps.Client)
			if err != nil {
				return err
			}
			if match.Terminal(st) {
				return match.ErrGameOver
			}

			table := match.NewTable(st)
			driver := match.NewDriver(deps.Client, table,
				match.WithMoveTimeout(deps.Config.MoveTimeout),
				match.WithDriverLogger(obslog.Named("driver")),
			)

			s := spinner.New(spinner.CharSets[spin], 100*time.Millisecond)
			s.Writer = os.Stderr
			s.Suffix = fmt.Sprintf(" %s (%s) is thinking", agent, st.SideToMove)
			s.Start()
			res, err := driver.RequestMove(ctx, st.SideToMove, agent)
			s.Stop()

			switch {
			case errors.Is(err, match.ErrIllegalMove):
				fmt.Printf("\x1b[31m%s made an illegal move\x1b[0m\n", agent)
				return err
			case err != nil:
				return err
			}
			printPly(res.Entry)
			fmt.Println(deps.Formatter.Board(res.State.Board))
			if res.Outcome == match.OutcomeGameOver {
				fmt.Println(deps.Messages.RenderOr("status.game_over", nil, "Game over"))
			}
			return nil
		},
	}
}
