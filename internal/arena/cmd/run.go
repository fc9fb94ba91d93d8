package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/park285/llm-chess-arena/internal/adapter/matchpresenter"
	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/park285/llm-chess-arena/internal/match"
	"github.com/spf13/cobra"
)

// arena run
func Run() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <first-agent> <second-agent>",
		Short: "Play one match headless and print every ply",
		Args:  cobra.ExactArgs(2),
		Long: heredoc.Doc(`run plays a single match between two agents without the
			console. Colours are assigned at random. Every ply is printed
			as it lands and the command exits when the match stops.

			With --png the board image is rewritten after each ply,
			which is handy to keep open in an image viewer.`),
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

			orch := deps.Orchestrator
			if ms, _ := cmd.Flags().GetInt("delay"); ms > 0 {
				if err := orch.SetMoveDelay(time.Duration(ms) * time.Millisecond); err != nil {
					return err
				}
			}
			if orch.Snapshot().State.Board == "" {
				if _, err := orch.Sync(ctx); err != nil {
					return err
				}
			}

			var sendImage func([]byte) error
			if path, _ := cmd.Flags().GetString("png"); path != "" {
				sendImage = func(b []byte) error { return os.WriteFile(path, b, 0o644) }
			}
			presenter := matchpresenter.NewPresenter(nil, sendImage, nil)
			fmtr := deps.Formatter

			// 옵저버는 오케스트레이터를 다시 부르면 안 되므로 채널로만 넘긴다.
			events := make(chan match.Event, 256)
			orch.Subscribe(func(ev match.Event) { events <- ev })

			if err := orch.OpenSelection(); err != nil {
				return err
			}
			b, err := orch.Start(domain.AgentID(args[0]), domain.AgentID(args[1]))
			if err != nil {
				return err
			}
			fmt.Println(fmtr.Started(b))

			s := spinner.New(spinner.CharSets[spin], 100*time.Millisecond)
			s.Writer = os.Stderr
			s.Suffix = " " + fmtr.Waiting(orch.Snapshot())
			s.Start()
			defer s.Stop()

			for {
				select {
				case <-ctx.Done():
					s.Stop()
					fmt.Println(fmtr.Summary(orch.Snapshot()))
					return nil
				case ev := <-events:
					switch ev.Kind {
					case match.EventPly:
						s.Stop()
						printPly(ev.Ply)
						if err := presenter.Board(ctx, "", ev.Snapshot); err != nil {
							fmt.Fprintf(os.Stderr, "board image: %v\n", err)
						}
						s.Suffix = " " + fmtr.Waiting(ev.Snapshot)
						s.Start()
					case match.EventStopped:
						s.Stop()
						return finish(fmtr, ev.Snapshot)
					}
				}
			}
		},
	}
	cmd.Flags().Int("delay", 0, "Move delay in milliseconds (default from MOVE_DELAY_MS)")
	cmd.Flags().String("png", "", "Write the board PNG here after each ply")
	return cmd
}

func printPly(e *domain.MoveLogEntry) {
	if e == nil {
		return
	}
	move := e.SAN
	if move == "" {
		move = e.UCI
	}
	if move == "" {
		move = "?"
	}
	fmt.Printf("%3d. %-6s %-8s \x1b[34m%s\x1b[0m\n", e.Ply, e.Side, move, e.Agent)
}

// finish prints the final summary. A match that stopped for any reason other
// than the game ending is reported as an error.
func finish(fmtr *matchpresenter.Formatter, snap match.Snapshot) error {
	fmt.Println()
	fmt.Println(fmtr.Board(snap.State.Board))
	fmt.Println(fmtr.Finished(snap))
	if snap.Status.Kind != match.StatusGameOver {
		return fmt.Errorf("match stopped: %s", snap.Status.Kind)
	}
	return nil
}
