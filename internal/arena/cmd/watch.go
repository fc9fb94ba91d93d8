package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/park285/llm-chess-arena/internal/adapter/matchpresenter"
	"github.com/park285/llm-chess-arena/internal/console"
	"github.com/park285/llm-chess-arena/internal/feed"
	"github.com/park285/llm-chess-arena/internal/match"
	"github.com/park285/llm-chess-arena/internal/msgcat"
	"github.com/park285/llm-chess-arena/internal/obslog"
	"github.com/spf13/cobra"
)

// arena watch
func Watch() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a running arena from another terminal",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`watch prints plies and status changes of a match that is
			running elsewhere. By default it connects to the console
			websocket; with --redis it follows the arena:events channel
			instead, which works without access to the console.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			msgs, err := msgcat.New(os.Getenv("MESSAGES_DIR"))
			if err != nil {
				return err
			}
			fmtr := matchpresenter.NewFormatter(msgs)

			if redisURL, _ := cmd.Flags().GetString("redis"); redisURL != "" {
				return watchFeed(ctx, redisURL)
			}

			base, _ := cmd.Flags().GetString("console")
			if base == "" {
				base = os.Getenv("CONSOLE_ADDR")
			}
			if base == "" {
				base = "127.0.0.1:8090"
			}
			w := console.NewWatcher(console.WebSocketURL(base), console.WithWatcherLogger(obslog.Named("watch")))
			w.OnEvent(func(ev match.Event) { printEvent(fmtr, ev) })
			err = w.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().String("console", "", "Console address (default CONSOLE_ADDR)")
	cmd.Flags().String("redis", "", "Follow the Redis feed at this URL instead")
	return cmd
}

func printEvent(fmtr *matchpresenter.Formatter, ev match.Event) {
	switch ev.Kind {
	case console.EventSnapshot:
		fmt.Println(fmtr.Summary(ev.Snapshot))
	case match.EventPly:
		printPly(ev.Ply)
	case match.EventModeChanged:
		fmt.Printf("-- %s\n", fmtr.ModeLabel(ev.Snapshot.Mode))
		if ev.Snapshot.Mode == match.ModePlaying && len(ev.Snapshot.Moves) == 0 && ev.Snapshot.Binding != nil {
			fmt.Println(fmtr.Started(*ev.Snapshot.Binding))
		}
	case match.EventStopped:
		fmt.Println(fmtr.Finished(ev.Snapshot))
	case match.EventStatus:
		if msg := strings.TrimSpace(ev.Snapshot.Status.Message); msg != "" {
			fmt.Printf("!! %s\n", msg)
		}
	case match.EventReset:
		fmt.Println("-- reset")
	}
}

func watchFeed(ctx context.Context, redisURL string) error {
	rdb, err := feed.Connect(ctx, redisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()

	err = feed.Follow(ctx, rdb, func(ev feed.Event) {
		switch ev.Kind {
		case string(match.EventPly):
			printPly(ev.Ply)
		case string(match.EventStopped):
			fmt.Printf("-- stopped: %s\n", ev.Message)
		case string(match.EventModeChanged):
			fmt.Printf("-- %s %s\n", ev.Mode, ev.MatchID)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
