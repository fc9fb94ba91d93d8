package cmd

import (
	"fmt"

	"github.com/park285/llm-chess-arena/internal/agents"
	"github.com/park285/llm-chess-arena/internal/config"
	"github.com/park285/llm-chess-arena/internal/obslog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// arena agents
func Agents() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "Lists the agent ids that can be put on the board",
		Args:  cobra.ExactArgs(0),

		RunE: func(cmd *cobra.Command, args []string) error {
			var extra []string
			// the catalogue does not need the game service, so a config error
			// only costs the extra agents
			if cfg, err := config.Load(); err == nil {
				extra = cfg.Agents
			} else {
				obslog.L().Debug("agents_config_skipped", zap.Error(err))
			}

			reg := agents.NewRegistry(extra...)
			fmt.Println("\u001B[32mAvailable Agents\u001B[0m:")
			for _, id := range reg.List() {
				fmt.Printf("- \x1b[34m%s\x1b[0m\n", id)
			}
			return nil
		},
	}
}
