package cmd

import (
	"context"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/mark3labs/mcp-go/server"
	"github.com/park285/llm-chess-arena/internal/mcptools"
	"github.com/spf13/cobra"
)

const mcpServerVersion = "0.3.0"

// arena mcp
func MCP() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the arena controls as MCP tools over stdio",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`mcp runs an MCP server on stdin/stdout so an assistant can
			list agents, start, pause, resume and reset matches and read
			the board. Logs go to stderr; stdout belongs to the protocol.

			The match runs inside this process, exactly as with serve.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := loadDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				deps.Close(cctx)
			}()

			s := server.NewMCPServer("llm-chess-arena", mcpServerVersion)
			mcptools.New(deps.Orchestrator, deps.Registry, deps.Formatter).Register(s)
			return server.ServeStdio(s)
		},
	}
}
