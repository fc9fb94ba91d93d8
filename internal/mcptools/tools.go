// Package mcptools exposes the arena controls as MCP tools over stdio.
package mcptools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/park285/llm-chess-arena/internal/adapter/matchpresenter"
	"github.com/park285/llm-chess-arena/internal/boardimg"
	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/park285/llm-chess-arena/internal/match"
)

type Controller interface {
	Snapshot() match.Snapshot
	OpenSelection() error
	Start(first, second domain.AgentID) (domain.AgentBinding, error)
	Pause() error
	Resume() error
	Reset(ctx context.Context) error
	SetMoveDelay(d time.Duration) error
	MoveDelayBounds() (time.Duration, time.Duration)
}

type AgentLister interface {
	List() []domain.AgentID
}

type Tools struct {
	ctl       Controller
	agents    AgentLister
	formatter *matchpresenter.Formatter
	renderer  *boardimg.Renderer
}

func New(ctl Controller, agents AgentLister, formatter *matchpresenter.Formatter) *Tools {
	if formatter == nil {
		formatter = matchpresenter.NewFormatter(nil)
	}
	return &Tools{
		ctl:       ctl,
		agents:    agents,
		formatter: formatter,
		renderer:  boardimg.NewRenderer(),
	}
}

// Register adds all arena tools to the MCP server.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(listAgentsTool(), t.handleListAgents)
	s.AddTool(getSnapshotTool(), t.handleGetSnapshot)
	s.AddTool(getBoardImageTool(), t.handleGetBoardImage)
	s.AddTool(startMatchTool(), t.handleStartMatch)
	s.AddTool(pauseTool(), t.handlePause)
	s.AddTool(resumeTool(), t.handleResume)
	s.AddTool(resetTool(), t.handleReset)
	s.AddTool(setMoveDelayTool(), t.handleSetMoveDelay)
}

// --- Tool definitions ---

func listAgentsTool() mcp.Tool {
	return mcp.NewTool("list_agents",
		mcp.WithDescription("List the agent ids that can be assigned to a match."),
	)
}

func getSnapshotTool() mcp.Tool {
	return mcp.NewTool("get_snapshot",
		mcp.WithDescription("Current mode, colour binding, board, move list and status. Read-only."),
		mcp.WithString("format", mcp.Description("'text' (default) or 'json'")),
	)
}

func getBoardImageTool() mcp.Tool {
	return mcp.NewTool("get_board_image",
		mcp.WithDescription("Render the current board as a PNG image with the last move highlighted."),
	)
}

func startMatchTool() mcp.Tool {
	return mcp.NewTool("start_match",
		mcp.WithDescription("Start autoplay between two distinct agents. Colours are assigned at random; "+
			"the result says who plays white."),
		mcp.WithString("first", mcp.Required(), mcp.Description("First agent id (see list_agents)")),
		mcp.WithString("second", mcp.Required(), mcp.Description("Second agent id, different from first")),
	)
}

func pauseTool() mcp.Tool {
	return mcp.NewTool("pause",
		mcp.WithDescription("Pause autoplay. A move already requested still completes."),
	)
}

func resumeTool() mcp.Tool {
	return mcp.NewTool("resume",
		mcp.WithDescription("Resume a paused or stopped match, unless the game is over."),
	)
}

func resetTool() mcp.Tool {
	return mcp.NewTool("reset",
		mcp.WithDescription("Reset the game service to the initial position and forget the current match."),
	)
}

func setMoveDelayTool() mcp.Tool {
	return mcp.NewTool("set_move_delay",
		mcp.WithDescription("Change the wait between plies, in milliseconds."),
		mcp.WithNumber("ms", mcp.Required(), mcp.Description("Delay in milliseconds")),
	)
}

// --- Tool handlers ---

func (t *Tools) handleListAgents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var ids []string
	if t.agents != nil {
		for _, id := range t.agents.List() {
			ids = append(ids, string(id))
		}
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (t *Tools) handleGetSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := t.ctl.Snapshot()
	if strings.EqualFold(request.GetString("format", "text"), "json") {
		raw, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return mcp.NewToolResultErrorf("encode snapshot: %v", err), nil
		}
		return mcp.NewToolResultText(string(raw)), nil
	}
	return mcp.NewToolResultText(t.formatter.Summary(snap)), nil
}

func (t *Tools) handleGetBoardImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := t.ctl.Snapshot()
	if snap.State.Board == "" {
		return mcp.NewToolResultError("Board not synced yet."), nil
	}
	opts := boardimg.Options{}
	if n := len(snap.Moves); n > 0 {
		opts.Highlight, _ = boardimg.HighlightFor(snap.Moves[n-1].UCI)
	}
	img, err := t.renderer.RenderPNG(ctx, snap.State.Board, opts)
	if err != nil {
		return mcp.NewToolResultErrorf("Render failed: %v", err), nil
	}
	return mcp.NewToolResultImage(t.formatter.MoveList(snap.Moves), base64.StdEncoding.EncodeToString(img), "image/png"), nil
}

func (t *Tools) handleStartMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	first := domain.AgentID(strings.TrimSpace(request.GetString("first", "")))
	second := domain.AgentID(strings.TrimSpace(request.GetString("second", "")))

	if t.ctl.Snapshot().Mode == match.ModeIdle {
		if err := t.ctl.OpenSelection(); err != nil {
			return toolError(err), nil
		}
	}
	b, err := t.ctl.Start(first, second)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(t.formatter.Started(b)), nil
}

func (t *Tools) handlePause(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.ctl.Pause(); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(t.formatter.ModeLabel(t.ctl.Snapshot().Mode)), nil
}

func (t *Tools) handleResume(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.ctl.Resume(); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(t.formatter.ModeLabel(t.ctl.Snapshot().Mode)), nil
}

func (t *Tools) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.ctl.Reset(ctx); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(t.formatter.Summary(t.ctl.Snapshot())), nil
}

func (t *Tools) handleSetMoveDelay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ms := request.GetInt("ms", -1)
	if ms < 0 {
		return mcp.NewToolResultError("ms must be a non-negative number"), nil
	}
	if err := t.ctl.SetMoveDelay(time.Duration(ms) * time.Millisecond); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(t.ctl.Snapshot().MoveDelay.String()), nil
}

// toolError turns an orchestrator error into a tool-level error the model can
// read and act on.
func toolError(err error) *mcp.CallToolResult {
	var te *match.TransportError
	switch {
	case errors.Is(err, match.ErrInvalidAgents):
		return mcp.NewToolResultErrorf("%v. Use list_agents to pick two different ids.", err)
	case errors.Is(err, match.ErrGameOver):
		return mcp.NewToolResultErrorf("%v. Use reset to start over.", err)
	case errors.Is(err, match.ErrNotSynced):
		return mcp.NewToolResultErrorf("%v. Check the game service and call reset.", err)
	case errors.As(err, &te):
		return mcp.NewToolResultErrorf("%v. The game service may be down.", err)
	default:
		return mcp.NewToolResultError(err.Error())
	}
}
