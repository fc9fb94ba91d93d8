package mcptools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/park285/llm-chess-arena/internal/adapter/matchpresenter"
	"github.com/park285/llm-chess-arena/internal/agents"
	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/park285/llm-chess-arena/internal/match"
	"github.com/park285/llm-chess-arena/internal/msgcat"
)

const startBoard = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

// idleService never answers a move; the tests stay well inside the first wait.
type idleService struct{}

func (idleService) State(ctx context.Context) (domain.MatchState, error) {
	return domain.MatchState{Board: startBoard, SideToMove: domain.White}, nil
}

func (idleService) AgentMove(ctx context.Context, side domain.Side, agent domain.AgentID) (domain.MoveReply, error) {
	<-ctx.Done()
	return domain.MoveReply{}, ctx.Err()
}

func (idleService) Reset(ctx context.Context) error { return nil }

func newTools(t *testing.T) (*Tools, *match.Orchestrator) {
	t.Helper()
	reg := agents.NewRegistry()
	o := match.New(idleService{},
		match.WithCatalog(reg),
		match.WithConfig(match.Config{InitialDelay: time.Minute, MinDelay: 250 * time.Millisecond, MaxDelay: 2 * time.Minute}),
	)
	t.Cleanup(o.Close)
	if _, err := o.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	return New(o, reg, matchpresenter.NewFormatter(msgcat.Default())), o
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("empty result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("first content is %T", res.Content[0])
	}
	return tc.Text
}

func TestStartMatchFromIdle(t *testing.T) {
	tools, o := newTools(t)
	res, err := tools.handleStartMatch(context.Background(), call(map[string]any{"first": "OPENAI", "second": "CLAUDE"}))
	if err != nil || res.IsError {
		t.Fatalf("start_match failed: %v %s", err, text(t, res))
	}
	if !strings.Contains(text(t, res), "(white)") {
		t.Fatalf("unexpected text %q", text(t, res))
	}
	if o.Snapshot().Mode != match.ModePlaying {
		t.Fatalf("mode %s", o.Snapshot().Mode)
	}
}

func TestStartMatchRejectsSameAgent(t *testing.T) {
	tools, _ := newTools(t)
	res, _ := tools.handleStartMatch(context.Background(), call(map[string]any{"first": "OPENAI", "second": "OPENAI"}))
	if !res.IsError || !strings.Contains(text(t, res), "list_agents") {
		t.Fatalf("expected agent error, got %q", text(t, res))
	}
}

func TestPauseWhileIdleIsToolError(t *testing.T) {
	tools, _ := newTools(t)
	res, _ := tools.handlePause(context.Background(), call(nil))
	if !res.IsError {
		t.Fatalf("pause from idle should fail")
	}
}

func TestSetMoveDelay(t *testing.T) {
	tools, o := newTools(t)
	res, _ := tools.handleSetMoveDelay(context.Background(), call(map[string]any{"ms": 500}))
	if res.IsError || o.Snapshot().MoveDelay != 500*time.Millisecond {
		t.Fatalf("delay not applied: %q", text(t, res))
	}
	res, _ = tools.handleSetMoveDelay(context.Background(), call(map[string]any{"ms": 10}))
	if !res.IsError {
		t.Fatalf("out of range delay accepted")
	}
}

func TestGetSnapshotText(t *testing.T) {
	tools, _ := newTools(t)
	res, _ := tools.handleGetSnapshot(context.Background(), call(nil))
	got := text(t, res)
	if !strings.Contains(got, "Idle") || !strings.Contains(got, "No moves yet") {
		t.Fatalf("unexpected snapshot text:\n%s", got)
	}
	res, _ = tools.handleGetSnapshot(context.Background(), call(map[string]any{"format": "json"}))
	if !strings.Contains(text(t, res), `"mode": "idle"`) {
		t.Fatalf("json snapshot: %s", text(t, res))
	}
}

func TestListAgents(t *testing.T) {
	tools, _ := newTools(t)
	res, _ := tools.handleListAgents(context.Background(), call(nil))
	if lines := strings.Split(text(t, res), "\n"); len(lines) != len(agents.DefaultAgents) {
		t.Fatalf("got %d agents", len(lines))
	}
}
