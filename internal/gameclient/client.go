package gameclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/valyala/fasthttp"
)

const maxErrorBody = 512

// ErrNoState is returned when the service answers 2xx without a board.
var ErrNoState = errors.New("game service returned no board")

// Client talks to the remote game service. It owns no game state.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	header  map[string]string

	timeout    time.Duration
	stateTries int
}

type Option func(*Client)

// WithTimeout bounds each request when the caller's context has no earlier
// deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHeader adds a static header to every request, e.g. an API key in front
// of the service.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if k := strings.TrimSpace(key); k != "" {
			c.header[k] = value
		}
	}
}

// WithStateRetry sets how many attempts the idempotent state read gets.
// Moves and resets are never retried.
func WithStateRetry(n int) Option {
	return func(c *Client) { c.stateTries = n }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &fasthttp.Client{
			Name:            "llm-chess-arena",
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    10 * time.Second,
			MaxConnsPerHost: 4,
		},
		header:     make(map[string]string),
		timeout:    30 * time.Second,
		stateTries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.stateTries < 1 {
		c.stateTries = 1
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// call describes one endpoint invocation.
type call struct {
	method string
	path   string
	body   any
	tries  int
}

// State reads the current authoritative state.
func (c *Client) State(ctx context.Context) (domain.MatchState, error) {
	var resp *stateResponse
	if err := c.do(ctx, call{method: fasthttp.MethodGet, path: "/game_state", tries: c.stateTries}, &resp); err != nil {
		return domain.MatchState{}, err
	}
	if !resp.hasBoard() {
		return domain.MatchState{}, fmt.Errorf("/game_state: %w", ErrNoState)
	}
	return resp.matchState(), nil
}

// AgentMove asks the service to let agent play one ply for side. The service
// answers null once the agent has used up its attempts without a legal move;
// that is reported as an illegal move.
func (c *Client) AgentMove(ctx context.Context, side domain.Side, agent domain.AgentID) (domain.MoveReply, error) {
	body := agentMoveRequest{Turn: side.Turn(), Model: string(agent)}
	var resp *stateResponse
	if err := c.do(ctx, call{method: fasthttp.MethodPost, path: "/ai_move", body: body, tries: 1}, &resp); err != nil {
		return domain.MoveReply{}, err
	}
	return moveReply(resp, "/ai_move")
}

// HumanMove submits a board-widget drop. Used by operator tooling only.
func (c *Client) HumanMove(ctx context.Context, move HumanMoveRequest) (domain.MoveReply, error) {
	if strings.TrimSpace(move.SourceSquare) == "" || strings.TrimSpace(move.TargetSquare) == "" {
		return domain.MoveReply{}, errors.New("source and target squares are required")
	}
	var resp *stateResponse
	if err := c.do(ctx, call{method: fasthttp.MethodPost, path: "/move", body: move, tries: 1}, &resp); err != nil {
		return domain.MoveReply{}, err
	}
	return moveReply(resp, "/move")
}

func moveReply(resp *stateResponse, path string) (domain.MoveReply, error) {
	switch {
	case resp == nil:
		return domain.MoveReply{Illegal: true}, nil
	case resp.IllegalMove:
		return domain.MoveReply{State: resp.matchState(), Illegal: true}, nil
	case !resp.hasBoard():
		return domain.MoveReply{}, fmt.Errorf("%s: %w", path, ErrNoState)
	}
	return domain.MoveReply{State: resp.matchState()}, nil
}

// Reset restores the initial position on the service.
func (c *Client) Reset(ctx context.Context) error {
	var resp resetResponse
	if err := c.do(ctx, call{method: fasthttp.MethodGet, path: "/reset", tries: 1}, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return errors.New("game service refused reset")
	}
	return nil
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	var payload []byte
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", cl.path, err)
		}
		payload = b
	}

	var err error
	for attempt := 1; ; attempt++ {
		var retryable bool
		retryable, err = c.send(ctx, cl, payload, out)
		if err == nil || !retryable || attempt >= cl.tries {
			break
		}
		// 상태 조회만 여기까지 온다
		wait := time.NewTimer(retryDelay(attempt))
		select {
		case <-ctx.Done():
			wait.Stop()
			return err
		case <-wait.C:
		}
	}
	return err
}

// send performs a single round trip and reports whether a failure is worth
// another attempt.
func (c *Client) send(ctx context.Context, cl call, payload []byte, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + cl.path)
	req.Header.SetMethod(cl.method)
	req.Header.SetContentType("application/json")
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	if payload != nil {
		req.SetBodyRaw(payload)
	}

	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return ctx.Err() == nil, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}

	code := resp.StatusCode()
	if code < 200 || code > 299 {
		body := resp.Body()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return code >= 500 && code != 501, &StatusError{Code: code, Body: string(body)}
	}
	if out == nil {
		return false, nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", cl.path, err)
	}
	return false, nil
}

// deadline is the earlier of the context deadline and the client timeout.
func (c *Client) deadline(ctx context.Context) time.Time {
	dl := time.Now().Add(c.timeout)
	if ctxDL, ok := ctx.Deadline(); ok && ctxDL.Before(dl) {
		return ctxDL
	}
	return dl
}

// retryDelay grows linearly: 150ms, 300ms, ... capped at 1s.
func retryDelay(attempt int) time.Duration {
	d := time.Duration(attempt) * 150 * time.Millisecond
	if d > time.Second {
		d = time.Second
	}
	return d
}
