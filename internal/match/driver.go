package match

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/park285/llm-chess-arena/internal/domain"
	"go.uber.org/zap"
)

// MoveService is the move side of the game service.
type MoveService interface {
	AgentMove(ctx context.Context, side domain.Side, agent domain.AgentID) (domain.MoveReply, error)
}

type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeGameOver
	OutcomeIllegalMove
	OutcomeTransportFailure
	// OutcomeDiscarded is a reply for a match that was reset meanwhile.
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeGameOver:
		return "game_over"
	case OutcomeIllegalMove:
		return "illegal_move"
	case OutcomeTransportFailure:
		return "transport_failure"
	case OutcomeDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Result describes one completed move request. State is the canonical state
// after the request, which is the pre-move state for failures.
type Result struct {
	Outcome Outcome
	Side    domain.Side
	Agent   domain.AgentID
	State   domain.MatchState
	Entry   *domain.MoveLogEntry
}

const DefaultMoveTimeout = 30 * time.Second

// Driver issues agent move requests with at most one outstanding at a time.
type Driver struct {
	svc     MoveService
	table   *Table
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger

	// settle runs with the guard still held
	settle func(Result, error)

	inFlight atomic.Bool
}

type DriverOption func(*Driver)

func WithMoveTimeout(d time.Duration) DriverOption {
	return func(dr *Driver) {
		if d > 0 {
			dr.timeout = d
		}
	}
}

func WithDriverLogger(l *zap.Logger) DriverOption {
	return func(dr *Driver) {
		if l != nil {
			dr.logger = l
		}
	}
}

func WithDriverClock(now func() time.Time) DriverOption {
	return func(dr *Driver) {
		if now != nil {
			dr.now = now
		}
	}
}

func NewDriver(svc MoveService, table *Table, opts ...DriverOption) *Driver {
	d := &Driver{
		svc:     svc,
		table:   table,
		timeout: DefaultMoveTimeout,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Busy reports whether a move request is outstanding.
func (d *Driver) Busy() bool { return d.inFlight.Load() }

// RequestMove asks agent to play one ply for side. A second call while one is
// outstanding returns ErrMoveInFlight without contacting the service.
func (d *Driver) RequestMove(ctx context.Context, side domain.Side, agent domain.AgentID) (res Result, err error) {
	if !d.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrMoveInFlight
	}
	defer d.inFlight.Store(false)
	defer func() {
		if d.settle != nil {
			d.settle(res, err)
		}
	}()

	before, round := d.table.current()
	res = Result{Side: side, Agent: agent, State: before}

	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	start := time.Now()
	reply, callErr := d.svc.AgentMove(reqCtx, side, agent)
	elapsed := time.Since(start)

	if !d.table.inRound(round) {
		res.Outcome = OutcomeDiscarded
		res.State = d.table.State()
		d.logger.Info("stale_reply_discarded",
			zap.String("side", side.String()),
			zap.String("agent", string(agent)),
			zap.Duration("elapsed", elapsed),
			zap.Bool("failed", callErr != nil || reply.Illegal),
		)
		return res, nil
	}

	if callErr != nil {
		res.Outcome = OutcomeTransportFailure
		err = &TransportError{
			Op:      "agent_move",
			Timeout: errors.Is(reqCtx.Err(), context.DeadlineExceeded) || errors.Is(callErr, context.DeadlineExceeded),
			Err:     callErr,
		}
		d.logger.Warn("agent_move_failed",
			zap.String("side", side.String()),
			zap.String("agent", string(agent)),
			zap.Duration("elapsed", elapsed),
			zap.Error(callErr),
		)
		return res, err
	}

	if reply.Illegal {
		res.Outcome = OutcomeIllegalMove
		d.logger.Warn("agent_illegal_move",
			zap.String("side", side.String()),
			zap.String("agent", string(agent)),
			zap.String("board", reply.State.Board),
		)
		return res, ErrIllegalMove
	}

	if strings.TrimSpace(reply.State.Board) == "" {
		res.Outcome = OutcomeTransportFailure
		err = &TransportError{Op: "agent_move", Err: ErrNoBoard}
		d.logger.Warn("agent_move_failed",
			zap.String("side", side.String()),
			zap.String("agent", string(agent)),
			zap.Error(err),
		)
		return res, err
	}

	uci, san := annotatePly(before.Board, reply.State.Board, side)
	entry, ok := d.table.apply(round, reply.State, domain.MoveLogEntry{
		Side:  side,
		Agent: agent,
		UCI:   uci,
		SAN:   san,
		Board: reply.State.Board,
		At:    d.now(),
	})
	if !ok {
		res.Outcome = OutcomeDiscarded
		res.State = d.table.State()
		d.logger.Info("stale_ply_discarded",
			zap.String("side", side.String()),
			zap.String("agent", string(agent)),
			zap.String("uci", uci),
		)
		return res, nil
	}
	res.State = reply.State
	res.Entry = &entry
	res.Outcome = OutcomeApplied
	if Terminal(reply.State) {
		res.Outcome = OutcomeGameOver
	}
	d.logger.Info("ply_applied",
		zap.Int("ply", entry.Ply),
		zap.String("side", side.String()),
		zap.String("agent", string(agent)),
		zap.String("uci", uci),
		zap.String("san", san),
		zap.Duration("elapsed", elapsed),
		zap.Bool("game_over", res.Outcome == OutcomeGameOver),
	)
	return res, nil
}
