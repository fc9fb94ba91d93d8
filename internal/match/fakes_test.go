package match

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/park285/llm-chess-arena/internal/domain"
)

const (
	startBoard = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"
	afterE4    = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR"
	afterE5    = "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR"
)

var (
	startState = domain.MatchState{Board: startBoard, SideToMove: domain.White}
	e4State    = domain.MatchState{Board: afterE4, SideToMove: domain.Black}
	e5State    = domain.MatchState{Board: afterE5, SideToMove: domain.White}
)

type moveCall struct {
	Side  domain.Side
	Agent domain.AgentID
}

type fakeReply struct {
	reply domain.MoveReply
	err   error
}

// fakeService serves queued replies. When gate is set, AgentMove signals
// entered and waits for gate before answering.
type fakeService struct {
	mu         sync.Mutex
	state      domain.MatchState
	stateErr   error
	resetState domain.MatchState
	resetErr   error
	replies    []fakeReply
	calls      []moveCall
	resets     int
	stateReads int

	entered chan struct{}
	gate    chan struct{}
}

func newFakeService(initial domain.MatchState) *fakeService {
	return &fakeService{state: initial, resetState: startState}
}

func (f *fakeService) queue(r domain.MoveReply) {
	f.mu.Lock()
	f.replies = append(f.replies, fakeReply{reply: r})
	f.mu.Unlock()
}

func (f *fakeService) queueErr(err error) {
	f.mu.Lock()
	f.replies = append(f.replies, fakeReply{err: err})
	f.mu.Unlock()
}

func (f *fakeService) State(ctx context.Context) (domain.MatchState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateReads++
	if f.stateErr != nil {
		return domain.MatchState{}, f.stateErr
	}
	return f.state, nil
}

func (f *fakeService) AgentMove(ctx context.Context, side domain.Side, agent domain.AgentID) (domain.MoveReply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, moveCall{Side: side, Agent: agent})
	entered, gate := f.entered, f.gate
	f.mu.Unlock()

	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.MoveReply{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return domain.MoveReply{}, errors.New("no reply queued")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	if r.err == nil && !r.reply.Illegal {
		f.state = r.reply.State
	}
	return r.reply, r.err
}

func (f *fakeService) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	if f.resetErr != nil {
		return f.resetErr
	}
	f.state = f.resetState
	return nil
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// manualClock fires timers only from Advance, on the caller's goroutine.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	c       *manualClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// Advance moves time forward and runs every timer that became due.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

// Pending returns the remaining wait of every live timer.
func (c *manualClock) Pending() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Duration
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t.at.Sub(c.now))
		}
	}
	return out
}

// whiteFirst puts the first agent on White.
type whiteFirst struct{}

func (whiteFirst) Assign(first, second domain.AgentID) domain.AgentBinding {
	return domain.AgentBinding{MatchID: "m-1", White: first, Black: second}
}
