package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/park285/llm-chess-arena/internal/agents"
	"github.com/park285/llm-chess-arena/internal/domain"
	"go.uber.org/zap"
)

type Mode int

const (
	ModeIdle Mode = iota
	ModeAwaitingAssignment
	ModePlaying
	ModePaused
	ModeStopped
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeAwaitingAssignment:
		return "awaiting_assignment"
	case ModePlaying:
		return "playing"
	case ModePaused:
		return "paused"
	case ModeStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	for c := ModeIdle; c <= ModeStopped; c++ {
		if c.String() == string(b) {
			*m = c
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", b)
}

// Service is everything the orchestrator needs from the game service.
type Service interface {
	StateReader
	MoveService
	Reset(ctx context.Context) error
}

// Catalog validates agent ids at start.
type Catalog interface {
	Contains(id domain.AgentID) bool
}

type Assigner interface {
	Assign(first, second domain.AgentID) domain.AgentBinding
}

type Config struct {
	InitialDelay time.Duration
	MinDelay     time.Duration
	MaxDelay     time.Duration
	MoveTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		InitialDelay: 1500 * time.Millisecond,
		MinDelay:     250 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		MoveTimeout:  DefaultMoveTimeout,
	}
}

// Snapshot is a read-only copy of everything a renderer needs.
type Snapshot struct {
	Mode        Mode                  `json:"mode"`
	Binding     *domain.AgentBinding  `json:"binding,omitempty"`
	State       domain.MatchState     `json:"state"`
	Moves       []domain.MoveLogEntry `json:"moves"`
	Status      Status                `json:"status"`
	MoveDelay   time.Duration         `json:"-"`
	MoveDelayMs int64                 `json:"move_delay_ms"`
	InFlight    bool                  `json:"in_flight"`
}

type EventKind string

const (
	EventModeChanged  EventKind = "mode_changed"
	EventPly          EventKind = "ply"
	EventStopped      EventKind = "stopped"
	EventStatus       EventKind = "status"
	EventReset        EventKind = "reset"
	EventSynced       EventKind = "synced"
	EventDelayChanged EventKind = "delay_changed"
)

type Event struct {
	Kind     EventKind            `json:"kind"`
	Seq      uint64               `json:"seq"`
	Ply      *domain.MoveLogEntry `json:"ply,omitempty"`
	Snapshot Snapshot             `json:"snapshot"`
}

type Observer func(Event)

type observerEntry struct {
	id int
	fn Observer
}

// Orchestrator owns the match: mode, binding, status, delay and the timer.
// One mutex guards all of it; network calls run outside the lock.
type Orchestrator struct {
	mu      sync.Mutex
	mode    Mode
	binding *domain.AgentBinding
	status  Status
	delay   time.Duration
	timer   Timer
	armedAt time.Time
	gen     uint64
	closed  bool

	cfg      Config
	svc      Service
	table    *Table
	driver   *Driver
	assigner Assigner
	catalog  Catalog
	msgs     Messages
	clock    Clock
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	emitMu    sync.Mutex
	seq       uint64
	obsMu     sync.RWMutex
	observers []observerEntry
	nextObs   int
}

type Option func(*Orchestrator)

func WithConfig(cfg Config) Option { return func(o *Orchestrator) { o.cfg = cfg } }

func WithClock(c Clock) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.clock = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMessages(m Messages) Option { return func(o *Orchestrator) { o.msgs = m } }

func WithCatalog(c Catalog) Option { return func(o *Orchestrator) { o.catalog = c } }

func WithAssigner(a Assigner) Option {
	return func(o *Orchestrator) {
		if a != nil {
			o.assigner = a
		}
	}
}

// New builds an idle orchestrator. Call Sync to load the initial state.
func New(svc Service, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		mode:     ModeIdle,
		cfg:      DefaultConfig(),
		svc:      svc,
		table:    NewTable(domain.MatchState{}),
		assigner: agents.NewAssigner(),
		clock:    systemClock{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	def := DefaultConfig()
	if o.cfg.InitialDelay <= 0 {
		o.cfg.InitialDelay = def.InitialDelay
	}
	if o.cfg.MinDelay <= 0 {
		o.cfg.MinDelay = def.MinDelay
	}
	if o.cfg.MaxDelay < o.cfg.MinDelay {
		o.cfg.MaxDelay = def.MaxDelay
	}
	if o.cfg.MoveTimeout <= 0 {
		o.cfg.MoveTimeout = def.MoveTimeout
	}
	o.delay = clampDelay(o.cfg.InitialDelay, o.cfg.MinDelay, o.cfg.MaxDelay)

	o.ctx, o.cancel = context.WithCancel(context.Background())
	o.driver = NewDriver(svc, o.table,
		WithMoveTimeout(o.cfg.MoveTimeout),
		WithDriverLogger(o.logger),
		WithDriverClock(o.clock.Now),
	)
	o.driver.settle = o.settle
	return o
}

func clampDelay(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// Sync replaces the canonical state with a fresh read from the service.
func (o *Orchestrator) Sync(ctx context.Context) (domain.MatchState, error) {
	st, err := FetchState(ctx, o.svc)
	if err != nil {
		o.logger.Warn("state_sync_failed", zap.Error(err))
		o.mu.Lock()
		o.status = transportStatus(o.msgs, err, o.clock.Now())
		o.commitLocked(EventStatus, nil)
		return domain.MatchState{}, err
	}
	o.table.replace(st)
	o.mu.Lock()
	o.commitLocked(EventSynced, nil)
	return st, nil
}

func (o *Orchestrator) OpenSelection() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	switch o.mode {
	case ModeAwaitingAssignment:
		o.mu.Unlock()
		return nil
	case ModeIdle:
		o.mode = ModeAwaitingAssignment
		o.commitLocked(EventModeChanged, nil)
		return nil
	default:
		mode := o.mode
		o.mu.Unlock()
		return transitionError("open selection", mode)
	}
}

// Start assigns colours and begins autoplay.
func (o *Orchestrator) Start(first, second domain.AgentID) (domain.AgentBinding, error) {
	first = domain.AgentID(strings.TrimSpace(string(first)))
	second = domain.AgentID(strings.TrimSpace(string(second)))
	if first == "" || second == "" || first == second {
		return domain.AgentBinding{}, ErrInvalidAgents
	}
	if o.catalog != nil {
		for _, id := range []domain.AgentID{first, second} {
			if !o.catalog.Contains(id) {
				return domain.AgentBinding{}, fmt.Errorf("%w: unknown agent %q", ErrInvalidAgents, id)
			}
		}
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return domain.AgentBinding{}, ErrClosed
	}
	if o.mode != ModeAwaitingAssignment {
		mode := o.mode
		o.mu.Unlock()
		return domain.AgentBinding{}, transitionError("start", mode)
	}
	st := o.table.State()
	if strings.TrimSpace(st.Board) == "" {
		o.mu.Unlock()
		return domain.AgentBinding{}, ErrNotSynced
	}
	if Terminal(st) {
		o.mu.Unlock()
		return domain.AgentBinding{}, ErrGameOver
	}
	b := o.assigner.Assign(first, second)
	o.binding = &b
	o.mode = ModePlaying
	o.status = Status{}
	o.table.clearLog()
	o.armLocked()
	o.logger.Info("match_start",
		zap.String("match_id", b.MatchID),
		zap.String("white", string(b.White)),
		zap.String("black", string(b.Black)),
		zap.Duration("move_delay", o.delay),
	)
	o.commitLocked(EventModeChanged, nil)
	return b, nil
}

// Pause stops scheduling. An outstanding request still completes and is
// applied.
func (o *Orchestrator) Pause() error {
	o.mu.Lock()
	if o.mode != ModePlaying {
		mode := o.mode
		o.mu.Unlock()
		return transitionError("pause", mode)
	}
	o.disarmLocked()
	o.mode = ModePaused
	o.logger.Info("match_paused", zap.Bool("in_flight", o.driver.Busy()))
	o.commitLocked(EventModeChanged, nil)
	return nil
}

// Resume continues a paused match. A stopped match with a binding may also
// be resumed unless the game is over.
func (o *Orchestrator) Resume() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	switch {
	case o.mode == ModePaused:
	case o.mode == ModeStopped && o.binding != nil:
	default:
		mode := o.mode
		o.mu.Unlock()
		return transitionError("resume", mode)
	}
	if Terminal(o.table.State()) {
		o.mu.Unlock()
		return ErrGameOver
	}
	o.mode = ModePlaying
	o.status = Status{}
	o.armLocked()
	o.logger.Info("match_resumed", zap.Duration("move_delay", o.delay))
	o.commitLocked(EventModeChanged, nil)
	return nil
}

// Reset returns to Idle, forgets the binding and the log, resets the service
// and re-reads its state.
func (o *Orchestrator) Reset(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	o.disarmLocked()
	o.mode = ModeIdle
	o.binding = nil
	o.status = Status{}
	o.table.clearLog()
	o.logger.Info("match_reset", zap.Bool("in_flight", o.driver.Busy()))
	o.commitLocked(EventReset, nil)

	if err := o.svc.Reset(ctx); err != nil {
		terr := &TransportError{Op: "reset", Timeout: errors.Is(err, context.DeadlineExceeded), Err: err}
		o.mu.Lock()
		o.status = transportStatus(o.msgs, terr, o.clock.Now())
		o.commitLocked(EventStatus, nil)
		return terr
	}
	_, err := o.Sync(ctx)
	return err
}

// SetMoveDelay changes the wait before the next request. A pending wait is
// shortened or extended as if it had started with the new delay.
func (o *Orchestrator) SetMoveDelay(d time.Duration) error {
	if d < o.cfg.MinDelay || d > o.cfg.MaxDelay {
		return fmt.Errorf("%w: %s not in [%s, %s]", ErrDelayOutOfRange, d, o.cfg.MinDelay, o.cfg.MaxDelay)
	}
	o.mu.Lock()
	prev := o.delay
	o.delay = d
	if o.timer != nil && o.mode == ModePlaying {
		remaining := d - o.clock.Now().Sub(o.armedAt)
		if remaining < 0 {
			remaining = 0
		}
		o.scheduleLocked(remaining)
	}
	o.logger.Info("move_delay_changed", zap.Duration("from", prev), zap.Duration("to", d))
	o.commitLocked(EventDelayChanged, nil)
	return nil
}

func (o *Orchestrator) MoveDelayBounds() (time.Duration, time.Duration) {
	return o.cfg.MinDelay, o.cfg.MaxDelay
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Subscribe registers an observer. Observers run synchronously in event
// order and must not call back into the orchestrator.
func (o *Orchestrator) Subscribe(fn Observer) int {
	o.obsMu.Lock()
	defer o.obsMu.Unlock()
	o.nextObs++
	o.observers = append(o.observers, observerEntry{id: o.nextObs, fn: fn})
	return o.nextObs
}

func (o *Orchestrator) Unsubscribe(id int) {
	o.obsMu.Lock()
	defer o.obsMu.Unlock()
	for i, e := range o.observers {
		if e.id == id {
			o.observers = append(o.observers[:i], o.observers[i+1:]...)
			return
		}
	}
}

// Close stops scheduling and cancels the context handed to the service. A
// client that only honours deadlines may keep its request open until the move
// timeout.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	o.disarmLocked()
	o.cancel()
}

func (o *Orchestrator) armLocked() {
	o.armedAt = o.clock.Now()
	o.scheduleLocked(o.delay)
}

// scheduleLocked is the only place a timer is created.
func (o *Orchestrator) scheduleLocked(wait time.Duration) {
	o.disarmLocked()
	gen := o.gen
	o.timer = o.clock.AfterFunc(wait, func() { o.fire(gen) })
}

func (o *Orchestrator) disarmLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.gen++
}

func (o *Orchestrator) fire(gen uint64) {
	o.mu.Lock()
	if o.closed || gen != o.gen || o.mode != ModePlaying || o.binding == nil {
		o.mu.Unlock()
		return
	}
	o.timer = nil
	st := o.table.State()
	if Terminal(st) || o.driver.Busy() {
		o.mu.Unlock()
		return
	}
	side := st.SideToMove
	agent := o.binding.For(side)
	ctx := o.ctx
	o.mu.Unlock()

	res, err := o.driver.RequestMove(ctx, side, agent)
	if errors.Is(err, ErrMoveInFlight) {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed && o.mode == ModePlaying && res.Outcome == OutcomeApplied {
		o.armLocked()
	}
}

// settle applies the consequences of a move result while the driver still
// holds its guard.
func (o *Orchestrator) settle(res Result, err error) {
	o.mu.Lock()
	active := o.mode == ModePlaying || o.mode == ModePaused
	now := o.clock.Now()
	switch res.Outcome {
	case OutcomeApplied:
		o.commitLocked(EventPly, res.Entry)
	case OutcomeGameOver:
		if active {
			o.stopLocked(gameOverStatus(o.msgs, res.State, o.binding, now))
			o.commitLocked(EventStopped, res.Entry)
			return
		}
		o.commitLocked(EventPly, res.Entry)
	case OutcomeIllegalMove:
		if !active {
			o.mu.Unlock()
			return
		}
		o.stopLocked(illegalStatus(o.msgs, res.Side, res.Agent, now))
		o.commitLocked(EventStopped, nil)
	case OutcomeTransportFailure:
		if !active {
			o.mu.Unlock()
			return
		}
		o.stopLocked(transportStatus(o.msgs, err, now))
		o.commitLocked(EventStopped, nil)
	default:
		o.mu.Unlock()
	}
}

func (o *Orchestrator) stopLocked(st Status) {
	o.disarmLocked()
	o.mode = ModeStopped
	o.status = st
	fields := []zap.Field{zap.String("reason", st.Kind.String()), zap.String("message", st.Message)}
	if o.binding != nil {
		fields = append(fields, zap.String("match_id", o.binding.MatchID))
	}
	if st.Winner != nil {
		fields = append(fields, zap.String("winner", st.Winner.String()))
	}
	o.logger.Info("match_stopped", fields...)
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	s := Snapshot{
		Mode:        o.mode,
		State:       o.table.State(),
		Moves:       o.table.Entries(),
		Status:      o.status,
		MoveDelay:   o.delay,
		MoveDelayMs: o.delay.Milliseconds(),
		InFlight:    o.driver.Busy(),
	}
	if o.binding != nil {
		b := *o.binding
		s.Binding = &b
	}
	return s
}

// commitLocked snapshots under o.mu, releases it and dispatches the event.
// emitMu is taken before o.mu is released so observers see events in the
// order the mutations happened.
func (o *Orchestrator) commitLocked(kind EventKind, ply *domain.MoveLogEntry) {
	snap := o.snapshotLocked()
	o.emitMu.Lock()
	o.mu.Unlock()
	defer o.emitMu.Unlock()

	o.seq++
	ev := Event{Kind: kind, Seq: o.seq, Ply: ply, Snapshot: snap}

	o.obsMu.RLock()
	observers := make([]observerEntry, len(o.observers))
	copy(observers, o.observers)
	o.obsMu.RUnlock()
	for _, e := range observers {
		if e.fn != nil {
			e.fn(ev)
		}
	}
}
