package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/park285/llm-chess-arena/internal/match"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message is the JSON published on ChannelEvents.
type Message struct {
	Kind    match.EventKind      `json:"kind"`
	Seq     uint64               `json:"seq"`
	MatchID string               `json:"match_id,omitempty"`
	Mode    match.Mode           `json:"mode"`
	State   domain.MatchState    `json:"state"`
	Status  match.Status         `json:"status"`
	Ply     *domain.MoveLogEntry `json:"ply,omitempty"`
	At      time.Time            `json:"at"`
}

// wire mirror of Message used for decoding; Mode and Kind arrive as text
type wireMessage struct {
	Kind    string               `json:"kind"`
	Seq     uint64               `json:"seq"`
	MatchID string               `json:"match_id,omitempty"`
	Mode    string               `json:"mode"`
	State   domain.MatchState    `json:"state"`
	Ply     *domain.MoveLogEntry `json:"ply,omitempty"`
	Status  struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"status"`
}

// Publisher forwards orchestrator events to Redis off the event path. When
// the buffer is full events are dropped, never blocking the match.
type Publisher struct {
	rdb     *redis.Client
	store   *Store
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time

	ch       chan match.Event
	wg       sync.WaitGroup
	stopOnce sync.Once
	mu       sync.Mutex
	closed   bool
}

func NewPublisher(rdb *redis.Client, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{
		rdb:     rdb,
		store:   NewStore(rdb),
		logger:  logger,
		timeout: 2 * time.Second,
		now:     time.Now,
		ch:      make(chan match.Event, 256),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *Publisher) Store() *Store { return p.store }

// Observe is a match.Observer.
func (p *Publisher) Observe(ev match.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.ch <- ev:
	default:
		p.logger.Warn("feed_event_dropped", zap.Uint64("seq", ev.Seq), zap.String("kind", string(ev.Kind)))
	}
}

// Close drains queued events and stops the worker.
func (p *Publisher) Close(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.ch)
		p.mu.Unlock()
	})
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for ev := range p.ch {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.handle(ctx, ev); err != nil {
			p.logger.Warn("feed_publish_failed", zap.Uint64("seq", ev.Seq), zap.Error(err))
		}
		cancel()
	}
}

func (p *Publisher) handle(ctx context.Context, ev match.Event) error {
	snap := ev.Snapshot
	msg := Message{
		Kind:   ev.Kind,
		Seq:    ev.Seq,
		Mode:   snap.Mode,
		State:  snap.State,
		Status: snap.Status,
		Ply:    ev.Ply,
		At:     p.now(),
	}
	if snap.Binding != nil {
		msg.MatchID = snap.Binding.MatchID
	}

	// 대국 시작 시 바인딩 기록
	if ev.Kind == match.EventModeChanged && snap.Mode == match.ModePlaying && snap.Binding != nil && len(snap.Moves) == 0 {
		if err := p.store.SaveMatch(ctx, *snap.Binding); err != nil {
			return err
		}
	}
	if ev.Ply != nil && msg.MatchID != "" {
		if err := p.store.AppendPly(ctx, msg.MatchID, *ev.Ply); err != nil {
			return err
		}
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, ChannelEvents, raw).Err()
}

// Event is a decoded feed message for spectators.
type Event struct {
	Kind    string
	Seq     uint64
	MatchID string
	Mode    string
	State   domain.MatchState
	Ply     *domain.MoveLogEntry
	Status  string
	Message string
}

// Follow subscribes to ChannelEvents and calls fn for each message until ctx
// ends.
func Follow(ctx context.Context, rdb *redis.Client, fn func(Event)) error {
	sub := rdb.Subscribe(ctx, ChannelEvents)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var w wireMessage
			if err := json.Unmarshal([]byte(m.Payload), &w); err != nil {
				continue
			}
			fn(Event{
				Kind:    w.Kind,
				Seq:     w.Seq,
				MatchID: w.MatchID,
				Mode:    w.Mode,
				State:   w.State,
				Ply:     w.Ply,
				Status:  w.Status.Kind,
				Message: w.Status.Message,
			})
		}
	}
}
