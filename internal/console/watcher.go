package console

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/park285/llm-chess-arena/internal/match"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type EventCallback func(match.Event)

type WatcherState int

const (
	WatcherDisconnected WatcherState = iota
	WatcherConnecting
	WatcherConnected
	WatcherReconnecting
	WatcherFailed
)

func (s WatcherState) String() string {
	switch s {
	case WatcherConnecting:
		return "connecting"
	case WatcherConnected:
		return "connected"
	case WatcherReconnecting:
		return "reconnecting"
	case WatcherFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// Watcher follows a console /ws stream and reconnects with backoff.
type Watcher struct {
	wsURL string

	state  WatcherState
	stateM sync.RWMutex

	cbs []EventCallback
	cbM sync.RWMutex

	maxReconnectAttempts int
	pingInterval         time.Duration
	header               http.Header
	logger               *zap.Logger
}

type WatcherOption func(*Watcher)

func WithReconnectAttempts(n int) WatcherOption {
	return func(w *Watcher) { w.maxReconnectAttempts = n }
}

func WithPingInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.pingInterval = d
		}
	}
}

func WithWatcherLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithHeader adds a handshake header, e.g. an auth token in front of a proxy.
func WithHeader(k, v string) WatcherOption {
	return func(w *Watcher) {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			return
		}
		w.header.Set(k, v)
	}
}

// WebSocketURL turns a console base URL (http[s]://host:port) into its /ws URL.
func WebSocketURL(base string) string {
	u := strings.TrimRight(strings.TrimSpace(base), "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	case !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://"):
		u = "ws://" + u
	}
	if !strings.HasSuffix(u, "/ws") {
		u += "/ws"
	}
	return u
}

func NewWatcher(wsURL string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		wsURL:                wsURL,
		state:                WatcherDisconnected,
		maxReconnectAttempts: 5,
		pingInterval:         30 * time.Second,
		header:               http.Header{},
		logger:               zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Watcher) OnEvent(cb EventCallback) {
	w.cbM.Lock()
	defer w.cbM.Unlock()
	w.cbs = append(w.cbs, cb)
}

func (w *Watcher) State() WatcherState {
	w.stateM.RLock()
	defer w.stateM.RUnlock()
	return w.state
}

func (w *Watcher) setState(s WatcherState) {
	w.stateM.Lock()
	w.state = s
	w.stateM.Unlock()
}

// Run blocks until ctx ends or reconnect attempts are exhausted. The attempt
// counter resets after every successful connection.
func (w *Watcher) Run(ctx context.Context) error {
	attempt := 0
	for {
		w.setState(WatcherConnecting)
		err := w.session(ctx)
		if ctx.Err() != nil {
			w.setState(WatcherDisconnected)
			return ctx.Err()
		}
		if err == nil {
			attempt = 0
		}
		attempt++
		if attempt > w.maxReconnectAttempts {
			w.setState(WatcherFailed)
			if err == nil {
				err = errors.New("websocket closed")
			}
			return err
		}
		w.setState(WatcherReconnecting)
		w.logger.Info("ws_reconnecting", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			w.setState(WatcherDisconnected)
			return ctx.Err()
		case <-time.After(backoffDuration(attempt)):
		}
	}
}

// session returns nil when a connection was established and later lost.
func (w *Watcher) session(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, w.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      w.header,
	})
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "close")
	w.setState(WatcherConnected)

	sessCtx, stop := context.WithCancel(ctx)
	defer stop()
	go w.pingLoop(sessCtx, conn, stop)

	for {
		var ev match.Event
		if err := wsjson.Read(sessCtx, conn, &ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.setState(WatcherDisconnected)
			return nil
		}
		w.cbM.RLock()
		callbacks := make([]EventCallback, len(w.cbs))
		copy(callbacks, w.cbs)
		w.cbM.RUnlock()
		for _, cb := range callbacks {
			cb(ev)
		}
	}
}

func (w *Watcher) pingLoop(ctx context.Context, conn *websocket.Conn, stop context.CancelFunc) {
	t := time.NewTicker(w.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				failures++
				if failures >= 2 {
					stop()
					return
				}
				continue
			}
			failures = 0
		}
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}
