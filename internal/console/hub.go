package console

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/park285/llm-chess-arena/internal/match"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// EventSnapshot is the kind of the first frame on every websocket.
const EventSnapshot match.EventKind = "snapshot"

const (
	clientBuffer = 64
	writeTimeout = 5 * time.Second
)

type client struct {
	id   int
	send chan match.Event
	done chan struct{}
	once sync.Once
}

func (c *client) close() { c.once.Do(func() { close(c.done) }) }

// hub fans orchestrator events out to websocket clients. A client that
// cannot keep up is dropped instead of slowing the observer.
type hub struct {
	mu      sync.Mutex
	clients map[int]*client
	nextID  int
	logger  *zap.Logger
}

func newHub(logger *zap.Logger) *hub {
	return &hub{clients: make(map[int]*client), logger: logger}
}

func (h *hub) add() *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	c := &client{id: h.nextID, send: make(chan match.Event, clientBuffer), done: make(chan struct{})}
	h.clients[c.id] = c
	return c
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.close()
}

func (h *hub) observe(ev match.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.logger.Warn("ws_client_dropped", zap.Int("client", id), zap.Uint64("seq", ev.Seq))
			delete(h.clients, id)
			c.close()
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		c.close()
	}
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Warn("ws_accept_failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected close")

	// 등록 후 스냅샷을 떠야 사이에 낀 이벤트를 놓치지 않는다.
	c := s.hub.add()
	defer s.hub.remove(c)

	ctx := conn.CloseRead(r.Context())
	if err := writeFrame(ctx, conn, match.Event{Kind: EventSnapshot, Snapshot: s.ctl.Snapshot()}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			// drain what was queued before the drop or shutdown
			for {
				select {
				case ev := <-c.send:
					if err := writeFrame(ctx, conn, ev); err != nil {
						return
					}
				default:
					conn.Close(websocket.StatusGoingAway, "closing")
					return
				}
			}
		case ev := <-c.send:
			if err := writeFrame(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, ev match.Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
