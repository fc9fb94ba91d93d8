// Package console is the operator surface: a small JSON API plus a
// websocket stream of orchestrator events.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/park285/llm-chess-arena/internal/boardimg"
	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/park285/llm-chess-arena/internal/match"
	"github.com/park285/llm-chess-arena/pkg/matchdto"
	"go.uber.org/zap"
)

// Controller is the slice of the orchestrator the console drives.
type Controller interface {
	Snapshot() match.Snapshot
	OpenSelection() error
	Start(first, second domain.AgentID) (domain.AgentBinding, error)
	Pause() error
	Resume() error
	Reset(ctx context.Context) error
	SetMoveDelay(d time.Duration) error
	MoveDelayBounds() (time.Duration, time.Duration)
	Subscribe(fn match.Observer) int
	Unsubscribe(id int)
}

type AgentLister interface {
	List() []domain.AgentID
}

// History lists archived matches. Optional.
type History interface {
	Recent(ctx context.Context, limit int) ([]matchdto.MatchSummary, error)
}

type Server struct {
	ctl      Controller
	agents   AgentLister
	history  History
	renderer *boardimg.Renderer
	logger   *zap.Logger
	hub      *hub
	router   chi.Router
}

type Option func(*Server)

func WithHistory(h History) Option { return func(s *Server) { s.history = h } }

func WithRenderer(r *boardimg.Renderer) Option { return func(s *Server) { s.renderer = r } }

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewServer(ctl Controller, agents AgentLister, opts ...Option) *Server {
	s := &Server{
		ctl:    ctl,
		agents: agents,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = boardimg.NewRenderer()
	}
	s.hub = newHub(s.logger)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/agents", s.handleAgents)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/board.png", s.handleBoard)
		r.Get("/matches", s.handleMatches)
		r.Post("/selection", s.handleSelection)
		r.Post("/start", s.handleStart)
		r.Post("/pause", s.handlePause)
		r.Post("/resume", s.handleResume)
		r.Post("/reset", s.handleReset)
		r.Get("/delay", s.handleGetDelay)
		r.Put("/delay", s.handleSetDelay)
	})
	r.Get("/ws", s.handleWS)
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	id := s.ctl.Subscribe(s.hub.observe)
	defer s.ctl.Unsubscribe(id)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("console_listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	s.hub.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Attach subscribes the websocket hub without starting a listener. Tests and
// embedders that mount Handler themselves call this.
func (s *Server) Attach() func() {
	id := s.ctl.Subscribe(s.hub.observe)
	return func() {
		s.ctl.Unsubscribe(id)
		s.hub.closeAll()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.ctl.Snapshot()
	writeJSON(w, http.StatusOK, matchdto.HealthResponse{Status: "ok", Mode: snap.Mode.String(), InFlight: snap.InFlight})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	resp := matchdto.AgentsResponse{Agents: []string{}}
	if s.agents != nil {
		for _, id := range s.agents.List() {
			resp.Agents = append(resp.Agents, string(id))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Snapshot())
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	snap := s.ctl.Snapshot()
	if snap.State.Board == "" {
		writeError(w, http.StatusServiceUnavailable, matchdto.ErrorResponse{Code: matchdto.CodeTransport, Message: "board not synced yet", Retryable: true})
		return
	}
	opts := boardimg.Options{}
	if b := snap.Binding; b != nil {
		opts.Caption = string(b.White) + " vs " + string(b.Black)
	}
	if n := len(snap.Moves); n > 0 {
		opts.Highlight, _ = boardimg.HighlightFor(snap.Moves[n-1].UCI)
	}
	img, err := s.renderer.RenderPNG(r.Context(), snap.State.Board, opts)
	if err != nil {
		s.logger.Warn("board_render_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, matchdto.ErrorResponse{Code: matchdto.CodeInternal, Message: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []matchdto.MatchSummary{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Warn("match_history_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, matchdto.ErrorResponse{Code: matchdto.CodeInternal, Message: err.Error()})
		return
	}
	if rows == nil {
		rows = []matchdto.MatchSummary{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.OpenSelection(); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.Snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req matchdto.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, matchdto.ErrorResponse{Code: matchdto.CodeBadRequest, Message: "invalid json body"})
		return
	}
	if len(req.Agents) != 2 {
		s.fail(w, match.ErrInvalidAgents)
		return
	}
	// 콘솔에서는 선택 단계를 건너뛸 수 있게 Idle이면 먼저 연다.
	if s.ctl.Snapshot().Mode == match.ModeIdle {
		if err := s.ctl.OpenSelection(); err != nil {
			s.fail(w, err)
			return
		}
	}
	b, err := s.ctl.Start(domain.AgentID(req.Agents[0]), domain.AgentID(req.Agents[1]))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matchdto.StartResponse{
		MatchID:   b.MatchID,
		White:     string(b.White),
		Black:     string(b.Black),
		StartedAt: b.StartedAt,
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.Pause(); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.Snapshot())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.Resume(); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.Reset(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.Snapshot())
}

func (s *Server) delayResponse() matchdto.DelayResponse {
	lo, hi := s.ctl.MoveDelayBounds()
	return matchdto.DelayResponse{
		Ms:    s.ctl.Snapshot().MoveDelay.Milliseconds(),
		MinMs: lo.Milliseconds(),
		MaxMs: hi.Milliseconds(),
	}
}

func (s *Server) handleGetDelay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.delayResponse())
}

func (s *Server) handleSetDelay(w http.ResponseWriter, r *http.Request) {
	var req matchdto.DelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, matchdto.ErrorResponse{Code: matchdto.CodeBadRequest, Message: "invalid json body"})
		return
	}
	if err := s.ctl.SetMoveDelay(time.Duration(req.Ms) * time.Millisecond); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.delayResponse())
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("console_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
