package audit

import (
	"context"
	"sync"
	"time"

	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/park285/llm-chess-arena/internal/match"
	"go.uber.org/zap"
)

type Saver interface {
	SaveMatch(ctx context.Context, rec domain.MatchRecord) error
}

// Recorder archives a match once when it stops, or when it is reset while
// still running.
type Recorder struct {
	saver   Saver
	logger  *zap.Logger
	now     func() time.Time
	timeout time.Duration

	mu    sync.Mutex
	last  *match.Snapshot
	saved map[string]bool
	wg    sync.WaitGroup
}

func NewRecorder(saver Saver, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		saver:   saver,
		logger:  logger,
		now:     time.Now,
		timeout: 10 * time.Second,
		saved:   make(map[string]bool),
	}
}

// Observe is a match.Observer. Saving runs in the background.
func (r *Recorder) Observe(ev match.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := ev.Snapshot
	switch ev.Kind {
	case match.EventStopped:
		r.saveLocked(snap, "")
	case match.EventReset:
		if r.last != nil && (r.last.Mode == match.ModePlaying || r.last.Mode == match.ModePaused) {
			r.saveLocked(*r.last, "reset")
		}
	}
	if snap.Binding != nil {
		s := snap
		r.last = &s
	} else {
		r.last = nil
	}
}

func (r *Recorder) saveLocked(snap match.Snapshot, termination string) {
	rec, ok := RecordFrom(snap, termination, r.now())
	if !ok || r.saved[rec.MatchID] {
		return
	}
	r.saved[rec.MatchID] = true
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.saver.SaveMatch(ctx, rec); err != nil {
			r.logger.Warn("match_archive_failed", zap.String("match_id", rec.MatchID), zap.Error(err))
			return
		}
		r.logger.Info("match_archived",
			zap.String("match_id", rec.MatchID),
			zap.String("result", rec.Result),
			zap.String("termination", rec.Termination),
			zap.Int("plies", len(rec.MovesSAN)),
		)
	}()
}

// Wait blocks until pending saves finish.
func (r *Recorder) Wait() { r.wg.Wait() }
