package match

import (
	"sync"

	"github.com/park285/llm-chess-arena/internal/domain"
)

// MoveLog is the ordered record of applied plies. It is not safe for
// concurrent use; Table serialises access.
type MoveLog struct {
	entries []domain.MoveLogEntry
}

// Append numbers the entry and stores it.
func (l *MoveLog) Append(e domain.MoveLogEntry) domain.MoveLogEntry {
	e.Ply = len(l.entries) + 1
	l.entries = append(l.entries, e)
	return e
}

func (l *MoveLog) Clear() { l.entries = nil }

func (l *MoveLog) Len() int { return len(l.entries) }

// Entries returns a copy in insertion order.
func (l *MoveLog) Entries() []domain.MoveLogEntry {
	return append([]domain.MoveLogEntry(nil), l.entries...)
}

// Table holds the canonical state together with its move log.
// round changes whenever the log is cleared, so a reply requested for an
// earlier match can be told apart.
type Table struct {
	mu    sync.RWMutex
	state domain.MatchState
	log   MoveLog
	round uint64
}

func NewTable(initial domain.MatchState) *Table {
	return &Table{state: initial}
}

func (t *Table) State() domain.MatchState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *Table) Entries() []domain.MoveLogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.log.Entries()
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.log.Len()
}

func (t *Table) current() (domain.MatchState, uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state, t.round
}

func (t *Table) inRound(round uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.round == round
}

// apply installs next as canonical and appends exactly one entry. It does
// nothing and returns false when the log was cleared after round was read.
func (t *Table) apply(round uint64, next domain.MatchState, e domain.MoveLogEntry) (domain.MoveLogEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if round != t.round {
		return domain.MoveLogEntry{}, false
	}
	t.state = next
	return t.log.Append(e), true
}

// replace installs a synchronised state without touching the log.
func (t *Table) replace(st domain.MatchState) {
	t.mu.Lock()
	t.state = st
	t.mu.Unlock()
}

func (t *Table) clearLog() {
	t.mu.Lock()
	t.log.Clear()
	t.round++
	t.mu.Unlock()
}
