package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/park285/llm-chess-arena/pkg/matchdto"
)

// Archive is what the builder and console need from a match archive.
type Archive interface {
	Saver
	Recent(ctx context.Context, limit int) ([]matchdto.MatchSummary, error)
	Close() error
}

var (
	_ Archive = (*Repository)(nil)
	_ Archive = (*MemoryArchive)(nil)
)

// MemoryArchive keeps finished matches in process when no DB is configured.
// Entries are lost on restart.
type MemoryArchive struct {
	mu      sync.RWMutex
	max     int
	records map[string]domain.MatchRecord
}

func NewMemoryArchive(capacity int) *MemoryArchive {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryArchive{max: capacity, records: make(map[string]domain.MatchRecord)}
}

// SaveMatch upserts by match id and evicts the oldest entry past the cap.
func (m *MemoryArchive) SaveMatch(ctx context.Context, rec domain.MatchRecord) error {
	if rec.MatchID == "" {
		return nil
	}
	rec.MovesUCI = append([]string(nil), rec.MovesUCI...)
	rec.MovesSAN = append([]string(nil), rec.MovesSAN...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.MatchID] = rec
	if len(m.records) > m.max {
		oldest := ""
		for id, r := range m.records {
			if oldest == "" || r.EndedAt.Before(m.records[oldest].EndedAt) {
				oldest = id
			}
		}
		delete(m.records, oldest)
	}
	return nil
}

// Recent mirrors Repository.Recent: newest first, limit defaults to 20.
func (m *MemoryArchive) Recent(ctx context.Context, limit int) ([]matchdto.MatchSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	m.mu.RLock()
	items := make([]domain.MatchRecord, 0, len(m.records))
	for _, r := range m.records {
		items = append(items, r)
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].MatchID > items[j].MatchID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]matchdto.MatchSummary, 0, len(items))
	for _, r := range items {
		out = append(out, matchdto.MatchSummary{
			MatchID:     r.MatchID,
			White:       string(r.White),
			Black:       string(r.Black),
			Result:      r.Result,
			Termination: r.Termination,
			Plies:       len(r.MovesUCI),
			StartedAt:   r.StartedAt,
			EndedAt:     r.EndedAt,
		})
	}
	return out, nil
}

func (m *MemoryArchive) Close() error { return nil }
