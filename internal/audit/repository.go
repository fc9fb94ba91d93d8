package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/park285/llm-chess-arena/pkg/matchdto"
)

const schema = `CREATE TABLE IF NOT EXISTS arena_matches (
    match_id     TEXT PRIMARY KEY,
    white_agent  TEXT NOT NULL,
    black_agent  TEXT NOT NULL,
    result       TEXT NOT NULL,
    termination  TEXT NOT NULL,
    moves_uci    JSONB NOT NULL,
    moves_san    JSONB NOT NULL,
    pgn          TEXT NOT NULL,
    final_board  TEXT NOT NULL,
    started_at   TIMESTAMPTZ NOT NULL,
    ended_at     TIMESTAMPTZ NOT NULL,
    duration_ms  BIGINT NOT NULL
)`

// Repository archives finished matches.
type Repository struct {
	db *sql.DB
}

func Open(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SaveMatch upserts one archived match.
func (r *Repository) SaveMatch(ctx context.Context, rec domain.MatchRecord) error {
	if r == nil || r.db == nil {
		return nil
	}
	pgnResult := mapResultToPGN(rec.Result)
	pgn := buildPGN(rec, pgnResult)

	movesUCIRaw, _ := json.Marshal(nonNil(rec.MovesUCI))
	movesSANRaw, _ := json.Marshal(nonNil(rec.MovesSAN))
	duration := rec.EndedAt.Sub(rec.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO arena_matches (
        match_id, white_agent, black_agent, result, termination,
        moves_uci, moves_san, pgn, final_board,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
      ) ON CONFLICT (match_id) DO UPDATE SET
        result=EXCLUDED.result,
        termination=EXCLUDED.termination,
        moves_uci=EXCLUDED.moves_uci,
        moves_san=EXCLUDED.moves_san,
        pgn=EXCLUDED.pgn,
        final_board=EXCLUDED.final_board,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		rec.MatchID,
		string(rec.White), string(rec.Black),
		rec.Result, rec.Termination,
		string(movesUCIRaw), string(movesSANRaw), pgn, rec.FinalBoard,
		rec.StartedAt, rec.EndedAt, duration,
	)
	return err
}

// Recent lists the latest archived matches, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]matchdto.MatchSummary, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT match_id, white_agent, black_agent, result, termination,
        jsonb_array_length(moves_uci), started_at, ended_at
      FROM arena_matches ORDER BY ended_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []matchdto.MatchSummary
	for rows.Next() {
		var m matchdto.MatchSummary
		if err := rows.Scan(&m.MatchID, &m.White, &m.Black, &m.Result, &m.Termination, &m.Plies, &m.StartedAt, &m.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
