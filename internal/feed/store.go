package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/park285/llm-chess-arena/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	// ChannelEvents carries every orchestrator event as JSON.
	ChannelEvents = "arena:events"

	ttlMatch = 24 * time.Hour
)

// Store keeps a short-lived spectator copy of running matches. Nothing here
// is ever read back to resume a game.
type Store struct{ rdb *redis.Client }

func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

func (s *Store) keyMeta(matchID string) string  { return "arena:match:" + strings.TrimSpace(matchID) }
func (s *Store) keyPlies(matchID string) string { return s.keyMeta(matchID) + ":plies" }
func (s *Store) keyCurrent() string             { return "arena:current" }

// SaveMatch records the binding of a match and marks it current.
func (s *Store) SaveMatch(ctx context.Context, b domain.AgentBinding) error {
	if strings.TrimSpace(b.MatchID) == "" {
		return nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.keyMeta(b.MatchID), raw, ttlMatch)
	pipe.Set(ctx, s.keyCurrent(), b.MatchID, ttlMatch)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) LoadMatch(ctx context.Context, matchID string) (*domain.AgentBinding, error) {
	raw, err := s.rdb.Get(ctx, s.keyMeta(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var b domain.AgentBinding
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Current returns the id of the most recently started match, or "".
func (s *Store) Current(ctx context.Context) (string, error) {
	id, err := s.rdb.Get(ctx, s.keyCurrent()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return id, err
}

// AppendPly pushes one ply and refreshes the TTL.
func (s *Store) AppendPly(ctx context.Context, matchID string, e domain.MoveLogEntry) error {
	if strings.TrimSpace(matchID) == "" {
		return nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := s.rdb.RPush(ctx, s.keyPlies(matchID), raw).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, s.keyPlies(matchID), ttlMatch).Err()
}

func (s *Store) Plies(ctx context.Context, matchID string) ([]domain.MoveLogEntry, error) {
	raws, err := s.rdb.LRange(ctx, s.keyPlies(matchID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.MoveLogEntry, 0, len(raws))
	for _, r := range raws {
		var e domain.MoveLogEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("decode ply: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// ParseRedisURL accepts redis:// and rediss:// URLs with an optional
// password and db path.
func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	portStr := u.Port()
	if portStr == "" {
		portStr = "6379"
	}
	if _, err := strconv.Atoi(portStr); err != nil {
		return nil, err
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid db %q", p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: host + ":" + portStr, Username: u.User.Username(), Password: pass, DB: db}, nil
}

// Connect parses raw, dials and pings.
func Connect(ctx context.Context, raw string) (*redis.Client, error) {
	opts, err := ParseRedisURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
