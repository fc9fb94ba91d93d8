package arenabuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/llm-chess-arena/internal/adapter/matchpresenter"
	"github.com/park285/llm-chess-arena/internal/agents"
	"github.com/park285/llm-chess-arena/internal/audit"
	"github.com/park285/llm-chess-arena/internal/config"
	"github.com/park285/llm-chess-arena/internal/feed"
	"github.com/park285/llm-chess-arena/internal/gameclient"
	"github.com/park285/llm-chess-arena/internal/match"
	"github.com/park285/llm-chess-arena/internal/msgcat"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Deps struct {
	Config       *config.AppConfig
	Client       *gameclient.Client
	Registry     *agents.Registry
	Messages     *msgcat.Catalog
	Formatter    *matchpresenter.Formatter
	Orchestrator *match.Orchestrator

	// Optional sinks; nil when not configured.
	Redis     *redis.Client
	Publisher *feed.Publisher
	Archive   audit.Archive
	Recorder  *audit.Recorder

	logger *zap.Logger
}

type Option func(*options)

type options struct {
	skipSinks bool
	skipSync  bool
}

// WithoutSinks leaves Redis and Postgres alone, for one-shot CLI commands.
func WithoutSinks() Option { return func(o *options) { o.skipSinks = true } }

// WithoutInitialSync skips the first state read.
func WithoutInitialSync() Option { return func(o *options) { o.skipSync = true } }

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, opts ...Option) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	client := gameclient.NewClient(cfg.GameServiceURL,
		gameclient.WithTimeout(cfg.MoveTimeout),
		gameclient.WithStateRetry(cfg.StateRetry),
	)
	registry := agents.NewRegistry(cfg.Agents...)

	orch := match.New(client,
		match.WithConfig(match.Config{
			InitialDelay: cfg.MoveDelay,
			MinDelay:     cfg.MoveDelayMin,
			MaxDelay:     cfg.MoveDelayMax,
			MoveTimeout:  cfg.MoveTimeout,
		}),
		match.WithLogger(logger.Named("match")),
		match.WithMessages(msgs),
		match.WithCatalog(registry),
		match.WithAssigner(agents.NewAssigner()),
	)

	d := &Deps{
		Config:       cfg,
		Client:       client,
		Registry:     registry,
		Messages:     msgs,
		Formatter:    matchpresenter.NewFormatter(msgs),
		Orchestrator: orch,
		logger:       logger,
	}

	if !o.skipSinks {
		if err := d.attachSinks(ctx); err != nil {
			d.Close(ctx)
			return nil, err
		}
	}

	if !o.skipSync {
		// 게임 서비스가 아직 안 떠 있어도 기동은 계속한다. 상태는 콘솔에 남는다.
		if _, err := orch.Sync(ctx); err != nil {
			logger.Warn("initial_sync_failed", zap.String("url", client.BaseURL()), zap.Error(err))
		}
	}
	return d, nil
}

func (d *Deps) attachSinks(ctx context.Context) error {
	if strings.TrimSpace(d.Config.RedisURL) != "" {
		rdb, err := feed.Connect(ctx, d.Config.RedisURL)
		if err != nil {
			return fmt.Errorf("init redis feed: %w", err)
		}
		d.Redis = rdb
		d.Publisher = feed.NewPublisher(rdb, d.logger.Named("feed"))
		d.Orchestrator.Subscribe(d.Publisher.Observe)
	}

	if strings.TrimSpace(d.Config.DatabaseURL) != "" {
		repo, err := audit.Open(d.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("init audit archive: %w", err)
		}
		d.Archive = repo
		sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(sctx); err != nil {
			return fmt.Errorf("ensure audit schema: %w", err)
		}
	} else {
		d.Archive = audit.NewMemoryArchive(100)
	}
	d.Recorder = audit.NewRecorder(d.Archive, d.logger.Named("audit"))
	d.Orchestrator.Subscribe(d.Recorder.Observe)
	return nil
}

// Close stops autoplay and flushes the optional sinks.
func (d *Deps) Close(ctx context.Context) {
	if d == nil {
		return
	}
	if d.Orchestrator != nil {
		d.Orchestrator.Close()
	}
	if d.Recorder != nil {
		d.Recorder.Wait()
	}
	if d.Publisher != nil {
		if err := d.Publisher.Close(ctx); err != nil {
			d.logger.Warn("feed_close_failed", zap.Error(err))
		}
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.Archive != nil {
		_ = d.Archive.Close()
	}
}
