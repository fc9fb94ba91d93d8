package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

// ConfigRelPath is looked up under the XDG config directories.
const ConfigRelPath = "llm-chess-arena/config.yaml"

type AppConfig struct {
	GameServiceURL string

	MoveDelay    time.Duration
	MoveDelayMin time.Duration
	MoveDelayMax time.Duration
	MoveTimeout  time.Duration
	StateRetry   int

	// Agents are appended to the built-in catalogue.
	Agents []string

	ConsoleAddr string

	RedisURL    string
	DatabaseURL string
	MessagesDir string

	// ConfigFile is the YAML file that was applied, if any.
	ConfigFile string
}

type fileConfig struct {
	GameServiceURL string   `yaml:"game_service_url"`
	MoveDelayMs    int      `yaml:"move_delay_ms"`
	MoveDelayMinMs int      `yaml:"move_delay_min_ms"`
	MoveDelayMaxMs int      `yaml:"move_delay_max_ms"`
	MoveTimeoutMs  int      `yaml:"move_timeout_ms"`
	StateRetry     int      `yaml:"state_retry"`
	Agents         []string `yaml:"agents"`
	ConsoleAddr    string   `yaml:"console_addr"`
	RedisURL       string   `yaml:"redis_url"`
	DatabaseURL    string   `yaml:"database_url"`
	MessagesDir    string   `yaml:"messages_dir"`
}

func defaults() *AppConfig {
	return &AppConfig{
		MoveDelay:    1500 * time.Millisecond,
		MoveDelayMin: 250 * time.Millisecond,
		MoveDelayMax: 10 * time.Second,
		MoveTimeout:  30 * time.Second,
		StateRetry:   3,
		ConsoleAddr:  "127.0.0.1:8090",
	}
}

// Load reads .env, then the YAML config file, then the environment. Later
// sources win.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := defaults()

	path, err := configFilePath()
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFilePath() (string, error) {
	if p := strings.TrimSpace(os.Getenv("ARENA_CONFIG")); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("ARENA_CONFIG: %w", err)
		}
		return p, nil
	}
	p, err := xdg.SearchConfigFile(ConfigRelPath)
	if err != nil {
		// no config file is fine
		return "", nil
	}
	return p, nil
}

func applyFile(cfg *AppConfig, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if s := strings.TrimSpace(fc.GameServiceURL); s != "" {
		cfg.GameServiceURL = s
	}
	setMillis(&cfg.MoveDelay, fc.MoveDelayMs)
	setMillis(&cfg.MoveDelayMin, fc.MoveDelayMinMs)
	setMillis(&cfg.MoveDelayMax, fc.MoveDelayMaxMs)
	setMillis(&cfg.MoveTimeout, fc.MoveTimeoutMs)
	if fc.StateRetry > 0 {
		cfg.StateRetry = fc.StateRetry
	}
	for _, a := range fc.Agents {
		if s := strings.TrimSpace(a); s != "" {
			cfg.Agents = append(cfg.Agents, s)
		}
	}
	if s := strings.TrimSpace(fc.ConsoleAddr); s != "" {
		cfg.ConsoleAddr = s
	}
	if s := strings.TrimSpace(fc.RedisURL); s != "" {
		cfg.RedisURL = s
	}
	if s := strings.TrimSpace(fc.DatabaseURL); s != "" {
		cfg.DatabaseURL = s
	}
	if s := strings.TrimSpace(fc.MessagesDir); s != "" {
		cfg.MessagesDir = s
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv("GAME_SERVICE_URL")); v != "" {
		cfg.GameServiceURL = v
	}
	envMillis(&cfg.MoveDelay, "MOVE_DELAY_MS")
	envMillis(&cfg.MoveDelayMin, "MOVE_DELAY_MIN_MS")
	envMillis(&cfg.MoveDelayMax, "MOVE_DELAY_MAX_MS")
	envMillis(&cfg.MoveTimeout, "MOVE_TIMEOUT_MS")
	if v := strings.TrimSpace(os.Getenv("STATE_RETRY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StateRetry = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ARENA_AGENTS")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.Agents = append(cfg.Agents, s)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("CONSOLE_ADDR")); v != "" {
		cfg.ConsoleAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("MESSAGES_DIR")); v != "" {
		cfg.MessagesDir = v
	}
}

func (c *AppConfig) validate() error {
	if c.GameServiceURL == "" {
		return errors.New("GAME_SERVICE_URL is required")
	}
	if c.MoveDelayMin <= 0 || c.MoveDelayMax < c.MoveDelayMin {
		return fmt.Errorf("invalid move delay bounds [%s, %s]", c.MoveDelayMin, c.MoveDelayMax)
	}
	if c.MoveDelay < c.MoveDelayMin || c.MoveDelay > c.MoveDelayMax {
		return fmt.Errorf("MOVE_DELAY_MS %d outside [%d, %d]",
			c.MoveDelay.Milliseconds(), c.MoveDelayMin.Milliseconds(), c.MoveDelayMax.Milliseconds())
	}
	return nil
}

func setMillis(dst *time.Duration, ms int) {
	if ms > 0 {
		*dst = time.Duration(ms) * time.Millisecond
	}
}

func envMillis(dst *time.Duration, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = time.Duration(n) * time.Millisecond
		}
	}
}
