package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures process level configuration.
type Server struct {
	Addr       string `env:"LINEAGE_ADDR" envDefault:":8080"`
	Env        string `env:"LINEAGE_ENV" envDefault:"development"`
	LogLevel   string `env:"LINEAGE_LOG_LEVEL" envDefault:"info"`
	AdminToken string `env:"LINEAGE_ADMIN_TOKEN"`

	Source  SourceConfig
	Tree    TreeConfig
	Redis   RedisConfig
	Session SessionConfig
}

// SourceConfig points at the record document. When both URL and Path are set
// the file is the fallback used while the URL keeps failing.
type SourceConfig struct {
	URL              string        `env:"LINEAGE_SOURCE_URL"`
	Path             string        `env:"LINEAGE_SOURCE_PATH"`
	Timeout          time.Duration `env:"LINEAGE_SOURCE_TIMEOUT" envDefault:"15s"`
	FailureThreshold int           `env:"LINEAGE_SOURCE_FAILURE_THRESHOLD" envDefault:"3"`
}

// TreeConfig tunes tree assembly and search.
type TreeConfig struct {
	RootAnchor  string `env:"LINEAGE_ROOT_ANCHOR" envDefault:"0"`
	SearchLimit int    `env:"LINEAGE_SEARCH_LIMIT" envDefault:"20"`
}

// RedisConfig configures the navigation state store. An empty URL keeps state in memory.
type RedisConfig struct {
	URL          string        `env:"LINEAGE_REDIS_URL"`
	PoolSize     int           `env:"LINEAGE_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"LINEAGE_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"LINEAGE_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"LINEAGE_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"LINEAGE_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// SessionConfig controls how long an idle navigation session is remembered.
type SessionConfig struct {
	TTL time.Duration `env:"LINEAGE_SESSION_TTL" envDefault:"168h"`
}

// IsProduction reports whether the process runs with production defaults.
func (s Server) IsProduction() bool {
	return s.Env == "production" || s.Env == "prod"
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Source.URL == "" && cfg.Source.Path == "" {
		return Server{}, fmt.Errorf("one of LINEAGE_SOURCE_URL or LINEAGE_SOURCE_PATH is required")
	}
	if cfg.Tree.SearchLimit <= 0 {
		return Server{}, fmt.Errorf("LINEAGE_SEARCH_LIMIT must be positive, got %d", cfg.Tree.SearchLimit)
	}
	return cfg, nil
}
