package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8090"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	// StreamHeartbeat is the keep-alive interval of the /v1/stream SSE feed.
	StreamHeartbeat time.Duration `env:"STREAM_HEARTBEAT, default=15s"`

	API   APIConfig
	Query QueryConfig
	Redis RedisConfig
}

// APIConfig selects the remote e-learning API host.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:5000"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=10s"`
}

// QueryConfig tunes the query cache policy.
type QueryConfig struct {
	StaleTime      time.Duration `env:"QUERY_STALE_TIME,      default=0s"`
	GCTime         time.Duration `env:"QUERY_GC_TIME,         default=5m"`
	FetchTimeout   time.Duration `env:"QUERY_FETCH_TIMEOUT,   default=15s"`
	Retry          int           `env:"QUERY_RETRY,           default=0"`
	RetryDelay     time.Duration `env:"QUERY_RETRY_DELAY,     default=500ms"`
	RefetchWorkers int           `env:"QUERY_REFETCH_WORKERS, default=4"`
}

// RedisConfig enables the cross-instance invalidation bus. Empty Addr disables it.
type RedisConfig struct {
	Addr    string `env:"REDIS_ADDR"`
	DB      int    `env:"REDIS_DB,      default=0"`
	Channel string `env:"REDIS_CHANNEL, default=learner:invalidate"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith processes configuration from an arbitrary lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, err
	}
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL must not be empty")
	}
	return &cfg, nil
}

// RedisEnabled reports whether the invalidation bus should be started.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
