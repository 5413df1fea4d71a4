package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port        string        `env:"PORT,        default=8080"`
	Env         string        `env:"ENV,         default=development"`
	JWTSecret   string        `env:"JWT_SECRET,  required"`
	TokenTTL    time.Duration `env:"TOKEN_TTL,   default=24h"`
	LogLevel    string        `env:"LOG_LEVEL,   default=info"`
	ChatWorkers int           `env:"CHAT_WORKERS, default=4"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI          string `env:"MONGO_URI,          default=mongodb://localhost:27017"`
	Database     string `env:"MONGO_DB,           default=support_platform"`
	Transactions bool   `env:"MONGO_TRANSACTIONS, default=false"`
}

type RedisConfig struct {
	Addr              string        `env:"REDIS_ADDR,          default=localhost:6379"`
	Password          string        `env:"REDIS_PASSWORD"`
	DB                int           `env:"REDIS_DB,            default=0"`
	DirectoryCacheTTL time.Duration `env:"DIRECTORY_CACHE_TTL, default=5m"`
}

// IsDevelopment reports whether the service runs with developer defaults
// such as pretty console logs.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if cfg.ChatWorkers < 1 {
		return nil, fmt.Errorf("config: CHAT_WORKERS must be at least 1, got %d", cfg.ChatWorkers)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("config: TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	return &cfg, nil
}
