package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Env != "development" || !cfg.IsDevelopment() {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.TokenTTL != 24*time.Hour || cfg.ChatWorkers != 4 {
		t.Fatalf("unexpected ttl/workers: %s %d", cfg.TokenTTL, cfg.ChatWorkers)
	}
	if cfg.Mongo.Database != "support_platform" || cfg.Mongo.Transactions {
		t.Fatalf("unexpected mongo defaults: %+v", cfg.Mongo)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DirectoryCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected redis defaults: %+v", cfg.Redis)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":          "s3cret",
		"ENV":                 "production",
		"TOKEN_TTL":           "90m",
		"CHAT_WORKERS":        "8",
		"MONGO_TRANSACTIONS":  "true",
		"REDIS_DB":            "2",
		"DIRECTORY_CACHE_TTL": "30s",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.IsDevelopment() || cfg.TokenTTL != 90*time.Minute || cfg.ChatWorkers != 8 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if !cfg.Mongo.Transactions || cfg.Redis.DB != 2 || cfg.Redis.DirectoryCacheTTL != 30*time.Second {
		t.Fatalf("nested overrides not applied: %+v %+v", cfg.Mongo, cfg.Redis)
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {},
		"zero workers":   {"JWT_SECRET": "s", "CHAT_WORKERS": "0"},
		"bad duration":   {"JWT_SECRET": "s", "TOKEN_TTL": "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := load(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
