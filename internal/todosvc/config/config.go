package config

import (
	"path/filepath"
	"time"

	config "github.com/avvvet/gate-services/configs"
	"github.com/avvvet/gate-services/internal/storage"
)

const DefaultSeedTitle = "Welcome to your todo list"

type Config struct {
	Port          string
	PreferredPath string
	FallbackPath  string
	Storage       storage.Options

	SeedTitle string

	RateLimit   int
	CORSOrigins []string

	NatsURL   string
	NatsToken string
}

func Load() Config {
	base := config.BaseDir()
	return Config{
		Port:          config.EnvString("PORT", "3000"),
		PreferredPath: config.ResolvePath(base, config.EnvString("DB_PREFERRED_PATH", "todos.sqlite3")),
		FallbackPath:  config.ResolvePath(base, config.EnvString("DB_FALLBACK_PATH", filepath.Join("data", "todos.sqlite3"))),
		Storage: storage.Options{
			BusyTimeout: time.Duration(config.EnvInt("DB_BUSY_TIMEOUT_MS", 3000)) * time.Millisecond,
		},

		SeedTitle: config.EnvString("SEED_TODO_TITLE", DefaultSeedTitle),

		RateLimit:   config.EnvInt("RATE_LIMIT", 0),
		CORSOrigins: config.EnvList("CORS_ORIGINS"),

		NatsURL:   config.EnvString("NATS_URL", ""),
		NatsToken: config.EnvString("NATS_TOKEN", ""),
	}
}
