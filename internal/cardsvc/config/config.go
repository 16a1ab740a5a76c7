package config

import (
	"path/filepath"
	"time"

	config "github.com/avvvet/gate-services/configs"
	"github.com/avvvet/gate-services/internal/storage"
)

const DefaultSeedCardUID = "9A F2 A1 9E"

type Config struct {
	Port          string
	PreferredPath string
	FallbackPath  string
	Storage       storage.Options

	SeedCardUID    string
	DailyScanLimit int
	ScanDebounce   time.Duration

	RateLimit   int
	CORSOrigins []string
	StaticDir   string

	NatsURL   string
	NatsToken string
}

func Load() Config {
	base := config.BaseDir()
	return Config{
		Port:          config.EnvString("PORT", "3000"),
		PreferredPath: config.ResolvePath(base, config.EnvString("DB_PREFERRED_PATH", "rfid_gate.sqlite3")),
		FallbackPath:  config.ResolvePath(base, config.EnvString("DB_FALLBACK_PATH", filepath.Join("data", "app.sqlite3"))),
		Storage: storage.Options{
			BusyTimeout: time.Duration(config.EnvInt("DB_BUSY_TIMEOUT_MS", 3000)) * time.Millisecond,
		},

		SeedCardUID:    config.EnvString("SEED_CARD_UID", DefaultSeedCardUID),
		DailyScanLimit: config.EnvInt("DAILY_SCAN_LIMIT", 3),
		ScanDebounce:   time.Duration(config.EnvInt("SCAN_DEBOUNCE_MS", 2000)) * time.Millisecond,

		RateLimit:   config.EnvInt("RATE_LIMIT", 0),
		CORSOrigins: config.EnvList("CORS_ORIGINS"),
		StaticDir:   config.EnvString("STATIC_DIR", ""),

		NatsURL:   config.EnvString("NATS_URL", ""),
		NatsToken: config.EnvString("NATS_TOKEN", ""),
	}
}
