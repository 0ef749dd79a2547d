package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the single immutable configuration struct shared by every
// component. Build it once with FromEnv or Default and pass it by value into
// constructors; nothing reads the environment after startup.
type Config struct {
	// BaseURL is the marketplace root, e.g. https://www.amazon.com
	BaseURL string

	RequestTimeout    time.Duration
	RequestsPerMinute int

	// MinDelay/MaxDelay bound the advisory inter-request delay. The scraper
	// starts at MinDelay and backs off toward MaxDelay on failures.
	MinDelay time.Duration
	MaxDelay time.Duration

	// MaxPages caps search pagination per query.
	MaxPages int

	// SnapshotDBPath is the SQLite file backing the BSR snapshot store.
	SnapshotDBPath string

	// EndpointCachePath remembers which offers endpoint variant last worked
	// per ASIN so the fallback chain can start there.
	EndpointCachePath string
}

// Default mirrors the stock settings the scraper ships with.
func Default() Config {
	return Config{
		BaseURL:           "https://www.amazon.com",
		RequestTimeout:    30 * time.Second,
		RequestsPerMinute: 20,
		MinDelay:          2 * time.Second,
		MaxDelay:          5 * time.Second,
		MaxPages:          5,
		SnapshotDBPath:    "data/bsr_history.db",
		EndpointCachePath: "data/offer_endpoints.json",
	}
}

// FromEnv loads .env if present, then overrides defaults from the
// environment. Unset or malformed variables keep their defaults.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Default()
	if v := os.Getenv("ASINSIGHT_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := envInt("ASINSIGHT_REQUESTS_PER_MINUTE"); v > 0 {
		cfg.RequestsPerMinute = v
	}
	if v := envSeconds("ASINSIGHT_REQUEST_TIMEOUT"); v > 0 {
		cfg.RequestTimeout = v
	}
	if v := envSeconds("ASINSIGHT_MIN_DELAY"); v > 0 {
		cfg.MinDelay = v
	}
	if v := envSeconds("ASINSIGHT_MAX_DELAY"); v > 0 {
		cfg.MaxDelay = v
	}
	if v := envInt("ASINSIGHT_MAX_PAGES"); v > 0 {
		cfg.MaxPages = v
	}
	if v := os.Getenv("ASINSIGHT_SNAPSHOT_DB"); v != "" {
		cfg.SnapshotDBPath = v
	}
	if v := os.Getenv("ASINSIGHT_ENDPOINT_CACHE"); v != "" {
		cfg.EndpointCachePath = v
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return cfg
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}

func envSeconds(key string) time.Duration {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}
