package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrShortSecret is returned when AUTH_SECRET is missing or too short
var ErrShortSecret = errors.New("AUTH_SECRET must be at least 32 bytes (use a long random string)")

// Config holds all application configuration
type Config struct {
	// Server
	Port       string
	DBPath     string
	TrustProxy bool

	// Auth
	AuthSecret []byte
	TokenTTL   time.Duration

	// Views
	UptimeDays     int
	LatencySamples int

	// Checks and retention
	CheckTimeout   time.Duration
	EventRetention time.Duration

	// Public surfaces
	PublicCacheTTL time.Duration
	WSInterval     time.Duration

	SeedFile string
}

// Load reads configuration from the environment, after merging a .env file
// when one exists
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getenv("PORT", "8000"),
		DBPath:         getenv("DB_PATH", "./healther.db"),
		TrustProxy:     envBool("TRUST_PROXY", false),
		TokenTTL:       time.Duration(envInt("TOKEN_TTL_MINUTES", 60)) * time.Minute,
		UptimeDays:     envInt("UPTIME_DAYS", 90),
		LatencySamples: envInt("LATENCY_SAMPLES", 60),
		CheckTimeout:   envDurSecs("CHECK_TIMEOUT_SECS", 10),
		EventRetention: time.Duration(envInt("EVENT_RETENTION_DAYS", 400)) * 24 * time.Hour,
		PublicCacheTTL: envDurSecs("PUBLIC_CACHE_SECONDS", 15),
		WSInterval:     envDurSecs("WS_INTERVAL_SECONDS", 60),
		SeedFile:       strings.TrimSpace(getenv("SEED_FILE", "")),
	}

	secret := getenv("AUTH_SECRET", "")
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	cfg.AuthSecret = []byte(secret)

	if cfg.UptimeDays < 1 || cfg.UptimeDays > 365 {
		cfg.UptimeDays = 90
	}
	if cfg.LatencySamples < 1 {
		cfg.LatencySamples = 60
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}

	return cfg, nil
}

// Helper functions
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(getenv(k, ""))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envDurSecs(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Second
}
