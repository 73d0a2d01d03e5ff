package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Polymarket API
	GammaURL  string
	ClobURL   string
	WSURL     string
	WSChannel string

	// Scan loop
	ScanMarketLimit int
	SubscribeCap    int
	AllowFastScan   bool
	SettingsPath    string

	// WebSocket
	WSDialTimeout           time.Duration
	WSHeartbeatInterval     time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	WSUpdateBufferSize      int

	// Strategies
	ArbSafetyThreshold float64
	ArbMinNotional     float64
	VolumeSpikeDelta   float64
	VolumeMomentum24hr float64
	MomentumWindow     time.Duration
	MomentumMinElapsed time.Duration
	MomentumMinChange  float64

	// Risk limits not exposed through runtime settings
	MaxPortfolioExposure float64
	DailyLossLimit       float64

	// REST client
	HTTPTimeout time.Duration

	// Order book cache
	BookCacheTTL time.Duration

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Polymarket API defaults
		GammaURL:  getEnvOrDefault("POLYMARKET_GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		ClobURL:   getEnvOrDefault("POLYMARKET_CLOB_API_URL", "https://clob.polymarket.com"),
		WSURL:     getEnvOrDefault("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),
		WSChannel: getEnvOrDefault("POLYMARKET_WS_CHANNEL", "market"),

		// Scan loop defaults
		ScanMarketLimit: getIntOrDefault("SCAN_MARKET_LIMIT", 10),
		SubscribeCap:    getIntOrDefault("SCAN_SUBSCRIBE_CAP", 50),
		AllowFastScan:   os.Getenv("ALLOW_FAST_SCAN") == "true",
		SettingsPath:    getEnvOrDefault("SETTINGS_PATH", "data/settings.json"),

		// WebSocket defaults
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSHeartbeatInterval:     getDurationOrDefault("WS_HEARTBEAT_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 1*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSUpdateBufferSize:      getIntOrDefault("WS_UPDATE_BUFFER_SIZE", 1000),

		// Strategy defaults
		ArbSafetyThreshold: getFloat64OrDefault("ARB_SAFETY_THRESHOLD", 0.99),
		ArbMinNotional:     getFloat64OrDefault("ARB_MIN_NOTIONAL", 10.0),
		VolumeSpikeDelta:   getFloat64OrDefault("VOLUME_SPIKE_DELTA", 1000.0),
		VolumeMomentum24hr: getFloat64OrDefault("VOLUME_MOMENTUM_24HR", 100000.0),
		MomentumWindow:     getDurationOrDefault("MOMENTUM_WINDOW", 15*time.Minute),
		MomentumMinElapsed: getDurationOrDefault("MOMENTUM_MIN_ELAPSED", time.Minute),
		MomentumMinChange:  getFloat64OrDefault("MOMENTUM_MIN_CHANGE", 0.03),

		// Risk defaults
		MaxPortfolioExposure: getFloat64OrDefault("MAX_PORTFOLIO_EXPOSURE", 500.0),
		DailyLossLimit:       getFloat64OrDefault("DAILY_LOSS_LIMIT", 50.0),

		// REST client defaults
		HTTPTimeout: getDurationOrDefault("HTTP_TIMEOUT", 10*time.Second),

		// Order book cache defaults
		BookCacheTTL: getDurationOrDefault("BOOK_CACHE_TTL", 2*time.Second),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "polybot"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "polybot123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "polybot"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.GammaURL == "" {
		return fmt.Errorf("POLYMARKET_GAMMA_API_URL cannot be empty")
	}

	if c.WSURL == "" {
		return fmt.Errorf("POLYMARKET_WS_URL cannot be empty")
	}

	if c.ArbSafetyThreshold <= 0 || c.ArbSafetyThreshold >= 1.0 {
		return fmt.Errorf("ARB_SAFETY_THRESHOLD must be between 0 and 1.0, got %f", c.ArbSafetyThreshold)
	}

	if c.MomentumMinElapsed > c.MomentumWindow {
		return fmt.Errorf("MOMENTUM_MIN_ELAPSED %s exceeds MOMENTUM_WINDOW %s", c.MomentumMinElapsed, c.MomentumWindow)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
