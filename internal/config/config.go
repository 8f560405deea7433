package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Upstream API configuration
	FarcasterBaseURL string
	EtherscanBaseURL string
	EtherscanAPIKey  string
	TokenAddress     string
	UserAgent        string
	RequestTimeout   time.Duration

	// Client-side rate limiting toward the upstream API
	UpstreamRPS   float64
	UpstreamBurst int

	// Request parameter defaults and hard caps
	DefaultChannelLimit   int
	MaxChannelLimit       int
	DefaultFollowerLimit  int
	MaxFollowerLimit      int
	DefaultCastLimit      int
	MaxCastLimit          int
	DefaultTotalCastLimit int
	MaxTotalCastLimit     int

	// Fan-out batching to avoid upstream throttling
	ChannelBatchSize   int
	ChannelBatchDelay  time.Duration
	FollowerBatchSize  int
	FollowerBatchDelay time.Duration

	// Upper bound on how many unique followers get their casts fetched,
	// regardless of how many channels contributed them
	MaxFollowerPool int

	// Upstream availability probe
	ProbeEnabled  bool
	ProbeSchedule string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		FarcasterBaseURL: getEnv("FARCASTER_API_BASE", "https://api.warpcast.com"),
		EtherscanBaseURL: getEnv("ETHERSCAN_API_BASE", "https://api.etherscan.io"),
		EtherscanAPIKey:  getEnv("ETHERSCAN_API_KEY", ""),
		TokenAddress:     getEnv("TOKEN_ADDRESS", ""),
		UserAgent:        getEnv("USER_AGENT", "castscope/1.0"),
		RequestTimeout:   getDurationEnv("REQUEST_TIMEOUT", 30*time.Second),

		UpstreamRPS:   getFloatEnv("UPSTREAM_RPS", 8),
		UpstreamBurst: getIntEnv("UPSTREAM_BURST", 16),

		DefaultChannelLimit:   getIntEnv("DEFAULT_CHANNEL_LIMIT", 20),
		MaxChannelLimit:       getIntEnv("MAX_CHANNEL_LIMIT", 50),
		DefaultFollowerLimit:  getIntEnv("DEFAULT_FOLLOWER_LIMIT", 10),
		MaxFollowerLimit:      getIntEnv("MAX_FOLLOWER_LIMIT", 50),
		DefaultCastLimit:      getIntEnv("DEFAULT_CAST_LIMIT", 5),
		MaxCastLimit:          getIntEnv("MAX_CAST_LIMIT", 20),
		DefaultTotalCastLimit: getIntEnv("DEFAULT_TOTAL_CAST_LIMIT", 100),
		MaxTotalCastLimit:     getIntEnv("MAX_TOTAL_CAST_LIMIT", 500),

		ChannelBatchSize:   getIntEnv("CHANNEL_BATCH_SIZE", 5),
		ChannelBatchDelay:  getDurationEnv("CHANNEL_BATCH_DELAY", 300*time.Millisecond),
		FollowerBatchSize:  getIntEnv("FOLLOWER_BATCH_SIZE", 3),
		FollowerBatchDelay: getDurationEnv("FOLLOWER_BATCH_DELAY", 500*time.Millisecond),

		MaxFollowerPool: getIntEnv("MAX_FOLLOWER_POOL", 200),

		ProbeEnabled:  getBoolEnv("ENABLE_UPSTREAM_PROBE", false),
		ProbeSchedule: getEnv("UPSTREAM_PROBE_SCHEDULE", "0 */15 * * * *"),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.FarcasterBaseURL == "" {
		return fmt.Errorf("FARCASTER_API_BASE must not be empty")
	}

	if c.ChannelBatchSize < 1 || c.FollowerBatchSize < 1 {
		return fmt.Errorf("batch sizes must be at least 1")
	}

	if c.MaxChannelLimit < c.DefaultChannelLimit ||
		c.MaxFollowerLimit < c.DefaultFollowerLimit ||
		c.MaxCastLimit < c.DefaultCastLimit ||
		c.MaxTotalCastLimit < c.DefaultTotalCastLimit {
		return fmt.Errorf("hard caps must not be lower than their defaults")
	}

	if c.MaxFollowerPool < 1 {
		return fmt.Errorf("MAX_FOLLOWER_POOL must be at least 1")
	}

	if c.UpstreamRPS <= 0 || c.UpstreamBurst < 1 {
		return fmt.Errorf("UPSTREAM_RPS and UPSTREAM_BURST must be positive")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
