package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DevMode      bool
	DatabasePath string
	LogLevel     string

	// Scoring pass knobs
	MarketTicker    string
	FreshDays       int
	InsiderMinValue float64
	TopN            int
	BuyThreshold    int
	AvoidThreshold  int
	PicksPerSegment int
	LookbackDays    int

	// Optional social evidence source
	SocialEnabled           bool
	SocialVelocityThreshold float64
	SocialMinMentions       int

	// Ticker -> sector proxy mapping file (YAML); empty disables sector
	// regime adjustments.
	SectorMapPath string

	// Six-field cron spec for the daily snapshot pass.
	SnapshotCron string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("WEALTHPULSE_PORT", 8000),
		DevMode:      getEnvAsBool("WEALTHPULSE_DEV_MODE", false),
		DatabasePath: getEnv("WEALTHPULSE_DATABASE_PATH", "./data/signals.db"),
		LogLevel:     getEnv("WEALTHPULSE_LOG_LEVEL", "info"),

		MarketTicker:    getEnv("WEALTHPULSE_MARKET_TICKER", "SPY"),
		FreshDays:       getEnvAsInt("WEALTHPULSE_FRESH_DAYS", 7),
		InsiderMinValue: getEnvAsFloat("WEALTHPULSE_INSIDER_MIN_VALUE", 100_000),
		TopN:            getEnvAsInt("WEALTHPULSE_TOP_N", 20),
		BuyThreshold:    getEnvAsInt("WEALTHPULSE_BUY_THRESHOLD", 75),
		AvoidThreshold:  getEnvAsInt("WEALTHPULSE_AVOID_THRESHOLD", 35),
		PicksPerSegment: getEnvAsInt("WEALTHPULSE_PICKS_PER_SEGMENT", 3),
		LookbackDays:    getEnvAsInt("WEALTHPULSE_LOOKBACK_DAYS", 30),

		SocialEnabled:           getEnvAsBool("WEALTHPULSE_SOCIAL_ENABLED", false),
		SocialVelocityThreshold: getEnvAsFloat("WEALTHPULSE_SOCIAL_VELOCITY_THRESHOLD", 1.5),
		SocialMinMentions:       getEnvAsInt("WEALTHPULSE_SOCIAL_MIN_MENTIONS", 5),

		SectorMapPath: getEnv("WEALTHPULSE_SECTOR_MAP_PATH", ""),

		// 21:30 UTC weekdays, shortly after the US close.
		SnapshotCron: getEnv("WEALTHPULSE_SNAPSHOT_CRON", "0 30 21 * * MON-FRI"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("WEALTHPULSE_DATABASE_PATH is required")
	}
	if c.FreshDays <= 0 {
		return fmt.Errorf("WEALTHPULSE_FRESH_DAYS must be positive")
	}
	if c.BuyThreshold <= c.AvoidThreshold {
		return fmt.Errorf("WEALTHPULSE_BUY_THRESHOLD must exceed WEALTHPULSE_AVOID_THRESHOLD")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
