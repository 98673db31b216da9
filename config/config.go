package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"paripool/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Market configuration
	CuratorIDs        []int64       // user IDs allowed to resolve events
	MinimumStake      int64         // smallest accepted wager, minor units
	CommissionBps     int64         // curator commission in basis points of the pool
	ProofGraceWindow  time.Duration // creator-only evidence window after the stake deadline
	ScheduleLeadTime  time.Duration // minimum gap between now and a stake deadline
	StartingBalance   int64         // wallet balance granted on user creation, minor units

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// Market defaults
		MinimumStake:     10,
		CommissionBps:    50, // 0.5% of the pool
		ProofGraceWindow: 24 * time.Hour,
		ScheduleLeadTime: time.Hour,
		StartingBalance:  0,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if stake := os.Getenv("MINIMUM_STAKE"); stake != "" {
		if parsed, err := strconv.ParseInt(stake, 10, 64); err == nil && parsed > 0 {
			config.MinimumStake = parsed
		}
	}
	if bps := os.Getenv("COMMISSION_BPS"); bps != "" {
		parsed, err := strconv.ParseInt(bps, 10, 64)
		if err != nil || parsed < 0 || parsed >= 10000 {
			return nil, fmt.Errorf("COMMISSION_BPS must be an integer in [0, 10000)")
		}
		config.CommissionBps = parsed
	}
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsed, err := strconv.ParseInt(balance, 10, 64); err == nil && parsed >= 0 {
			config.StartingBalance = parsed
		}
	}
	if hours := os.Getenv("PROOF_GRACE_HOURS"); hours != "" {
		if parsed, err := strconv.Atoi(hours); err == nil && parsed > 0 {
			config.ProofGraceWindow = time.Duration(parsed) * time.Hour
		}
	}

	// Parse curator user IDs
	if curatorIDs := os.Getenv("CURATOR_IDS"); curatorIDs != "" {
		for _, idStr := range strings.Split(curatorIDs, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				config.CuratorIDs = append(config.CuratorIDs, id)
			}
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:      "test",
		CuratorIDs:       []int64{999999, 999991, 999998}, // Default test curator IDs
		MinimumStake:     10,
		CommissionBps:    50,
		ProofGraceWindow: 24 * time.Hour,
		ScheduleLeadTime: time.Hour,
		StartingBalance:  0,
	}
}
