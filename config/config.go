package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Ledger gateway configuration
	LedgerURL      string // HTTP gateway of the remote game ledger
	EventStreamURL string // websocket endpoint for pushed ledger events

	// Player identity
	Account string // account address used for submissions

	// Database configuration
	DatabaseURL string

	// Engine tuning
	PollInterval   time.Duration // periodic reconciliation cadence
	ConfirmTimeout time.Duration // bound on awaiting a tx confirmation

	// Discord notifier (optional)
	DiscordToken     string
	DiscordChannelID string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		LedgerURL:      os.Getenv("LEDGER_URL"),
		EventStreamURL: os.Getenv("EVENT_STREAM_URL"),
		Account:        os.Getenv("PLAYER_ACCOUNT"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		// Engine defaults
		PollInterval:   5 * time.Second,
		ConfirmTimeout: 90 * time.Second,

		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if interval := os.Getenv("POLL_INTERVAL_SECONDS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil && parsed > 0 {
			config.PollInterval = time.Duration(parsed) * time.Second
		}
	}
	if timeout := os.Getenv("CONFIRM_TIMEOUT_SECONDS"); timeout != "" {
		if parsed, err := strconv.Atoi(timeout); err == nil && parsed > 0 {
			config.ConfirmTimeout = time.Duration(parsed) * time.Second
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.LedgerURL == "" {
			return nil, fmt.Errorf("LEDGER_URL is required")
		}
		if config.Account == "" {
			return nil, fmt.Errorf("PLAYER_ACCOUNT is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
