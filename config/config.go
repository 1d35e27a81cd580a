package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP configuration
	ListenAddr  string
	MetricsAddr string

	// Session cookie signing key
	SessionSecret string

	// Token required by the result-declaration endpoint
	AdminToken string

	// Points granted to every new user
	StartingBalance int64

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
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		ListenAddr:    os.Getenv("LISTEN_ADDR"),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		AdminToken:    os.Getenv("ADMIN_TOKEN"),

		StartingBalance: 1000,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsedBalance, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsedBalance
		}
	}

	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.MetricsAddr == "" {
		config.MetricsAddr = ":9090"
	}
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.SessionSecret == "" {
			return nil, fmt.Errorf("SESSION_SECRET is required")
		}
	}

	return config, nil
}
