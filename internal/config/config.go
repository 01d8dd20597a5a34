// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// DefaultDBPath is used when DB_PATH is unset.
const DefaultDBPath = "finance.db"

// Config holds settings shared by the commands.
type Config struct {
	DBPath     string
	LogLevel   string
	LogFile    string
	BcryptCost int
}

// Load reads envFile (if it exists) into the process environment without
// overriding variables already set, then builds a Config from the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		DBPath:     getenv("DB_PATH", DefaultDBPath),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogFile:    os.Getenv("LOG_FILE"),
		BcryptCost: bcrypt.DefaultCost,
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("BCRYPT_COST is not a number: %w", err)
		}
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
		}
		cfg.BcryptCost = cost
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
