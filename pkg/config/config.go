package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all process configuration. Values come from the environment
// (with .env support); command-line flags in main may override them.
type Config struct {
	Env string

	// DataDir is the base directory a relative MemoryFile resolves against.
	DataDir    string
	MemoryFile string

	// MCP transport: stdio or http.
	Transport string
	Port      string

	// Read-only web viewer gateway.
	ViewerEnabled bool
	ViewerPort    string
}

// Load reads configuration from environment variables. A missing .env file
// is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:           getEnv("ENV", "development"),
		DataDir:       getEnv("DATA_DIR", "."),
		MemoryFile:    getEnv("MEMORY_FILE_PATH", "memory.json"),
		Transport:     getEnv("TRANSPORT", "stdio"),
		Port:          getEnv("PORT", "8081"),
		ViewerEnabled: getEnvBool("VIEWER_ENABLED", false),
		ViewerPort:    getEnv("VIEWER_PORT", "8082"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that configured values are usable.
func (c *Config) Validate() error {
	if c.Transport != "stdio" && c.Transport != "http" {
		return fmt.Errorf("TRANSPORT must be stdio or http, got %q", c.Transport)
	}
	if c.MemoryFile == "" {
		return fmt.Errorf("MEMORY_FILE_PATH is required")
	}
	return nil
}

// StorePath resolves the memory file path. Relative paths are anchored at
// DataDir; absolute paths are used as-is.
func (c *Config) StorePath() string {
	if filepath.IsAbs(c.MemoryFile) {
		return c.MemoryFile
	}
	return filepath.Join(c.DataDir, c.MemoryFile)
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
