// Package config handles configuration for the dimplexctl binary.
//
// It provides:
//   - Flag parsing with CLI arguments
//   - Environment variable support (with CLI override)
//   - Configuration validation
//   - Precedence: CLI flags > environment variables > defaults
//
// Supported environment variables:
//   - DIMPLEX_TOKEN_PATH: Path to the token storage file
//   - DIMPLEX_EMAIL: Account email for headless login (optional)
//   - DIMPLEX_PASSWORD: Account password for headless login (optional)
//   - DIMPLEX_TIMEOUT: Timeout for API requests (seconds)
//   - DIMPLEX_LOG_LEVEL: Logging level (debug, info, warn, error)
//   - DIMPLEX_LOG_FORMAT: Logging format (text, json)
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	// Token storage
	TokenPath string

	// Account credentials for headless login (optional; when absent the
	// user pastes an authorization code instead)
	Email    string
	Password string

	// Request timeout in seconds
	Timeout int

	// Logging
	LogLevel  string
	LogFormat string
}

// Load parses environment variables and command-line flags and returns a Config
// Precedence: CLI flags > environment variables > defaults
func Load() *Config {
	return LoadWithArgs(os.Args[1:])
}

// LoadWithArgs loads configuration with explicit arguments (useful for testing)
func LoadWithArgs(args []string) *Config {
	cfg := &Config{}

	envTokenPath := os.Getenv("DIMPLEX_TOKEN_PATH")
	envEmail := os.Getenv("DIMPLEX_EMAIL")
	envPassword := os.Getenv("DIMPLEX_PASSWORD")
	envTimeout := os.Getenv("DIMPLEX_TIMEOUT")
	envLogLevel := os.Getenv("DIMPLEX_LOG_LEVEL")
	envLogFormat := os.Getenv("DIMPLEX_LOG_FORMAT")

	homeDir := os.Getenv("HOME")
	if homeDir == "" {
		homeDir = "/root"
	}
	defaultTokenPath := filepath.Join(homeDir, ".dimplex", "tokens.json")

	if envTokenPath != "" {
		defaultTokenPath = envTokenPath
	}
	if envTimeout == "" {
		envTimeout = "30"
	}
	if envLogLevel == "" {
		envLogLevel = "info"
	}
	if envLogFormat == "" {
		envLogFormat = "text"
	}

	// Create a new FlagSet for this invocation (allows multiple calls in tests)
	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	fs.StringVar(&cfg.TokenPath, "token-path", defaultTokenPath, "Path to the token storage file (env: DIMPLEX_TOKEN_PATH)")
	fs.StringVar(&cfg.Email, "email", envEmail, "Account email for headless login (env: DIMPLEX_EMAIL, optional)")
	fs.StringVar(&cfg.Password, "password", envPassword, "Account password for headless login (env: DIMPLEX_PASSWORD, optional)")
	fs.IntVar(&cfg.Timeout, "timeout", parseEnvInt(envTimeout, 30), "Maximum time in seconds to wait for API responses (env: DIMPLEX_TIMEOUT)")
	fs.StringVar(&cfg.LogLevel, "log-level", envLogLevel, "Logging verbosity: debug, info, warn, error (env: DIMPLEX_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", envLogFormat, "Logging format: text or json (env: DIMPLEX_LOG_FORMAT)")

	_ = fs.Parse(args)

	return cfg
}

// parseEnvInt parses an environment variable as an integer, returning default if invalid
func parseEnvInt(envValue string, defaultValue int) int {
	if envValue == "" {
		return defaultValue
	}
	var result int
	_, err := fmt.Sscanf(envValue, "%d", &result)
	if err != nil {
		return defaultValue
	}
	return result
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.TokenPath == "" {
		return fmt.Errorf("token-path is required (use -token-path flag or DIMPLEX_TOKEN_PATH env var)")
	}

	if c.Timeout < 1 {
		return fmt.Errorf("invalid timeout: %d (must be at least 1 second)", c.Timeout)
	}

	if (c.Email == "") != (c.Password == "") {
		return fmt.Errorf("email and password must be provided together for headless login")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log-level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log-format: %s (must be 'text' or 'json')", c.LogFormat)
	}

	return nil
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf("Config{TokenPath: %s, Timeout: %ds, LogLevel: %s, LogFormat: %s}",
		c.TokenPath, c.Timeout, c.LogLevel, c.LogFormat)
}
