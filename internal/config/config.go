// Package config provides configuration management for Dossier.
// Settings come from three layers: built-in defaults, an optional
// YAML config file, and environment variables with the DOSSIER_
// prefix. Later layers override earlier ones, so an env var always
// wins over the file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Dossier application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Resolution ResolutionConfig `yaml:"resolution"`
	Graph      GraphConfig      `yaml:"graph"`
	Security   SecurityConfig   `yaml:"security"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 8280)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	Engine      string `yaml:"engine"`       // Storage engine: sqlite, postgres (default: sqlite)
	DataPath    string `yaml:"data_path"`    // Directory for the SQLite database file (default: ./data)
	PostgresDSN string `yaml:"postgres_dsn"` // Connection string when engine is postgres
}

// ResolutionConfig contains entity resolution tunables.
type ResolutionConfig struct {
	DefaultType string `yaml:"default_type"` // Type filter applied when a resolve run gives none
}

// GraphConfig contains graph analysis tunables.
type GraphConfig struct {
	CommunitySeed   int `yaml:"community_seed"`   // Seed for community detection (default: 42)
	CentralityLimit int `yaml:"centrality_limit"` // Default ranking size (default: 50)
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string `yaml:"security_mode"` // Security mode: development, production (default: development)
	APIToken     string `yaml:"api_token"`     // API authentication token
}

// RateLimitConfig contains API rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`             // Enable rate limiting (default: true)
	RequestsPerSecond float64 `yaml:"requests_per_second"` // Sustained rate (default: 25)
	Burst             int     `yaml:"burst"`               // Burst allowance (default: 50)
}

// LoadConfig loads configuration from defaults, the file named by
// DOSSIER_CONFIG (when set), and DOSSIER_* environment variables, in
// that order of precedence.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("DOSSIER_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadConfigFile loads configuration from defaults, the given YAML
// file, and DOSSIER_* environment variables, in that order of
// precedence.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8280,
			Host: "127.0.0.1",
		},
		Storage: StorageConfig{
			Engine:   "sqlite",
			DataPath: "./data",
		},
		Graph: GraphConfig{
			CommunitySeed:   42,
			CentralityLimit: 50,
		},
		Security: SecurityConfig{
			SecurityMode: "development",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 25,
			Burst:             50,
		},
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvInt("DOSSIER_PORT", c.Server.Port)
	c.Server.Host = getEnv("DOSSIER_HOST", c.Server.Host)

	c.Storage.Engine = getEnv("DOSSIER_STORAGE_ENGINE", c.Storage.Engine)
	c.Storage.DataPath = getEnv("DOSSIER_DATA_PATH", c.Storage.DataPath)
	c.Storage.PostgresDSN = getEnv("DOSSIER_POSTGRES_DSN", c.Storage.PostgresDSN)

	c.Resolution.DefaultType = getEnv("DOSSIER_RESOLUTION_TYPE", c.Resolution.DefaultType)

	c.Graph.CommunitySeed = getEnvInt("DOSSIER_COMMUNITY_SEED", c.Graph.CommunitySeed)
	c.Graph.CentralityLimit = getEnvInt("DOSSIER_CENTRALITY_LIMIT", c.Graph.CentralityLimit)

	c.Security.SecurityMode = getEnv("DOSSIER_SECURITY_MODE", c.Security.SecurityMode)
	c.Security.APIToken = getEnv("DOSSIER_API_TOKEN", c.Security.APIToken)

	c.RateLimit.Enabled = getEnvBool("DOSSIER_RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerSecond = getEnvFloat("DOSSIER_RATE_LIMIT_RPS", c.RateLimit.RequestsPerSecond)
	c.RateLimit.Burst = getEnvInt("DOSSIER_RATE_LIMIT_BURST", c.RateLimit.Burst)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false (case-insensitive).
// If the environment variable exists but cannot be parsed as a boolean,
// it returns the default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
