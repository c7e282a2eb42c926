// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/yearone/factor-pool/store/mysql"
)

// Supported storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config holds application configuration
type Config struct {
	Driver     string // sqlite or mysql
	SQLitePath string
	MySQL      mysql.Config
	Port       int
	LogLevel   string
	LogPretty  bool
}

// Default returns a Config with all default values.
func Default() *Config {
	return &Config{
		Driver:     DriverSQLite,
		SQLitePath: "factor_pool.db",
		MySQL: mysql.Config{
			Host:     "localhost",
			Port:     3306,
			User:     "yearone",
			Database: "factor_pool",
		},
		Port:     8080,
		LogLevel: "info",
	}
}

// Load reads configuration from environment variables, after loading a .env
// file from the working directory if there is one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	var err error

	cfg.Driver = getEnv("FACTOR_DB_DRIVER", cfg.Driver)
	cfg.SQLitePath = getEnv("FACTOR_SQLITE_PATH", cfg.SQLitePath)
	cfg.MySQL.Host = getEnv("FACTOR_MYSQL_HOST", cfg.MySQL.Host)
	if cfg.MySQL.Port, err = getEnvAsInt("FACTOR_MYSQL_PORT", cfg.MySQL.Port); err != nil {
		return nil, err
	}
	cfg.MySQL.User = getEnv("FACTOR_MYSQL_USER", cfg.MySQL.User)
	cfg.MySQL.Password = getEnv("FACTOR_MYSQL_PASSWORD", cfg.MySQL.Password)
	cfg.MySQL.Database = getEnv("FACTOR_MYSQL_DATABASE", cfg.MySQL.Database)

	if cfg.Port, err = getEnvAsInt("PORT", cfg.Port); err != nil {
		return nil, err
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	if cfg.LogPretty, err = getEnvAsBool("LOG_PRETTY", cfg.LogPretty); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("FACTOR_SQLITE_PATH is required for the sqlite driver")
		}
	case DriverMySQL:
		if c.MySQL.Host == "" || c.MySQL.Database == "" {
			return fmt.Errorf("FACTOR_MYSQL_HOST and FACTOR_MYSQL_DATABASE are required for the mysql driver")
		}
	default:
		return fmt.Errorf("invalid FACTOR_DB_DRIVER %q (expected %s or %s)", c.Driver, DriverSQLite, DriverMySQL)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer with a default value
func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

// getEnvAsBool gets an environment variable as boolean with a default value
func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}
