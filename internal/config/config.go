// Package config loads server settings from the environment, an optional
// .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	// HTTP server
	Port            string
	SecureCookie    bool
	ShutdownTimeout time.Duration

	// Database
	DBPath string

	// Initial user created when the database has none
	AdminUser     string
	AdminEmail    string
	AdminPassword string

	// Logging
	LogLevel  string
	LogFormat string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("secure_cookie", false)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("db_path", "expenses.db")
	v.SetDefault("admin_user", "")
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.AutomaticEnv()
	return v
}

// Load reads configuration. Environment variables (PORT, DB_PATH, ...) take
// precedence over the config file. When configFile is empty a config.yaml in
// the working directory is used if present.
func Load(configFile string) (*Config, error) {
	// .env is a local development convenience; it is fine for it to be missing.
	_ = godotenv.Load()

	v := newViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &Config{
		Port:            v.GetString("port"),
		SecureCookie:    v.GetBool("secure_cookie"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		DBPath:          v.GetString("db_path"),
		AdminUser:       strings.TrimSpace(v.GetString("admin_user")),
		AdminEmail:      strings.TrimSpace(v.GetString("admin_email")),
		AdminPassword:   v.GetString("admin_password"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
	}, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		problems = append(problems, "database path cannot be empty")
	}

	if c.ShutdownTimeout <= 0 {
		problems = append(problems, "shutdown timeout must be positive")
	}

	if (c.AdminUser == "") != (c.AdminPassword == "") {
		problems = append(problems, "ADMIN_USER and ADMIN_PASSWORD must be set together")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// AdminEmailOrDefault returns the admin email, deriving one from the
// username when none is configured.
func (c *Config) AdminEmailOrDefault() string {
	if c.AdminEmail != "" {
		return c.AdminEmail
	}
	return c.AdminUser + "@localhost"
}
