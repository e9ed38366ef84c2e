// Package config handles pilot configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Environment variables (PILOT_*, plus NEXT_PUBLIC_API_URL for the backend URL)
//  2. A .env file in the working directory (never overrides the environment)
//  3. Config file (<user config dir>/pilot/config.yaml)
//  4. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/leadpilot/pilot/internal/paths"
)

const (
	// DefaultAPIURL is the default backend endpoint.
	DefaultAPIURL = "http://localhost:8000"
	// DefaultAPITimeout is the default per-request timeout.
	DefaultAPITimeout = 30 * time.Second
	// DefaultJobPollInterval is the status polling cadence for running jobs.
	DefaultJobPollInterval = 2 * time.Second
	// DefaultLeadPollInterval is the lead counter refresh cadence.
	DefaultLeadPollInterval = 3 * time.Second
	// DefaultJobLimit is the default scrape lead limit and daily send limit.
	DefaultJobLimit = 50
)

// minInterval guards against configurations that would hammer the backend.
const minInterval = 250 * time.Millisecond

// Config keys.
const (
	KeyAPIURL           = "api.url"
	KeyAPITimeout       = "api.timeout"
	KeyJobPollInterval  = "jobs.poll_interval"
	KeyLeadPollInterval = "leads.poll_interval"
	KeyScrapeLimit      = "scrape.limit"
	KeyMessagingLimit   = "whatsapp.limit"
)

// DotEnvFile is the dotenv file read from the working directory.
const DotEnvFile = ".env"

// apiURLAlias is the variable the web dashboard used for the backend URL.
const apiURLAlias = "NEXT_PUBLIC_API_URL"

// Config holds the pilot configuration.
type Config struct {
	v *viper.Viper
}

// Load reads configuration from all sources.
func Load() *Config {
	if err := loadDotEnv(DotEnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error reading %s: %v\n", DotEnvFile, err)
	}

	v := viper.New()

	// Set defaults
	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeyAPITimeout, DefaultAPITimeout.String())
	v.SetDefault(KeyJobPollInterval, DefaultJobPollInterval.String())
	v.SetDefault(KeyLeadPollInterval, DefaultLeadPollInterval.String())
	v.SetDefault(KeyScrapeLimit, DefaultJobLimit)
	v.SetDefault(KeyMessagingLimit, DefaultJobLimit)

	// Config file location
	if configDir, err := paths.ConfigRoot(); err == nil {
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables
	v.SetEnvPrefix("PILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// PILOT_API_URL wins over the dashboard-style alias.
	_ = v.BindEnv(KeyAPIURL, "PILOT_API_URL", apiURLAlias)

	// Read config file (ignore if not found, but warn on other errors)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
		}
	}

	return &Config{v: v}
}

// loadDotEnv loads path into the environment without overriding set variables.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

// Keys returns every known configuration key in display order.
func Keys() []string {
	return []string{
		KeyAPIURL,
		KeyAPITimeout,
		KeyJobPollInterval,
		KeyLeadPollInterval,
		KeyScrapeLimit,
		KeyMessagingLimit,
	}
}

// IsKnownKey reports whether key is a recognised configuration key.
func IsKnownKey(key string) bool {
	return slices.Contains(Keys(), key)
}

// Get returns a configuration value.
func (c *Config) Get(key string) any {
	return c.v.Get(key)
}

// GetString returns a configuration value as string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns a configuration value as int.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// Set sets a configuration value and persists it.
func (c *Config) Set(key string, value any) error {
	if err := validate(key, value); err != nil {
		return err
	}

	c.v.Set(key, value)

	configFile, err := paths.ConfigFile()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
		return err
	}

	return c.v.WriteConfigAs(configFile)
}

// All returns all configuration as a map.
func (c *Config) All() map[string]any {
	return c.v.AllSettings()
}

// ConfigFileUsed returns the config file that was read, if any.
func (c *Config) ConfigFileUsed() string {
	return c.v.ConfigFileUsed()
}

// APIURL returns the configured backend URL.
func (c *Config) APIURL() string {
	return strings.TrimRight(strings.TrimSpace(c.GetString(KeyAPIURL)), "/")
}

// APITimeout returns the per-request timeout.
func (c *Config) APITimeout() time.Duration {
	return c.duration(KeyAPITimeout, DefaultAPITimeout)
}

// JobPollInterval returns the status polling cadence for running jobs.
func (c *Config) JobPollInterval() time.Duration {
	return c.duration(KeyJobPollInterval, DefaultJobPollInterval)
}

// LeadPollInterval returns the lead counter refresh cadence.
func (c *Config) LeadPollInterval() time.Duration {
	return c.duration(KeyLeadPollInterval, DefaultLeadPollInterval)
}

// ScrapeLimit returns the default number of leads per scrape.
func (c *Config) ScrapeLimit() int {
	return c.positiveInt(KeyScrapeLimit)
}

// MessagingLimit returns the default daily send limit.
func (c *Config) MessagingLimit() int {
	return c.positiveInt(KeyMessagingLimit)
}

func (c *Config) duration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.GetString(key)))
	if err != nil || d < minInterval {
		return fallback
	}

	return d
}

func (c *Config) positiveInt(key string) int {
	if n := c.GetInt(key); n > 0 {
		return n
	}

	return DefaultJobLimit
}

func validate(key string, value any) error {
	s := strings.TrimSpace(fmt.Sprint(value))

	switch key {
	case KeyAPIURL:
		if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
			return fmt.Errorf("%s must be an http(s) URL, got %q", key, s)
		}
	case KeyAPITimeout, KeyJobPollInterval, KeyLeadPollInterval:
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("%s must be a duration such as 2s: %w", key, err)
		}

		if d < minInterval {
			return fmt.Errorf("%s must be at least %s", key, minInterval)
		}
	case KeyScrapeLimit, KeyMessagingLimit:
		if n, err := strconv.Atoi(s); err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", key, s)
		}
	}

	return nil
}
