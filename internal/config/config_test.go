package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// unsetEnvForTest unsets an environment variable and registers cleanup to
// restore its original state (including distinguishing "unset" from "set to
// empty string").
func unsetEnvForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

// isolate points the config directory at a temp dir and clears pilot variables.
func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	for _, key := range []string{
		"PILOT_API_URL",
		"PILOT_API_TIMEOUT",
		"PILOT_JOBS_POLL_INTERVAL",
		"PILOT_LEADS_POLL_INTERVAL",
		"PILOT_SCRAPE_LIMIT",
		"PILOT_WHATSAPP_LIMIT",
		"NEXT_PUBLIC_API_URL",
	} {
		unsetEnvForTest(t, key)
	}

	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg := Load()

	tests := []struct {
		name     string
		accessor func(*Config) any
		want     any
	}{
		{name: "API URL", accessor: func(c *Config) any { return c.APIURL() }, want: DefaultAPIURL},
		{name: "API timeout", accessor: func(c *Config) any { return c.APITimeout() }, want: DefaultAPITimeout},
		{name: "job poll interval", accessor: func(c *Config) any { return c.JobPollInterval() }, want: DefaultJobPollInterval},
		{name: "lead poll interval", accessor: func(c *Config) any { return c.LeadPollInterval() }, want: DefaultLeadPollInterval},
		{name: "scrape limit", accessor: func(c *Config) any { return c.ScrapeLimit() }, want: DefaultJobLimit},
		{name: "messaging limit", accessor: func(c *Config) any { return c.MessagingLimit() }, want: DefaultJobLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.accessor(cfg); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoad_FromEnv(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		envVal string
		check  func(*Config) bool
	}{
		{
			name:   "API URL",
			envVar: "PILOT_API_URL",
			envVal: "http://backend.internal:9000/",
			check:  func(c *Config) bool { return c.APIURL() == "http://backend.internal:9000" },
		},
		{
			name:   "dashboard alias",
			envVar: "NEXT_PUBLIC_API_URL",
			envVal: "http://10.0.0.5:8000",
			check:  func(c *Config) bool { return c.APIURL() == "http://10.0.0.5:8000" },
		},
		{
			name:   "job poll interval",
			envVar: "PILOT_JOBS_POLL_INTERVAL",
			envVal: "5s",
			check:  func(c *Config) bool { return c.JobPollInterval() == 5*time.Second },
		},
		{
			name:   "too small interval falls back",
			envVar: "PILOT_LEADS_POLL_INTERVAL",
			envVal: "1ms",
			check:  func(c *Config) bool { return c.LeadPollInterval() == DefaultLeadPollInterval },
		},
		{
			name:   "scrape limit",
			envVar: "PILOT_SCRAPE_LIMIT",
			envVal: "120",
			check:  func(c *Config) bool { return c.ScrapeLimit() == 120 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.envVar, tt.envVal)

			if !tt.check(Load()) {
				t.Errorf("%s=%s not applied", tt.envVar, tt.envVal)
			}
		})
	}
}

func TestLoad_PrefixedURLBeatsAlias(t *testing.T) {
	isolate(t)
	t.Setenv("NEXT_PUBLIC_API_URL", "http://alias:8000")
	t.Setenv("PILOT_API_URL", "http://primary:8000")

	if got := Load().APIURL(); got != "http://primary:8000" {
		t.Errorf("APIURL() = %q, want PILOT_API_URL value", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := "NEXT_PUBLIC_API_URL=http://from-dotenv:8000\nPILOT_SCRAPE_LIMIT=7\n"

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	// Already-set variables are never overridden.
	t.Setenv("PILOT_SCRAPE_LIMIT", "9")

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv() error = %v", err)
	}

	if got := os.Getenv("NEXT_PUBLIC_API_URL"); got != "http://from-dotenv:8000" {
		t.Errorf("NEXT_PUBLIC_API_URL = %q", got)
	}
	if got := os.Getenv("PILOT_SCRAPE_LIMIT"); got != "9" {
		t.Errorf("PILOT_SCRAPE_LIMIT = %q, want existing value kept", got)
	}

	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("loadDotEnv(missing) error = %v, want nil", err)
	}
}

func TestConfig_SetPersists(t *testing.T) {
	dir := isolate(t)

	cfg := Load()

	if err := cfg.Set(KeyJobPollInterval, "4s"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "pilot", "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if got := Load().JobPollInterval(); got != 4*time.Second {
		t.Errorf("reloaded JobPollInterval() = %v, want 4s", got)
	}
}

func TestConfig_SetValidates(t *testing.T) {
	isolate(t)

	cfg := Load()

	tests := []struct {
		key   string
		value string
	}{
		{key: KeyAPIURL, value: "localhost:8000"},
		{key: KeyJobPollInterval, value: "soon"},
		{key: KeyLeadPollInterval, value: "10ms"},
		{key: KeyScrapeLimit, value: "0"},
		{key: KeyMessagingLimit, value: "12abc"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			if err := cfg.Set(tt.key, tt.value); err == nil {
				t.Errorf("Set(%q, %q) expected error", tt.key, tt.value)
			}
		})
	}
}

func TestConfig_All(t *testing.T) {
	isolate(t)

	all := Load().All()

	for _, section := range []string{"api", "jobs", "leads", "scrape", "whatsapp"} {
		if _, ok := all[section]; !ok {
			t.Errorf("All() missing %q section", section)
		}
	}
}

func TestIsKnownKey(t *testing.T) {
	if !IsKnownKey(KeyAPIURL) {
		t.Error("IsKnownKey(api.url) = false")
	}
	if IsKnownKey("worker.poll_interval") {
		t.Error("IsKnownKey(worker.poll_interval) = true")
	}
}
