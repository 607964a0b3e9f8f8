package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the RampForge CLI.
//
// Fields:
//   - ServerURL: base URL of the backend HTTP API.
//   - StateDBPath: path of the sqlite database holding session state.
//   - TokenMirrorPath: path of the plain-file token mirror ("" disables it).
//   - VerifyInterval: how often an authenticated session is re-validated.
//   - RequestTimeout: per-request deadline for API calls.
type Config struct {
	ServerURL       string
	StateDBPath     string
	TokenMirrorPath string
	VerifyInterval  time.Duration
	RequestTimeout  time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	dir := stateDir()
	c.ServerURL = "http://127.0.0.1:8080"
	c.StateDBPath = filepath.Join(dir, "state.db")
	c.TokenMirrorPath = filepath.Join(dir, "token")
	c.VerifyInterval = 10 * time.Minute
	c.RequestTimeout = 12 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), environment variables, and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".rampforge")
}
