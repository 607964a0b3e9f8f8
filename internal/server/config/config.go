// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment variables and
// command-line flags.
package config

import "time"

// Config holds runtime settings for the RampForge server.
//
// Fields:
//   - EndpointAddr: bind address for the public HTTP endpoint.
//   - DatabaseDSN: sqlite file path, or a postgres:// DSN (pgx).
//   - RedisURL: optional redis URL for the session cache ("" disables it).
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - SessionValidityDuration: lifetime of an issued session token.
//   - JanitorInterval: how often expired sessions are purged.
//   - ConnectorTimeout: per-request deadline for outbound MCP connector calls.
type Config struct {
	EndpointAddr            string
	DatabaseDSN             string
	RedisURL                string
	SecretKey               string
	SessionValidityDuration time.Duration
	JanitorInterval         time.Duration
	ConnectorTimeout        time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = "rampforge.db"
	c.RedisURL = ""
	c.SecretKey = "secretKey"
	c.SessionValidityDuration = 24 * time.Hour
	c.JanitorInterval = 10 * time.Minute
	c.ConnectorTimeout = 10 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, environment variables and finally
// command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
