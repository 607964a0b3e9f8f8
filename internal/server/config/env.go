package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type envConfig struct {
	EndpointAddr            string        `env:"RAMPFORGE_ENDPOINT_ADDR"`
	DatabaseDSN             string        `env:"RAMPFORGE_DATABASE_DSN"`
	RedisURL                string        `env:"RAMPFORGE_REDIS_URL"`
	SecretKey               string        `env:"RAMPFORGE_SECRET_KEY"`
	SessionValidityDuration time.Duration `env:"RAMPFORGE_SESSION_VALIDITY"`
	JanitorInterval         time.Duration `env:"RAMPFORGE_JANITOR_INTERVAL"`
	ConnectorTimeout        time.Duration `env:"RAMPFORGE_CONNECTOR_TIMEOUT"`
}

// parseEnv overlays cfg with RAMPFORGE_* environment variables. Unset
// variables keep the current value.
func parseEnv(cfg *Config) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		panic(err)
	}

	if ec.EndpointAddr != "" {
		cfg.EndpointAddr = ec.EndpointAddr
	}
	if ec.DatabaseDSN != "" {
		cfg.DatabaseDSN = ec.DatabaseDSN
	}
	if ec.RedisURL != "" {
		cfg.RedisURL = ec.RedisURL
	}
	if ec.SecretKey != "" {
		cfg.SecretKey = ec.SecretKey
	}
	if ec.SessionValidityDuration != 0 {
		cfg.SessionValidityDuration = ec.SessionValidityDuration
	}
	if ec.JanitorInterval != 0 {
		cfg.JanitorInterval = ec.JanitorInterval
	}
	if ec.ConnectorTimeout != 0 {
		cfg.ConnectorTimeout = ec.ConnectorTimeout
	}
}
