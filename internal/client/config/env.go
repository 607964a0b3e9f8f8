package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type envConfig struct {
	ServerURL       string        `env:"RAMPFORGE_SERVER_URL"`
	StateDBPath     string        `env:"RAMPFORGE_STATE_DB"`
	TokenMirrorPath string        `env:"RAMPFORGE_TOKEN_MIRROR"`
	VerifyInterval  time.Duration `env:"RAMPFORGE_VERIFY_INTERVAL"`
	RequestTimeout  time.Duration `env:"RAMPFORGE_REQUEST_TIMEOUT"`
}

// parseEnv overlays cfg with RAMPFORGE_* environment variables. Unset
// variables keep the current value.
func parseEnv(cfg *Config) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		panic(err)
	}

	if ec.ServerURL != "" {
		cfg.ServerURL = ec.ServerURL
	}
	if ec.StateDBPath != "" {
		cfg.StateDBPath = ec.StateDBPath
	}
	if ec.TokenMirrorPath != "" {
		cfg.TokenMirrorPath = ec.TokenMirrorPath
	}
	if ec.VerifyInterval != 0 {
		cfg.VerifyInterval = ec.VerifyInterval
	}
	if ec.RequestTimeout != 0 {
		cfg.RequestTimeout = ec.RequestTimeout
	}
}
