package config

import (
	"encoding/json"
	"os"

	"github.com/rampforge/rampforge/internal/flagx"
	"github.com/rampforge/rampforge/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Durations can
// be given as strings like "24h" or as integer nanoseconds.
type JSONConfig struct {
	EndpointAddr            string         `json:"endpoint_addr"`
	DatabaseDSN             string         `json:"database_dsn"`
	RedisURL                string         `json:"redis_url"`
	SecretKey               string         `json:"secret_key"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	JanitorInterval         timex.Duration `json:"janitor_interval"`
	ConnectorTimeout        timex.Duration `json:"connector_timeout"`
}

// parseJSON overlays cfg with values from the JSON file named by the -c or
// -config flag. Absent fields keep their current value. Panics on read or
// unmarshal errors.
func parseJSON(cfg *Config) {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.EndpointAddr != "" {
		cfg.EndpointAddr = jc.EndpointAddr
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.RedisURL != "" {
		cfg.RedisURL = jc.RedisURL
	}
	if jc.SecretKey != "" {
		cfg.SecretKey = jc.SecretKey
	}
	if jc.SessionValidityDuration.Duration != 0 {
		cfg.SessionValidityDuration = jc.SessionValidityDuration.Duration
	}
	if jc.JanitorInterval.Duration != 0 {
		cfg.JanitorInterval = jc.JanitorInterval.Duration
	}
	if jc.ConnectorTimeout.Duration != 0 {
		cfg.ConnectorTimeout = jc.ConnectorTimeout.Duration
	}
}
