package config

import (
	"encoding/json"
	"os"

	"github.com/rampforge/rampforge/internal/flagx"
	"github.com/rampforge/rampforge/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "10m"
// or as integer nanoseconds.
type JSONConfig struct {
	ServerURL       string         `json:"server_url"`
	StateDBPath     string         `json:"state_db_path"`
	TokenMirrorPath string         `json:"token_mirror_path"`
	VerifyInterval  timex.Duration `json:"verify_interval"`
	RequestTimeout  timex.Duration `json:"request_timeout"`
}

// parseJSON overlays cfg with values from the JSON file named by the -c or
// -config flag. Absent file path means no overlay; absent fields keep their
// current value. Panics on read or unmarshal errors.
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

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.StateDBPath != "" {
		cfg.StateDBPath = jc.StateDBPath
	}
	if jc.TokenMirrorPath != "" {
		cfg.TokenMirrorPath = jc.TokenMirrorPath
	}
	if jc.VerifyInterval.Duration != 0 {
		cfg.VerifyInterval = jc.VerifyInterval.Duration
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
