package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.Equal(t, "rampforge.db", c.DatabaseDSN)
	assert.Empty(t, c.RedisURL)
	assert.Equal(t, 24*time.Hour, c.SessionValidityDuration)
	assert.Equal(t, 10*time.Minute, c.JanitorInterval)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.Equal(t, 24*time.Hour, cfg.SessionValidityDuration)
}

func Test_parseEnv(t *testing.T) {
	t.Setenv("RAMPFORGE_ENDPOINT_ADDR", ":9090")
	t.Setenv("RAMPFORGE_SESSION_VALIDITY", "1h")

	cfg := &Config{EndpointAddr: ":8080", DatabaseDSN: "x.db", SessionValidityDuration: 24 * time.Hour}
	parseEnv(cfg)

	assert.Equal(t, ":9090", cfg.EndpointAddr)
	assert.Equal(t, time.Hour, cfg.SessionValidityDuration)
	assert.Equal(t, "x.db", cfg.DatabaseDSN)
}
