package config

import (
	"flag"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected *Config
		name     string
		args     []string
	}{
		{name: "Test1 OK", args: []string{"cmd", "-a", ":9090", "-d", "postgres://u:p@localhost/rf", "-k", "s3cret"},
			expected: &Config{EndpointAddr: ":9090", DatabaseDSN: "postgres://u:p@localhost/rf", SecretKey: "s3cret"}},
		{name: "Test2 no flags keeps current", args: []string{"cmd"},
			expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(config, tt.expected))
		})
	}
}
