package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-t", "pg", "-a", "http://api:8080/api", "-r", "5", "-d", "postgres://db", "-f", "c.db", "-l", "c.log", "-i", "10", "-seed"},
			expected: &Config{
				Transport:           TransportPG,
				ServerURL:           "http://api:8080/api",
				Retries:             5,
				DatabaseDSN:         "postgres://db",
				CacheDSN:            "c.db",
				LogFile:             "c.log",
				OnlineCheckInterval: 10 * time.Second,
				Seed:                true,
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"cmd", "-c", "conf.json", "-v", "-a", "http://x/api"},
			expected: &Config{ServerURL: "http://x/api"},
		},
		{name: "incorrect check interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true},
		{name: "incorrect retries", args: []string{"cmd", "-r", "-1"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
