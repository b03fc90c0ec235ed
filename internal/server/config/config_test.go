package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults_AreValid(t *testing.T) {
	c := defaults()
	require.NoError(t, c.Validate())
	assert.False(t, c.IsProduction())
	assert.Equal(t, ":8080", c.Address)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"empty dsn", func(c *Config) { c.DatabaseDSN = "" }, "database dsn"},
		{"empty address", func(c *Config) { c.Address = "" }, "address"},
		{"empty secret", func(c *Config) { c.SecretKey = "" }, "secret key"},
		{"short secret", func(c *Config) { c.SecretKey = "short" }, "at least 32"},
		{"zero validity", func(c *Config) { c.TokenValidity = 0 }, "token validity"},
		{"negative validity", func(c *Config) { c.TokenValidity = -time.Minute }, "token validity"},
		{"zero rate limit", func(c *Config) { c.RateLimitAnonymous = 0 }, "rate limits"},
		{"zero rate window", func(c *Config) { c.RateLimitWindow = 0 }, "rate limit window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_DisabledRateLimitIgnoresLimits(t *testing.T) {
	c := defaults()
	c.RateLimitEnabled = false
	c.RateLimitAuthenticated = 0
	c.RateLimitWindow = 0
	assert.NoError(t, c.Validate())
}

func TestParseFlagArgs(t *testing.T) {
	c := defaults()
	parseFlagArgs(c, []string{"-a", ":9090", "-d", "postgres://db", "-s", strings.Repeat("k", 40), "-t", "90", "-e", "production", "-listen"})

	want := defaults()
	want.Address = ":9090"
	want.DatabaseDSN = "postgres://db"
	want.SecretKey = strings.Repeat("k", 40)
	want.TokenValidity = 90 * time.Minute
	want.Environment = "production"
	want.ListenNotify = true
	assert.Empty(t, cmp.Diff(want, c))
}

func TestParseFlagArgs_BadValuePanics(t *testing.T) {
	assert.Panics(t, func() { parseFlagArgs(defaults(), []string{"-t", "abc"}) })
}

func TestParseEnv(t *testing.T) {
	t.Setenv("MEDIMINDER_ADDRESS", ":7000")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("MEDIMINDER_TOKEN_VALIDITY", "2h")
	t.Setenv("MEDIMINDER_ADMIN_EMAILS", "root@example.com, ops@example.com")
	t.Setenv("MEDIMINDER_LISTEN_NOTIFY", "true")
	t.Setenv("MEDIMINDER_RATE_LIMIT_ANONYMOUS", "5")
	t.Setenv("MEDIMINDER_RATE_LIMIT_WINDOW", "30s")

	c := defaults()
	require.NoError(t, parseEnv(c))

	assert.Equal(t, ":7000", c.Address)
	assert.Equal(t, "postgres://env", c.DatabaseDSN)
	assert.Equal(t, strings.Repeat("s", 32), c.SecretKey)
	assert.Equal(t, 2*time.Hour, c.TokenValidity)
	assert.Equal(t, []string{"root@example.com", "ops@example.com"}, c.AdminEmails)
	assert.True(t, c.ListenNotify)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins, "unset variables keep current values")
	assert.Equal(t, 10*time.Second, c.ShutdownTimeout)
	assert.Equal(t, 5, c.RateLimitAnonymous)
	assert.Equal(t, 30*time.Second, c.RateLimitWindow)
	assert.Equal(t, 100, c.RateLimitAuthenticated)
	assert.True(t, c.RateLimitEnabled)
}

func TestParseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "server.json")
	data, err := json.Marshal(map[string]any{
		"address":                  ":8181",
		"token_validity":           "30m",
		"admin_emails":             []string{"root@example.com"},
		"allowed_origins":          []string{"https://app.example"},
		"shutdown_timeout":         int64(3 * time.Second),
		"rate_limit_enabled":       false,
		"rate_limit_authenticated": 50,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	os.Args = []string{"server", "-c", path}
	c := defaults()
	parseJson(c)

	assert.Equal(t, ":8181", c.Address)
	assert.Equal(t, 30*time.Minute, c.TokenValidity)
	assert.Equal(t, []string{"root@example.com"}, c.AdminEmails)
	assert.Equal(t, []string{"https://app.example"}, c.AllowedOrigins)
	assert.Equal(t, 3*time.Second, c.ShutdownTimeout)
	assert.False(t, c.RateLimitEnabled)
	assert.Equal(t, 50, c.RateLimitAuthenticated)
	assert.Equal(t, 20, c.RateLimitAnonymous)
	assert.Equal(t, defaults().DatabaseDSN, c.DatabaseDSN, "absent keys keep defaults")
}

func TestParseJson_MissingFilePanics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"server", "-config", filepath.Join(t.TempDir(), "nope.json")}
	assert.Panics(t, func() { parseJson(defaults()) })
}
