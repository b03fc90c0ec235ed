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

	assert.Equal(t, TransportREST, c.Transport)
	assert.Equal(t, "http://127.0.0.1:8080/api", c.ServerURL)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.EqualValues(t, 3, c.Retries)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 30*time.Second, c.UndoWindow)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.Seed)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080/api", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "memory ok", mutate: func(c *Config) { c.Transport = TransportMemory }},
		{name: "pg without dsn", mutate: func(c *Config) { c.Transport = TransportPG }, wantErr: "database DSN"},
		{name: "pg with dsn", mutate: func(c *Config) { c.Transport = TransportPG; c.DatabaseDSN = "postgres://x" }},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Transport = TransportS3; c.S3Bucket = "" }, wantErr: "bucket"},
		{name: "unknown transport", mutate: func(c *Config) { c.Transport = "carrier-pigeon" }, wantErr: "unknown transport"},
		{name: "empty cache", mutate: func(c *Config) { c.CacheDSN = "" }, wantErr: "cache"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
