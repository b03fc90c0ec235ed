package config

import (
	"fmt"
	"time"
)

const (
	TransportREST   = "rest"
	TransportPG     = "pg"
	TransportS3     = "s3"
	TransportMemory = "memory"
)

// Config holds runtime settings for the MediMinder CLI.
//
// Fields:
//   - Transport: which backend the sync engine talks to (rest, pg, s3, memory).
//   - ServerURL: API mount point of the REST server; accounts always live there.
//   - RequestTimeout, Retries: REST call bound and retry budget.
//   - DatabaseDSN: Postgres DSN for the pg transport.
//   - S3*: bucket settings for the s3 transport.
//   - CacheDSN: SQLite file of the local cache.
//   - LogFile: rotating log file; the REPL keeps stdout for itself.
//   - LogLevel: minimum slog level written to LogFile.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - LoadTimeout, PushTimeout: bounds of background sync calls.
//   - UndoWindow: how long a deletion can be undone.
//   - Seed: fill an empty tracker with sample data at startup.
type Config struct {
	Transport      string
	ServerURL      string
	RequestTimeout time.Duration
	Retries        uint64

	DatabaseDSN string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	CacheDSN string
	LogFile  string
	LogLevel string

	OnlineCheckInterval time.Duration
	LoadTimeout         time.Duration
	PushTimeout         time.Duration
	UndoWindow          time.Duration

	Seed bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Transport = TransportREST
	c.ServerURL = "http://127.0.0.1:8080/api"
	c.RequestTimeout = 10 * time.Second
	c.Retries = 3
	c.S3Region = "us-east-1"
	c.S3Bucket = "mediminder"
	c.CacheDSN = "mediminder.db"
	c.LogFile = "mediminder.log"
	c.LogLevel = "info"
	c.OnlineCheckInterval = 3 * time.Second
	c.LoadTimeout = 15 * time.Second
	c.PushTimeout = 15 * time.Second
	c.UndoWindow = 30 * time.Second
}

// Validate reports settings the selected transport cannot work with.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportREST, TransportMemory:
	case TransportPG:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("transport %q requires a database DSN (-d)", c.Transport)
		}
	case TransportS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("transport %q requires a bucket", c.Transport)
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.ServerURL == "" {
		return fmt.Errorf("server url is required")
	}
	if c.CacheDSN == "" {
		return fmt.Errorf("cache path is required")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
