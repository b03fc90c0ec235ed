package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/flagx"
	"github.com/dmitrijs2005/mediminder/internal/timex"
)

// JsonConfig is the JSON file shape of Config. Durations accept "10s" as
// well as integer nanoseconds.
type JsonConfig struct {
	Address         string         `json:"address"`
	DatabaseDSN     string         `json:"database_dsn"`
	SecretKey       string         `json:"secret_key"`
	TokenValidity   timex.Duration `json:"token_validity"`
	AdminEmails     []string       `json:"admin_emails"`
	AllowedOrigins  []string       `json:"allowed_origins"`
	ListenNotify    bool           `json:"listen_notify"`
	Environment     string         `json:"environment"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`

	// RateLimitEnabled is a pointer so an explicit false can switch
	// limiting off.
	RateLimitEnabled       *bool          `json:"rate_limit_enabled"`
	RateLimitAuthenticated int            `json:"rate_limit_authenticated"`
	RateLimitAnonymous     int            `json:"rate_limit_anonymous"`
	RateLimitWindow        timex.Duration `json:"rate_limit_window"`
}

// applyJson copies the non-zero values of jc into cfg.
func applyJson(cfg *Config, jc *JsonConfig) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, v timex.Duration) {
		if v.Duration != 0 {
			*dst = v.Duration
		}
	}

	set(&cfg.Address, jc.Address)
	set(&cfg.DatabaseDSN, jc.DatabaseDSN)
	set(&cfg.SecretKey, jc.SecretKey)
	setDuration(&cfg.TokenValidity, jc.TokenValidity)
	if len(jc.AdminEmails) > 0 {
		cfg.AdminEmails = jc.AdminEmails
	}
	if len(jc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = jc.AllowedOrigins
	}
	cfg.ListenNotify = cfg.ListenNotify || jc.ListenNotify
	set(&cfg.Environment, jc.Environment)
	setDuration(&cfg.ShutdownTimeout, jc.ShutdownTimeout)
	if jc.RateLimitEnabled != nil {
		cfg.RateLimitEnabled = *jc.RateLimitEnabled
	}
	if jc.RateLimitAuthenticated > 0 {
		cfg.RateLimitAuthenticated = jc.RateLimitAuthenticated
	}
	if jc.RateLimitAnonymous > 0 {
		cfg.RateLimitAnonymous = jc.RateLimitAnonymous
	}
	setDuration(&cfg.RateLimitWindow, jc.RateLimitWindow)
}

// parseJson loads the file named by -c or -config, if any. Read and decode
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	jc := &JsonConfig{}
	if err := json.Unmarshal(data, jc); err != nil {
		panic(err)
	}
	applyJson(cfg, jc)
}
