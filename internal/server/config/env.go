package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "MEDIMINDER"

// parseEnv overlays cfg with MEDIMINDER_* variables. Unset variables keep
// the current values, which viper sees as defaults.
func parseEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("address", cfg.Address)
	v.SetDefault("database_dsn", cfg.DatabaseDSN)
	v.SetDefault("secret_key", cfg.SecretKey)
	v.SetDefault("token_validity", cfg.TokenValidity)
	v.SetDefault("admin_emails", strings.Join(cfg.AdminEmails, ","))
	v.SetDefault("allowed_origins", strings.Join(cfg.AllowedOrigins, ","))
	v.SetDefault("listen_notify", cfg.ListenNotify)
	v.SetDefault("environment", cfg.Environment)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("rate_limit_enabled", cfg.RateLimitEnabled)
	v.SetDefault("rate_limit_authenticated", cfg.RateLimitAuthenticated)
	v.SetDefault("rate_limit_anonymous", cfg.RateLimitAnonymous)
	v.SetDefault("rate_limit_window", cfg.RateLimitWindow)

	// Conventional names used by container platforms.
	if err := v.BindEnv("address", EnvPrefix+"_ADDRESS", "ADDRESS"); err != nil {
		return fmt.Errorf("bind env: %w", err)
	}
	if err := v.BindEnv("database_dsn", EnvPrefix+"_DATABASE_DSN", "DATABASE_URL"); err != nil {
		return fmt.Errorf("bind env: %w", err)
	}
	if err := v.BindEnv("secret_key", EnvPrefix+"_SECRET_KEY", "JWT_SECRET"); err != nil {
		return fmt.Errorf("bind env: %w", err)
	}

	cfg.Address = v.GetString("address")
	cfg.DatabaseDSN = v.GetString("database_dsn")
	cfg.SecretKey = v.GetString("secret_key")
	cfg.TokenValidity = v.GetDuration("token_validity")
	cfg.AdminEmails = splitList(v.GetString("admin_emails"))
	cfg.AllowedOrigins = splitList(v.GetString("allowed_origins"))
	cfg.ListenNotify = v.GetBool("listen_notify")
	cfg.Environment = v.GetString("environment")
	cfg.ShutdownTimeout = v.GetDuration("shutdown_timeout")
	cfg.RateLimitEnabled = v.GetBool("rate_limit_enabled")
	cfg.RateLimitAuthenticated = v.GetInt("rate_limit_authenticated")
	cfg.RateLimitAnonymous = v.GetInt("rate_limit_anonymous")
	cfg.RateLimitWindow = v.GetDuration("rate_limit_window")
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
