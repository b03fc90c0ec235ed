package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/flagx"
	"github.com/dmitrijs2005/mediminder/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds.
type JsonConfig struct {
	Transport           string         `json:"transport"`
	ServerURL           string         `json:"server_url"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	Retries             *uint64        `json:"retries"`
	DatabaseDSN         string         `json:"database_dsn"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3Endpoint          string         `json:"s3_endpoint"`
	S3AccessKey         string         `json:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key"`
	CacheDSN            string         `json:"cache_dsn"`
	LogFile             string         `json:"log_file"`
	LogLevel            string         `json:"log_level"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	LoadTimeout         timex.Duration `json:"load_timeout"`
	PushTimeout         timex.Duration `json:"push_timeout"`
	UndoWindow          timex.Duration `json:"undo_window"`
	Seed                bool           `json:"seed"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}

// parseJson overlays Config with the values present in the JSON file named
// by -c or -config. Absent keys keep their current value. Read or decode
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.Transport, jc.Transport)
	setString(&cfg.ServerURL, jc.ServerURL)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	if jc.Retries != nil {
		cfg.Retries = *jc.Retries
	}
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.CacheDSN, jc.CacheDSN)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.LoadTimeout, jc.LoadTimeout)
	setDuration(&cfg.PushTimeout, jc.PushTimeout)
	setDuration(&cfg.UndoWindow, jc.UndoWindow)
	cfg.Seed = cfg.Seed || jc.Seed
}
