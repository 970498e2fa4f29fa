package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/studymate/internal/flagx"
	"github.com/dmitrijs2005/studymate/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
// Only fields present (non-zero) in the file override earlier layers.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	Storage                      string         `json:"storage"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	BlobBackend                  string         `json:"blob_backend"`
	BlobDir                      string         `json:"blob_dir"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	LogLevel                     string         `json:"log_level"`
	Env                          string         `json:"env"`
	SentryDSN                    string         `json:"sentry_dsn"`
	CORSOrigins                  []string       `json:"cors_origins"`
	ShutdownTimeout              timex.Duration `json:"shutdown_timeout"`
}

// parseJSON overlays values from the file named by -c / -config, if any.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&config.HTTPAddr, c.HTTPAddr)
	set(&config.Storage, c.Storage)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.SecretKey, c.SecretKey)
	set(&config.BlobBackend, c.BlobBackend)
	set(&config.BlobDir, c.BlobDir)
	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.LogLevel, c.LogLevel)
	set(&config.Env, c.Env)
	set(&config.SentryDSN, c.SentryDSN)

	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	return nil
}
