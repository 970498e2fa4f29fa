package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/studymate/internal/flagx"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "STUDYMATE_"

// parseEnv loads a dotenv file (the -envfile flag, or ".env" when present)
// into the process environment without overriding variables that are
// already set, then copies STUDYMATE_* variables into config.
//
// Recognised variables: HTTP_ADDR, STORAGE, DATABASE_DSN, SECRET_KEY,
// ACCESS_TOKEN_TTL, REFRESH_TOKEN_TTL, BLOB_BACKEND, BLOB_DIR, S3_ROOT_USER,
// S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT, LOG_LEVEL, ENV,
// SENTRY_DSN, CORS_ORIGINS (comma separated), SHUTDOWN_TIMEOUT.
func parseEnv(config *Config, args []string) error {
	envFile := flagx.EnvFile(args)
	if envFile == "" {
		if _, err := os.Stat(".env"); err == nil {
			envFile = ".env"
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("HTTP_ADDR", &config.HTTPAddr)
	str("STORAGE", &config.Storage)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("BLOB_BACKEND", &config.BlobBackend)
	str("BLOB_DIR", &config.BlobDir)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("LOG_LEVEL", &config.LogLevel)
	str("ENV", &config.Env)
	str("SENTRY_DSN", &config.SentryDSN)

	if v := os.Getenv(EnvPrefix + "CORS_ORIGINS"); v != "" {
		config.CORSOrigins = splitList(v)
	}

	if err := dur("ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration); err != nil {
		return err
	}
	if err := dur("REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration); err != nil {
		return err
	}
	return dur("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
