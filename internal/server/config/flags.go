package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/studymate/internal/flagx"
)

var knownFlags = []string{
	"-a", "-storage", "-d", "-s", "-t", "-r", "-blob", "-blobdir",
	"-u", "-p", "-b", "-g", "-e", "-l", "-env", "-sentry", "-cors",
}

// parseFlags populates Config fields from command-line flags.
//
//	-a string        HTTP bind address (e.g., ":8080")
//	-storage string  postgres | memory
//	-d string        PostgreSQL DSN
//	-s string        JWT HMAC secret key
//	-t int           access token validity, minutes
//	-r int           refresh token validity, minutes
//	-blob string     s3 | dir | none
//	-blobdir string  directory for the dir blob backend
//	-u, -p, -b, -g, -e  S3 user, password, bucket, region, base endpoint
//	-l string        log level
//	-env string      dev | prod
//	-sentry string   Sentry DSN
//	-cors string     comma separated allowed origins
//
// Only recognised flags are parsed (see flagx.FilterArgs) so -c and
// -envfile, handled by earlier layers, do not trip the flag set.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("studymate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.Storage, "storage", config.Storage, "storage backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&config.BlobBackend, "blob", config.BlobBackend, "blob backend")
	fs.StringVar(&config.BlobDir, "blobdir", config.BlobDir, "blob directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.Env, "env", config.Env, "environment")
	fs.StringVar(&config.SentryDSN, "sentry", config.SentryDSN, "sentry DSN")
	cors := fs.String("cors", "", "allowed CORS origins")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
	if *cors != "" {
		config.CORSOrigins = splitList(*cors)
	}
	return nil
}
