package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "PROFDOCS_"

// parseEnv overlays PROFDOCS_* environment variables. A .env file (or the
// file named by -env) is loaded first; variables already present in the
// environment win over the file. Malformed values panic, like a malformed
// JSON config does.
func parseEnv(config *Config) {
	envFile := flagx.EnvFile()
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("DATABASE_DSN", &config.DatabaseDSN)
	dur("SESSION_VALIDITY", &config.SessionValidityDuration)
	str("SESSION_COOKIE_NAME", &config.SessionCookieName)
	str("COOKIE_HASH_KEY", &config.CookieHashKey)
	str("TICKET_SECRET_KEY", &config.TicketSecretKey)
	dur("UNLOCK_TICKET_VALIDITY", &config.UnlockTicketValidityDuration)
	dur("SESSION_REAP_INTERVAL", &config.SessionReapInterval)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("LOG_FORMAT", &config.LogFormat)
	str("LOG_LEVEL", &config.LogLevel)

	if v, ok := os.LookupEnv(envPrefix + "COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.CookieSecure = b
	}
	if v, ok := os.LookupEnv(envPrefix + "MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(err)
		}
		config.MaxUploadBytes = n
	}
	if v, ok := os.LookupEnv(envPrefix + "MAX_PAGES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.MaxPages = n
	}
}
