package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/profdocs/internal/flagx"
	"github.com/dmitrijs2005/profdocs/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds. Pointer fields tell
// "absent" apart from an explicit zero or false.
type JsonConfig struct {
	EndpointAddrHTTP             string          `json:"endpoint_addr_http"`
	DatabaseDSN                  string          `json:"database_dsn"`
	SessionValidityDuration      *timex.Duration `json:"session_validity_duration"`
	SessionCookieName            string          `json:"session_cookie_name"`
	CookieHashKey                string          `json:"cookie_hash_key"`
	CookieSecure                 *bool           `json:"cookie_secure"`
	TicketSecretKey              string          `json:"ticket_secret_key"`
	UnlockTicketValidityDuration *timex.Duration `json:"unlock_ticket_validity_duration"`
	SessionReapInterval          *timex.Duration `json:"session_reap_interval"`
	S3RootUser                   string          `json:"s3_root_user"`
	S3RootPassword               string          `json:"s3_root_password"`
	S3Bucket                     string          `json:"s3_bucket"`
	S3Region                     string          `json:"s3_region"`
	S3BaseEndpoint               string          `json:"s3_base_endpoint"`
	MaxUploadBytes               *int64          `json:"max_upload_bytes"`
	MaxPages                     *int            `json:"max_pages"`
	LogFormat                    string          `json:"log_format"`
	LogLevel                     string          `json:"log_level"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags. If neither
// is set, no JSON file is loaded. Only keys present in the file override
// the target Config. If the file cannot be read or contains invalid JSON,
// the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.ConfigFile()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SessionCookieName, c.SessionCookieName)
	setString(&config.CookieHashKey, c.CookieHashKey)
	setString(&config.TicketSecretKey, c.TicketSecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)

	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.UnlockTicketValidityDuration != nil {
		config.UnlockTicketValidityDuration = c.UnlockTicketValidityDuration.Duration
	}
	if c.SessionReapInterval != nil {
		config.SessionReapInterval = c.SessionReapInterval.Duration
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.MaxUploadBytes != nil {
		config.MaxUploadBytes = *c.MaxUploadBytes
	}
	if c.MaxPages != nil {
		config.MaxPages = *c.MaxPages
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
