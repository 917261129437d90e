package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/flagx"
)

var flagNames = []string{"-a", "-d", "-k", "-s", "-t", "-x", "-i", "-u", "-p", "-b", "-g", "-e", "-l", "-f"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   database DSN (postgres://... or memory://)
//	-k string   session cookie HMAC key
//	-s string   unlock ticket HMAC secret
//	-t int      session validity, hours
//	-x int      unlock ticket validity, minutes
//	-i int      expired session reap interval, minutes (0 disables)
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log level
//	-f string   log format (json, text, zap)
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and then converted to
//     time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], flagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.CookieHashKey, "k", config.CookieHashKey, "session cookie hash key")
	fs.StringVar(&config.TicketSecretKey, "s", config.TicketSecretKey, "unlock ticket secret key")

	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Hours()), "session_validity_duration (in hours)")
	ticketValidity := fs.Int("x", int(config.UnlockTicketValidityDuration.Minutes()), "unlock_ticket_validity_duration (in minutes)")
	reapInterval := fs.Int("i", int(config.SessionReapInterval.Minutes()), "session_reap_interval (in minutes, 0 disables)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Hour
	config.UnlockTicketValidityDuration = time.Duration(*ticketValidity) * time.Minute
	config.SessionReapInterval = time.Duration(*reapInterval) * time.Minute
}
