package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tuneshelf/internal/flagx"
)

var serverFlags = []string{"-a", "-g", "-d", "-s", "-t", "-r", "-l", "-R", "-u", "-p", "-b", "-e"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-l string   log level (debug, info, warn, error)
//	-R string   Redis address; empty disables the artist cache
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// args is filtered with flagx.FilterArgs first, so -c and unknown flags
// owned by other components do not make parsing fail.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to serve HTTP")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to serve gRPC health")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.RedisAddr, "R", config.RedisAddr, "redis address")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// Minute flags only override when given, so sub-minute JSON values survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		}
	})
	return nil
}
