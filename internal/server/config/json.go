package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/tuneshelf/internal/flagx"
	"github.com/dmitrijs2005/tuneshelf/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations use timex.Duration so
// both "15m" and integer nanoseconds are accepted. Absent keys leave the
// current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	LogLevel                     string         `json:"log_level"`
	ShutdownTimeout              timex.Duration `json:"shutdown_timeout"`

	RedisAddr      string         `json:"redis_addr"`
	RedisPassword  string         `json:"redis_password"`
	RedisDB        int            `json:"redis_db"`
	ArtistCacheTTL timex.Duration `json:"artist_cache_ttl"`

	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	ImageURLValidity timex.Duration `json:"image_url_validity"`

	Argon2Memory      uint32 `json:"argon2_memory"`
	Argon2Iterations  uint32 `json:"argon2_iterations"`
	Argon2Parallelism uint8  `json:"argon2_parallelism"`
}

// parseJson overlays the JSON file named by -c / -config (or $CONFIG) onto
// config. No file configured is not an error.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
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

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setString(&config.LogLevel, c.LogLevel)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)

	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != 0 {
		config.RedisDB = c.RedisDB
	}
	setDuration(&config.ArtistCacheTTL, c.ArtistCacheTTL)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.ImageURLValidity, c.ImageURLValidity)

	if c.Argon2Memory != 0 {
		config.Argon2Memory = c.Argon2Memory
	}
	if c.Argon2Iterations != 0 {
		config.Argon2Iterations = c.Argon2Iterations
	}
	if c.Argon2Parallelism != 0 {
		config.Argon2Parallelism = c.Argon2Parallelism
	}
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
