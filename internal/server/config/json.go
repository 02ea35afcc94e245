package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/flagx"
	"github.com/dmitrijs2005/giftauth/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// strings such as "15m" or integer nanoseconds. Absent keys leave the
// corresponding Config field untouched.
type JsonConfig struct {
	EndpointAddrHTTP                 string          `json:"endpoint_addr_http"`
	EndpointAddrGRPC                 string          `json:"endpoint_addr_grpc"`
	DatabaseDSN                      string          `json:"database_dsn"`
	AccessTokenSecret                string          `json:"access_token_secret"`
	RefreshTokenSecret               string          `json:"refresh_token_secret"`
	AccessTokenValidityDuration      *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration     *timex.Duration `json:"refresh_token_validity_duration"`
	LockoutThreshold                 *int            `json:"lockout_threshold"`
	LockoutDuration                  *timex.Duration `json:"lockout_duration"`
	ResetTokenValidityDuration       *timex.Duration `json:"reset_token_validity_duration"`
	VerificationCodeValidityDuration *timex.Duration `json:"verification_code_validity_duration"`
	CleanupInterval                  *timex.Duration `json:"cleanup_interval"`
	RedisAddr                        string          `json:"redis_addr"`
	RedisPassword                    string          `json:"redis_password"`
	S3RootUser                       string          `json:"s3_root_user"`
	S3RootPassword                   string          `json:"s3_root_password"`
	S3Bucket                         string          `json:"s3_bucket"`
	S3Region                         string          `json:"s3_region"`
	S3BaseEndpoint                   string          `json:"s3_base_endpoint"`
	AvatarURLValidityDuration        *timex.Duration `json:"avatar_url_validity_duration"`
	LogLevel                         string          `json:"log_level"`
	CheckOrigin                      *bool           `json:"check_origin"`
}

// parseJson loads the file named by -c/-config (or GIFTAUTH_CONFIG) into
// config. Nothing happens when no file is named; an unreadable file or
// invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)

	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDuration(&config.LockoutDuration, c.LockoutDuration)
	setDuration(&config.ResetTokenValidityDuration, c.ResetTokenValidityDuration)
	setDuration(&config.VerificationCodeValidityDuration, c.VerificationCodeValidityDuration)
	setDuration(&config.CleanupInterval, c.CleanupInterval)
	setDuration(&config.AvatarURLValidityDuration, c.AvatarURLValidityDuration)

	if c.LockoutThreshold != nil {
		config.LockoutThreshold = *c.LockoutThreshold
	}
	if c.CheckOrigin != nil {
		config.CheckOrigin = *c.CheckOrigin
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
