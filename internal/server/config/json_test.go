package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv("GIFTAUTH_CONFIG", "")

	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"endpoint_addr_http":              ":9090",
		"endpoint_addr_grpc":              ":9091",
		"database_dsn":                    "postgres://db",
		"access_token_secret":             "a-secret",
		"refresh_token_secret":            "r-secret",
		"access_token_validity_duration":  "5m",
		"refresh_token_validity_duration": "48h",
		"lockout_threshold":               3,
		"lockout_duration":                "30m",
		"reset_token_validity_duration":   "2h",
		"cleanup_interval":                0,
		"redis_addr":                      "redis:6379",
		"s3_bucket":                       "bucket",
		"log_level":                       "debug",
		"check_origin":                    false,
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", full}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, ":9090", cfg.EndpointAddrHTTP)
		assert.Equal(t, ":9091", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "a-secret", cfg.AccessTokenSecret)
		assert.Equal(t, "r-secret", cfg.RefreshTokenSecret)
		assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 48*time.Hour, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, 3, cfg.LockoutThreshold)
		assert.Equal(t, 30*time.Minute, cfg.LockoutDuration)
		assert.Equal(t, 2*time.Hour, cfg.ResetTokenValidityDuration)
		assert.Equal(t, time.Duration(0), cfg.CleanupInterval)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.False(t, cfg.CheckOrigin)

		// untouched keys keep their defaults
		assert.Equal(t, 10*time.Minute, cfg.VerificationCodeValidityDuration)
		assert.Equal(t, "us-east-1", cfg.S3Region)
	})

	t.Run("env var names the file", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("GIFTAUTH_CONFIG", full)

		cfg := &Config{}
		parseJson(cfg)
		assert.Equal(t, ":9090", cfg.EndpointAddrHTTP)
	})

	t.Run("no file → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrHTTP: "defaults:1234", LockoutThreshold: 7}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, 7, cfg.LockoutThreshold)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
