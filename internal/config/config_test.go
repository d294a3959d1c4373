package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongSecret = "a-long-enough-secret-for-the-cookie-keys"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SAMVAAD_SESSION_SECRET", strongSecret)

	cfg, err := Load([]string{"--env_file", ""})
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "https://personal-coaching-backend.onrender.com", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, strongSecret, cfg.Session.Secret)
	assert.Equal(t, 2*time.Second, cfg.Redirect)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, LoginLimitConfig{PerMinute: 10, Burst: 5}, cfg.Login)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("SAMVAAD_ENV", "prod")
	t.Setenv("SAMVAAD_API_BASE_URL", "http://localhost:5000/")
	t.Setenv("SAMVAAD_SESSION_SECRET", strongSecret)
	t.Setenv("SAMVAAD_COOKIE_SECURE", "true")
	t.Setenv("SAMVAAD_REDIRECT_DELAY", "500ms")
	t.Setenv("SAMVAAD_TRUST_PROXY", "true")

	cfg, err := Load([]string{"--env_file", ""})
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "http://localhost:5000", cfg.API.BaseURL)
	assert.Equal(t, strongSecret, cfg.Session.Secret)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, 500*time.Millisecond, cfg.Redirect)
	assert.True(t, cfg.TrustProxy)
}

func TestLoadFlagsBeatEnv(t *testing.T) {
	t.Setenv("SAMVAAD_ADDR", ":9000")

	cfg, err := Load([]string{"--env", "dev", "--env_file", "", "--addr", ":7000"})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SAMVAAD_LOG_LEVEL=debug\nSAMVAAD_MAX_VIDEO_MB=64\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SAMVAAD_LOG_LEVEL")
		os.Unsetenv("SAMVAAD_MAX_VIDEO_MB")
	})

	cfg, err := Load([]string{"--env", "dev", "--env_file", path})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.EqualValues(t, 64, cfg.Upload.MaxVideoMB)
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load([]string{"--env", "dev", "--env_file", filepath.Join(t.TempDir(), "absent.env")})
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:  "prod",
			Addr: ":8080",
			API:  APIConfig{BaseURL: "https://api.example.com", Timeout: time.Second},
			Session: SessionConfig{
				Secret: strongSecret,
				MaxAge: time.Hour,
			},
			Upload: UploadConfig{MaxVideoMB: 1, MaxAssignmentMB: 1},
			Log:    LogConfig{Level: "info", Format: "json"},
			Login:  LoginLimitConfig{PerMinute: 10, Burst: 5},
		}
	}

	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"unknown env":       func(c *Config) { c.Env = "staging" },
		"relative base url": func(c *Config) { c.API.BaseURL = "/api" },
		"ftp base url":      func(c *Config) { c.API.BaseURL = "ftp://api.example.com" },
		"zero timeout":      func(c *Config) { c.API.Timeout = 0 },
		"empty secret":      func(c *Config) { c.Session.Secret = "" },
		"short secret":      func(c *Config) { c.Session.Secret = "short" },
		"dev secret":        func(c *Config) { c.Session.Secret = devSecret },
		"zero max age":      func(c *Config) { c.Session.MaxAge = 0 },
		"zero upload":       func(c *Config) { c.Upload.MaxAssignmentMB = 0 },
		"bad log format":    func(c *Config) { c.Log.Format = "xml" },
		"no login burst":    func(c *Config) { c.Login.Burst = 0 },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestShortSecretAllowedInDev(t *testing.T) {
	t.Setenv("SAMVAAD_SESSION_SECRET", "short")
	cfg, err := Load([]string{"--env", "dev", "--env_file", ""})
	require.NoError(t, err)
	assert.Equal(t, "short", cfg.Session.Secret)
}

func TestLoadWithoutEnvOrSecretFails(t *testing.T) {
	_, err := Load([]string{"--env_file", ""})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_secret is required")
}

func TestDevSecretOnlyWhenDevIsExplicit(t *testing.T) {
	cfg, err := Load([]string{"--env", "dev", "--env_file", ""})
	require.NoError(t, err)
	assert.Equal(t, devSecret, cfg.Session.Secret)

	t.Setenv("SAMVAAD_SESSION_SECRET", devSecret)
	_, err = Load([]string{"--env_file", ""})
	assert.Error(t, err, "the published dev secret is refused in prod")
}
