package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SAMVAAD"

// minSecretLen matches the HKDF input we want outside local development.
const minSecretLen = 32

type Config struct {
	Env      string
	Addr     string
	API      APIConfig
	Session  SessionConfig
	Upload   UploadConfig
	Log      LogConfig
	Login    LoginLimitConfig
	Redirect time.Duration
	// TrustProxy means the server sits behind a proxy that appends the
	// client address to X-Forwarded-For.
	TrustProxy bool
}

type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

type SessionConfig struct {
	Secret       string
	MaxAge       time.Duration
	CookieSecure bool
}

type UploadConfig struct {
	MaxVideoMB      int64
	MaxAssignmentMB int64
}

// LoginLimitConfig throttles credential posts per client address.
type LoginLimitConfig struct {
	PerMinute float64
	Burst     int
}

type LogConfig struct {
	Level  string
	Format string
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// Load reads configuration from, in increasing priority: built-in defaults,
// an optional .env file, the environment (SAMVAAD_*) and command-line flags.
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("samvaad", pflag.ContinueOnError)
	flags.String("env", "prod", "Environment: dev, test or prod")
	flags.String("env_file", ".env", "Optional dotenv file")
	flags.String("addr", ":8080", "HTTP listen address")
	flags.String("api_base_url", "https://personal-coaching-backend.onrender.com", "Remote API base URL")
	flags.Duration("api_timeout", 30*time.Second, "Timeout for a single remote API call")
	flags.String("session_secret", "", "Secret the session cookie keys are derived from")
	flags.Duration("session_max_age", 30*24*time.Hour, "Lifetime of the session cookie")
	flags.Bool("cookie_secure", false, "Mark cookies Secure (HTTPS only)")
	flags.Duration("redirect_delay", 2*time.Second, "Delay before leaving the welcome page")
	flags.Int64("max_video_mb", 512, "Largest accepted video upload, in MB")
	flags.Int64("max_assignment_mb", 20, "Largest accepted assignment PDF, in MB")
	flags.Float64("login_rate_per_min", 10, "Login and register attempts allowed per client per minute")
	flags.Int("login_burst", 5, "Login and register attempts a client may make back to back")
	flags.Bool("trust_proxy", false, "Take the client address from the last X-Forwarded-For hop")
	flags.String("log_level", "info", "debug, info, warn or error")
	flags.String("log_format", "text", "text or json")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := flags.GetString("env_file")
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("config: bind flags: %w", err)
	}

	cfg := &Config{
		Env:  strings.ToLower(v.GetString("env")),
		Addr: v.GetString("addr"),
		API: APIConfig{
			BaseURL:   strings.TrimRight(v.GetString("api_base_url"), "/"),
			Timeout:   v.GetDuration("api_timeout"),
			UserAgent: "samvaad-web",
		},
		Session: SessionConfig{
			Secret:       v.GetString("session_secret"),
			MaxAge:       v.GetDuration("session_max_age"),
			CookieSecure: v.GetBool("cookie_secure"),
		},
		Upload: UploadConfig{
			MaxVideoMB:      v.GetInt64("max_video_mb"),
			MaxAssignmentMB: v.GetInt64("max_assignment_mb"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log_level")),
			Format: strings.ToLower(v.GetString("log_format")),
		},
		Login: LoginLimitConfig{
			PerMinute: v.GetFloat64("login_rate_per_min"),
			Burst:     v.GetInt("login_burst"),
		},
		Redirect:   v.GetDuration("redirect_delay"),
		TrustProxy: v.GetBool("trust_proxy"),
	}

	if cfg.Session.Secret == "" && cfg.IsDev() {
		cfg.Session.Secret = devSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// devSecret keeps `go run --env dev` working locally; Validate refuses it
// elsewhere.
const devSecret = "samvaad-dev-secret-do-not-use-in-prod"

// loadDotEnv never overrides variables that are already set.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case "dev", "test", "prod":
	default:
		errs = append(errs, fmt.Errorf("env %q is not one of dev, test, prod", c.Env))
	}

	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_base_url %q must be an absolute http(s) URL", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api_timeout must be positive"))
	}

	switch {
	case c.Session.Secret == "":
		errs = append(errs, errors.New("session_secret is required"))
	case !c.IsDev() && c.Session.Secret == devSecret:
		errs = append(errs, errors.New("session_secret must be set outside dev"))
	case !c.IsDev() && len(c.Session.Secret) < minSecretLen:
		errs = append(errs, fmt.Errorf("session_secret must be at least %d bytes outside dev", minSecretLen))
	}
	if c.Session.MaxAge <= 0 {
		errs = append(errs, errors.New("session_max_age must be positive"))
	}

	if c.Upload.MaxVideoMB <= 0 || c.Upload.MaxAssignmentMB <= 0 {
		errs = append(errs, errors.New("upload limits must be positive"))
	}
	if c.Login.PerMinute <= 0 || c.Login.Burst <= 0 {
		errs = append(errs, errors.New("login_rate_per_min and login_burst must be positive"))
	}
	if c.Redirect < 0 {
		errs = append(errs, errors.New("redirect_delay must not be negative"))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q is not text or json", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
