package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env           string              `mapstructure:"env"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	BackOffice    BackOfficeConfig    `mapstructure:"backoffice"`
	Lifecycle     LifecycleConfig     `mapstructure:"lifecycle"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

// BackOfficeConfig points at the adjudication system that owns report records.
type BackOfficeConfig struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	StatusTimeout  time.Duration `mapstructure:"status_timeout"`
}

// LifecycleConfig holds the timings of the save/submit/poll state machine.
type LifecycleConfig struct {
	AutosaveDebounce       time.Duration `mapstructure:"autosave_debounce"`
	SubmitTimeout          time.Duration `mapstructure:"submit_timeout"`
	PollInterval           time.Duration `mapstructure:"poll_interval"`
	PollMaxAttempts        int           `mapstructure:"poll_max_attempts"`
	PollTimeout            time.Duration `mapstructure:"poll_timeout"`
	PollMaxFailures        int           `mapstructure:"poll_max_failures"`
	NotificationFeedLength int           `mapstructure:"notification_feed_length"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// DefaultLifecycle returns the production timings.
func DefaultLifecycle() LifecycleConfig {
	return LifecycleConfig{
		AutosaveDebounce:       2 * time.Second,
		SubmitTimeout:          45 * time.Second,
		PollInterval:           5 * time.Second,
		PollMaxAttempts:        60,
		PollTimeout:            5 * time.Minute,
		PollMaxFailures:        5,
		NotificationFeedLength: 50,
	}
}

// LoadConfigFromEnv builds the configuration for container deployments where no
// config file is mounted.
func LoadConfigFromEnv() *Config {
	lifecycle := DefaultLifecycle()
	lifecycle.AutosaveDebounce = getEnvAsDuration("LIFECYCLE_AUTOSAVE_DEBOUNCE", lifecycle.AutosaveDebounce)
	lifecycle.SubmitTimeout = getEnvAsDuration("LIFECYCLE_SUBMIT_TIMEOUT", lifecycle.SubmitTimeout)
	lifecycle.PollInterval = getEnvAsDuration("LIFECYCLE_POLL_INTERVAL", lifecycle.PollInterval)
	lifecycle.PollMaxAttempts = getEnvAsInt("LIFECYCLE_POLL_MAX_ATTEMPTS", lifecycle.PollMaxAttempts)
	lifecycle.PollTimeout = getEnvAsDuration("LIFECYCLE_POLL_TIMEOUT", lifecycle.PollTimeout)
	lifecycle.PollMaxFailures = getEnvAsInt("LIFECYCLE_POLL_MAX_FAILURES", lifecycle.PollMaxFailures)

	return &Config{
		Env: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("HTTP_BASE_URL", ""),
			AllowedOrigins:    getEnv("HTTP_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DB_SOURCE", ""),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnv("METRICS_ENABLED", "true") == "true",
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
		BackOffice: BackOfficeConfig{
			BaseURL:        getEnv("BACKOFFICE_BASE_URL", ""),
			APIKey:         getEnv("BACKOFFICE_API_KEY", ""),
			RequestTimeout: getEnvAsDuration("BACKOFFICE_REQUEST_TIMEOUT", 30*time.Second),
			StatusTimeout:  getEnvAsDuration("BACKOFFICE_STATUS_TIMEOUT", 10*time.Second),
		},
		Lifecycle: lifecycle,
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.BackOffice.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("backoffice config: %v", err))
	}

	if err := c.Lifecycle.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("lifecycle config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *BackOfficeConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url %q", c.BaseURL)
	}
	return nil
}

func (c *LifecycleConfig) Validate() error {
	if c.AutosaveDebounce <= 0 || c.SubmitTimeout <= 0 || c.PollInterval <= 0 || c.PollTimeout <= 0 {
		return errors.New("timings must be positive")
	}
	if c.PollMaxAttempts < 1 {
		return errors.New("poll_max_attempts must be at least 1")
	}
	if c.PollMaxFailures < 1 {
		return errors.New("poll_max_failures must be at least 1")
	}
	return nil
}
