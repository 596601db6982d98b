package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	OAuth         OAuthConfig         `yaml:"oauth"`
	Identity      IdentityConfig      `yaml:"identity"`
	Stats         StatsConfig         `yaml:"stats"`
	NATS          NATSConfig          `yaml:"nats"`
	Jobs          JobsConfig          `yaml:"jobs"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	ListenAddress  string   `yaml:"listen_address"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RequestsPerSecond and Burst configure the per-IP rate limiter on admin routes.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	SecureCookies     bool    `yaml:"secure_cookies"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// OAuthConfig holds the Discord OAuth2 application used for admin login.
type OAuthConfig struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURL  string   `yaml:"redirect_url"`
	AdminIDs     []string `yaml:"admin_ids"`
	// PostLoginURL is where the browser lands after a successful callback.
	PostLoginURL string `yaml:"post_login_url"`
}

// IdentityConfig points at the Minecraft profile service.
type IdentityConfig struct {
	BaseURL           string        `yaml:"base_url"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

// StatsConfig points at the game stats API.
type StatsConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

// NATSConfig holds NATS configuration. An empty URL keeps the event bus in-process.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// JobsConfig holds background job settings.
type JobsConfig struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	MetricsAddress string `yaml:"metrics_address"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("HTTP_LISTEN_ADDRESS"); v != "" {
		cfg.HTTP.ListenAddress = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_SECURE_COOKIES"); v != "" {
		cfg.HTTP.SecureCookies = v == "true"
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_DEFAULT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_DEFAULT_TTL value: %w", err)
		}
		cfg.JWT.DefaultTTL = d
	}
	if v := os.Getenv("DISCORD_CLIENT_ID"); v != "" {
		cfg.OAuth.ClientID = v
	}
	if v := os.Getenv("DISCORD_CLIENT_SECRET"); v != "" {
		cfg.OAuth.ClientSecret = v
	}
	if v := os.Getenv("DISCORD_REDIRECT_URL"); v != "" {
		cfg.OAuth.RedirectURL = v
	}
	if v := os.Getenv("ADMIN_DISCORD_IDS"); v != "" {
		cfg.OAuth.AdminIDs = splitList(v)
	}
	if v := os.Getenv("POST_LOGIN_URL"); v != "" {
		cfg.OAuth.PostLoginURL = v
	}
	if v := os.Getenv("IDENTITY_BASE_URL"); v != "" {
		cfg.Identity.BaseURL = v
	}
	if v := os.Getenv("STATS_BASE_URL"); v != "" {
		cfg.Stats.BaseURL = v
	}
	if v := os.Getenv("STATS_API_KEY"); v != "" {
		cfg.Stats.APIKey = v
	}
	if v := os.Getenv("STATS_REQUESTS_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid STATS_REQUESTS_PER_SECOND value: %w", err)
		}
		cfg.Stats.RequestsPerSecond = f
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("RECONCILE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RECONCILE_INTERVAL value: %w", err)
		}
		cfg.Jobs.ReconcileInterval = d
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.ListenAddress == "" {
		c.HTTP.ListenAddress = ":8080"
	}
	if c.HTTP.RequestsPerSecond == 0 {
		c.HTTP.RequestsPerSecond = 5
	}
	if c.HTTP.Burst == 0 {
		c.HTTP.Burst = 10
	}
	if c.JWT.DefaultTTL == 0 {
		c.JWT.DefaultTTL = 12 * time.Hour
	}
	if c.Identity.BaseURL == "" {
		c.Identity.BaseURL = "https://api.mojang.com"
	}
	if c.Identity.RequestsPerSecond == 0 {
		c.Identity.RequestsPerSecond = 2
	}
	if c.Identity.Timeout == 0 {
		c.Identity.Timeout = 5 * time.Second
	}
	if c.Stats.BaseURL == "" {
		c.Stats.BaseURL = "https://api.hypixel.net"
	}
	if c.Stats.RequestsPerSecond == 0 {
		c.Stats.RequestsPerSecond = 1
	}
	if c.Stats.Timeout == 0 {
		c.Stats.Timeout = 5 * time.Second
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "tnt."
	}
	if c.Jobs.ReconcileInterval == 0 {
		c.Jobs.ReconcileInterval = 6 * time.Hour
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = "development"
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
}

// Validate reports every missing value the server needs to start.
func (c *Config) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}
	if len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("jwt.secret must be at least 32 bytes"))
	}
	if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" {
		errs = append(errs, errors.New("oauth.client_id and oauth.client_secret are required"))
	}
	if c.OAuth.RedirectURL == "" {
		errs = append(errs, errors.New("oauth.redirect_url is required"))
	}
	if len(c.OAuth.AdminIDs) == 0 {
		errs = append(errs, errors.New("oauth.admin_ids must list at least one admin"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
