// Package config provides configuration management for the Spark History MCP server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AuthConfig holds credentials for a history server. Either a bearer token
// or a username/password pair; both empty means unauthenticated access.
type AuthConfig struct {
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"-"`
	Token    string `yaml:"token,omitempty" json:"-"`
}

// ServerConfig describes a single Spark History Server instance.
type ServerConfig struct {
	URL       string     `yaml:"url" json:"url"`
	Auth      AuthConfig `yaml:"auth,omitempty" json:"auth,omitempty"`
	Default   bool       `yaml:"default,omitempty" json:"default,omitempty"`
	TLSVerify *bool      `yaml:"verify_ssl,omitempty" json:"verify_ssl,omitempty"`
}

// VerifyTLS reports whether TLS certificates should be verified for this
// server. Defaults to true when unset.
func (s ServerConfig) VerifyTLS() bool {
	return s.TLSVerify == nil || *s.TLSVerify
}

// Config holds all configuration for the MCP server.
type Config struct {
	// Named Spark History Server instances. Exactly one should be marked
	// default; a single entry is treated as the default implicitly.
	Servers map[string]ServerConfig `yaml:"servers" json:"servers"`

	// HTTP client configuration
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries      int           `yaml:"max_retries" json:"max_retries"`
	RetryWaitMin    time.Duration `yaml:"retry_wait_min" json:"retry_wait_min"`
	RetryWaitMax    time.Duration `yaml:"retry_wait_max" json:"retry_wait_max"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout" json:"idle_conn_timeout"`

	// Rate limiting
	RateLimit       int  `yaml:"rate_limit" json:"rate_limit"`
	RateLimitBurst  int  `yaml:"rate_limit_burst" json:"rate_limit_burst"`
	EnableRateLimit bool `yaml:"enable_rate_limit" json:"enable_rate_limit"`

	// Observability
	EnableTracing   bool   `yaml:"enable_tracing" json:"enable_tracing"`
	MetricsEndpoint bool   `yaml:"metrics_endpoint" json:"metrics_endpoint"`
	HealthPort      int    `yaml:"health_port" json:"health_port"`
	HealthBindAddr  string `yaml:"health_bind_addr" json:"health_bind_addr"`

	// Server lifecycle
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Logging
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Load builds configuration from defaults, an optional YAML file
// (SHS_CONFIG_FILE), and environment variable overrides, in that order.
func Load() (*Config, error) {
	cfg := &Config{
		Servers:         map[string]ServerConfig{},
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    1 * time.Second,
		RetryWaitMax:    30 * time.Second,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
		RateLimit:       100,
		RateLimitBurst:  20,
		EnableRateLimit: true,
		EnableTracing:   false,
		MetricsEndpoint: false,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
	}

	if configFile := os.Getenv("SHS_CONFIG_FILE"); configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	cleanPath := filepath.Clean(path)

	// Prevent path traversal by checking for ".." components
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("invalid file path: path traversal detected")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 -- path is validated above
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return yaml.Unmarshal(data, cfg)
}

func loadFromEnv(cfg *Config) {
	// A plain SHS_SERVER_URL defines (or overrides) the "default" entry,
	// matching the single-server quick-start path.
	if v := os.Getenv("SHS_SERVER_URL"); v != "" {
		sc := cfg.Servers["default"]
		sc.URL = v
		sc.Default = true
		if u := os.Getenv("SHS_USERNAME"); u != "" {
			sc.Auth.Username = u
		}
		if p := os.Getenv("SHS_PASSWORD"); p != "" {
			sc.Auth.Password = p
		}
		if t := os.Getenv("SHS_TOKEN"); t != "" {
			sc.Auth.Token = t
		}
		if tv := os.Getenv("SHS_TLS_VERIFY"); tv != "" {
			verify := tv == "true" || tv == "1"
			sc.TLSVerify = &verify
		}
		cfg.Servers["default"] = sc
	}
	if v := os.Getenv("SHS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("SHS_MAX_RETRIES"); v != "" {
		var retries int
		if _, err := fmt.Sscanf(v, "%d", &retries); err == nil {
			cfg.MaxRetries = retries
		}
	}
	if v := os.Getenv("SHS_RATE_LIMIT"); v != "" {
		var limit int
		if _, err := fmt.Sscanf(v, "%d", &limit); err == nil {
			cfg.RateLimit = limit
		}
	}
	if v := os.Getenv("SHS_RATE_LIMIT_BURST"); v != "" {
		var burst int
		if _, err := fmt.Sscanf(v, "%d", &burst); err == nil {
			cfg.RateLimitBurst = burst
		}
	}
	if v := os.Getenv("SHS_ENABLE_RATE_LIMIT"); v != "" {
		cfg.EnableRateLimit = v == "true" || v == "1"
	}
	if v := os.Getenv("SHS_ENABLE_TRACING"); v != "" {
		cfg.EnableTracing = v == "true" || v == "1"
	}
	if v := os.Getenv("SHS_METRICS_ENDPOINT"); v != "" {
		cfg.MetricsEndpoint = v == "true" || v == "1"
	}
	if v := os.Getenv("SHS_HEALTH_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.HealthPort = port
		}
	}
	if v := os.Getenv("SHS_HEALTH_BIND_ADDR"); v != "" {
		cfg.HealthBindAddr = v
	}
	if v := os.Getenv("SHS_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// DefaultServer returns the name and config of the default history server.
// A single configured server is the default regardless of its flag.
func (c *Config) DefaultServer() (string, ServerConfig) {
	if len(c.Servers) == 1 {
		for name, sc := range c.Servers {
			return name, sc
		}
	}
	for name, sc := range c.Servers {
		if sc.Default {
			return name, sc
		}
	}
	return "", ServerConfig{}
}

// Server looks up a named server, falling back to the default when name is
// empty. The bool reports whether a server was found.
func (c *Config) Server(name string) (ServerConfig, bool) {
	if name != "" {
		sc, ok := c.Servers[name]
		return sc, ok
	}
	dn, sc := c.DefaultServer()
	return sc, dn != ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Servers) == 0 {
		return errors.New("at least one history server must be configured (SHS_SERVER_URL or SHS_CONFIG_FILE)")
	}
	for name, sc := range c.Servers {
		if sc.URL == "" {
			return fmt.Errorf("server %q has no URL", name)
		}
		if !strings.HasPrefix(sc.URL, "http://") && !strings.HasPrefix(sc.URL, "https://") {
			return fmt.Errorf("server %q URL must start with http:// or https://", name)
		}
	}
	defaults := 0
	for _, sc := range c.Servers {
		if sc.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return errors.New("only one server may be marked default")
	}
	if len(c.Servers) > 1 && defaults == 0 {
		return errors.New("one server must be marked default when multiple are configured")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("max_retries must be non-negative")
	}
	if c.RateLimit <= 0 && c.EnableRateLimit {
		return errors.New("rate_limit must be positive when rate limiting is enabled")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

// Redact returns a copy of the config with credentials removed, safe for
// logging.
func (c *Config) Redact() *Config {
	redacted := *c
	redacted.Servers = make(map[string]ServerConfig, len(c.Servers))
	for name, sc := range c.Servers {
		if sc.Auth.Password != "" {
			sc.Auth.Password = "***REDACTED***"
		}
		if sc.Auth.Token != "" {
			sc.Auth.Token = MaskToken(sc.Auth.Token)
		}
		redacted.Servers[name] = sc
	}
	return &redacted
}

// MaskToken returns a masked version of a token for safe logging.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
