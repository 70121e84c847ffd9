// Package config loads homebase settings: defaults, then an optional YAML
// file, then HOMEBASE_* environment variables. Command-line flags are
// applied last by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	NATS      NATSConfig      `yaml:"nats"`
	Push      PushConfig      `yaml:"push"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NATSConfig enables domain event publishing when URL is set.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// PushConfig enables web push when both VAPID keys are set.
type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subscriber      string `yaml:"subscriber"`
}

// RateLimitConfig bounds mutating API calls per member.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: "homebase.db"},
		Log:      LogConfig{Level: "info", Format: "text"},
		NATS:     NATSConfig{SubjectPrefix: "homebase"},
		Push:     PushConfig{Subscriber: "mailto:admin@homebase.local"},
		RateLimit: RateLimitConfig{
			Requests: 120,
			Window:   time.Minute,
		},
	}
}

// LoadFromFile overlays the YAML file at path onto the defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds the effective configuration. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from HOMEBASE_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("HOMEBASE_PORT", &c.Server.Port)
	str("HOMEBASE_DB_PATH", &c.Database.Path)
	str("HOMEBASE_LOG_LEVEL", &c.Log.Level)
	str("HOMEBASE_LOG_FORMAT", &c.Log.Format)
	str("HOMEBASE_NATS_URL", &c.NATS.URL)
	str("HOMEBASE_NATS_SUBJECT_PREFIX", &c.NATS.SubjectPrefix)
	str("HOMEBASE_VAPID_PUBLIC_KEY", &c.Push.VAPIDPublicKey)
	str("HOMEBASE_VAPID_PRIVATE_KEY", &c.Push.VAPIDPrivateKey)
	str("HOMEBASE_VAPID_SUBSCRIBER", &c.Push.Subscriber)

	if v, ok := lookup("HOMEBASE_RATE_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HOMEBASE_RATE_LIMIT: %w", err)
		}
		c.RateLimit.Requests = n
	}
	for key, dst := range map[string]*time.Duration{
		"HOMEBASE_RATE_LIMIT_WINDOW": &c.RateLimit.Window,
		"HOMEBASE_SHUTDOWN_TIMEOUT":  &c.Server.ShutdownTimeout,
	} {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

// PushEnabled reports whether both VAPID keys are configured.
func (c *Config) PushEnabled() bool {
	return c.Push.VAPIDPublicKey != "" && c.Push.VAPIDPrivateKey != ""
}

func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server.port %q is not a valid port", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if (c.Push.VAPIDPublicKey == "") != (c.Push.VAPIDPrivateKey == "") {
		return fmt.Errorf("push needs both vapid_public_key and vapid_private_key")
	}
	if c.PushEnabled() && c.Push.Subscriber == "" {
		return fmt.Errorf("push.subscriber is required when push is enabled")
	}
	if c.NATS.URL != "" && c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("nats.subject_prefix is required when nats.url is set")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.requests and rate_limit.window must be positive")
	}
	return nil
}
