// Package config loads the devlog configuration: which logs to register,
// which backend each one uses and which optional features are enabled.
//
// Settings come from a YAML file and are overlaid by DEVLOG_* environment
// variables; a .env file in the working directory is loaded first.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/devlog/pkg/log"
)

// Backend types.
const (
	BackendCBMem   = "cbmem"
	BackendConsole = "console"
	BackendFlash   = "flash"
	BackendFile    = "file"
	BackendRedis   = "redis"
	BackendMulti   = "multi"
)

// Config is the root configuration.
type Config struct {
	// MaxEntryLen bounds formatted entries (default: 128).
	MaxEntryLen int `yaml:"max_entry_len"`

	// LogLevel is the level of devlog's own diagnostics (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	Features Features    `yaml:"features"`
	Flash    FlashConfig `yaml:"flash"`
	Redis    RedisConfig `yaml:"redis"`
	Logs     []LogConfig `yaml:"logs"`
}

// Features toggles optional components.
type Features struct {
	// Shell enables the interactive shell command.
	Shell bool `yaml:"shell"`

	// Metrics enables Prometheus metrics and the metrics command.
	Metrics bool `yaml:"metrics"`

	// MetricsAddr is the listen address for /metrics (default: ":9464").
	MetricsAddr string `yaml:"metrics_addr"`
}

// FlashConfig configures the shared persistent store used by flash logs.
type FlashConfig struct {
	Dir        string `yaml:"dir"`
	MaxEntries int    `yaml:"max_entries"`
	// Fsync is one of always, interval, never (default: interval).
	Fsync string `yaml:"fsync"`
}

// RedisConfig configures the client used by redis logs.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	Prefix    string        `yaml:"prefix"`
	OpTimeout time.Duration `yaml:"op_timeout"`
}

// LogConfig describes one log instance.
type LogConfig struct {
	Name    string        `yaml:"name"`
	Level   string        `yaml:"level"`
	Backend BackendConfig `yaml:"backend"`
}

// BackendConfig selects and tunes the handler of a log.
type BackendConfig struct {
	Type string `yaml:"type"`

	// Capacity is the ring size in bytes (cbmem).
	Capacity int `yaml:"capacity"`

	// Path is the CBOR file (file).
	Path string `yaml:"path"`

	// Rate and Burst limit console output.
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`

	// MaxLen caps the stream length (redis).
	MaxLen int64 `yaml:"max_len"`

	// Children are the backends of a multi backend. The first one is the
	// primary: it is walked and read, the others mirror its entries.
	Children []BackendConfig `yaml:"children"`
}

// Default returns a configuration with a single in-memory log.
func Default() *Config {
	return &Config{
		MaxEntryLen: log.DefaultMaxEntryLen,
		LogLevel:    "info",
		Features: Features{
			MetricsAddr: ":9464",
		},
		Flash: FlashConfig{
			Fsync: "interval",
		},
		Redis: RedisConfig{
			Prefix:    "devlog",
			OpTimeout: 2 * time.Second,
		},
		Logs: []LogConfig{
			{Name: "default", Level: "debug", Backend: BackendConfig{Type: BackendCBMem, Capacity: 4096}},
		},
	}
}

// Load reads the YAML file at path over the defaults and applies the
// environment overlay. An empty path skips the file. The result is validated.
func Load(path string) (*Config, error) {
	// Load .env file if present (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML data into cfg. A logs list in data replaces the
// default one.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrap(err, "parse config")
	}
	return nil
}

// applyEnv overlays DEVLOG_* environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("DEVLOG_MAX_ENTRY_LEN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "invalid DEVLOG_MAX_ENTRY_LEN")
		}
		c.MaxEntryLen = n
	}
	c.LogLevel = getEnv("DEVLOG_LOG_LEVEL", c.LogLevel)
	c.Features.Shell = getEnvBool("DEVLOG_SHELL", c.Features.Shell)
	c.Features.Metrics = getEnvBool("DEVLOG_METRICS", c.Features.Metrics)
	c.Features.MetricsAddr = getEnv("DEVLOG_METRICS_ADDR", c.Features.MetricsAddr)
	c.Flash.Dir = getEnv("DEVLOG_FLASH_DIR", c.Flash.Dir)
	c.Redis.Addr = getEnv("DEVLOG_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("DEVLOG_REDIS_PASSWORD", c.Redis.Password)
	return nil
}

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	if c.MaxEntryLen <= 0 {
		return errors.Newf("max_entry_len must be positive, got %d", c.MaxEntryLen)
	}
	if _, err := SlogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Flash.Fsync {
	case "", "always", "interval", "never":
	default:
		return errors.Newf("flash.fsync: unknown mode %q", c.Flash.Fsync)
	}

	seen := make(map[string]bool, len(c.Logs))
	for i, l := range c.Logs {
		if l.Name == "" {
			return errors.Newf("logs[%d]: name is required", i)
		}
		if seen[l.Name] {
			return errors.Newf("logs[%d]: duplicate name %q", i, l.Name)
		}
		seen[l.Name] = true

		if _, err := log.ParseLevel(l.Level); err != nil {
			return errors.Wrapf(err, "log %q", l.Name)
		}

		if err := c.validateBackend(l.Backend); err != nil {
			return errors.Wrapf(err, "log %q", l.Name)
		}
	}
	return nil
}

func (c *Config) validateBackend(b BackendConfig) error {
	switch b.Type {
	case BackendCBMem:
		if b.Capacity <= 0 {
			return errors.New("cbmem capacity must be positive")
		}
	case BackendConsole:
	case BackendFile:
		if b.Path == "" {
			return errors.New("file backend requires path")
		}
	case BackendFlash:
		if c.Flash.Dir == "" {
			return errors.New("flash backend requires flash.dir")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis backend requires redis.addr")
		}
	case BackendMulti:
		if len(b.Children) == 0 {
			return errors.New("multi backend requires children")
		}
		for i, child := range b.Children {
			if child.Type == BackendMulti {
				return errors.Newf("children[%d]: multi backends cannot nest", i)
			}
			if err := c.validateBackend(child); err != nil {
				return errors.Wrapf(err, "children[%d]", i)
			}
		}
	default:
		return errors.Newf("unknown backend type %q", b.Type)
	}
	return nil
}

// ParsedLevel returns the level of the log. Call Validate first.
func (l LogConfig) ParsedLevel() log.Level {
	lvl, _ := log.ParseLevel(l.Level)
	return lvl
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}
