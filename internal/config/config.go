// Package config loads railchat settings from defaults, an optional YAML file and
// RAILCHAT_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/aretw0/railchat/internal/logging"
	"github.com/aretw0/railchat/pkg/persistence/middleware"
)

// EnvPrefix prefixes environment overrides: RAILCHAT_HTTP_ADDR sets http.addr.
const EnvPrefix = "RAILCHAT_"

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "railchat.yaml"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config is the top-level railchat configuration, corresponding to railchat.yaml.
type Config struct {
	Log      LogConfig      `yaml:"log" koanf:"log"`
	HTTP     HTTPConfig     `yaml:"http" koanf:"http"`
	Store    StoreConfig    `yaml:"store" koanf:"store"`
	Stations StationsConfig `yaml:"stations" koanf:"stations"`
	Fares    FaresConfig    `yaml:"fares" koanf:"fares"`
	Delay    DelayConfig    `yaml:"delay" koanf:"delay"`
	Help     HelpConfig     `yaml:"help" koanf:"help"`
	Engine   EngineConfig   `yaml:"engine" koanf:"engine"`
}

type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

type HTTPConfig struct {
	Addr        string   `yaml:"addr" koanf:"addr"`
	CORSOrigins []string `yaml:"cors_origins" koanf:"cors_origins"`
}

// StoreConfig selects the session store. EncryptionKey, a base64 AES-256 key, seals
// the slots of every stored session; FallbackKeys are older keys still accepted on load.
type StoreConfig struct {
	Driver        string      `yaml:"driver" koanf:"driver"`
	Dir           string      `yaml:"dir" koanf:"dir"`
	Redis         RedisConfig `yaml:"redis" koanf:"redis"`
	EncryptionKey string      `yaml:"encryption_key" koanf:"encryption_key"`
	FallbackKeys  []string    `yaml:"fallback_keys" koanf:"fallback_keys"`
}

// RedisConfig configures the redis session store. Lock enables the distributed
// per-conversation lock for multi-instance deployments.
type RedisConfig struct {
	Addr     string        `yaml:"addr" koanf:"addr"`
	Password string        `yaml:"password" koanf:"password"`
	DB       int           `yaml:"db" koanf:"db"`
	Prefix   string        `yaml:"prefix" koanf:"prefix"`
	TTL      time.Duration `yaml:"ttl" koanf:"ttl"`
	Lock     bool          `yaml:"lock" koanf:"lock"`
}

// StationsConfig points at the sqlite station directory. Empty uses the built-in sample.
type StationsConfig struct {
	DB string `yaml:"db" koanf:"db"`
}

type FaresConfig struct {
	BaseURL   string        `yaml:"base_url" koanf:"base_url"`
	UserAgent string        `yaml:"user_agent" koanf:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" koanf:"timeout"`
}

// DelayConfig points at a rail network YAML file. Empty uses the built-in network.
type DelayConfig struct {
	Network string `yaml:"network" koanf:"network"`
}

// HelpConfig points at a loam repository of help topics. Empty uses the built-in answers.
type HelpConfig struct {
	Dir string `yaml:"dir" koanf:"dir"`
}

type EngineConfig struct {
	MaxFirings int `yaml:"max_firings" koanf:"max_firings"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Log:  LogConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{Addr: ":8080"},
		Store: StoreConfig{
			Driver: DriverMemory,
			Dir:    ".railchat/sessions",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "railchat:session:",
				TTL:    24 * time.Hour,
			},
		},
		Fares: FaresConfig{
			BaseURL: "https://ojp.nationalrail.co.uk/service/timesandfares",
			Timeout: 15 * time.Second,
		},
		Engine: EngineConfig{MaxFirings: 64},
	}
}

// Load reads configuration from the given YAML file, if it exists, then overlays
// environment variable overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	keys := envKeys()
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		name := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if key, ok := keys[name]; ok {
			return key
		}
		return name
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// envKeys maps underscore names such as "store_redis_addr" to config keys such as
// "store.redis.addr", derived from the fields of DefaultConfig.
func envKeys() map[string]string {
	data, err := yamlv3.Marshal(DefaultConfig())
	if err != nil {
		return nil
	}
	var tree map[string]any
	if err := yamlv3.Unmarshal(data, &tree); err != nil {
		return nil
	}
	keys := make(map[string]string)
	flatten("", tree, keys)
	return keys
}

func flatten(prefix string, tree map[string]any, keys map[string]string) {
	for name, v := range tree {
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(key, sub, keys)
			continue
		}
		keys[strings.ReplaceAll(key, ".", "_")] = key
	}
}

// Keys lists every configuration key, e.g. for documentation.
func Keys() []string {
	keys := envKeys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// EnvName returns the environment variable overriding key, e.g. RAILCHAT_STORE_REDIS_ADDR.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", c.Log.Format)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir is required for the file driver")
		}
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis driver")
		}
		if c.Store.Redis.TTL < 0 {
			return fmt.Errorf("store.redis.ttl must be non-negative")
		}
	default:
		return fmt.Errorf("invalid store driver %q: must be one of memory, file, redis", c.Store.Driver)
	}

	if c.Store.EncryptionKey != "" {
		if _, err := middleware.ParseKey(c.Store.EncryptionKey); err != nil {
			return fmt.Errorf("store.encryption_key: %w", err)
		}
	} else if len(c.Store.FallbackKeys) > 0 {
		return fmt.Errorf("store.fallback_keys requires store.encryption_key")
	}
	for i, k := range c.Store.FallbackKeys {
		if _, err := middleware.ParseKey(k); err != nil {
			return fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
	}

	if c.Fares.BaseURL == "" {
		return fmt.Errorf("fares.base_url is required")
	}
	if c.Fares.Timeout < 0 {
		return fmt.Errorf("fares.timeout must be non-negative")
	}
	if c.Engine.MaxFirings < 0 {
		return fmt.Errorf("engine.max_firings must be non-negative")
	}
	return nil
}
