package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 64, cfg.Engine.MaxFirings)
	assert.Equal(t, 24*time.Hour, cfg.Store.Redis.TTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
store:
  driver: redis
  redis:
    addr: redis:6379
    ttl: 1h
engine:
  max_firings: 32
`), 0644))

	t.Setenv("RAILCHAT_HTTP_ADDR", ":9090")
	t.Setenv("RAILCHAT_STORE_REDIS_DB", "3")
	t.Setenv("RAILCHAT_ENGINE_MAX_FIRINGS", "16")
	t.Setenv("RAILCHAT_STORE_ENCRYPTION_KEY", "c2VjcmV0")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "defaults survive partial files")
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, 3, cfg.Store.Redis.DB)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 16, cfg.Engine.MaxFirings, "env wins over the file")
	assert.Equal(t, "c2VjcmV0", cfg.Store.EncryptionKey, "underscored keys map to their nested names")
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "reading config")
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railchat.yaml")

	original := DefaultConfig()
	original.Store.Driver = DriverFile
	original.Store.Dir = "/var/lib/railchat"
	original.Stations.DB = "stations.db"
	original.Help.Dir = "help"
	original.Fares.Timeout = 5 * time.Second

	require.NoError(t, original.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, original.Store.Driver, loaded.Store.Driver)
	assert.Equal(t, original.Store.Dir, loaded.Store.Dir)
	assert.Equal(t, original.Store.Redis, loaded.Store.Redis)
	assert.Empty(t, loaded.Store.FallbackKeys)
	assert.Equal(t, original.Stations, loaded.Stations)
	assert.Equal(t, original.Help, loaded.Help)
	assert.Equal(t, original.Fares.Timeout, loaded.Fares.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "etcd" }, "invalid store driver"},
		{"file without dir", func(c *Config) { c.Store.Driver = DriverFile; c.Store.Dir = "" }, "store.dir"},
		{"redis without addr", func(c *Config) { c.Store.Driver = DriverRedis; c.Store.Redis.Addr = "" }, "store.redis.addr"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "unknown log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"no fare url", func(c *Config) { c.Fares.BaseURL = "" }, "fares.base_url"},
		{"short encryption key", func(c *Config) { c.Store.EncryptionKey = "c2hvcnQ=" }, "store.encryption_key"},
		{"fallback without key", func(c *Config) { c.Store.FallbackKeys = []string{"c2hvcnQ="} }, "requires store.encryption_key"},
		{"negative firings", func(c *Config) { c.Engine.MaxFirings = -1 }, "engine.max_firings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "http.addr")
	assert.Contains(t, keys, "store.redis.ttl")
	assert.Contains(t, keys, "engine.max_firings")
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "RAILCHAT_STORE_REDIS_ADDR", EnvName("store.redis.addr"))
	assert.Equal(t, "RAILCHAT_ENGINE_MAX_FIRINGS", EnvName("engine.max_firings"))
}
