package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	th, err := cfg.AccessThreshold()
	require.NoError(t, err)
	assert.True(t, th.IsZero())

	minimum, err := cfg.AdvertisedMinimum()
	require.NoError(t, err)
	assert.Equal(t, "10000", minimum.String())
}

func TestLoadFile_Overlay(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: ":8181"
coingecko:
  timeout: 5s
  api_key: demo
gate:
  access_threshold: "10000"
`)

	cfg := Default()
	require.NoError(t, LoadFile(path, &cfg))

	assert.Equal(t, ":8181", cfg.Server.Addr)
	assert.Equal(t, ":9090", cfg.Server.AdminAddr)
	assert.Equal(t, 5*time.Second, cfg.CoinGecko.Timeout)
	assert.Equal(t, "demo", cfg.CoinGecko.APIKey)
	assert.Equal(t, "sui-network", cfg.CoinGecko.Network)
	assert.Equal(t, "10000", cfg.Gate.AccessThreshold)
}

func TestLoadFile_Invalid(t *testing.T) {
	path := writeFile(t, "config.yaml", "server: [")
	cfg := Default()
	assert.Error(t, LoadFile(path, &cfg))

	assert.Error(t, LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LISTEN_ADDR":           ":7000",
		"POSTGRES_DSN":          "postgres://x",
		"STREAM_INTERVAL":       "10s",
		"COINGECKO_MAX_RETRIES": "2",
		"LOG_LEVEL":             "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, lookup))

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "postgres://x", cfg.Storage.PostgresDSN)
	assert.Equal(t, 10*time.Second, cfg.Stream.Interval)
	assert.Equal(t, 2, cfg.CoinGecko.MaxRetries)
	assert.Equal(t, "info", cfg.Log.Level, "empty value keeps default")
}

func TestApplyEnv_BadDuration(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "STREAM_INTERVAL" {
			return "soon", true
		}
		return "", false
	}
	cfg := Default()
	assert.Error(t, ApplyEnv(&cfg, lookup))
}

func TestLoadEnvFile_DoesNotOverride(t *testing.T) {
	path := writeFile(t, ".env", `
# comment
MNM_TEST_EXISTING=from-file
MNM_TEST_NEW="quoted"
not a pair
`)
	t.Setenv("MNM_TEST_EXISTING", "from-env")
	t.Cleanup(func() { os.Unsetenv("MNM_TEST_NEW") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-env", os.Getenv("MNM_TEST_EXISTING"))
	assert.Equal(t, "quoted", os.Getenv("MNM_TEST_NEW"))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: ":1111"
  admin_addr: ":2222"
log:
  level: warn
`)
	t.Setenv("ADMIN_ADDR", ":3333")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load([]string{"-config", path, "-log-level", "error"})
	require.NoError(t, err)

	assert.Equal(t, ":1111", cfg.Server.Addr, "file")
	assert.Equal(t, ":3333", cfg.Server.AdminAddr, "env over file")
	assert.Equal(t, "error", cfg.Log.Level, "flag over env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty contract", func(c *Config) { c.Token.ContractAddress = "" }},
		{"empty sui endpoint", func(c *Config) { c.Sui.Endpoint = "" }},
		{"zero stream interval", func(c *Config) { c.Stream.Interval = 0 }},
		{"negative retries", func(c *Config) { c.CoinGecko.MaxRetries = -1 }},
		{"bad threshold", func(c *Config) { c.Gate.AccessThreshold = "lots" }},
		{"negative threshold", func(c *Config) { c.Gate.AccessThreshold = "-1" }},
		{"unknown storage", func(c *Config) { c.Storage.Mode = "redis" }},
		{"database without dsn", func(c *Config) { c.Storage.Mode = StorageDatabase }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_DatabaseMode(t *testing.T) {
	cfg := Default()
	cfg.Storage.Mode = StorageDatabase
	cfg.Storage.PostgresDSN = "postgres://localhost/mnm"
	cfg.Storage.ClickHouseDSN = "clickhouse://localhost:9000/mnm"
	assert.NoError(t, cfg.Validate())
}
