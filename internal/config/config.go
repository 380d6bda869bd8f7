// Package config loads service configuration.
//
// Values are layered: defaults, then an optional YAML file, then environment
// variables, then command-line flags. A .env file in the working directory
// is read into the environment first without overriding variables that are
// already set.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Storage modes.
const (
	StorageMemory   = "memory"
	StorageDatabase = "database"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CoinGecko CoinGeckoConfig `yaml:"coingecko"`
	Token     TokenConfig     `yaml:"token"`
	Sui       SuiConfig       `yaml:"sui"`
	Gate      GateConfig      `yaml:"gate"`
	Stream    StreamConfig    `yaml:"stream"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AdminAddr       string        `yaml:"admin_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type CoinGeckoConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Network    string        `yaml:"network"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

type TokenConfig struct {
	ContractAddress string `yaml:"contract_address"`
	SearchQuery     string `yaml:"search_query"`
	Symbol          string `yaml:"symbol"`
	NameFragment    string `yaml:"name_fragment"`
}

type SuiConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	CoinType   string        `yaml:"coin_type"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// GateConfig holds decimal amounts as strings so YAML floats cannot lose
// precision.
type GateConfig struct {
	AccessThreshold   string `yaml:"access_threshold"`
	AdvertisedMinimum string `yaml:"advertised_minimum"`
}

type StreamConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type StorageConfig struct {
	Mode          string `yaml:"mode"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AdminAddr:       ":9090",
			ShutdownTimeout: 30 * time.Second,
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL: "https://api.coingecko.com/api/v3",
			Network: "sui-network",
			Timeout: 15 * time.Second,
		},
		Token: TokenConfig{
			ContractAddress: "0xefde5ddb743bd93e68a75e410e985980457b5e8837c7f4afa36ecc12bb91022b",
			SearchQuery:     "MNM sui",
			Symbol:          "mnm",
			NameFragment:    "little man",
		},
		Sui: SuiConfig{
			Endpoint: "https://fullnode.mainnet.sui.io:443",
			CoinType: "0xefde5ddb743bd93e68a75e410e985980457b5e8837c7f4afa36ecc12bb91022b::mnm::MNM",
			Timeout:  15 * time.Second,
		},
		Gate: GateConfig{
			AccessThreshold:   "0",
			AdvertisedMinimum: "10000",
		},
		Stream: StreamConfig{
			Interval: 30 * time.Second,
		},
		Storage: StorageConfig{
			Mode: StorageMemory,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// LoadEnvFile loads KEY=VALUE lines from path into the process environment.
// Existing variables are not overridden. A missing file is not an error.
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read env file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if _, ok := os.LookupEnv(key); !ok {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
		}
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg. lookup is usually
// os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("LISTEN_ADDR", &cfg.Server.Addr)
	str("ADMIN_ADDR", &cfg.Server.AdminAddr)
	str("COINGECKO_BASE_URL", &cfg.CoinGecko.BaseURL)
	str("COINGECKO_API_KEY", &cfg.CoinGecko.APIKey)
	str("COINGECKO_NETWORK", &cfg.CoinGecko.Network)
	str("TOKEN_CONTRACT_ADDRESS", &cfg.Token.ContractAddress)
	str("TOKEN_SEARCH_QUERY", &cfg.Token.SearchQuery)
	str("SUI_RPC_ENDPOINT", &cfg.Sui.Endpoint)
	str("SUI_COIN_TYPE", &cfg.Sui.CoinType)
	str("GATE_ACCESS_THRESHOLD", &cfg.Gate.AccessThreshold)
	str("STORAGE_MODE", &cfg.Storage.Mode)
	str("POSTGRES_DSN", &cfg.Storage.PostgresDSN)
	str("CLICKHOUSE_DSN", &cfg.Storage.ClickHouseDSN)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("LOG_FILE", &cfg.Log.File)

	for _, err := range []error{
		dur("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout),
		dur("COINGECKO_TIMEOUT", &cfg.CoinGecko.Timeout),
		dur("SUI_RPC_TIMEOUT", &cfg.Sui.Timeout),
		dur("STREAM_INTERVAL", &cfg.Stream.Interval),
		num("COINGECKO_MAX_RETRIES", &cfg.CoinGecko.MaxRetries),
		num("SUI_RPC_MAX_RETRIES", &cfg.Sui.MaxRetries),
	} {
		if err != nil {
			return fmt.Errorf("apply env: %w", err)
		}
	}
	return nil
}

// Load builds the configuration from args (without the program name).
func Load(args []string) (*Config, error) {
	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("mnm-site", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("CONFIG_FILE"), "YAML config file")
	addr := fs.String("addr", "", "Public API listen address")
	adminAddr := fs.String("admin-addr", "", "Admin (health/metrics) listen address")
	storageMode := fs.String("storage", "", "Archive storage: memory or database")
	postgresDSN := fs.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := fs.String("clickhouse-dsn", "", "ClickHouse connection string")
	suiEndpoint := fs.String("sui-endpoint", "", "Sui JSON-RPC endpoint")
	threshold := fs.String("access-threshold", "", "Token balance that must be exceeded for access")
	logLevel := fs.String("log-level", "", "Log level")
	streamInterval := fs.Duration("stream-interval", 0, "Price stream push interval")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if *configPath != "" {
		if err := LoadFile(*configPath, &cfg); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	// Only flags given explicitly override file and env.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "admin-addr":
			cfg.Server.AdminAddr = *adminAddr
		case "storage":
			cfg.Storage.Mode = *storageMode
		case "postgres-dsn":
			cfg.Storage.PostgresDSN = *postgresDSN
		case "clickhouse-dsn":
			cfg.Storage.ClickHouseDSN = *clickhouseDSN
		case "sui-endpoint":
			cfg.Sui.Endpoint = *suiEndpoint
		case "access-threshold":
			cfg.Gate.AccessThreshold = *threshold
		case "log-level":
			cfg.Log.Level = *logLevel
		case "stream-interval":
			cfg.Stream.Interval = *streamInterval
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.CoinGecko.BaseURL == "" {
		errs = append(errs, errors.New("coingecko.base_url is required"))
	}
	if c.Token.ContractAddress == "" {
		errs = append(errs, errors.New("token.contract_address is required"))
	}
	if c.Sui.Endpoint == "" {
		errs = append(errs, errors.New("sui.endpoint is required"))
	}
	if c.Sui.CoinType == "" {
		errs = append(errs, errors.New("sui.coin_type is required"))
	}
	if c.CoinGecko.Timeout <= 0 || c.Sui.Timeout <= 0 {
		errs = append(errs, errors.New("upstream timeouts must be positive"))
	}
	if c.CoinGecko.MaxRetries < 0 || c.Sui.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries must not be negative"))
	}
	if c.Stream.Interval <= 0 {
		errs = append(errs, errors.New("stream.interval must be positive"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if _, err := c.AccessThreshold(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.AdvertisedMinimum(); err != nil {
		errs = append(errs, err)
	}

	switch c.Storage.Mode {
	case StorageMemory:
	case StorageDatabase:
		if c.Storage.PostgresDSN == "" || c.Storage.ClickHouseDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn and storage.clickhouse_dsn are required in database mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage mode %q", c.Storage.Mode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// AccessThreshold parses the gate threshold.
func (c *Config) AccessThreshold() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Gate.AccessThreshold)
	if err != nil {
		return decimal.Zero, fmt.Errorf("gate.access_threshold: %w", err)
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("gate.access_threshold must not be negative")
	}
	return d, nil
}

// AdvertisedMinimum parses the displayed holder minimum.
func (c *Config) AdvertisedMinimum() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Gate.AdvertisedMinimum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("gate.advertised_minimum: %w", err)
	}
	return d, nil
}
