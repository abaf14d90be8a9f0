// Package config loads the spawner's configuration from TROUT_* environment
// variables and command-line flags.
package config

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/trouthatch/trout/artifact"
	"github.com/trouthatch/trout/storage"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendIPFS   = "ipfs"
)

// Config holds spawner command configuration.
type Config struct {
	NetworkID   uint64 `env:"TROUT_NETWORK_ID" envDefault:"31337"`
	NetworkName string `env:"TROUT_NETWORK_NAME"`

	Ledger    string `env:"TROUT_LEDGER" envDefault:"memory"`
	LedgerDSN string `env:"TROUT_LEDGER_DSN" envDefault:"data/ledger.db"`

	Storage      string `env:"TROUT_STORAGE" envDefault:"memory"`
	IPFSEndpoint string `env:"TROUT_IPFS_ENDPOINT" envDefault:"http://127.0.0.1:5001/api/v0/"`
	CacheBytes   int64  `env:"TROUT_CACHE_BYTES" envDefault:"67108864"`

	IndexDB string `env:"TROUT_INDEX_DB" envDefault:"data/trout.db"`

	// RootKey is the hex root secret. Local networks fall back to the
	// public testing key when it is empty.
	RootKey string `env:"TROUT_ROOT_KEY"`

	BatchSize        int           `env:"TROUT_BATCH_SIZE" envDefault:"30"`
	RetryAttempts    int           `env:"TROUT_RETRY_ATTEMPTS" envDefault:"3"`
	RetryDelay       time.Duration `env:"TROUT_RETRY_DELAY" envDefault:"1s"`
	ProbeConcurrency int           `env:"TROUT_PROBE_CONCURRENCY" envDefault:"8"`
	PollInterval     time.Duration `env:"TROUT_POLL_INTERVAL" envDefault:"0s"`

	// Attribute policy overrides. Unset values keep the network's default.
	GenesisLimit *uint64 `env:"TROUT_GENESIS_LIMIT"`
	SeasonalFrom *uint64 `env:"TROUT_SEASONAL_FROM"`
	SeasonalTo   *uint64 `env:"TROUT_SEASONAL_TO"`

	LogLevel     string `env:"TROUT_LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"TROUT_LOG_FORMAT" envDefault:"text"`
	OTelEndpoint string `env:"TROUT_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Parse loads the environment, then lets flags in args override it.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	cfg, err := ParseEnv()
	if err != nil {
		return Config{}, err
	}
	fs.Uint64Var(&cfg.NetworkID, "network", cfg.NetworkID, "Network id")
	fs.StringVar(&cfg.Ledger, "ledger", cfg.Ledger, "Ledger backend: memory or sqlite")
	fs.StringVar(&cfg.LedgerDSN, "ledger-db", cfg.LedgerDSN, "SQLite ledger path")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage backend: memory or ipfs")
	fs.StringVar(&cfg.IPFSEndpoint, "ipfs", cfg.IPFSEndpoint, "IPFS RPC endpoint")
	fs.StringVar(&cfg.IndexDB, "index-db", cfg.IndexDB, "Index and checkpoint database path, empty to disable")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Items per ledger submission")
	fs.IntVar(&cfg.RetryAttempts, "retry-attempts", cfg.RetryAttempts, "Tries per network call")
	fs.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "Delay between tries")
	fs.IntVar(&cfg.ProbeConcurrency, "probe-concurrency", cfg.ProbeConcurrency, "Concurrent discovery probes")
	fs.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "Run every interval, 0 to run once")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	var errs []error
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch size must be at least 1, got %d", c.BatchSize))
	}
	if c.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry attempts must be at least 1, got %d", c.RetryAttempts))
	}
	if c.RetryDelay < 0 || c.PollInterval < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.ProbeConcurrency < 1 {
		errs = append(errs, fmt.Errorf("probe concurrency must be at least 1, got %d", c.ProbeConcurrency))
	}
	switch c.Ledger {
	case BackendMemory, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown ledger backend %q", c.Ledger))
	}
	switch c.Storage {
	case BackendMemory, BackendIPFS:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage))
	}
	if c.Storage == BackendIPFS {
		if _, err := storage.NewIPFS(c.IPFSEndpoint, nil); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if _, err := c.Root(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Testing reports whether the network is a local development network.
func (c *Config) Testing() bool {
	return c.NetworkID == artifact.Hardhat || c.NetworkID == artifact.Ganache
}

// Root decodes the root key. It returns nil for an empty key on a testing
// network and an error for an empty key anywhere else.
func (c *Config) Root() ([]byte, error) {
	if c.RootKey == "" {
		if c.Testing() {
			return nil, nil
		}
		return nil, fmt.Errorf("TROUT_ROOT_KEY is required on network %d", c.NetworkID)
	}
	key, err := hex.DecodeString(strings.TrimPrefix(c.RootKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode root key: %w", err)
	}
	return key, nil
}

// Policy returns the network's attribute policy with overrides applied.
func (c *Config) Policy() artifact.Policy {
	p := artifact.DefaultPolicy(c.NetworkID)
	if c.GenesisLimit != nil {
		p.GenesisLimit = *c.GenesisLimit
	}
	if c.SeasonalFrom != nil {
		p.SeasonalFrom = *c.SeasonalFrom
	}
	if c.SeasonalTo != nil {
		p.SeasonalTo = *c.SeasonalTo
	}
	return p
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}
