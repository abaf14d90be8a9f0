// Command spawner keeps a ledger's items backed by current trout artifacts.
//
// It runs once, or every -poll interval until interrupted. Configuration
// comes from TROUT_* environment variables, overridden by flags. On the
// local networks (31337, 1337) an empty root key selects the public
// testing key.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/trouthatch/trout"
	"github.com/trouthatch/trout/artifact"
	"github.com/trouthatch/trout/cipher"
	"github.com/trouthatch/trout/index"
	"github.com/trouthatch/trout/internal/config"
	"github.com/trouthatch/trout/internal/telemetry"
	"github.com/trouthatch/trout/ledger"
	"github.com/trouthatch/trout/spawner"
	"github.com/trouthatch/trout/storage"
)

func main() {
	var (
		mint  = flag.Int("mint", 0, "mint this many root items before running (development ledgers)")
		breed = flag.String("breed", "", "mint bred items before running, as comma-separated left:right pairs")
	)
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	pairs, err := parsePairs(*breed)
	if err != nil {
		log.Fatalf("parse -breed: %v", err)
	}
	if err := setupLogger(&cfg); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &cfg, *mint, pairs); err != nil && !errors.Is(err, context.Canceled) {
		trout.Logger().Error("spawner failed", "err", err)
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	trout.SetLogger(slog.New(h))
	return nil
}

// parsePairs reads "1:2,3:4".
func parsePairs(s string) ([][2]uint64, error) {
	if s == "" {
		return nil, nil
	}
	var out [][2]uint64
	for _, p := range strings.Split(s, ",") {
		l, r, ok := strings.Cut(strings.TrimSpace(p), ":")
		if !ok {
			return nil, fmt.Errorf("pair %q is not left:right", p)
		}
		left, err := strconv.ParseUint(l, 10, 64)
		if err != nil {
			return nil, err
		}
		right, err := strconv.ParseUint(r, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, [2]uint64{left, right})
	}
	return out, nil
}

// devLedger is a ledger that can mint items locally.
type devLedger interface {
	ledger.Ledger
	mint(ctx context.Context, left, right uint64) (uint64, error)
}

type memoryLedger struct{ *ledger.Memory }

func (m memoryLedger) mint(_ context.Context, left, right uint64) (uint64, error) {
	return m.Mint(left, right)
}

type sqliteLedger struct{ *ledger.SQLite }

func (s sqliteLedger) mint(ctx context.Context, left, right uint64) (uint64, error) {
	return s.Mint(ctx, left, right)
}

func run(ctx context.Context, cfg *config.Config, mint int, pairs [][2]uint64) error {
	shutdown, err := telemetry.Setup(ctx, "trout-spawner", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			trout.Logger().Warn("telemetry shutdown", "err", err)
		}
	}()

	name := cfg.NetworkName
	if name == "" {
		if name, err = artifact.NetworkName(cfg.NetworkID); err != nil {
			return err
		}
	}
	logger := trout.Logger().With("network", name)

	c, err := newCipher(cfg)
	if err != nil {
		return err
	}

	var l devLedger
	switch cfg.Ledger {
	case config.BackendSQLite:
		if err := ensureDir(cfg.LedgerDSN); err != nil {
			return err
		}
		s, err := ledger.OpenSQLite(ctx, cfg.LedgerDSN)
		if err != nil {
			return err
		}
		defer s.Close()
		l = sqliteLedger{s}
	default:
		l = memoryLedger{ledger.NewMemory()}
	}
	for range mint {
		if _, err := l.mint(ctx, 0, 0); err != nil {
			return err
		}
	}
	for _, p := range pairs {
		if _, err := l.mint(ctx, p[0], p[1]); err != nil {
			return err
		}
	}

	var store storage.Store = storage.NewMemory()
	if cfg.Storage == config.BackendIPFS {
		ipfs, err := storage.NewIPFS(cfg.IPFSEndpoint, nil)
		if err != nil {
			return err
		}
		store = ipfs
	}
	cached := storage.NewCached(store, cfg.CacheBytes)

	policy := cfg.Policy()
	opts := spawner.Options{
		NetworkID:        cfg.NetworkID,
		Policy:           &policy,
		BatchSize:        cfg.BatchSize,
		Retry:            spawner.Retry{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
		ProbeConcurrency: cfg.ProbeConcurrency,
	}
	var indexer *index.Indexer
	if cfg.IndexDB != "" {
		if err := ensureDir(cfg.IndexDB); err != nil {
			return err
		}
		x, err := index.Open(ctx, cfg.IndexDB)
		if err != nil {
			return err
		}
		defer x.Close()
		opts.Checkpoint = x
		indexer = &index.Indexer{
			Ledger:      l,
			Store:       cached,
			Index:       x,
			NetworkID:   cfg.NetworkID,
			Concurrency: cfg.ProbeConcurrency,
		}
	}

	sp, err := spawner.New(l, cached, c, opts)
	if err != nil {
		return err
	}
	logger.Info("spawner started", "ledger", cfg.Ledger, "storage", cfg.Storage, "poll", cfg.PollInterval)

	once := func() error {
		rep, err := sp.Run(ctx)
		if rep != nil {
			logger.Info("run finished", "run_id", rep.RunID, "stale", len(rep.Stale),
				"computed", rep.Computed, "reused", rep.Reused, "posted", len(rep.Posted), "unposted", len(rep.Unposted))
		}
		if indexer != nil {
			n, ierr := indexer.Run(ctx)
			if ierr != nil {
				logger.Error("indexing failed", "err", ierr)
			} else if n > 0 {
				logger.Info("indexed artifacts", "records", n)
			}
		}
		stats := cached.Stats()
		logger.Debug("blob cache", "hits", stats.Hits, "misses", stats.Misses, "size", humanize.Bytes(uint64(stats.Cost)))
		return err
	}

	if cfg.PollInterval == 0 {
		return once()
	}
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		if err := once(); err != nil {
			logger.Error("run failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func newCipher(cfg *config.Config) (*cipher.Cipher, error) {
	root, err := cfg.Root()
	if err != nil {
		return nil, err
	}
	if root == nil {
		trout.Logger().Warn("using the public testing key", "network", cfg.NetworkID)
		return cipher.NewTesting(), nil
	}
	return cipher.New(root)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || path == ":memory:" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
