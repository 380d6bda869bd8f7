// Package app wires the configured clients, resolvers and archives together.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"mnm-site/internal/coingecko"
	"mnm-site/internal/config"
	"mnm-site/internal/gate"
	"mnm-site/internal/httpapi"
	"mnm-site/internal/logger"
	"mnm-site/internal/resolver"
	"mnm-site/internal/storage"
	"mnm-site/internal/storage/clickhouse"
	"mnm-site/internal/storage/memory"
	"mnm-site/internal/storage/migrations"
	"mnm-site/internal/storage/postgres"
	"mnm-site/internal/sui"
)

// App holds the wired components.
type App struct {
	Snapshots *resolver.SnapshotResolver
	History   *resolver.HistoryResolver
	Verifier  *gate.Verifier

	SnapshotStore storage.SnapshotStore
	HistoryStore  storage.HistoryStore

	cfg     *config.Config
	log     *logrus.Logger
	cleanup func()
}

// Stores holds the archive implementations and their teardown.
type Stores struct {
	Snapshots storage.SnapshotStore
	History   storage.HistoryStore
	Close     func()
}

// New builds upstream clients and resolvers from cfg. Archives are not
// opened; call OpenStores for those.
func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	threshold, err := cfg.AccessThreshold()
	if err != nil {
		return nil, err
	}

	source := coingecko.NewHTTPClient(
		coingecko.WithBaseURL(cfg.CoinGecko.BaseURL),
		coingecko.WithAPIKey(cfg.CoinGecko.APIKey),
		coingecko.WithTimeout(cfg.CoinGecko.Timeout),
		coingecko.WithMaxRetries(cfg.CoinGecko.MaxRetries),
	)
	rpc := sui.NewHTTPClient(cfg.Sui.Endpoint,
		sui.WithTimeout(cfg.Sui.Timeout),
		sui.WithMaxRetries(cfg.Sui.MaxRetries),
	)

	token := resolver.Token{
		ContractAddress: cfg.Token.ContractAddress,
		Network:         cfg.CoinGecko.Network,
		SearchQuery:     cfg.Token.SearchQuery,
		Symbol:          cfg.Token.Symbol,
		NameFragment:    cfg.Token.NameFragment,
	}
	ropts := []resolver.Option{resolver.WithLogger(logger.Component(log, "resolver"))}

	return &App{
		Snapshots: resolver.NewSnapshotResolver(source, token, ropts...),
		History:   resolver.NewHistoryResolver(source, token, ropts...),
		Verifier:  gate.NewVerifier(rpc, cfg.Sui.CoinType, gate.Policy{Threshold: threshold}, logger.Component(log, "gate")),
		cfg:       cfg,
		log:       log,
		cleanup:   func() {},
	}, nil
}

// OpenStores opens the archives for the configured storage mode. Database
// mode applies the embedded migrations first.
func (a *App) OpenStores(ctx context.Context) error {
	stores, err := OpenStores(ctx, a.cfg.Storage)
	if err != nil {
		return err
	}
	a.SnapshotStore = stores.Snapshots
	a.HistoryStore = stores.History
	a.cleanup = stores.Close
	return nil
}

// OpenStores opens archives for a storage configuration.
func OpenStores(ctx context.Context, cfg config.StorageConfig) (*Stores, error) {
	switch cfg.Mode {
	case config.StorageMemory:
		return &Stores{
			Snapshots: memory.NewSnapshotStore(),
			History:   memory.NewHistoryStore(),
			Close:     func() {},
		}, nil

	case config.StorageDatabase:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}

		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}

		return &Stores{
			Snapshots: postgres.NewSnapshotStore(pool),
			History:   clickhouse.NewHistoryStore(conn),
			Close: func() {
				conn.Close()
				pool.Close()
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Mode)
	}
}

// APIServer builds the public HTTP handlers.
func (a *App) APIServer() (*httpapi.Server, error) {
	advertised, err := a.cfg.AdvertisedMinimum()
	if err != nil {
		return nil, err
	}

	return httpapi.NewServer(httpapi.Options{
		Snapshots:         a.Snapshots,
		History:           a.History,
		Verifier:          a.Verifier,
		AdvertisedMinimum: advertised,
		SnapshotStore:     a.SnapshotStore,
		HistoryStore:      a.HistoryStore,
		Stream:            httpapi.StreamConfig{Interval: a.cfg.Stream.Interval},
		Logger:            logger.Component(a.log, "api"),
	}), nil
}

// Close releases the archives.
func (a *App) Close() {
	a.cleanup()
}
