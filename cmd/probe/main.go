// Package main provides a one-shot CLI that resolves the current price, a
// history window and optionally a wallet's holder access, then prints the
// results as JSON.
//
// Usage:
//
//	probe [-config mnm.yaml] [-days 7] [-address 0x...] [-timeout 30s]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"mnm-site/internal/app"
	"mnm-site/internal/config"
	"mnm-site/internal/domain"
	"mnm-site/internal/gate"
	"mnm-site/internal/httpapi"
	"mnm-site/internal/logger"
)

// Report is the printed result.
type Report struct {
	Snapshot         *domain.PriceSnapshot `json:"snapshot"`
	SnapshotStrategy string                `json:"snapshotStrategy"`
	History          any                   `json:"history"`
	HistoryStrategy  string                `json:"historyStrategy"`
	HistoryDays      int                   `json:"historyDays"`
	Wallet           *WalletReport         `json:"wallet,omitempty"`
}

// WalletReport is the holder check of one address.
type WalletReport struct {
	State             string          `json:"state"`
	Address           string          `json:"address"`
	RawBalance        decimal.Decimal `json:"rawBalance"`
	Decimals          int             `json:"decimals"`
	NormalizedBalance decimal.Decimal `json:"normalizedBalance"`
	HasAccess         bool            `json:"hasAccess"`
	AdvertisedMinimum decimal.Decimal `json:"advertisedMinimum"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "probe: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}

	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("CONFIG_FILE"), "YAML config file")
	days := fs.String("days", "7", "History window in days")
	address := fs.String("address", "", "Wallet address to check for holder access")
	timeout := fs.Duration("timeout", 30*time.Second, "Overall timeout")
	verbose := fs.Bool("v", false, "Log strategy decisions to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		if err := config.LoadFile(*configPath, &cfg); err != nil {
			return err
		}
	}
	if err := config.ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	root := logger.Discard().Logger
	if *verbose {
		root = logrus.New()
		root.SetOutput(os.Stderr)
		root.SetLevel(logrus.DebugLevel)
	}

	a, err := app.New(&cfg, root)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := probe(ctx, a, &cfg, httpapi.ParseDays(*days), *address)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func probe(ctx context.Context, a *app.App, cfg *config.Config, days int, address string) (*Report, error) {
	snap, err := a.Snapshots.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("current price: %w", err)
	}

	hist, err := a.History.History(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("price history: %w", err)
	}

	report := &Report{
		Snapshot:         snap.Snapshot,
		SnapshotStrategy: snap.Strategy,
		HistoryStrategy:  hist.Strategy,
		HistoryDays:      days,
	}
	if hist.Unavailable != nil {
		report.History = hist.Unavailable
	} else {
		report.History = hist.Points
	}

	if address = strings.TrimSpace(address); address != "" {
		normalized, ok := httpapi.NormalizeAddress(address)
		if !ok {
			return nil, fmt.Errorf("invalid wallet address %q", address)
		}
		advertised, err := cfg.AdvertisedMinimum()
		if err != nil {
			return nil, err
		}

		st := gate.NewSession(a.Verifier).Connect(ctx, normalized)
		report.Wallet = &WalletReport{
			State:             st.State.String(),
			Address:           st.Address,
			RawBalance:        st.Balance.RawBalance,
			Decimals:          st.Balance.Decimals,
			NormalizedBalance: st.Balance.NormalizedBalance,
			HasAccess:         st.HasAccess,
			AdvertisedMinimum: advertised,
		}
	}

	return report, nil
}
