package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/programme-lv/feeder/internal/bus"
	"github.com/programme-lv/feeder/internal/catalog"
	"github.com/programme-lv/feeder/internal/environment"
	"github.com/programme-lv/feeder/internal/ledger"
	"github.com/programme-lv/feeder/internal/logging"
	"github.com/urfave/cli/v3"
)

const memoryLedger = "memory"

type app struct {
	cfg      environment.File
	interval time.Duration
	log      *slog.Logger
	catalog  *catalog.Catalog
	bus      bus.Bus
	store    ledger.Store
}

// resolveConfig reads the config file and applies flags and environment
// variables on top of it.
func resolveConfig(cmd *cli.Command) (environment.File, error) {
	cfg, err := environment.ReadFile(cmd.String("config"), cmd.IsSet("config"))
	if err != nil {
		return cfg, err
	}
	if cmd.IsSet("transport") {
		cfg.Transport = cmd.String("transport")
	}
	if cmd.IsSet("nats-url") {
		cfg.Nats.URL = cmd.String("nats-url")
	}
	if cmd.IsSet("ledger") {
		cfg.Ledger.DSN = cmd.String("ledger")
	}
	if cmd.IsSet("tests") {
		cfg.Catalog.Tests = cmd.String("tests")
	}
	if cmd.IsSet("code-dir") {
		cfg.Catalog.CodeDir = cmd.String("code-dir")
	}
	if cmd.IsSet("interval") || cfg.Interval == "" {
		cfg.Interval = cmd.Duration("interval").String()
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	return cfg, nil
}

// setup opens everything a command needs. The catalog is only loaded for
// commands that publish.
func setup(ctx context.Context, cmd *cli.Command, withCatalog bool) (*app, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	interval, err := cfg.PublishInterval()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, interval: interval, log: logging.New(os.Stderr, level)}

	if withCatalog {
		a.catalog, err = catalog.Load(cfg.Catalog)
		if err != nil {
			return nil, err
		}
		a.log.Info("loaded catalog", "submissions", a.catalog.Len(), "tests", cfg.Catalog.Tests)
	}

	a.store, err = openLedger(ctx, cfg.Ledger.DSN)
	if err != nil {
		return nil, err
	}
	a.bus, err = openBus(ctx, cfg, a.log)
	if err != nil {
		a.store.Close()
		return nil, err
	}
	return a, nil
}

func openLedger(ctx context.Context, dsn string) (ledger.Store, error) {
	if dsn == memoryLedger {
		return ledger.NewMemoryStore(), nil
	}
	if ledger.DriverFor(dsn) == "sqlite3" && dsn != ":memory:" {
		if err := environment.EnsureLedgerDir(dsn); err != nil {
			return nil, fmt.Errorf("%w: %w", ledger.ErrStorage, err)
		}
	}
	store, err := ledger.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func openBus(ctx context.Context, cfg environment.File, log *slog.Logger) (bus.Bus, error) {
	switch cfg.Transport {
	case "nats":
		nc, err := bus.NewNats(cfg.Nats.URL, log)
		if err != nil {
			return nil, err
		}
		return nc, nil
	case "sqs":
		q, err := bus.NewSQS(ctx, bus.SQSConfig{
			Region:          cfg.SQS.Region,
			QueueURLs:       cfg.SQS.Queues,
			WaitTimeSeconds: cfg.SQS.WaitTimeSeconds,
		}, log)
		if err != nil {
			return nil, err
		}
		return q, nil
	case "memory":
		return bus.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
}

// close drains the bus, then closes the ledger.
func (a *app) close() {
	a.log.Info("draining bus")
	if err := a.bus.Drain(); err != nil {
		a.log.Warn("error draining bus", tint.Err(err))
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("error closing ledger", tint.Err(err))
	}
}
