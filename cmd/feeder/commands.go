package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/programme-lv/feeder/internal/catalog"
	"github.com/programme-lv/feeder/internal/collector"
	"github.com/programme-lv/feeder/internal/environment"
	"github.com/programme-lv/feeder/internal/publisher"
	"github.com/programme-lv/feeder/internal/utils"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "feeder",
		Usage: "publish submissions to judging workers and record their results",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML config file",
				Value:   environment.DefaultConfigPath(),
				Sources: cli.EnvVars("FEEDER_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "transport",
				Usage:   "message bus: nats, sqs or memory",
				Sources: cli.EnvVars("FEEDER_TRANSPORT"),
			},
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server address",
				Sources: cli.EnvVars("NATS_URL"),
			},
			&cli.StringFlag{
				Name:    "ledger",
				Usage:   "ledger DSN: postgres:// url, sqlite path or memory",
				Sources: cli.EnvVars("FEEDER_LEDGER"),
			},
			&cli.StringFlag{
				Name:    "tests",
				Usage:   "test case file (JSON, .zst for compressed)",
				Sources: cli.EnvVars("FEEDER_TESTS"),
			},
			&cli.StringFlag{
				Name:    "code-dir",
				Usage:   "directory of candidate source files",
				Sources: cli.EnvVars("FEEDER_CODE_DIR"),
			},
			&cli.DurationFlag{
				Name:    "interval",
				Usage:   "time between published submissions",
				Value:   publisher.DefaultInterval,
				Sources: cli.EnvVars("PUBLISH_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: runAction,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "publish submissions and collect results",
				Action: runAction,
			},
			{
				Name:  "publish",
				Usage: "only publish submissions",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "once", Usage: "publish a single submission and exit"},
				},
				Action: publishAction,
			},
			{
				Name:   "collect",
				Usage:  "only collect results",
				Action: collectAction,
			},
			{
				Name:  "catalog",
				Usage: "print the loaded catalog",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "lines", Value: 5, Usage: "code preview height"},
					&cli.IntFlag{Name: "width", Value: 80, Usage: "code preview width"},
				},
				Action: catalogAction,
			},
		},
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	pub := publisher.New(a.catalog, a.bus, a.store, a.cfg.Subjects.Created, a.log, nil)
	col := collector.New(a.bus, a.store, a.cfg.Subjects.Executed, a.log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return col.Run(gctx) })
	g.Go(func() error { return pub.Run(gctx, a.interval) })
	if err := g.Wait(); err != nil {
		return err
	}
	a.log.Info("shutting down")
	return nil
}

func publishAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	pub := publisher.New(a.catalog, a.bus, a.store, a.cfg.Subjects.Created, a.log, nil)
	if cmd.Bool("once") {
		_, err := pub.PublishOnce(ctx)
		return err
	}
	return pub.Run(ctx, a.interval)
}

func collectAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	return collector.New(a.bus, a.store, a.cfg.Subjects.Executed, a.log).Run(ctx)
}

func catalogAction(ctx context.Context, cmd *cli.Command) error {
	lines, width := cmd.Int("lines"), cmd.Int("width")
	if lines <= 0 || width <= 0 {
		return fmt.Errorf("code preview size must be positive, got %d lines of width %d", lines, width)
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return err
	}
	printCatalog(os.Stdout, cat, lines, width)
	return nil
}

func printCatalog(w io.Writer, cat *catalog.Catalog, lines, width int) {
	title := color.New(color.Bold, color.FgCyan)
	dim := color.New(color.FgHiBlack)

	for i, sub := range cat.Submissions() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title.Fprintf(w, "%s", sub.FileName)
		dim.Fprintf(w, " %s\n", sub.ID)
		fmt.Fprintf(w, "language: %s, tests: %d, limits: %d ms / %d KiB\n",
			sub.Language.ID, len(sub.TestCases), sub.TimeLimitInMs, sub.MemoryLimitInKb)
		fmt.Fprintln(w, utils.TrimStrToRect(sub.Code, lines, width))
	}
	color.New(color.FgGreen).Fprintf(w, "\n%d submissions\n", cat.Len())
}
