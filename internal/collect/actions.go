package collect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/book-rank-monitor/internal/common"
	"github.com/dtnitsch/book-rank-monitor/pkg/collector"
	"github.com/dtnitsch/book-rank-monitor/pkg/db"
	"github.com/dtnitsch/book-rank-monitor/pkg/extractors"
	"github.com/dtnitsch/book-rank-monitor/pkg/fetcher"
	"github.com/dtnitsch/book-rank-monitor/pkg/scheduler"
	"github.com/dtnitsch/book-rank-monitor/pkg/storage"
)

func CollectAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 2)
	}

	urls, err := common.SanitizeSourceURLs(cfg.Sources)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open database: %v", err), 2)
	}
	defer database.Close()

	f := fetcher.New(fetcher.Config{
		Timeout:           cfg.Timeout,
		UserAgent:         cfg.UserAgent,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
	})

	opts := collector.Options{
		Pace:   cfg.Pace,
		Logger: logger,
	}
	if cfg.DumpHTMLDir != "" {
		opts.OnPage = MarkupDumper(storage.New(cfg.DumpHTMLDir), logger)
	}

	cycle := &Cycle{
		Collector: collector.New(f, extractors.Default(logger), opts),
		Store:     database,
		URLs:      urls,
		Logger:    logger,
	}
	if cfg.SaveJSONDir != "" {
		cycle.Exports = storage.New(cfg.SaveJSONDir)
	}

	runner := &scheduler.Runner{
		Cycle:    cycle.Run,
		Interval: cfg.Interval,
		Poll:     cfg.Poll,
		Logger:   logger,
	}

	logger.Info("collector configured",
		"db_path", database.Path(),
		"once", c.Bool("once"),
		"interval", cfg.Interval.String(),
		"sources", len(urls),
	)

	if c.Bool("once") {
		if err := runner.RunOnce(c.Context); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("collector stopped")
	return nil
}
