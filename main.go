package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/book-rank-monitor/internal/collect"
	"github.com/dtnitsch/book-rank-monitor/internal/db"
	"github.com/dtnitsch/book-rank-monitor/internal/serve"
	"github.com/dtnitsch/book-rank-monitor/models"
)

func main() {
	app := &cli.App{
		Name:  "book-rank-monitor",
		Usage: "Track a book's rankings on Kyobo, YES24 and Aladin over time",
		Commands: []*cli.Command{
			{
				Name:   "collect",
				Usage:  "Collect rankings once or on a fixed interval",
				Flags:  collectFlags(),
				Action: collect.CollectAction,
			},
			{
				Name:   "stats",
				Usage:  "Show record counts and the collected time range",
				Flags:  []cli.Flag{dbFlag()},
				Action: db.StatsAction,
			},
			{
				Name:  "latest",
				Usage: "Show the most recent snapshot",
				Flags: []cli.Flag{
					dbFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Print the stored snapshot as JSON"},
				},
				Action: db.LatestAction,
			},
			{
				Name:  "history",
				Usage: "Show every cycle in a trailing window",
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{Name: "hours", Value: 24, Usage: "Window size in hours"},
				},
				Action: db.HistoryAction,
			},
			{
				Name:  "dump",
				Usage: "Dump the rankings table as YAML",
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default: stdout)"},
				},
				Action: db.DumpAction,
			},
			{
				Name:  "serve",
				Usage: "Serve the read-only dashboard data API",
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{Name: "addr", Value: ":8000", Usage: "Listen address"},
					&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors"},
				},
				Action: serve.ServeAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "db",
		Usage: fmt.Sprintf("SQLite database path (default: $DB_PATH or %s)", models.DefaultDBPath),
	}
}

func collectFlags() []cli.Flag {
	return []cli.Flag{
		dbFlag(),
		&cli.BoolFlag{Name: "once", Usage: "Run a single cycle and exit"},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.yaml", Usage: "YAML config file (optional)"},
		&cli.DurationFlag{Name: "interval", Value: 30 * time.Minute, Usage: "Time between cycles"},
		&cli.DurationFlag{Name: "pace", Value: time.Second, Usage: "Delay between sources within a cycle"},
		&cli.StringFlag{Name: "save-json", Usage: "Directory for per-cycle JSON exports"},
		&cli.StringFlag{Name: "dump-html", Usage: "Directory for markup of sources with missing fields"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log every extracted field"},
	}
}
