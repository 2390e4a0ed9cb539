package db

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/book-rank-monitor/models"
	dbpkg "github.com/dtnitsch/book-rank-monitor/pkg/db"
)

// StatsAction prints the summary statistics of the rankings table.
func StatsAction(c *cli.Context) error {
	database, err := OpenDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := database.SummaryStats()
	if err != nil {
		return err
	}

	now := time.Now()
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Book ranking collection")
	t.AppendRows([]table.Row{
		{"Database", database.Path()},
		{"Total records", stats.TotalRecords},
		{"Last 24h", stats.Recent24h},
		{"Oldest", formatTime(stats.Oldest, now)},
		{"Newest", formatTime(stats.Newest, now)},
	})
	t.Render()
	return nil
}

// LatestAction prints the most recent snapshot, as a table or as JSON.
func LatestAction(c *cli.Context) error {
	database, err := OpenDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	rec, found, err := database.Latest()
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("No records found. Run 'book-rank-monitor collect --once' first")
		return nil
	}

	if c.Bool("json") {
		snap, err := rec.Snapshot()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	renderLatest(rec)
	return nil
}

func renderLatest(rec *dbpkg.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("Cycle %s at %s", rec.CycleID, rec.CollectedAt.Local().Format("2006-01-02 15:04:05")))
	t.AppendHeader(table.Row{"Source", "Field", "Value"})
	for _, id := range models.Sources {
		for _, f := range models.SourceFields(id) {
			v, ok := rec.Value(id, f)
			t.AppendRow(table.Row{id, f, formatValue(f, v, ok)})
		}
		if e := rec.Errors[id]; e != nil {
			t.AppendRow(table.Row{id, "error", *e})
		}
		t.AppendSeparator()
	}
	t.Render()
}

// HistoryAction prints every cycle within the trailing --hours window.
func HistoryAction(c *cli.Context) error {
	database, err := OpenDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	hours := c.Int("hours")
	records, err := database.Windowed(time.Duration(hours) * time.Hour)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("No records in the last %d hours\n", hours)
		return nil
	}

	header := table.Row{"Collected"}
	for _, id := range models.Sources {
		for _, f := range models.SourceFields(id) {
			header = append(header, columnTitle(id, f))
		}
	}
	header = append(header, "Errors")

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)
	for _, rec := range records {
		row := table.Row{rec.CollectedAt.Local().Format("2006-01-02 15:04")}
		failed := 0
		for _, id := range models.Sources {
			for _, f := range models.SourceFields(id) {
				v, ok := rec.Value(id, f)
				row = append(row, formatValue(f, v, ok))
			}
			if rec.Errors[id] != nil {
				failed++
			}
		}
		row = append(row, failed)
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d cycles", len(records))})
	t.Render()
	return nil
}

// DumpAction writes every row as YAML to --out or stdout.
func DumpAction(c *cli.Context) error {
	database, err := OpenDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	records, err := database.All()
	if err != nil {
		return err
	}

	out := os.Stdout
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create dump file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]dbpkg.Record{"book_rankings": records}); err != nil {
		return fmt.Errorf("failed to encode dump: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush dump: %w", err)
	}

	if out != os.Stdout {
		fmt.Fprintf(os.Stderr, "Dumped %d records to %s\n", len(records), c.String("out"))
	}
	return nil
}
