package db

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/book-rank-monitor/models"
	dbpkg "github.com/dtnitsch/book-rank-monitor/pkg/db"
)

// OpenDatabase resolves the database path from --db, DB_PATH or the default
// and opens it.
func OpenDatabase(c *cli.Context) (*dbpkg.DB, error) {
	path := models.DefaultDBPath
	if env := os.Getenv("DB_PATH"); env != "" {
		path = env
	}
	if c.IsSet("db") {
		path = c.String("db")
	}
	database, err := dbpkg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// columnTitle labels a source field in tables, e.g. "yes24 sales_index".
func columnTitle(id models.SourceID, f models.Field) string {
	return fmt.Sprintf("%s %s", id, f)
}

// formatValue renders a stored value; absent values print as a dash.
func formatValue(f models.Field, v int, ok bool) string {
	if !ok {
		return "-"
	}
	switch f {
	case models.FieldSalesIndex, models.FieldSalesPoint:
		return humanize.Comma(int64(v))
	case models.FieldRankPeriod:
		return fmt.Sprintf("%dw", v)
	}
	return fmt.Sprintf("#%d", v)
}

// formatTime prints local time with a relative hint against now.
func formatTime(t *time.Time, now time.Time) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format("2006-01-02 15:04:05"), humanize.RelTime(*t, now, "ago", "from now"))
}
