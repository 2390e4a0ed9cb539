package collect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dtnitsch/book-rank-monitor/models"
	"github.com/dtnitsch/book-rank-monitor/pkg/collector"
	"github.com/dtnitsch/book-rank-monitor/pkg/storage"
)

// Store persists snapshots.
type Store interface {
	InsertSnapshot(snap *models.Snapshot) (int64, error)
}

// Cycle is one scheduled unit of work: collect, persist, then export.
type Cycle struct {
	Collector *collector.Collector
	Store     Store
	URLs      map[models.SourceID]string
	// Exports receives the JSON copy of each snapshot; nil disables it.
	Exports *storage.Storage
	Logger  *slog.Logger
}

// Run collects one snapshot and appends it to the store. Only a failed
// write is an error; per-source failures live inside the snapshot.
func (cy *Cycle) Run(ctx context.Context) error {
	snap := cy.Collector.Collect(ctx, cy.URLs)

	rowID, err := cy.Store.InsertSnapshot(snap)
	if err != nil {
		return fmt.Errorf("failed to persist snapshot %s: %w", snap.CycleID, err)
	}
	cy.Logger.Info("snapshot stored", "cycle_id", snap.CycleID, "row_id", rowID)

	if cy.Exports != nil {
		path, err := cy.Exports.SaveSnapshot(snap)
		if err != nil {
			cy.Logger.Warn("failed to export snapshot", "cycle_id", snap.CycleID, "error", err)
		} else {
			cy.Logger.Info("snapshot exported", "cycle_id", snap.CycleID, "path", path)
		}
	}
	return nil
}

// MarkupDumper returns a collector hook that keeps the raw markup of every
// source that came back failed or with fields missing.
func MarkupDumper(dumps *storage.Storage, logger *slog.Logger) collector.PageHook {
	return func(cycleID string, id models.SourceID, url, markup string, res *models.SourceResult) {
		missing := res.Missing(id)
		if len(missing) == 0 && !res.Failed() {
			return
		}
		path, err := dumps.SaveMarkup(cycleID, id, markup)
		if err != nil {
			logger.Warn("failed to dump markup", "source", id, "url", url, "error", err)
			return
		}
		logger.Info("markup dumped", "source", id, "url", url, "missing_fields", missing, "path", path)
	}
}
