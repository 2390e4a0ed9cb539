// Package collector runs one collection cycle across every source.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dtnitsch/book-rank-monitor/models"
	"github.com/dtnitsch/book-rank-monitor/pkg/extractors"
	"github.com/dtnitsch/book-rank-monitor/pkg/fetcher"
	"github.com/dtnitsch/book-rank-monitor/pkg/parser"
)

// PageHook receives the raw markup of each source page after extraction.
type PageHook func(cycleID string, id models.SourceID, url, markup string, res *models.SourceResult)

// Options tune a Collector. Zero values pick the defaults noted per field.
type Options struct {
	// Pace is the delay between consecutive sources. Zero disables pacing.
	Pace time.Duration
	// Sleep waits between sources. Default: a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration)
	// Now stamps the snapshot. Default: time.Now.
	Now func() time.Time
	// NewID generates cycle IDs. Default: UUIDv7.
	NewID  func() string
	Logger *slog.Logger
	OnPage PageHook
}

// Collector fetches and extracts every source sequentially. It never stops
// early: each source fails on its own and the rest are still attempted.
type Collector struct {
	fetcher extractors.Fetcher
	sources []extractors.Source
	opts    Options
	logger  *slog.Logger
}

func New(f extractors.Fetcher, sources []extractors.Source, opts Options) *Collector {
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = newCycleID
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Collector{
		fetcher: f,
		sources: sources,
		opts:    opts,
		logger:  opts.Logger,
	}
}

// Collect runs one cycle. The returned snapshot has an entry for every known
// source, whatever happened to it.
func (c *Collector) Collect(ctx context.Context, urls map[models.SourceID]string) *models.Snapshot {
	snap := models.NewSnapshot(c.opts.NewID(), c.opts.Now().UTC(), urls)
	c.logger.Info("collection cycle started", "cycle_id", snap.CycleID, "sources", len(c.sources))

	seen := make(map[models.SourceID]bool, len(c.sources))
	for i, src := range c.sources {
		if i > 0 && c.opts.Pace > 0 {
			c.opts.Sleep(ctx, c.opts.Pace)
		}
		seen[src.ID()] = true
		c.collectSource(ctx, snap.CycleID, src, urls[src.ID()], snap.Result(src.ID()))
	}

	for _, id := range models.Sources {
		if !seen[id] {
			snap.Result(id).Fail("no extractor registered")
		}
	}

	c.logSummary(snap)
	return snap
}

// collectSource is the fault boundary of one source.
func (c *Collector) collectSource(ctx context.Context, cycleID string, src extractors.Source, url string, res *models.SourceResult) {
	id := src.ID()
	defer func() {
		if r := recover(); r != nil {
			res.Fail(fmt.Sprintf("extraction panicked: %v", r))
			c.logger.Error("source panicked", "source", id, "url", url, "panic", r)
		}
	}()

	if url == "" {
		res.Fail("no URL configured")
		c.logger.Warn("source skipped", "source", id, "error", *res.Error)
		return
	}

	c.logger.Info("fetching source", "source", id, "url", url)
	markup, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		res.Fail(fmt.Sprintf("page could not be fetched: %v", err))
		c.logger.Error("source fetch failed", "source", id, "url", url, "error", err,
			"absent", fetcher.IsAbsent(err), "status_code", fetcher.StatusCode(err))
		return
	}

	page, err := parser.Parse(url, markup)
	if err != nil {
		res.Fail(fmt.Sprintf("page could not be parsed: %v", err))
		c.logger.Error("source parse failed", "source", id, "url", url, "error", err)
		c.hook(cycleID, id, url, markup, res)
		return
	}
	res.Title = page.Title

	if err := src.Extract(ctx, page, c.fetcher, res); err != nil {
		res.Fail(fmt.Sprintf("extraction failed: %v", err))
		c.logger.Error("source extraction failed", "source", id, "url", url, "error", err)
	}
	c.hook(cycleID, id, url, markup, res)
}

func (c *Collector) hook(cycleID string, id models.SourceID, url, markup string, res *models.SourceResult) {
	if c.opts.OnPage != nil {
		c.opts.OnPage(cycleID, id, url, markup, res)
	}
}

// logSummary emits one line per source with its extracted values.
func (c *Collector) logSummary(snap *models.Snapshot) {
	failed := 0
	for _, id := range models.Sources {
		res := snap.Result(id)
		attrs := []any{"cycle_id", snap.CycleID, "source", id}
		for _, f := range models.SourceFields(id) {
			if v, ok := res.Get(f); ok {
				attrs = append(attrs, string(f), v)
			} else {
				attrs = append(attrs, string(f), nil)
			}
		}
		if res.Failed() {
			failed++
			attrs = append(attrs, "error", *res.Error)
			c.logger.Warn("source summary", attrs...)
			continue
		}
		c.logger.Info("source summary", attrs...)
	}
	c.logger.Info("collection cycle finished",
		"cycle_id", snap.CycleID,
		"collected_at", snap.CollectedAt.Format(time.RFC3339),
		"failed_sources", failed,
	)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func newCycleID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
