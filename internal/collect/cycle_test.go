package collect

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dtnitsch/book-rank-monitor/models"
	"github.com/dtnitsch/book-rank-monitor/pkg/collector"
	"github.com/dtnitsch/book-rank-monitor/pkg/extractors"
	"github.com/dtnitsch/book-rank-monitor/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type pages map[string]string

func (p pages) Fetch(_ context.Context, url string) (string, error) {
	if markup, ok := p[url]; ok {
		return markup, nil
	}
	return "", errors.New("unreachable")
}

type memStore struct {
	snaps []*models.Snapshot
	err   error
}

func (m *memStore) InsertSnapshot(snap *models.Snapshot) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.snaps = append(m.snaps, snap)
	return int64(len(m.snaps)), nil
}

const kyoboURL = "https://kyobo.test/detail/S1"

func newTestCycle(t *testing.T, store Store, dumpDir string) *Cycle {
	t.Helper()
	opts := collector.Options{
		Now:    func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
		NewID:  func() string { return "cycle-1" },
		Logger: testLogger(),
	}
	if dumpDir != "" {
		opts.OnPage = MarkupDumper(storage.New(dumpDir), testLogger())
	}
	f := pages{kyoboURL: `<body><p>국내도서 15위</p></body>`}
	return &Cycle{
		Collector: collector.New(f, extractors.Default(testLogger()), opts),
		Store:     store,
		URLs:      map[models.SourceID]string{models.SourceKyobo: kyoboURL},
		Logger:    testLogger(),
	}
}

func TestCycle_Run(t *testing.T) {
	store := &memStore{}
	exportDir := t.TempDir()
	dumpDir := t.TempDir()

	cy := newTestCycle(t, store, dumpDir)
	cy.Exports = storage.New(exportDir)

	if err := cy.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(store.snaps) != 1 {
		t.Fatalf("stored %d snapshots, want 1", len(store.snaps))
	}
	if v, ok := store.snaps[0].Result(models.SourceKyobo).Get(models.FieldDomesticRank); !ok || v != 15 {
		t.Errorf("domestic_rank = %d, %v", v, ok)
	}

	if _, err := os.Stat(cy.Exports.SnapshotPath(store.snaps[0])); err != nil {
		t.Errorf("snapshot export missing: %v", err)
	}

	// kyobo is missing it_rank, so its markup is kept. The other sources
	// were never fetched and have nothing to dump.
	entries, err := os.ReadDir(dumpDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "kyobobook_cycle-1.html" {
		t.Errorf("dumps = %v", entries)
	}
	if data, err := os.ReadFile(filepath.Join(dumpDir, "kyobobook_cycle-1.html")); err != nil || len(data) == 0 {
		t.Errorf("dump content = %q, %v", data, err)
	}
}

func TestCycle_RunStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	cy := newTestCycle(t, &memStore{err: boom}, "")

	err := cy.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want wrapped %v", err, boom)
	}
}
