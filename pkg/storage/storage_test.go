package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dtnitsch/book-rank-monitor/models"
)

func TestSaveSnapshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	s := New(dir)

	at := time.Date(2026, 3, 1, 9, 30, 5, 0, time.UTC)
	snap := models.NewSnapshot("cycle-1", at, models.DefaultURLs)
	snap.Result(models.SourceKyobo).Set(models.FieldDomesticRank, 15)

	path, err := s.SaveSnapshot(snap)
	if err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	want := filepath.Join(dir, "book_rankings_"+at.Local().Format("20060102_150405")+".json")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var got models.Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if v, ok := got.Result(models.SourceKyobo).Get(models.FieldDomesticRank); !ok || v != 15 {
		t.Errorf("exported domestic_rank = %d, %v", v, ok)
	}
	if len(got.Results) != 3 {
		t.Errorf("exported %d sources, want 3", len(got.Results))
	}
}

func TestSaveMarkup(t *testing.T) {
	s := New(t.TempDir())

	path, err := s.SaveMarkup("cycle-1", models.SourceYes24, "<p>판매지수</p>")
	if err != nil {
		t.Fatalf("SaveMarkup() error = %v", err)
	}
	if filepath.Base(path) != "yes24_cycle-1.html" {
		t.Errorf("file name = %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved markup: %v", err)
	}
	if string(data) != "<p>판매지수</p>" {
		t.Errorf("saved markup = %q", data)
	}
}
