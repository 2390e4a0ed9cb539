// Package storage writes collection artifacts to disk: snapshot JSON exports
// and raw page markup kept for debugging extraction misses.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dtnitsch/book-rank-monitor/models"
)

// snapshotLayout names export files book_rankings_YYYYmmdd_HHMMSS.json.
const snapshotLayout = "20060102_150405"

type Storage struct {
	Dir string
}

func New(dir string) *Storage {
	return &Storage{Dir: dir}
}

func (s *Storage) SaveFile(filePath string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	if err := os.WriteFile(filePath, content, 0o644); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

// SnapshotPath returns where SaveSnapshot writes snap.
func (s *Storage) SnapshotPath(snap *models.Snapshot) string {
	name := fmt.Sprintf("book_rankings_%s.json", snap.CollectedAt.Local().Format(snapshotLayout))
	return filepath.Join(s.Dir, name)
}

// SaveSnapshot writes snap as indented JSON and returns the file path.
func (s *Storage) SaveSnapshot(snap *models.Snapshot) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error encoding snapshot: %w", err)
	}
	path := s.SnapshotPath(snap)
	if err := s.SaveFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// SaveMarkup writes the raw markup fetched for one source in one cycle.
func (s *Storage) SaveMarkup(cycleID string, id models.SourceID, markup string) (string, error) {
	path := filepath.Join(s.Dir, fmt.Sprintf("%s_%s.html", id, cycleID))
	if err := s.SaveFile(path, []byte(markup)); err != nil {
		return "", err
	}
	return path, nil
}
