package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dtnitsch/book-rank-monitor/models"
)

// timeLayout is fixed-width so stored timestamps order lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

var columnPrefix = map[models.SourceID]string{
	models.SourceKyobo:  "kyobo",
	models.SourceYes24:  "yes24",
	models.SourceAladin: "aladin",
}

type valueColumn struct {
	source models.SourceID
	field  models.Field
}

func (c valueColumn) name() string {
	return ColumnName(c.source, c.field)
}

// ColumnName is the table column holding a source field, e.g. kyobo_it_rank.
func ColumnName(id models.SourceID, f models.Field) string {
	return columnPrefix[id] + "_" + string(f)
}

func errorColumn(id models.SourceID) string {
	return columnPrefix[id] + "_error"
}

// valueColumns lists every per-field column in source then field order.
var valueColumns = func() []valueColumn {
	var cols []valueColumn
	for _, id := range models.Sources {
		for _, f := range models.SourceFields(id) {
			cols = append(cols, valueColumn{source: id, field: f})
		}
	}
	return cols
}()

var selectColumns = func() string {
	names := []string{"id", "cycle_id", "collected_at"}
	for _, c := range valueColumns {
		names = append(names, c.name())
	}
	for _, id := range models.Sources {
		names = append(names, errorColumn(id))
	}
	names = append(names, "raw_data", "created_at")
	return strings.Join(names, ", ")
}()

var insertSQL = func() string {
	names := []string{"cycle_id", "collected_at"}
	for _, c := range valueColumns {
		names = append(names, c.name())
	}
	for _, id := range models.Sources {
		names = append(names, errorColumn(id))
	}
	names = append(names, "raw_data", "created_at")
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	return fmt.Sprintf("INSERT INTO book_rankings (%s) VALUES (%s)", strings.Join(names, ", "), marks)
}()

// Record is one persisted collection cycle.
type Record struct {
	ID          int64                                     `json:"id" yaml:"id"`
	CycleID     string                                    `json:"cycle_id" yaml:"cycle_id"`
	CollectedAt time.Time                                 `json:"collected_at" yaml:"collected_at"`
	Values      map[models.SourceID]map[models.Field]*int `json:"values" yaml:"values"`
	Errors      map[models.SourceID]*string               `json:"errors" yaml:"errors"`
	RawData     string                                    `json:"-" yaml:"raw_data"`
	CreatedAt   time.Time                                 `json:"created_at" yaml:"created_at"`
}

// Value returns the stored value of a source field.
func (r *Record) Value(id models.SourceID, f models.Field) (int, bool) {
	v := r.Values[id][f]
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Snapshot decodes the verbatim snapshot stored with the row.
func (r *Record) Snapshot() (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.Unmarshal([]byte(r.RawData), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode raw_data of row %d: %w", r.ID, err)
	}
	return &snap, nil
}

// Stats summarizes the table.
type Stats struct {
	TotalRecords int        `json:"total_records"`
	Oldest       *time.Time `json:"oldest_record"`
	Newest       *time.Time `json:"newest_record"`
	Recent24h    int        `json:"recent_24h"`
}

// InsertSnapshot appends one row for snap in a single transaction and
// returns its id. Nothing is written when any step fails.
func (db *DB) InsertSnapshot(snap *models.Snapshot) (int64, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	args := []any{snap.CycleID, formatTime(snap.CollectedAt)}
	for _, c := range valueColumns {
		var v sql.NullInt64
		if n, ok := snap.Result(c.source).Get(c.field); ok {
			v = sql.NullInt64{Int64: int64(n), Valid: true}
		}
		args = append(args, v)
	}
	for _, id := range models.Sources {
		var e sql.NullString
		if res := snap.Result(id); res.Failed() {
			e = sql.NullString{String: *res.Error, Valid: true}
		}
		args = append(args, e)
	}
	args = append(args, string(raw), formatTime(db.clock()))

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := tx.Exec(insertSQL, args...)
	if err != nil {
		_ = tx.Rollback() // Rollback error less important than insert error
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to get row ID: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return id, nil
}

// Latest returns the most recently collected row.
func (db *DB) Latest() (*Record, bool, error) {
	row := db.QueryRow("SELECT " + selectColumns + " FROM book_rankings ORDER BY collected_at DESC, id DESC LIMIT 1")
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get latest record: %w", err)
	}
	return rec, true, nil
}

// Windowed returns rows collected within the trailing window d, oldest
// first. A non-positive window is empty.
func (db *DB) Windowed(d time.Duration) ([]Record, error) {
	if d <= 0 {
		return []Record{}, nil
	}
	cutoff := formatTime(db.clock().Add(-d))
	return db.queryRecords(
		"SELECT "+selectColumns+" FROM book_rankings WHERE collected_at >= ? ORDER BY collected_at ASC, id ASC",
		cutoff,
	)
}

// All returns every row, oldest first.
func (db *DB) All() ([]Record, error) {
	return db.queryRecords("SELECT " + selectColumns + " FROM book_rankings ORDER BY collected_at ASC, id ASC")
}

// SummaryStats returns the row count, the oldest and newest collection
// times, and the number of rows from the trailing 24 hours.
func (db *DB) SummaryStats() (*Stats, error) {
	var (
		stats          Stats
		oldest, newest sql.NullString
	)
	err := db.QueryRow("SELECT COUNT(*), MIN(collected_at), MAX(collected_at) FROM book_rankings").
		Scan(&stats.TotalRecords, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary stats: %w", err)
	}

	if stats.Oldest, err = parseNullTime(oldest); err != nil {
		return nil, err
	}
	if stats.Newest, err = parseNullTime(newest); err != nil {
		return nil, err
	}

	cutoff := formatTime(db.clock().Add(-24 * time.Hour))
	if err := db.QueryRow("SELECT COUNT(*) FROM book_rankings WHERE collected_at >= ?", cutoff).Scan(&stats.Recent24h); err != nil {
		return nil, fmt.Errorf("failed to count recent records: %w", err)
	}

	return &stats, nil
}

func (db *DB) queryRecords(query string, args ...any) ([]Record, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		rec                    Record
		collectedAt, createdAt string
	)
	values := make([]sql.NullInt64, len(valueColumns))
	errs := make([]sql.NullString, len(models.Sources))

	dest := []any{&rec.ID, &rec.CycleID, &collectedAt}
	for i := range values {
		dest = append(dest, &values[i])
	}
	for i := range errs {
		dest = append(dest, &errs[i])
	}
	dest = append(dest, &rec.RawData, &createdAt)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if rec.CollectedAt, err = parseTime(collectedAt); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	rec.Values = make(map[models.SourceID]map[models.Field]*int, len(models.Sources))
	for i, c := range valueColumns {
		if rec.Values[c.source] == nil {
			rec.Values[c.source] = make(map[models.Field]*int)
		}
		var v *int
		if values[i].Valid {
			n := int(values[i].Int64)
			v = &n
		}
		rec.Values[c.source][c.field] = v
	}

	rec.Errors = make(map[models.SourceID]*string, len(models.Sources))
	for i, id := range models.Sources {
		var e *string
		if errs[i].Valid {
			msg := errs[i].String
			e = &msg
		}
		rec.Errors[id] = e
	}

	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
