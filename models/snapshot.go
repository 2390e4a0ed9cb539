package models

import "time"

// SourceID identifies one of the three monitored bookstores.
type SourceID string

const (
	SourceKyobo  SourceID = "kyobobook"
	SourceYes24  SourceID = "yes24"
	SourceAladin SourceID = "aladin"
)

// Sources is the fixed collection order.
var Sources = []SourceID{SourceKyobo, SourceYes24, SourceAladin}

// Field names a single extracted metric.
type Field string

const (
	FieldDomesticRank       Field = "domestic_rank"
	FieldITRank             Field = "it_rank"
	FieldSalesIndex         Field = "sales_index"
	FieldITMobileRank       Field = "it_mobile_rank"
	FieldComputerWeeklyRank Field = "computer_weekly_rank"
	FieldTextbookRank       Field = "textbook_rank"
	FieldRankPeriod         Field = "rank_period"
	FieldSalesPoint         Field = "sales_point"
)

var sourceFields = map[SourceID][]Field{
	SourceKyobo:  {FieldDomesticRank, FieldITRank},
	SourceYes24:  {FieldSalesIndex, FieldITMobileRank},
	SourceAladin: {FieldComputerWeeklyRank, FieldTextbookRank, FieldRankPeriod, FieldSalesPoint},
}

// SourceFields returns the fixed field set a source exposes, in display order.
func SourceFields(id SourceID) []Field {
	return sourceFields[id]
}

// Snapshot is one full collection cycle.
type Snapshot struct {
	CycleID     string                     `json:"cycle_id"`
	CollectedAt time.Time                  `json:"collected_at"`
	Results     map[SourceID]*SourceResult `json:"source_results"`
}

// NewSnapshot returns a snapshot with an empty result for every known source.
func NewSnapshot(cycleID string, collectedAt time.Time, urls map[SourceID]string) *Snapshot {
	snap := &Snapshot{
		CycleID:     cycleID,
		CollectedAt: collectedAt,
		Results:     make(map[SourceID]*SourceResult, len(Sources)),
	}
	for _, id := range Sources {
		snap.Results[id] = NewSourceResult(id, urls[id])
	}
	return snap
}

// Result returns the result for id, never nil for a known source.
func (s *Snapshot) Result(id SourceID) *SourceResult {
	if r, ok := s.Results[id]; ok && r != nil {
		return r
	}
	r := NewSourceResult(id, "")
	if s.Results == nil {
		s.Results = make(map[SourceID]*SourceResult)
	}
	s.Results[id] = r
	return r
}

// SourceResult is a single source's outcome for one cycle. Fields may be
// partially populated even when Error is set.
type SourceResult struct {
	URL    string         `json:"url"`
	Title  string         `json:"title,omitempty"`
	Fields map[Field]*int `json:"fields"`
	Error  *string        `json:"error"`
}

// NewSourceResult returns a result with every field of the source present and null.
func NewSourceResult(id SourceID, url string) *SourceResult {
	fields := SourceFields(id)
	r := &SourceResult{
		URL:    url,
		Fields: make(map[Field]*int, len(fields)),
	}
	for _, f := range fields {
		r.Fields[f] = nil
	}
	return r
}

// Set records a value for f.
func (r *SourceResult) Set(f Field, v int) {
	if r.Fields == nil {
		r.Fields = make(map[Field]*int)
	}
	r.Fields[f] = &v
}

// Get returns the value of f and whether it was extracted.
func (r *SourceResult) Get(f Field) (int, bool) {
	v := r.Fields[f]
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Has reports whether f was extracted.
func (r *SourceResult) Has(f Field) bool {
	_, ok := r.Get(f)
	return ok
}

// Fail records a source-level failure.
func (r *SourceResult) Fail(msg string) {
	r.Error = &msg
}

// Failed reports whether a source-level error was recorded.
func (r *SourceResult) Failed() bool {
	return r.Error != nil
}

// Missing lists the fields of the source that were not extracted.
func (r *SourceResult) Missing(id SourceID) []Field {
	var missing []Field
	for _, f := range SourceFields(id) {
		if !r.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}
