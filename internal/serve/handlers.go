package serve

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dtnitsch/book-rank-monitor/models"
	dbpkg "github.com/dtnitsch/book-rank-monitor/pkg/db"
)

// chartLayout formats chart axis labels.
const chartLayout = "2006-01-02 15:04"

// Store is the read-only view of the collection store.
type Store interface {
	SummaryStats() (*dbpkg.Stats, error)
	Latest() (*dbpkg.Record, bool, error)
	Windowed(d time.Duration) ([]dbpkg.Record, error)
}

type handlers struct {
	store  Store
	logger *slog.Logger
}

// NewRouter serves the dashboard data API. It never writes to the store.
func NewRouter(store Store, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.stats)
		r.Get("/latest", h.latest)
		r.Get("/chart-data", h.chartData)
	})
	return r
}

// requestLogger logs one structured line per request on the service logger.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("api request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.SummaryStats()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// latest returns the newest row flattened to column names, or null.
func (h *handlers) latest(w http.ResponseWriter, r *http.Request) {
	rec, found, err := h.store.Latest()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	out := map[string]any{
		"cycle_id":  rec.CycleID,
		"timestamp": rec.CollectedAt.Local().Format(time.RFC3339),
	}
	errs := map[models.SourceID]*string{}
	for _, id := range models.Sources {
		for _, f := range models.SourceFields(id) {
			out[dbpkg.ColumnName(id, f)] = rec.Values[id][f]
		}
		errs[id] = rec.Errors[id]
	}
	out["errors"] = errs
	writeJSON(w, http.StatusOK, out)
}

// chartData returns one label per row plus one aligned series per field.
func (h *handlers) chartData(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "hours must be a non-negative integer"})
			return
		}
		hours = n
	}

	records, err := h.store.Windowed(time.Duration(hours) * time.Hour)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	timestamps := make([]string, 0, len(records))
	series := map[string][]*int{}
	for _, id := range models.Sources {
		for _, f := range models.SourceFields(id) {
			series[dbpkg.ColumnName(id, f)] = make([]*int, 0, len(records))
		}
	}
	for _, rec := range records {
		timestamps = append(timestamps, rec.CollectedAt.Local().Format(chartLayout))
		for _, id := range models.Sources {
			for _, f := range models.SourceFields(id) {
				col := dbpkg.ColumnName(id, f)
				series[col] = append(series[col], rec.Values[id][f])
			}
		}
	}

	out := map[string]any{"timestamps": timestamps}
	for col, values := range series {
		out[col] = values
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("api request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
