// Package extractors holds the per-bookstore extraction strategies.
package extractors

import (
	"context"
	"log/slog"

	"github.com/dtnitsch/book-rank-monitor/models"
	"github.com/dtnitsch/book-rank-monitor/pkg/extractor"
	"github.com/dtnitsch/book-rank-monitor/pkg/parser"
)

// Fetcher retrieves follow-up pages a source needs beyond its main page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Source extracts one bookstore's fields from its parsed product page.
//
// Extract fills res field by field; fields that match nothing stay nil and
// are not an error. A returned error is a source-level failure and res keeps
// whatever was extracted before it.
type Source interface {
	ID() models.SourceID
	Extract(ctx context.Context, page *parser.Page, f Fetcher, res *models.SourceResult) error
}

// Default returns the three sources in collection order.
func Default(logger *slog.Logger) []Source {
	return []Source{
		NewKyobo(logger),
		NewYes24(logger),
		NewAladin(logger),
	}
}

// apply runs each chain that has not produced a value yet.
func apply(logger *slog.Logger, id models.SourceID, page *parser.Page, chains []extractor.Chain, res *models.SourceResult) {
	for _, chain := range chains {
		if res.Has(chain.Field) {
			continue
		}
		m, ok := chain.Extract(page)
		if !ok {
			logger.Debug("field not found", "source", id, "field", chain.Field)
			continue
		}
		res.Set(m.Field, m.Value)
		logger.Debug("field extracted",
			"source", id,
			"field", m.Field,
			"value", m.Value,
			"scope", m.Scope.String(),
			"pattern", m.Pattern,
		)
	}
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
