package extractors

import (
	"context"
	"log/slog"

	"github.com/dtnitsch/book-rank-monitor/models"
	"github.com/dtnitsch/book-rank-monitor/pkg/extractor"
	"github.com/dtnitsch/book-rank-monitor/pkg/normalize"
	"github.com/dtnitsch/book-rank-monitor/pkg/parser"
)

// aladinContainers matches the first best-seller or rank box, whatever its exact class.
var aladinContainers = []string{`div[class*="best"], div[class*="rank"]`}

var aladinChains = []extractor.Chain{
	{
		Field: models.FieldComputerWeeklyRank,
		Rules: []extractor.Rule{
			extractor.R(`컴퓨터/모바일\s*주간\s*(\d+)위`),
			extractor.R(`컴퓨터\s*/\s*모바일\s*.*?(\d+)위`),
			extractor.R(`IT/컴퓨터.*?주간\s*(\d+)`),
			extractor.R(`컴퓨터.*?(\d+)위`).Only(extractor.ScopeContainers),
		},
		Containers: aladinContainers,
	},
	{
		Field: models.FieldTextbookRank,
		Rules: []extractor.Rule{
			extractor.R(`(?i)대학교재/전문서적\s*top\s*100\s*(\d+)`),
			extractor.R(`(?i)대학교재\s*/\s*전문서적.*?(\d+)위`),
			extractor.R(`(?i)전문서적.*?(\d+)위`),
		},
		Containers: aladinContainers,
	},
	{
		Field: models.FieldRankPeriod,
		Rules: []extractor.Rule{
			extractor.R(`(\d+주)\s*\|`),
			extractor.R(`(\d+주)\s*연속`),
		},
		Containers: aladinContainers,
		Parse:      normalize.Weeks,
	},
	{
		Field: models.FieldSalesPoint,
		Rules: []extractor.Rule{
			extractor.R(`(?i)Sales\s*Point\s*:\s*(\d+(?:,\d+)*)`),
			extractor.R(`판매지수\s*:\s*(\d+(?:,\d+)*)`),
			extractor.R(`(?i)Sales\s*Point\s*(\d+(?:,\d+)*)`),
			extractor.R(`(?i)(\d+(?:,\d+)*)\s*point`).Only(extractor.ScopeContainers),
		},
		Containers: aladinContainers,
	},
}

// Aladin extracts the computer/mobile weekly rank, the textbook top-100
// rank, how many weeks the rank has held, and the sales point.
type Aladin struct {
	logger *slog.Logger
}

func NewAladin(logger *slog.Logger) *Aladin {
	return &Aladin{logger: orDefault(logger)}
}

func (a *Aladin) ID() models.SourceID { return models.SourceAladin }

func (a *Aladin) Extract(_ context.Context, page *parser.Page, _ Fetcher, res *models.SourceResult) error {
	apply(a.logger, a.ID(), page, aladinChains, res)
	return nil
}
