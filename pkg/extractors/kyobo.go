package extractors

import (
	"context"
	"log/slog"

	"github.com/dtnitsch/book-rank-monitor/models"
	"github.com/dtnitsch/book-rank-monitor/pkg/extractor"
	"github.com/dtnitsch/book-rank-monitor/pkg/parser"
)

// kyoboContainers have hosted the weekly best-seller block on Kyobo product pages.
var kyoboContainers = []string{
	"div.prod_rank_area",
	"div.prod_rank_wrap",
	"div.rankArea",
	"div.bestRank",
}

var kyoboChains = []extractor.Chain{
	{
		Field: models.FieldDomesticRank,
		Rules: []extractor.Rule{
			extractor.R(`주간베스트\s*국내도서\s*(\d+)위`),
			extractor.R(`국내도서\s*주간베스트\s*(\d+)위`),
			extractor.R(`국내도서\s*(\d+)위`),
			extractor.R(`국내\s*도서\s*(\d+)위`),
			extractor.R(`종합베스트\s*(\d+)위`),
			extractor.R(`종합\s*(\d+)위`),
		},
		Containers: kyoboContainers,
	},
	{
		Field: models.FieldITRank,
		Rules: []extractor.Rule{
			extractor.R(`컴퓨터/IT\s*(\d+)위`),
			extractor.R(`컴퓨터\s*/\s*IT\s*(\d+)위`),
			extractor.R(`IT/컴퓨터\s*(\d+)위`),
			extractor.R(`컴퓨터/모바일\s*(\d+)위`),
			extractor.R(`IT\s*(\d+)위`),
			extractor.R(`컴퓨터\s*(\d+)위`),
		},
		Containers: kyoboContainers,
	},
}

// Kyobo extracts the domestic and IT weekly ranks from Kyobo Book Centre.
type Kyobo struct {
	logger *slog.Logger
}

func NewKyobo(logger *slog.Logger) *Kyobo {
	return &Kyobo{logger: orDefault(logger)}
}

func (k *Kyobo) ID() models.SourceID { return models.SourceKyobo }

func (k *Kyobo) Extract(_ context.Context, page *parser.Page, _ Fetcher, res *models.SourceResult) error {
	apply(k.logger, k.ID(), page, kyoboChains, res)
	return nil
}
