package extractors

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"

	"github.com/dtnitsch/book-rank-monitor/models"
	"github.com/dtnitsch/book-rank-monitor/pkg/extractor"
	"github.com/dtnitsch/book-rank-monitor/pkg/parser"
)

// yes24Category is the IT/mobile category the best-seller module is rendered for.
const yes24Category = "001001003025009"

var yes24GoodsID = regexp.MustCompile(`(?i)/goods/(\d+)`)

var yes24SalesChain = extractor.Chain{
	Field: models.FieldSalesIndex,
	Rules: []extractor.Rule{
		extractor.R(`판매지수\s*[:\s]*(\d+(?:,\d+)*)`),
		extractor.R(`(?i)Sales\s*Point\s*[:\s]*(\d+(?:,\d+)*)`),
		extractor.R(`판매\s*지수\s*(\d+(?:,\d+)*)`),
	},
	Containers: []string{"div.gd_infoBot"},
}

// yes24ModuleChain reads the separately rendered best-seller fragment, where
// week counts sit next to ranks; only values up to 100 are taken as a rank.
var yes24ModuleChain = extractor.Chain{
	Field: models.FieldITMobileRank,
	Rules: []extractor.Rule{
		extractor.Bounded(`IT\s*모바일\s*(\d+)위`, 100),
		extractor.Bounded(`IT/모바일\s*(\d+)위`, 100),
		extractor.Bounded(`IT\s*/\s*모바일\s*(\d+)`, 100),
		extractor.Bounded(`IT\s*모바일\s*top\d+\s*(\d+)주`, 100),
	},
	Scopes: []extractor.Scope{extractor.ScopeFullText},
}

var yes24MainRankChain = extractor.Chain{
	Field: models.FieldITMobileRank,
	Rules: []extractor.Rule{
		extractor.R(`IT\s*모바일\s*(\d+)위`),
		extractor.R(`IT/모바일\s*(\d+)위`),
		extractor.R(`IT\s*/\s*모바일\s*(\d+)`),
		extractor.R(`컴퓨터/IT\s*(\d+)위`),
		extractor.R(`컴퓨터\s*/\s*모바일\s*(\d+)위`),
		extractor.R(`컴퓨터\s*모바일\s*(\d+)위`),
		extractor.R(`IT/컴퓨터\s*(\d+)위`),
		extractor.R(`IT\s*(\d+)위`),
	},
	Containers: []string{
		"div.gd_best",
		"div.rank_row",
		"div.cate_best",
		"div.rankRow",
		"div.gd_nameH",
	},
}

// ModuleURL derives the best-seller rank fragment URL from a YES24 product URL.
func ModuleURL(productURL string) (string, error) {
	u, err := url.Parse(productURL)
	if err != nil {
		return "", fmt.Errorf("invalid product URL: %w", err)
	}
	m := yes24GoodsID.FindStringSubmatch(u.Path)
	if m == nil {
		return "", fmt.Errorf("no goods ID in %s", productURL)
	}
	return fmt.Sprintf("%s://%s/Product/addModules/BestSellerRank_Book/%s/?categoryNumber=%s&FreePrice=N",
		u.Scheme, u.Host, m[1], yes24Category), nil
}

// Yes24 extracts the sales index and the IT/mobile rank from YES24. The rank
// lives in a separately rendered fragment, so a second page is fetched.
type Yes24 struct {
	logger *slog.Logger
}

func NewYes24(logger *slog.Logger) *Yes24 {
	return &Yes24{logger: orDefault(logger)}
}

func (y *Yes24) ID() models.SourceID { return models.SourceYes24 }

func (y *Yes24) Extract(ctx context.Context, page *parser.Page, f Fetcher, res *models.SourceResult) error {
	apply(y.logger, y.ID(), page, []extractor.Chain{yes24SalesChain}, res)

	if module := y.modulePage(ctx, page.URL, f); module != nil {
		apply(y.logger, y.ID(), module, []extractor.Chain{yes24ModuleChain}, res)
	}

	// The product page itself is the fallback for the rank.
	apply(y.logger, y.ID(), page, []extractor.Chain{yes24MainRankChain}, res)
	return nil
}

// modulePage fetches the best-seller fragment. Failures only cost the
// fragment; the product page fallback still runs.
func (y *Yes24) modulePage(ctx context.Context, productURL string, f Fetcher) *parser.Page {
	moduleURL, err := ModuleURL(productURL)
	if err != nil {
		y.logger.Warn("cannot derive best-seller module URL", "source", y.ID(), "url", productURL, "error", err)
		return nil
	}
	if f == nil {
		return nil
	}

	y.logger.Info("fetching best-seller module", "source", y.ID(), "url", moduleURL)
	markup, err := f.Fetch(ctx, moduleURL)
	if err != nil {
		y.logger.Warn("best-seller module unavailable", "source", y.ID(), "url", moduleURL, "error", err)
		return nil
	}

	module, err := parser.Parse("", markup)
	if err != nil {
		y.logger.Warn("best-seller module unreadable", "source", y.ID(), "url", moduleURL, "error", err)
		return nil
	}
	module.URL = moduleURL
	return module
}
