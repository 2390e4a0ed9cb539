package extractor

import (
	"testing"

	"github.com/dtnitsch/book-rank-monitor/models"
	"github.com/dtnitsch/book-rank-monitor/pkg/parser"
)

func mustParse(t *testing.T, markup string) *parser.Page {
	t.Helper()
	page, err := parser.Parse("", markup)
	if err != nil {
		t.Fatalf("parser.Parse() error = %v", err)
	}
	return page
}

var rankChain = Chain{
	Field: models.FieldDomesticRank,
	Rules: []Rule{
		R(`국내도서\s*(\d+)위`),
		R(`종합\s*(\d+)위`),
	},
	Containers: []string{"div.prod_rank_area", "div.bestRank"},
}

func TestChain_Extract(t *testing.T) {
	tests := []struct {
		name      string
		markup    string
		want      int
		wantScope Scope
		wantOK    bool
	}{
		{
			name:      "full text first pattern",
			markup:    `<body><p>국내도서 15위</p><p>종합 3위</p></body>`,
			want:      15,
			wantScope: ScopeFullText,
			wantOK:    true,
		},
		{
			name:      "later pattern when earlier misses",
			markup:    `<body><p>종합 7위</p></body>`,
			want:      7,
			wantScope: ScopeFullText,
			wantOK:    true,
		},
		{
			name: "structured data when text has nothing",
			markup: `<head><script type="application/ld+json">
{"@type": "Book", "award": "국내도서 42위", }
</script></head><body><p>nothing here</p></body>`,
			want:      42,
			wantScope: ScopeStructuredData,
			wantOK:    true,
		},
		{
			name:   "structured array payload is not searched",
			markup: `<head><script type="application/ld+json">["국내도서 42위"]</script></head><body><p>x</p></body>`,
			wantOK: false,
		},
		{
			name:   "undecodable structured data is skipped",
			markup: `<head><script type="application/ld+json">{not json 국내도서 9위</script></head><body><p>x</p></body>`,
			wantOK: false,
		},
		{
			name:   "no pattern anywhere",
			markup: `<body><div class="prod_rank_area">순위 정보 없음</div><dl><dt>판매</dt><dd>-</dd></dl></body>`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := rankChain.Extract(mustParse(t, tt.markup))
			if ok != tt.wantOK {
				t.Fatalf("Extract() ok = %v, want %v (match %+v)", ok, tt.wantOK, m)
			}
			if !ok {
				return
			}
			if m.Value != tt.want {
				t.Errorf("Value = %d, want %d", m.Value, tt.want)
			}
			if m.Scope != tt.wantScope {
				t.Errorf("Scope = %s, want %s", m.Scope, tt.wantScope)
			}
			if m.Field != models.FieldDomesticRank {
				t.Errorf("Field = %s", m.Field)
			}
		})
	}
}

func TestChain_ContainersAndDefinitionLists(t *testing.T) {
	// A loose rule that needs block boundaries only matches inside scoped text.
	chain := Chain{
		Field:      models.FieldITRank,
		Rules:      []Rule{R(`^IT\s*(\d+)위$`)},
		Containers: []string{"div.rankArea", "div.bestRank"},
	}

	page := mustParse(t, `<body>
<div class="bestRank"><span>IT 9위</span></div>
<div class="rankArea"><span>IT 4위</span></div>
<dl><dd>IT 2위</dd></dl>
</body>`)
	m, ok := chain.Extract(page)
	if !ok {
		t.Fatal("Extract() found nothing")
	}
	// Containers are tried in the chain's order, not document order.
	if m.Value != 4 || m.Scope != ScopeContainers {
		t.Errorf("Extract() = %+v, want 4 from containers", m)
	}

	page = mustParse(t, `<body><p>header</p><dl><dd>IT 2위</dd></dl><p>footer</p></body>`)
	m, ok = chain.Extract(page)
	if !ok || m.Value != 2 || m.Scope != ScopeDefinitionLists {
		t.Errorf("Extract() = %+v, %v; want 2 from definition lists", m, ok)
	}
}

func TestChain_BoundCheck(t *testing.T) {
	chain := Chain{
		Field: models.FieldITMobileRank,
		Rules: []Rule{
			Bounded(`IT\s*모바일\s*top\d+\s*(\d+)주`, 100),
			Bounded(`IT\s*모바일\s*(\d+)위`, 100),
		},
	}

	page := mustParse(t, `<p>IT 모바일 top20 152주</p><p>IT 모바일 8위</p>`)
	m, ok := chain.Extract(page)
	if !ok || m.Value != 8 {
		t.Errorf("Extract() = %+v, %v; want out-of-bound capture skipped and 8 found", m, ok)
	}
}

func TestChain_NormalizationMissIsNotAMatch(t *testing.T) {
	chain := Chain{
		Field: models.FieldSalesIndex,
		Rules: []Rule{
			R(`판매지수\s*(\S+)`),
		},
	}

	if m, ok := chain.Extract(mustParse(t, `<p>판매지수 abc</p>`)); ok {
		t.Errorf("Extract() = %+v, want absent", m)
	}

	m, ok := chain.Extract(mustParse(t, `<p>판매지수 1,234</p>`))
	if !ok || m.Value != 1234 {
		t.Errorf("Extract() = %+v, %v; want 1234", m, ok)
	}
}

func TestChain_RestrictedScopes(t *testing.T) {
	chain := Chain{
		Field:  models.FieldITRank,
		Rules:  []Rule{R(`IT\s*(\d+)위`)},
		Scopes: []Scope{ScopeDefinitionLists},
	}
	if _, ok := chain.Extract(mustParse(t, `<p>IT 5위</p>`)); ok {
		t.Error("Extract() searched a scope outside Scopes")
	}
}

func TestStructuredText_LargeNumbers(t *testing.T) {
	text, ok := structuredText(`{"offers": {"salesPoint": 1234567}}`)
	if !ok {
		t.Fatal("structuredText() rejected an object")
	}
	if text != "salesPoint 1234567" {
		t.Errorf("structuredText() = %q", text)
	}
}

func TestRule_Only(t *testing.T) {
	chain := Chain{
		Field: models.FieldComputerWeeklyRank,
		Rules: []Rule{
			R(`컴퓨터/모바일\s*주간\s*(\d+)위`),
			R(`컴퓨터.*?(\d+)위`).Only(ScopeContainers),
		},
		Containers: []string{`div[class*="best"], div[class*="rank"]`},
	}

	// The loose rule must not fire on the full text, where it would pick 1.
	page := mustParse(t, `<body><p>컴퓨터 교양 1위 추천</p><div class="bestseller_box">컴퓨터 6위</div></body>`)
	m, ok := chain.Extract(page)
	if !ok {
		t.Fatal("Extract() found nothing")
	}
	if m.Value != 6 || m.Scope != ScopeContainers {
		t.Errorf("Extract() = %+v, want 6 from containers", m)
	}
}
