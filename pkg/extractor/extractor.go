// Package extractor runs ordered fallback chains of patterns over widening
// text scopes of a parsed page.
package extractor

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/book-rank-monitor/models"
	"github.com/dtnitsch/book-rank-monitor/pkg/normalize"
	"github.com/dtnitsch/book-rank-monitor/pkg/parser"
	"github.com/titanous/json5"
)

// Scope is a region of a page searched for a field.
type Scope int

const (
	// ScopeFullText is the whole visible text of the page.
	ScopeFullText Scope = iota
	// ScopeContainers is the text of known ranking containers, tried in order.
	ScopeContainers
	// ScopeStructuredData is embedded JSON-LD, flattened to text.
	ScopeStructuredData
	// ScopeDefinitionLists is every <dl> block, in document order.
	ScopeDefinitionLists
)

// Scopes is the fixed widening order.
var Scopes = []Scope{ScopeFullText, ScopeContainers, ScopeStructuredData, ScopeDefinitionLists}

func (s Scope) String() string {
	switch s {
	case ScopeFullText:
		return "full_text"
	case ScopeContainers:
		return "containers"
	case ScopeStructuredData:
		return "structured_data"
	case ScopeDefinitionLists:
		return "definition_lists"
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

// Rule is one candidate pattern. The first capture group holds the value.
type Rule struct {
	Pattern *regexp.Regexp
	// Max rejects captures above it when positive.
	Max int
	// Scopes limits the rule to some scopes; nil means every scope.
	Scopes []Scope
}

// R compiles pattern into a Rule.
func R(pattern string) Rule {
	return Rule{Pattern: regexp.MustCompile(pattern)}
}

// Bounded compiles pattern into a Rule that only accepts values up to max.
func Bounded(pattern string, max int) Rule {
	return Rule{Pattern: regexp.MustCompile(pattern), Max: max}
}

// Only returns a copy of r limited to scopes.
func (r Rule) Only(scopes ...Scope) Rule {
	r.Scopes = scopes
	return r
}

func (r Rule) appliesTo(scope Scope) bool {
	if r.Scopes == nil {
		return true
	}
	for _, s := range r.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func (r Rule) match(text string, parse func(string) (int, bool)) (int, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	v, ok := parse(m[1])
	if !ok {
		return 0, false
	}
	if r.Max > 0 && v > r.Max {
		return 0, false
	}
	return v, true
}

// Chain is the ordered fallback chain for one field.
type Chain struct {
	Field models.Field
	// Rules are ordered from page-specific wording to loose keywords.
	Rules []Rule
	// Containers are CSS selectors of elements known to host rankings. The
	// first element matching each selector is searched.
	Containers []string
	// Scopes restricts the searched scopes; nil means all of Scopes.
	Scopes []Scope
	// Parse converts a capture; nil means normalize.Int.
	Parse func(string) (int, bool)
}

// Match describes a successful extraction.
type Match struct {
	Field   models.Field
	Value   int
	Scope   Scope
	Pattern string
}

// Extract returns the first rule match across the chain's scopes. A capture
// that does not parse or fails the bound check does not count as a match.
func (c Chain) Extract(page *parser.Page) (Match, bool) {
	parse := c.Parse
	if parse == nil {
		parse = normalize.Int
	}
	scopes := c.Scopes
	if scopes == nil {
		scopes = Scopes
	}

	for _, scope := range scopes {
		for _, text := range ScopeTexts(page, scope, c.Containers) {
			for _, rule := range c.Rules {
				if !rule.appliesTo(scope) {
					continue
				}
				if v, ok := rule.match(text, parse); ok {
					return Match{
						Field:   c.Field,
						Value:   v,
						Scope:   scope,
						Pattern: rule.Pattern.String(),
					}, true
				}
			}
		}
	}
	return Match{}, false
}

// ScopeTexts returns the text blocks of page for scope, in search order.
func ScopeTexts(page *parser.Page, scope Scope, containers []string) []string {
	if page == nil || page.Doc == nil {
		return nil
	}

	switch scope {
	case ScopeFullText:
		return []string{page.Text}

	case ScopeContainers:
		var texts []string
		for _, sel := range containers {
			found := page.Doc.Find(sel).First()
			if found.Length() == 0 {
				continue
			}
			texts = append(texts, parser.VisibleText(found))
		}
		return texts

	case ScopeStructuredData:
		var texts []string
		page.Doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
			if text, ok := structuredText(s.Text()); ok {
				texts = append(texts, text)
			}
		})
		return texts

	case ScopeDefinitionLists:
		var texts []string
		page.Doc.Find("dl").Each(func(_ int, s *goquery.Selection) {
			texts = append(texts, parser.VisibleText(s))
		})
		return texts
	}
	return nil
}

// structuredText decodes a JSON-LD block leniently and flattens an object
// payload to "key value" lines. Arrays and scalars are not searched.
func structuredText(raw string) (string, bool) {
	var data any
	if err := json5.Unmarshal([]byte(strings.TrimSpace(raw)), &data); err != nil {
		return "", false
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return "", false
	}
	var sb strings.Builder
	flatten(&sb, obj)
	return strings.TrimSuffix(sb.String(), "\n"), true
}

func flatten(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch child := t[k].(type) {
			case map[string]any, []any:
				flatten(sb, child)
			default:
				fmt.Fprintf(sb, "%s %s\n", k, scalar(child))
			}
		}
	case []any:
		for _, item := range t {
			flatten(sb, item)
		}
	default:
		fmt.Fprintf(sb, "%s\n", scalar(t))
	}
}

// scalar formats JSON numbers without exponents so large counts stay matchable.
func scalar(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
