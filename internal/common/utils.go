package common

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/book-rank-monitor/models"
)

var (
	markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)
	urlPattern          = regexp.MustCompile(`^https?://[a-zA-Z0-9][-a-zA-Z0-9.]*[a-zA-Z0-9](:\d+)?(/[^\s]*)?$`)
)

// NewLogger builds the JSON stderr logger. --quiet keeps errors only and
// --verbose adds per-field extraction detail.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// LoadConfig reads --config and applies the command-line overrides on top.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.IsSet("interval") {
		cfg.Interval = c.Duration("interval")
	}
	if c.IsSet("pace") {
		cfg.Pace = c.Duration("pace")
	}
	if c.IsSet("save-json") {
		cfg.SaveJSONDir = c.String("save-json")
	}
	if c.IsSet("dump-html") {
		cfg.DumpHTMLDir = c.String("dump-html")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste issues.
// Removes whitespace, trailing punctuation and markdown link syntax.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// Extract URL from markdown link format: [text](url) -> url
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	trailingChars := []string{",", ".", ")", "}", "]", "\"", "'", ">", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}

	leadingChars := []string{"(", "[", "<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

// SanitizeSourceURLs cleans every configured product URL and rejects the
// ones that are still not absolute http(s) URLs. Empty entries are dropped
// so the collector reports them as unconfigured.
func SanitizeSourceURLs(urls map[models.SourceID]string) (map[models.SourceID]string, error) {
	sanitized := make(map[models.SourceID]string, len(urls))
	var invalid []string

	for _, id := range models.Sources {
		raw, ok := urls[id]
		if !ok {
			continue
		}
		cleaned := SanitizeURL(raw)
		if cleaned == "" {
			continue
		}
		if !validURL(cleaned) {
			invalid = append(invalid, fmt.Sprintf("%s=%q", id, raw))
			continue
		}
		sanitized[id] = cleaned
	}

	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid source URLs: %s", strings.Join(invalid, ", "))
	}
	return sanitized, nil
}

func validURL(cleaned string) bool {
	// Reject URLs with literal spaces (must be pre-encoded as %20)
	if strings.Contains(cleaned, " ") || !urlPattern.MatchString(cleaned) {
		return false
	}
	parsed, err := url.Parse(cleaned)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != "" && !strings.ContainsAny(parsed.Host, "{}[]<>\"'")
}
