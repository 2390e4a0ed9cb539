package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is a desktop Chrome profile.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrAbsent marks every failure to retrieve a page. Callers treat it as a
// missing page, never as a crash.
var ErrAbsent = errors.New("page absent")

// AbsentError describes why a page could not be retrieved.
type AbsentError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *AbsentError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *AbsentError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAbsent}
	}
	return []error{ErrAbsent, e.Err}
}

// Config configures the fetcher.
type Config struct {
	Timeout      time.Duration // Default: 30s.
	UserAgent    string
	MaxRedirects int // Default: 10.
	// RequestsPerSecond caps outgoing requests across all sources. Zero or
	// negative disables the limiter.
	RequestsPerSecond float64
	Logger            *slog.Logger
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = 10
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Fetcher retrieves page markup with a browser-like request profile. It is
// safe for sequential reuse; connections are pooled by the underlying client.
type Fetcher struct {
	client *resty.Client
	logger *slog.Logger
}

func New(cfg Config) *Fetcher {
	cfg.defaults()

	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetTimeout(cfg.Timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(cfg.MaxRedirects))
	// Accept-Encoding is left to the transport so gzip bodies are decoded.
	client.SetHeaders(map[string]string{
		"User-Agent":                cfg.UserAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "ko-KR,ko;q=0.9,en;q=0.8",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
	})

	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return &Fetcher{
		client: client,
		logger: cfg.Logger,
	}
}

// Fetch performs one GET and returns the decoded markup. Any failure is
// returned as an *AbsentError; nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		f.logger.Warn("fetch failed", "url", url, "error", err)
		return "", &AbsentError{URL: url, Err: err}
	}

	if !resp.IsSuccess() {
		f.logger.Warn("fetch returned non-success status", "url", url, "status_code", resp.StatusCode())
		return "", &AbsentError{URL: url, StatusCode: resp.StatusCode(), Err: fmt.Errorf("http %d", resp.StatusCode())}
	}

	body, err := decode(resp.Body(), resp.Header().Get("Content-Type"))
	if err != nil {
		f.logger.Warn("failed to decode body", "url", url, "error", err)
		return "", &AbsentError{URL: url, Err: err}
	}

	f.logger.Debug("fetched page", "url", url, "status_code", resp.StatusCode(), "bytes", len(body))
	return body, nil
}

// decode converts body to UTF-8. The charset comes from the Content-Type
// header or a <meta> declaration; without either the body is read as UTF-8.
func decode(body []byte, contentType string) (string, error) {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	// DetermineEncoding guesses windows-1252 when nothing is declared.
	if name == "utf-8" || (!certain && name == "windows-1252" && !declaresCharset(body)) {
		if utf8.Valid(body) {
			return string(body), nil
		}
		return strings.ToValidUTF8(string(body), "�"), nil
	}

	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s body: %w", name, err)
	}
	return string(out), nil
}

// metaCharset matches <meta charset=...> and the charset parameter of an
// http-equiv Content-Type declaration.
var metaCharset = regexp.MustCompile(`(?i)<meta\s[^>]*charset\s*=\s*["']?\s*([a-z0-9_.:\-]+)`)

// declaresCharset reports whether a <meta> tag in the prescan area names a
// known charset.
func declaresCharset(body []byte) bool {
	n := len(body)
	if n > 1024 {
		n = 1024
	}
	for _, m := range metaCharset.FindAllSubmatch(body[:n], -1) {
		if enc, _ := charset.Lookup(string(m[1])); enc != nil {
			return true
		}
	}
	return false
}

// IsAbsent reports whether err marks a missing page.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrAbsent)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ae *AbsentError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}
