// Package fetcher retrieves search-engine result pages through a proxying
// retrieval service, with rate limiting, bounded retries and block-signal
// classification.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/annuaire-pro/enrich-cli/internal/extract"
	"github.com/annuaire-pro/enrich-cli/internal/resilience"
)

// ErrBlocked is returned when the retrieval service answered with an abuse
// detection signal (HTTP 429/503 or a CAPTCHA interstitial). Callers treat it
// as a shared cooldown transition, not a per-item failure.
var ErrBlocked = eris.New("fetcher: blocked by abuse detection")

// SearchFetcher fetches the raw HTML result page for one query.
type SearchFetcher interface {
	FetchResultPage(ctx context.Context, query string) (string, error)
}

// HTTPOptions configures the HTTP search fetcher.
type HTTPOptions struct {
	BaseURL     string
	APIKey      string
	Locale      string
	ResultCount int
	UserAgent   string
	Timeout     time.Duration
	MaxRetries  int
	// RetryBackoff is the initial delay between retry attempts.
	RetryBackoff time.Duration
	RateLimit    rate.Limit
	Burst        int
}

// HTTPSearchFetcher implements SearchFetcher over the retrieval service API.
type HTTPSearchFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    HTTPOptions
}

// NewHTTPSearchFetcher creates a fetcher with the given options.
func NewHTTPSearchFetcher(opts HTTPOptions) *HTTPSearchFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.Locale == "" {
		opts.Locale = "fr"
	}
	if opts.ResultCount <= 0 {
		opts.ResultCount = 10
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "enrich-cli/1.0"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &HTTPSearchFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(opts.RateLimit, opts.Burst),
		opts:    opts,
	}
}

// FetchResultPage issues one GET per query and returns the raw HTML. Block
// signals surface as ErrBlocked immediately (no retry: the caller owns the
// cooldown); timeouts and 5xx are retried a bounded number of times.
func (f *HTTPSearchFetcher) FetchResultPage(ctx context.Context, query string) (string, error) {
	cfg := resilience.RetryConfig{
		MaxAttempts:    f.opts.MaxRetries,
		InitialBackoff: f.opts.RetryBackoff,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2,
	}
	return resilience.DoVal(ctx, cfg, "search fetch", func(ctx context.Context) (string, error) {
		return f.fetchOnce(ctx, query)
	})
}

func (f *HTTPSearchFetcher) fetchOnce(ctx context.Context, query string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "fetcher: rate limiter wait")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", f.opts.Locale)
	params.Set("num", strconv.Itoa(f.opts.ResultCount))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.opts.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	if f.opts.APIKey != "" {
		req.Header.Set("X-Api-Key", f.opts.APIKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", resilience.Transient(eris.Wrap(err, "fetcher: send request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusServiceUnavailable:
		return "", ErrBlocked
	case resp.StatusCode >= 500:
		return "", resilience.Transient(
			eris.Errorf("fetcher: http %d from retrieval service", resp.StatusCode), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", eris.Errorf("fetcher: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resilience.Transient(eris.Wrap(err, "fetcher: read body"), 0)
	}

	html := string(body)
	if extract.IsBlocked(html) {
		return "", ErrBlocked
	}
	return html, nil
}
