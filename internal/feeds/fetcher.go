package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"coinbrief/internal/models"
)

const (
	maxConcurrent  = 10
	rateLimitDelay = 1 * time.Second
)

// Options controls how feeds are fetched and which items are kept.
type Options struct {
	// MaxItemsPerFeed caps how many entries of each feed are considered,
	// in feed order.
	MaxItemsPerFeed int

	// Lookback is the recency window; entries published before
	// now-Lookback are dropped at the parse stage.
	Lookback time.Duration
}

// FailedSource records a source whose feed could not be fetched.
type FailedSource struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Result contains the successfully fetched articles and any failures.
type Result struct {
	Articles []models.Article
	Failed   []FailedSource
}

// Fetcher retrieves RSS feeds with per-domain rate limiting and bounded
// concurrency.
type Fetcher struct {
	client      *http.Client
	rateLimiter map[string]time.Time // per-domain last request time
	mu          sync.Mutex           // protects rateLimiter
}

// NewFetcher creates a Fetcher whose HTTP client uses the given timeout
// and a browser-like User-Agent.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		rateLimiter: make(map[string]time.Time),
	}
}

// userAgentTransport wraps an http.RoundTripper to inject a custom User-Agent
// header on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	// Use a browser-like User-Agent to avoid bot detection on some sites.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,*/*;q=0.8")
	return t.base.RoundTrip(req)
}

// FetchAll fetches the feeds of all enabled sources concurrently with a
// maximum of 10 goroutines. Individual source failures are collected in
// Result.Failed rather than failing the entire batch.
func (f *Fetcher) FetchAll(ctx context.Context, sources []models.Source, opts Options) (*Result, error) {
	var (
		result Result
		mu     sync.Mutex
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for _, src := range sources {
		if !src.Enabled {
			continue
		}
		src := src
		g.Go(func() error {
			articles, err := f.fetchSingleFeed(ctx, src, opts)
			if err != nil {
				slog.Warn("failed to fetch feed",
					"source", src.Name,
					"url", src.FeedURL,
					"error", err,
				)

				mu.Lock()
				result.Failed = append(result.Failed, FailedSource{
					Source: src.Name,
					Error:  err.Error(),
				})
				mu.Unlock()

				return nil // skip failures, don't fail the batch
			}

			mu.Lock()
			result.Articles = append(result.Articles, articles...)
			mu.Unlock()

			slog.Info("fetched feed",
				"source", src.Name,
				"items", len(articles),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching feeds: %w", err)
	}

	return &result, nil
}

// fetchSingleFeed retrieves and parses the feed of a single source.
func (f *Fetcher) fetchSingleFeed(ctx context.Context, source models.Source, opts Options) ([]models.Article, error) {
	domain := extractDomain(source.FeedURL)
	f.waitForRateLimit(domain)

	fp := gofeed.NewParser()
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(source.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", source.FeedURL, err)
	}

	return parseFeedItems(source, feed, time.Now(), opts), nil
}

// waitForRateLimit enforces a minimum delay of 1 second between requests to
// the same domain. It blocks until the delay has elapsed.
func (f *Fetcher) waitForRateLimit(domain string) {
	f.mu.Lock()
	lastReq, ok := f.rateLimiter[domain]
	if ok {
		elapsed := time.Since(lastReq)
		if elapsed < rateLimitDelay {
			f.mu.Unlock()
			time.Sleep(rateLimitDelay - elapsed)
			f.mu.Lock()
		}
	}
	f.rateLimiter[domain] = time.Now()
	f.mu.Unlock()
}

// extractDomain parses a URL and returns its hostname. If parsing fails, it
// returns the raw URL as a fallback key.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
