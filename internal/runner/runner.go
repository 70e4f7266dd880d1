// Package runner wires one briefing cycle together: fetch, filter, rank,
// render, deliver. The pipeline stages stay pure; everything stateful
// (HTTP, SQLite, the clock) enters here.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"coinbrief/internal/digest"
	"coinbrief/internal/feeds"
	"coinbrief/internal/models"
	"coinbrief/internal/prices"
)

// FeedFetcher retrieves articles for the configured sources. Source
// failures are soft: they appear in Result.Failed, not as an error.
type FeedFetcher interface {
	FetchAll(ctx context.Context, sources []models.Source, opts feeds.Options) (*feeds.Result, error)
}

// SeenStore drops articles delivered in previous runs and records new
// deliveries. A nil SeenStore disables cross-run deduplication.
type SeenStore interface {
	FilterNew(ctx context.Context, articles []models.Article) ([]models.Article, error)
	MarkDelivered(ctx context.Context, articles []models.ScoredArticle) error
}

// Deliverer posts the rendered briefing. A nil Deliverer puts the runner
// in dry-run mode: the briefing is logged instead of sent.
type Deliverer interface {
	Send(ctx context.Context, text string) error
}

// PriceSource supplies the optional market line. A nil PriceSource, or a
// failed fetch, just omits the line.
type PriceSource interface {
	Fetch(ctx context.Context) (prices.Snapshot, error)
}

// Config assembles a Runner's collaborators and pipeline parameters.
type Config struct {
	Sources    []models.Source
	FeedOpts   feeds.Options
	DigestOpts digest.Options

	Fetcher   FeedFetcher
	Store     SeenStore
	Deliverer Deliverer
	Prices    PriceSource
}

// Outcome summarizes one completed run.
type Outcome struct {
	Digest        models.Digest `json:"digest"`
	Message       string        `json:"message"`
	Fetched       int           `json:"fetched"`
	FailedSources int           `json:"failed_sources"`
	Delivered     bool          `json:"delivered"`
	RanAt         time.Time     `json:"ran_at"`
}

// Runner executes briefing cycles and remembers the most recent outcome.
type Runner struct {
	cfg Config

	mu   sync.Mutex
	last *Outcome
}

// New creates a Runner. Fetcher is required; Store, Deliverer, and
// Prices may be nil.
func New(cfg Config) *Runner {
	return &Runner{cfg: cfg}
}

// Run executes one briefing cycle. It returns an error only when the
// cycle could not complete at all (fetch machinery or delivery failure);
// empty digests are a normal outcome.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	now := time.Now()
	slog.Info("starting briefing run")

	result, err := r.cfg.Fetcher.FetchAll(ctx, r.cfg.Sources, r.cfg.FeedOpts)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetching articles: %w", err)
	}

	articles := result.Articles
	if r.cfg.Store != nil {
		articles, err = r.cfg.Store.FilterNew(ctx, articles)
		if err != nil {
			return Outcome{}, fmt.Errorf("filtering seen articles: %w", err)
		}
	}

	d := digest.Build(r.cfg.Sources, articles, now, r.cfg.DigestOpts)
	message := digest.Format(d)

	if r.cfg.Prices != nil {
		snap, err := r.cfg.Prices.Fetch(ctx)
		if err != nil {
			slog.Warn("skipping market line", "error", err)
		} else {
			message = snap.Line() + "\n\n" + message
		}
	}

	outcome := Outcome{
		Digest:        d,
		Message:       message,
		Fetched:       len(result.Articles),
		FailedSources: len(result.Failed),
		RanAt:         now,
	}

	if r.cfg.Deliverer == nil {
		logTopArticles(d)
	} else {
		if err := r.cfg.Deliverer.Send(ctx, message); err != nil {
			r.remember(outcome)
			return outcome, fmt.Errorf("delivering briefing: %w", err)
		}
		outcome.Delivered = true

		if r.cfg.Store != nil && len(d.Articles) > 0 {
			if err := r.cfg.Store.MarkDelivered(ctx, d.Articles); err != nil {
				// The briefing went out; failing to record it only
				// risks a repeat next run.
				slog.Error("failed to record delivered articles", "error", err)
			}
		}
	}

	r.remember(outcome)
	slog.Info("briefing run complete",
		"fetched", outcome.Fetched,
		"failed_sources", outcome.FailedSources,
		"selected", len(d.Articles),
		"delivered", outcome.Delivered,
	)
	return outcome, nil
}

// Last returns the most recent outcome, if any run has completed.
func (r *Runner) Last() (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Outcome{}, false
	}
	return *r.last, true
}

func (r *Runner) remember(o Outcome) {
	r.mu.Lock()
	r.last = &o
	r.mu.Unlock()
}

// logTopArticles is the dry-run substitute for delivery.
func logTopArticles(d models.Digest) {
	slog.Info("dry run: telegram not configured", "selected", len(d.Articles))
	for i, a := range d.Articles {
		if i >= 5 {
			break
		}
		slog.Info("top article",
			"rank", i+1,
			"score", fmt.Sprintf("%.3f", a.Score),
			"source", a.Source,
			"title", a.Title,
		)
	}
}
