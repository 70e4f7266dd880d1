// Package digest implements the briefing pipeline: relevance filtering,
// cross-source corroboration counting, importance scoring, ranking, and
// Markdown rendering. Everything here is a pure transformation over an
// in-memory batch; the current time is always injected by the caller.
package digest

import (
	"sort"
	"time"

	"coinbrief/internal/models"
)

// Options holds the tunable parameters of the pipeline. All of them come
// from configuration.
type Options struct {
	// Keywords decide topical relevance (substring match over
	// title+summary).
	Keywords []string

	// ImportantKeywords are the smaller high-signal set feeding the
	// salience score.
	ImportantKeywords []string

	// SignaturePrefixLen is the normalized-URL prefix length used to
	// group corroborating articles.
	SignaturePrefixLen int

	// Lookback is the recency window; older articles are excluded
	// before scoring.
	Lookback time.Duration

	// MaxArticles bounds the digest size.
	MaxArticles int
}

// Build runs the full pipeline over one batch: relevance filter, recency
// window, corroboration count, importance score, rank, truncate. The
// result is deterministic for a given batch and now.
func Build(sources []models.Source, articles []models.Article, now time.Time, opts Options) models.Digest {
	cutoff := now.Add(-opts.Lookback)

	var batch []models.Article
	for _, a := range articles {
		if !Relevant(a.Title, a.Summary, opts.Keywords) {
			continue
		}
		if a.PublishedAt.Before(cutoff) {
			continue
		}
		batch = append(batch, a)
	}

	// Corroboration is counted over the relevant, in-window batch so
	// that off-topic republications don't inflate a story's count.
	counts := countCorroboration(batch, opts.SignaturePrefixLen)

	tiers := make(map[string]int, len(sources))
	for _, src := range sources {
		tiers[src.Name] = src.TrustTier
	}

	scored := make([]models.ScoredArticle, len(batch))
	for i, a := range batch {
		b := scoreArticle(a.Title, a.Source, a.PublishedAt, counts[i], tiers, opts.ImportantKeywords, now)
		scored[i] = models.ScoredArticle{
			Article:       a,
			TrustTier:     tiers[a.Source],
			Corroboration: counts[i],
			Score:         b.Final,
		}
	}

	// Descending score; ties break more-recent-first, then by URL, so
	// output is reproducible.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if !scored[i].PublishedAt.Equal(scored[j].PublishedAt) {
			return scored[i].PublishedAt.After(scored[j].PublishedAt)
		}
		return scored[i].URL < scored[j].URL
	})

	if opts.MaxArticles > 0 && len(scored) > opts.MaxArticles {
		scored = scored[:opts.MaxArticles]
	}

	return models.Digest{
		Articles:    scored,
		GeneratedAt: now,
	}
}
