package models

import "time"

// Source represents a news outlet we track via RSS.
type Source struct {
	Name      string `json:"name" toml:"name"`
	FeedURL   string `json:"feed_url" toml:"feed_url"`
	TrustTier int    `json:"trust_tier" toml:"trust_tier"`
	Enabled   bool   `json:"enabled" toml:"enabled"`
}

// Article represents a single feed entry as it comes out of the fetch
// stage. Source references Source.Name.
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Source      string    `json:"source"`
}

// ScoredArticle is an Article annotated by the ranking pipeline.
// Corroboration is the number of batch articles sharing its URL
// signature, itself included, so it is always at least 1.
type ScoredArticle struct {
	Article
	TrustTier     int     `json:"trust_tier"`
	Corroboration int     `json:"corroboration"`
	Score         float64 `json:"score"`
}

// Digest holds the ranked, size-bounded articles selected for one
// briefing, in descending score order.
type Digest struct {
	Articles    []ScoredArticle `json:"articles"`
	GeneratedAt time.Time       `json:"generated_at"`
}
