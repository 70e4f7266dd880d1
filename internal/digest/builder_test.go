package digest

import (
	"fmt"
	"testing"
	"time"

	"coinbrief/internal/models"
)

var testSources = []models.Source{
	{Name: "Tier One", FeedURL: "https://one.example/rss", TrustTier: 1, Enabled: true},
	{Name: "Tier Two", FeedURL: "https://two.example/rss", TrustTier: 2, Enabled: true},
	{Name: "Tier Three", FeedURL: "https://three.example/rss", TrustTier: 3, Enabled: true},
}

func testOptions() Options {
	return Options{
		Keywords:           []string{"bitcoin", "ethereum", "crypto"},
		ImportantKeywords:  []string{"sec", "etf"},
		SignaturePrefixLen: 60,
		Lookback:           24 * time.Hour,
		MaxArticles:        10,
	}
}

func TestBuild_FiltersIrrelevantAndStale(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	articles := []models.Article{
		{Title: "Bitcoin steadies", URL: "https://one.example/a", PublishedAt: now.Add(-1 * time.Hour), Source: "Tier One"},
		{Title: "Ethereum fee market", URL: "https://two.example/b", PublishedAt: now.Add(-30 * time.Hour), Source: "Tier Two"}, // stale
		{Title: "Football results", URL: "https://one.example/c", PublishedAt: now.Add(-1 * time.Hour), Source: "Tier One"},    // off-topic
	}

	d := Build(testSources, articles, now, testOptions())

	if len(d.Articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(d.Articles))
	}
	if d.Articles[0].URL != "https://one.example/a" {
		t.Errorf("kept %q, want the relevant in-window article", d.Articles[0].URL)
	}
	if !d.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %v, want %v", d.GeneratedAt, now)
	}
}

func TestBuild_TruncatesToMax(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	var articles []models.Article
	for i := 0; i < 15; i++ {
		articles = append(articles, models.Article{
			Title:       fmt.Sprintf("Bitcoin story %d", i),
			URL:         fmt.Sprintf("https://one.example/completely-distinct-path-%02d/deeper/segment", i),
			PublishedAt: now.Add(-time.Duration(i) * time.Minute),
			Source:      "Tier One",
		})
	}

	d := Build(testSources, articles, now, testOptions())

	if len(d.Articles) != 10 {
		t.Fatalf("got %d articles, want exactly 10", len(d.Articles))
	}
	for i := 1; i < len(d.Articles); i++ {
		if d.Articles[i].Score > d.Articles[i-1].Score {
			t.Errorf("articles not sorted descending at %d: %v > %v", i, d.Articles[i].Score, d.Articles[i-1].Score)
		}
	}
}

func TestBuild_ScoresWithinUnitInterval(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	articles := []models.Article{
		{Title: "SEC approves bitcoin ETF", URL: "https://one.example/a", PublishedAt: now, Source: "Tier One"},
		{Title: "crypto column", URL: "https://x.example/b", PublishedAt: now.Add(-23 * time.Hour), Source: "Unknown Wire"},
	}

	d := Build(testSources, articles, now, testOptions())

	for _, a := range d.Articles {
		if a.Score < 0 || a.Score > 1 {
			t.Errorf("%q score = %v, want within [0,1]", a.URL, a.Score)
		}
	}
}

func TestBuild_CorroborationSharedPrefix(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// Same wire story republished by two outlets with a shared 60+ char
	// normalized prefix.
	prefix := "https://one.example/markets/2026/08/30/bitcoin-etf-record-inflow-milestone"
	articles := []models.Article{
		{Title: "Bitcoin ETF inflow record", URL: prefix + "-a", PublishedAt: now.Add(-1 * time.Hour), Source: "Tier One"},
		{Title: "Record bitcoin ETF inflows", URL: prefix + "-b", PublishedAt: now.Add(-1 * time.Hour), Source: "Tier Two"},
	}

	d := Build(testSources, articles, now, testOptions())

	if len(d.Articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(d.Articles))
	}
	for _, a := range d.Articles {
		if a.Corroboration != 2 {
			t.Errorf("%q corroboration = %d, want 2", a.URL, a.Corroboration)
		}
	}
}

func TestBuild_TieBreakMoreRecentFirst(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// Recency moves continuously, so equal scores in practice mean equal
	// publication times; the remaining tiebreak is the URL.
	articles := []models.Article{
		{Title: "Bitcoin note B", URL: "https://one.example/zzz", PublishedAt: now.Add(-5 * time.Hour), Source: "Tier One"},
		{Title: "Bitcoin note A", URL: "https://one.example/aaa", PublishedAt: now.Add(-5 * time.Hour), Source: "Tier One"},
	}

	d := Build(testSources, articles, now, testOptions())

	if len(d.Articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(d.Articles))
	}
	if d.Articles[0].URL != "https://one.example/aaa" {
		t.Errorf("equal score and time should order by URL: got %q first", d.Articles[0].URL)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	articles := []models.Article{
		{Title: "Bitcoin A", URL: "https://one.example/a", PublishedAt: now.Add(-1 * time.Hour), Source: "Tier One"},
		{Title: "Bitcoin B", URL: "https://two.example/b", PublishedAt: now.Add(-2 * time.Hour), Source: "Tier Two"},
		{Title: "Bitcoin C", URL: "https://three.example/c", PublishedAt: now.Add(-3 * time.Hour), Source: "Tier Three"},
	}

	d1 := Build(testSources, articles, now, testOptions())
	d2 := Build(testSources, articles, now, testOptions())

	if len(d1.Articles) != len(d2.Articles) {
		t.Fatalf("lengths differ: %d vs %d", len(d1.Articles), len(d2.Articles))
	}
	for i := range d1.Articles {
		if d1.Articles[i].URL != d2.Articles[i].URL || d1.Articles[i].Score != d2.Articles[i].Score {
			t.Errorf("entry %d differs between identical runs", i)
		}
	}
}

func TestBuild_EmptyBatch(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	d := Build(testSources, nil, now, testOptions())

	if len(d.Articles) != 0 {
		t.Errorf("got %d articles, want 0", len(d.Articles))
	}
	if !d.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %v, want %v", d.GeneratedAt, now)
	}
}
