package digest

import (
	"strings"
	"testing"
	"time"

	"coinbrief/internal/models"
)

func TestFormat_EmptyDigest(t *testing.T) {
	d := models.Digest{GeneratedAt: time.Now()}

	got := Format(d)
	if got == "" {
		t.Fatal("Format of empty digest must not be an empty string")
	}
	if !strings.Contains(got, "No new articles") {
		t.Errorf("empty digest message = %q, want the fixed placeholder", got)
	}
}

func TestFormat_FieldOrderPerEntry(t *testing.T) {
	generated := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)

	d := models.Digest{
		GeneratedAt: generated,
		Articles: []models.ScoredArticle{
			{
				Article: models.Article{
					Title:       "Bitcoin ETF sees record inflows",
					URL:         "https://one.example/etf-record",
					Summary:     "Spot ETFs pulled in a record amount.",
					PublishedAt: time.Date(2026, 8, 30, 8, 15, 0, 0, time.UTC),
					Source:      "Tier One",
				},
				TrustTier:     1,
				Corroboration: 2,
				Score:         0.91,
			},
			{
				Article: models.Article{
					Title:       "Ethereum validators hit milestone",
					URL:         "https://two.example/validators",
					PublishedAt: time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC),
					Source:      "Tier Two",
				},
				TrustTier:     2,
				Corroboration: 1,
				Score:         0.55,
			},
		},
	}

	got := Format(d)

	// Header carries generation time and total count.
	if !strings.Contains(got, "2026-08-30 09:30 UTC") {
		t.Error("header missing generation timestamp")
	}
	if !strings.Contains(got, "Found 2 crypto articles") {
		t.Error("header missing article count")
	}

	// Every entry renders indicator, rank, title, source, time, URL --
	// in that order.
	wantOrdered := []string{
		"🔴", "1. Bitcoin ETF sees record inflows", "Tier One", "08:15", "https://one.example/etf-record",
		"🟠", "2. Ethereum validators hit milestone", "Tier Two", "07:00", "https://two.example/validators",
	}
	pos := 0
	for _, want := range wantOrdered {
		idx := strings.Index(got[pos:], want)
		if idx < 0 {
			t.Fatalf("formatted briefing missing %q after position %d:\n%s", want, pos, got)
		}
		pos += idx + len(want)
	}

	// Fixed footer comes last.
	if !strings.HasSuffix(got, "🤖 *Automated Crypto News Briefing*") {
		t.Error("briefing missing fixed footer")
	}
}

func TestFormat_SummaryOptional(t *testing.T) {
	d := models.Digest{
		GeneratedAt: time.Now(),
		Articles: []models.ScoredArticle{
			{
				Article: models.Article{
					Title:       "No summary provided",
					URL:         "https://one.example/bare",
					PublishedAt: time.Now(),
					Source:      "Tier One",
				},
				TrustTier:     1,
				Corroboration: 1,
			},
		},
	}

	got := Format(d)
	if strings.Contains(got, "📝") {
		t.Error("summary marker rendered for an article without a summary")
	}
}

func TestTierIndicator(t *testing.T) {
	tests := []struct {
		tier int
		want string
	}{
		{tier: 1, want: "🔴"},
		{tier: 2, want: "🟠"},
		{tier: 3, want: "🟡"},
		{tier: 0, want: "📰"},
	}

	for _, tt := range tests {
		if got := tierIndicator(tt.tier); got != tt.want {
			t.Errorf("tierIndicator(%d) = %q, want %q", tt.tier, got, tt.want)
		}
	}
}
