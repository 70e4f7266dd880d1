package feeds

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"coinbrief/internal/models"
)

// maxSummaryLen bounds the summary text carried into the briefing.
const maxSummaryLen = 300

var htmlTagPattern = regexp.MustCompile("<[^>]*>")

// parseFeedItems converts gofeed items into Articles. Items with a missing
// title, link, or publication date are skipped, as are items published
// before now-Lookback. At most MaxItemsPerFeed items are considered per
// feed.
func parseFeedItems(source models.Source, feed *gofeed.Feed, now time.Time, opts Options) []models.Article {
	cutoff := now.Add(-opts.Lookback)

	items := feed.Items
	if opts.MaxItemsPerFeed > 0 && len(items) > opts.MaxItemsPerFeed {
		items = items[:opts.MaxItemsPerFeed]
	}

	var articles []models.Article
	for _, item := range items {
		if item.Title == "" || item.Link == "" {
			continue
		}

		published := itemTime(item)
		if published == nil {
			// Scoring needs an age, so undated entries cannot be ranked.
			continue
		}
		if published.Before(cutoff) {
			continue
		}

		articles = append(articles, models.Article{
			Title:       cleanText(item.Title, 0),
			URL:         item.Link,
			Summary:     cleanText(item.Description, maxSummaryLen),
			PublishedAt: *published,
			Source:      source.Name,
		})
	}

	return articles
}

// itemTime returns the publication time of a feed item, falling back to
// the update time, or nil if neither was parseable.
func itemTime(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}

// cleanText strips HTML tags and entities, collapses whitespace, and
// truncates to maxLen characters (0 means no limit).
func cleanText(s string, maxLen int) string {
	clean := htmlTagPattern.ReplaceAllString(s, "")
	clean = html.UnescapeString(clean)
	clean = strings.Join(strings.Fields(clean), " ")
	if maxLen > 0 && len(clean) > maxLen {
		clean = strings.TrimSpace(clean[:maxLen]) + "..."
	}
	return clean
}
