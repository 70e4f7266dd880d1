package digest

import (
	"strings"

	"coinbrief/internal/models"
)

// signature reduces a URL to the grouping key used for corroboration
// detection: the first prefixLen bytes of the normalized URL. Outlets
// republishing the same wire story often share a URL path prefix or
// syndication tag, so a truncated prefix is a cheap proxy for "same
// underlying story". Both false merges (coincidental prefix collision)
// and false splits (same story, different prefixes) are accepted
// limitations of the heuristic.
func signature(rawURL string, prefixLen int) string {
	s := strings.ToLower(strings.TrimSpace(rawURL))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, "/")
	if len(s) > prefixLen {
		s = s[:prefixLen]
	}
	return s
}

// countCorroboration returns, for each article in the batch, how many
// batch articles (itself included) share its URL signature. Every count
// is therefore at least 1.
func countCorroboration(articles []models.Article, prefixLen int) []int {
	partitions := make(map[string]int, len(articles))
	for _, a := range articles {
		partitions[signature(a.URL, prefixLen)]++
	}

	counts := make([]int, len(articles))
	for i, a := range articles {
		counts[i] = partitions[signature(a.URL, prefixLen)]
	}
	return counts
}
