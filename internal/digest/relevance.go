package digest

import "strings"

// Relevant reports whether an article is on-topic: true when any keyword
// appears as a case-insensitive substring of the title or summary.
// Substring matching is deliberate; "eth" also matching inside unrelated
// words is an accepted false-positive tradeoff in exchange for catching
// tickers and compounds like "$eth" or "ethereum-based".
func Relevant(title, summary string, keywords []string) bool {
	text := strings.ToLower(title + " " + summary)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
