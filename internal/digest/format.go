package digest

import (
	"fmt"
	"strings"

	"coinbrief/internal/models"
)

// emptyDigestMessage is the fixed placeholder sent when a run produced no
// articles.
const emptyDigestMessage = "📰 *Crypto News Briefing*\n\nNo new articles found in this cycle."

const blockSeparator = "──────────────────────────────"

// tierIndicator maps a source's trust tier to the priority marker shown
// in the briefing. Tier 1 is the most trusted.
func tierIndicator(tier int) string {
	switch tier {
	case 1:
		return "🔴"
	case 2:
		return "🟠"
	case 3:
		return "🟡"
	default:
		return "📰"
	}
}

// Format renders a digest into the Telegram Markdown briefing. Each entry
// carries, in order: priority indicator, rank, title, source, publish
// time, and URL. An empty digest renders the fixed placeholder.
func Format(d models.Digest) string {
	if len(d.Articles) == 0 {
		return emptyDigestMessage
	}

	var b strings.Builder

	b.WriteString("📰 *Crypto News Briefing*\n")
	fmt.Fprintf(&b, "_%s_\n\n", d.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "📊 Found %d crypto articles\n\n", len(d.Articles))
	b.WriteString(blockSeparator + "\n\n")

	for i, a := range d.Articles {
		fmt.Fprintf(&b, "%s *%d. %s*\n\n", tierIndicator(a.TrustTier), i+1, a.Title)
		fmt.Fprintf(&b, "   📍 %s • 🕐 %s\n\n", a.Source, a.PublishedAt.UTC().Format("15:04"))
		if a.Summary != "" {
			fmt.Fprintf(&b, "   📝 %s\n\n", a.Summary)
		}
		fmt.Fprintf(&b, "   🔗 [Read more](%s)\n\n", a.URL)
		b.WriteString(blockSeparator + "\n\n")
	}

	b.WriteString("🤖 *Automated Crypto News Briefing*")

	return b.String()
}
