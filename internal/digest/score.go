package digest

import (
	"strings"
	"time"
)

// Component weights of the importance score. They sum to 1.0, and every
// component is clamped to [0,1] before weighting, so the final score is
// also in [0,1].
const (
	weightTrust         = 0.25
	weightRecency       = 0.25
	weightBreaking      = 0.20
	weightSalience      = 0.15
	weightCorroboration = 0.15
)

// recencyHorizon is the age at which the linear recency component
// reaches zero.
const recencyHorizon = 12.0 // hours

// Breakdown shows how each component contributed to the final score.
type Breakdown struct {
	Trust         float64
	Recency       float64
	Breaking      float64
	Salience      float64
	Corroboration float64
	Final         float64
}

// scoreArticle computes the weighted importance score for one article.
// Age is measured against the injected now, so the same batch scored at
// the same instant always produces the same result.
func scoreArticle(title, source string, published time.Time, corroboration int, tiers map[string]int, importantKeywords []string, now time.Time) Breakdown {
	ageHours := now.Sub(published).Hours()

	b := Breakdown{
		Trust:         trustScore(source, tiers),
		Recency:       recencyScore(ageHours),
		Breaking:      breakingScore(ageHours),
		Salience:      salienceScore(title, importantKeywords),
		Corroboration: corroborationScore(corroboration),
	}
	b.Final = b.Trust*weightTrust +
		b.Recency*weightRecency +
		b.Breaking*weightBreaking +
		b.Salience*weightSalience +
		b.Corroboration*weightCorroboration
	return b
}

// trustScore maps the source's trust tier to [0,1]: tier 1 scores 1.0,
// each tier below loses 0.33. Unknown sources score 0.
func trustScore(source string, tiers map[string]int) float64 {
	tier, ok := tiers[source]
	if !ok {
		return 0
	}
	return clamp01(1.0 - float64(tier-1)*0.33)
}

// recencyScore decays linearly from 1.0 at publication to 0 at the
// 12-hour horizon.
func recencyScore(ageHours float64) float64 {
	return clamp01(1.0 - ageHours/recencyHorizon)
}

// breakingScore is a step bonus for very fresh news.
func breakingScore(ageHours float64) float64 {
	switch {
	case ageHours < 1:
		return 1.0
	case ageHours < 2:
		return 0.7
	case ageHours < 4:
		return 0.4
	default:
		return 0
	}
}

// salienceScore counts high-signal keywords in the title, 0.25 each,
// saturating at four matches.
func salienceScore(title string, importantKeywords []string) float64 {
	lower := strings.ToLower(title)
	matches := 0
	for _, kw := range importantKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			matches++
		}
	}
	return clamp01(float64(matches) * 0.25)
}

// corroborationScore reaches full weight once three or more sources
// carry the story.
func corroborationScore(count int) float64 {
	return clamp01(float64(count) / 3.0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
