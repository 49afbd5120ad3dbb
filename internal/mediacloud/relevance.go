package mediacloud

import "strings"

// Relevance scores how well a story title matches the search query.
// Title keyword coverage dominates, an exact phrase match adds a strong
// bonus, and rambling titles lose a little. Higher is more relevant.
func Relevance(title, query string) float64 {
	lowerTitle := strings.ToLower(title)
	lowerQuery := strings.ToLower(strings.TrimSpace(query))

	var queryWords []string
	for _, w := range strings.Fields(lowerQuery) {
		if len(w) > 2 {
			queryWords = append(queryWords, w)
		}
	}
	if len(queryWords) == 0 {
		return 0
	}

	score := 0.0
	matches := 0
	for _, w := range queryWords {
		if strings.Contains(lowerTitle, w) {
			matches++
		}
	}

	if len(queryWords) > 1 && strings.Contains(lowerTitle, lowerQuery) {
		score += 10.0
	}

	// Up to 20 points for full coverage of the query words.
	score += float64(matches) / float64(len(queryWords)) * 20.0

	if matches > 1 {
		score += float64(matches) * 2.0
	}

	titleWords := len(strings.Fields(lowerTitle))
	if titleWords > 15 {
		score -= 2.0
	}
	if titleWords <= 10 && matches > 0 {
		score += 3.0
	}

	return score
}
