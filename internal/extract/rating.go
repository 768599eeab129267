package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Rating layers, tried in order:
//  1. locale-formatted "4,5 (123 avis)" with variants
//  2. embedded structured ratingValue/reviewCount pairs
//  3. accessible-label rating text ("Note : 4,5 sur 5")
//  4. a bare decimal adjacent to a review-count mention
var (
	ratingAvis       = regexp.MustCompile(`(\d[.,]\d)\s*[(/]\s*(\d[\d\s]*)\s*avis`)
	ratingStructured = regexp.MustCompile(`"ratingValue"\s*:\s*"?(\d(?:[.,]\d)?)"?`)
	reviewStructured = regexp.MustCompile(`"(?:reviewCount|ratingCount)"\s*:\s*"?(\d+)"?`)
	ratingAriaLabel  = regexp.MustCompile(`[Nn]ote\s*:?\s*(\d[.,]\d)\s*sur\s*5`)
	ratingNearCount  = regexp.MustCompile(`(\d[.,]\d)\D{0,24}?(\d[\d\s]*)\s*avis`)
)

// extractRating returns the rating in [1,5] and the review count, or
// (nil, 0) when no layer matched. Review count defaults to 0 when a rating
// is found without a separate count.
func extractRating(html string) (*float64, int) {
	if m := ratingAvis.FindStringSubmatch(html); m != nil {
		if r, ok := parseRating(m[1]); ok {
			return &r, parseCount(m[2])
		}
	}

	if m := ratingStructured.FindStringSubmatch(html); m != nil {
		if r, ok := parseRating(m[1]); ok {
			count := 0
			if c := reviewStructured.FindStringSubmatch(html); c != nil {
				count = parseCount(c[1])
			}
			return &r, count
		}
	}

	if m := ratingAriaLabel.FindStringSubmatch(html); m != nil {
		if r, ok := parseRating(m[1]); ok {
			return &r, 0
		}
	}

	if m := ratingNearCount.FindStringSubmatch(html); m != nil {
		if r, ok := parseRating(m[1]); ok {
			return &r, parseCount(m[2])
		}
	}

	return nil, 0
}

func parseRating(s string) (float64, bool) {
	r, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || r < 1 || r > 5 {
		return 0, false
	}
	return r, true
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if err != nil {
		return 0
	}
	return n
}
