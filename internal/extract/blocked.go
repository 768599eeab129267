package extract

import "strings"

// blockMarkers are page fragments that indicate the search engine served an
// abuse-detection interstitial instead of results.
var blockMarkers = []string{
	"captcha",
	"unusual traffic",
	"trafic inhabituel",
	"automated queries",
	"requêtes automatisées",
	"detected suspicious activity",
}

// IsBlocked reports whether the page content is a block/CAPTCHA interstitial
// rather than a result page. Callers treat this as a system-wide cooldown
// signal, not a per-item failure.
func IsBlocked(html string) bool {
	lower := strings.ToLower(html)
	for _, m := range blockMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
