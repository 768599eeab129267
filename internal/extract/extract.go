// Package extract pulls phone, website and rating signals out of a fetched
// search result page. Each signal has layered pattern rules tried in priority
// order; the first layer that produces a valid value wins.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/annuaire-pro/enrich-cli/internal/model"
	"github.com/annuaire-pro/enrich-cli/internal/normalize"
)

// freeTextPhone matches national phone numbers written in running text, with
// optional separators and an optional +33 prefix.
var freeTextPhone = regexp.MustCompile(`(?:\+33[\s.\-]?|0)[1-9](?:[\s.\-]?\d{2}){4}`)

// Extract parses one result page and collects all three signals. businessName
// is the record's display name, used to prefer a website whose domain echoes
// the name. A zero-value result means the page held no recognizable signal.
func Extract(html, businessName string) model.EnrichmentResult {
	var res model.EnrichmentResult

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		doc = nil
	}

	res.Phone = extractPhone(doc, html)
	res.Website = extractWebsite(doc, html, businessName)
	res.Rating, res.ReviewCount = extractRating(html)
	return res
}

// extractPhone tries, in order: the structured knowledge-panel attribute,
// tel: links, then the free-text national pattern. Every candidate passes
// through normalize.Phone; the first that survives wins.
func extractPhone(doc *goquery.Document, html string) string {
	if doc != nil {
		var found string
		doc.Find(`[data-attrid*="phone"], [data-dtype="d3ph"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if p, ok := normalize.Phone(s.Text()); ok {
				found = p
				return false
			}
			return true
		})
		if found != "" {
			return found
		}

		doc.Find(`a[href^="tel:"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			if p, ok := normalize.Phone(strings.TrimPrefix(href, "tel:")); ok {
				found = p
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	for _, m := range freeTextPhone.FindAllString(html, 20) {
		if p, ok := normalize.Phone(m); ok {
			return p
		}
	}
	return ""
}

// extractWebsite collects absolute links, normalizes them, drops the
// directory/social denylist, then prefers a domain echoing the first six
// characters of the normalized business name. Otherwise the first surviving
// candidate wins.
func extractWebsite(doc *goquery.Document, html, businessName string) string {
	var candidates []string
	seen := make(map[string]bool)

	add := func(raw string) {
		u, ok := normalize.Website(raw)
		if !ok || seen[u] {
			return
		}
		seen[u] = true
		candidates = append(candidates, u)
	}

	if doc != nil {
		doc.Find(`a[href^="http"]`).Each(func(_ int, s *goquery.Selection) {
			if href, ok := s.Attr("href"); ok {
				add(href)
			}
		})
	}
	if len(candidates) == 0 {
		for _, m := range absoluteLink.FindAllString(html, 50) {
			add(m)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	prefix := strings.ReplaceAll(normalize.Name(businessName), " ", "")
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	if prefix != "" {
		for _, c := range candidates {
			if strings.Contains(normalize.Domain(c), prefix) {
				return c
			}
		}
	}
	return candidates[0]
}

var absoluteLink = regexp.MustCompile(`https?://[^\s"'<>)]+`)
