package match

import (
	"github.com/annuaire-pro/enrich-cli/internal/model"
	"github.com/annuaire-pro/enrich-cli/internal/similarity"
)

// reverseTokenStrategy works record-first: listing distinctive tokens are
// indexed per postal code, each unassigned record collects the listings
// sharing any of its tokens, and the best name-similarity candidate wins.
type reverseTokenStrategy struct {
	threshold float64
}

func (s *reverseTokenStrategy) Name() string { return "reverse_token" }

func (s *reverseTokenStrategy) Run(records *RecordIndex, listings *ListingIndex, tr *Tracker) {
	for _, code := range listings.PostalCodes() {
		recs := records.Postal(code)
		if len(recs) == 0 {
			continue
		}

		byToken := map[string][]*listingEntry{}
		for _, l := range listings.Postal(code) {
			for _, tok := range l.tokens {
				byToken[tok] = append(byToken[tok], l)
			}
		}

		for _, r := range recs {
			if !tr.RecordFree(r.record.ID) {
				continue
			}

			seen := map[*listingEntry]bool{}
			var best *listingEntry
			var bestScore float64
			for _, tok := range r.tokens {
				for _, l := range byToken[tok] {
					if seen[l] || !tr.PhoneFree(l.phone) {
						continue
					}
					seen[l] = true
					score := similarity.NameSimilarity(r.normName, l.normName)
					if score > bestScore {
						best, bestScore = l, score
					}
				}
			}
			if best == nil || bestScore < s.threshold {
				continue
			}
			tr.Accept(model.MatchAssignment{
				RecordID:    r.record.ID,
				Phone:       best.phone,
				Score:       bestScore,
				Strategy:    s.Name(),
				SourceName:  best.listing.Name,
				MatchedName: r.record.Name,
			})
		}
	}
}
