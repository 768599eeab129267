package match

import (
	"strings"

	"github.com/annuaire-pro/enrich-cli/internal/model"
	"github.com/annuaire-pro/enrich-cli/internal/similarity"
)

// cityWordStrategy widens the search to the whole department: the city keys
// must agree and at least one distinctive token must overlap (exact, or by
// substring containment between tokens of 4+ characters) before a pair is
// scored at all.
type cityWordStrategy struct {
	threshold float64
}

func (s *cityWordStrategy) Name() string { return "city_word" }

func (s *cityWordStrategy) Run(records *RecordIndex, listings *ListingIndex, tr *Tracker) {
	all := listings.All()
	for _, r := range records.All() {
		if !tr.RecordFree(r.record.ID) || r.cityKey == "" {
			continue
		}

		var best *listingEntry
		var bestScore float64
		for _, l := range all {
			if !tr.PhoneFree(l.phone) || l.cityKey != r.cityKey {
				continue
			}
			if !tokensOverlap(r.tokens, l.tokens) {
				continue
			}
			score := similarity.NameSimilarity(r.normName, l.normName)
			if score > bestScore {
				best, bestScore = l, score
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

// tokensOverlap reports whether any distinctive token is shared exactly or
// contained within a longer token on the other side (both 4+ characters).
func tokensOverlap(a, b []string) bool {
	for _, ta := range a {
		for _, tb := range b {
			if ta == tb {
				return true
			}
			if len(ta) >= 4 && len(tb) >= 4 &&
				(strings.Contains(ta, tb) || strings.Contains(tb, ta)) {
				return true
			}
		}
	}
	return false
}
