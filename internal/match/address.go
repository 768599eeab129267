package match

import (
	"github.com/annuaire-pro/enrich-cli/internal/model"
	"github.com/annuaire-pro/enrich-cli/internal/similarity"
)

// addressStrategy pairs listings and records sharing a postal code by
// street-text and name similarity. When both sides carry a street number the
// numbers must agree.
type addressStrategy struct {
	threshold float64
}

const (
	streetWeight = 0.5
	nameWeight   = 0.5
)

func (s *addressStrategy) Name() string { return "address" }

func (s *addressStrategy) Run(records *RecordIndex, listings *ListingIndex, tr *Tracker) {
	for _, code := range listings.PostalCodes() {
		candidates := records.Postal(code)
		if len(candidates) == 0 {
			continue
		}
		for _, l := range listings.Postal(code) {
			if !tr.PhoneFree(l.phone) || l.streetText == "" {
				continue
			}

			var best *recordEntry
			var bestScore float64
			for _, r := range candidates {
				if !tr.RecordFree(r.record.ID) || r.streetText == "" {
					continue
				}
				if l.streetNum != "" && r.streetNum != "" && l.streetNum != r.streetNum {
					continue
				}
				score := streetWeight*similarity.Dice(l.streetText, r.streetText) +
					nameWeight*similarity.NameSimilarity(l.normName, r.normName)
				if score > bestScore {
					best, bestScore = r, score
				}
			}
			if best == nil || bestScore < s.threshold {
				continue
			}
			tr.Accept(model.MatchAssignment{
				RecordID:    best.record.ID,
				Phone:       l.phone,
				Score:       bestScore,
				Strategy:    s.Name(),
				SourceName:  l.listing.Name,
				MatchedName: best.record.Name,
			})
		}
	}
}
