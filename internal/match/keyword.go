package match

import (
	"github.com/annuaire-pro/enrich-cli/internal/model"
	"github.com/annuaire-pro/enrich-cli/internal/similarity"
)

// keywordStrategy is the geography-aware fallback for records the name-window
// cascade left unassigned. It demands a shared long distinctive keyword and a
// stricter threshold because it ignores address similarity entirely. With
// neighbor listings supplied it also reaches into adjacent departments when
// the home department yields nothing.
type keywordStrategy struct {
	threshold  float64
	minWordLen int
}

func (s *keywordStrategy) Name() string { return "postal_keyword" }

// Run matches within the home department by postal code.
func (s *keywordStrategy) Run(records *RecordIndex, listings *ListingIndex, tr *Tracker) {
	for _, code := range listings.PostalCodes() {
		for _, r := range records.Postal(code) {
			if !tr.RecordFree(r.record.ID) {
				continue
			}
			s.tryCandidates(r, listings.Postal(code), tr)
		}
	}
}

// RunExpanded retries still-unassigned records against a neighboring
// department's listings, keyed on keywords alone.
func (s *keywordStrategy) RunExpanded(records *RecordIndex, neighbors *ListingIndex, tr *Tracker) {
	all := neighbors.All()
	for _, r := range records.All() {
		if !tr.RecordFree(r.record.ID) {
			continue
		}
		s.tryCandidates(r, all, tr)
	}
}

func (s *keywordStrategy) tryCandidates(r *recordEntry, candidates []*listingEntry, tr *Tracker) {
	var best *listingEntry
	var bestScore float64
	for _, l := range candidates {
		if !tr.PhoneFree(l.phone) {
			continue
		}
		if !s.shareLongKeyword(r.tokens, l.tokens) {
			continue
		}
		score := similarity.NameSimilarity(r.normName, l.normName)
		if score > bestScore {
			best, bestScore = l, score
		}
	}
	if best == nil || bestScore < s.threshold {
		return
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

func (s *keywordStrategy) shareLongKeyword(a, b []string) bool {
	for _, ta := range a {
		if len(ta) < s.minWordLen {
			continue
		}
		for _, tb := range b {
			if ta == tb {
				return true
			}
		}
	}
	return false
}
