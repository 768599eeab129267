package match

import (
	"strings"
	"unicode"

	"github.com/annuaire-pro/enrich-cli/internal/model"
	"github.com/annuaire-pro/enrich-cli/internal/normalize"
	"github.com/annuaire-pro/enrich-cli/internal/similarity"
)

// initialsStrategy catches acronym naming: "SBTP" against "Société
// Bâtiment Travaux Publics". It keys records by the initials of their
// distinctive tokens, treats very short legal names as literal acronyms, and
// confirms with a low name-similarity bar. Accepted pairs carry a fixed
// confidence score; the strategy trades precision for recall and runs last.
type initialsStrategy struct {
	floor float64
	score float64
}

func (s *initialsStrategy) Name() string { return "initials" }

// initialsOf joins the first letter of each token. Keys shorter than two
// letters are useless and come back empty.
func initialsOf(tokens []string) string {
	var b strings.Builder
	for _, t := range tokens {
		for _, r := range t {
			b.WriteRune(r)
			break
		}
	}
	if b.Len() < 2 {
		return ""
	}
	return b.String()
}

// recordKeys derives the two keys a record answers to: the initials of its
// distinctive tokens, and the name itself when the legal-form-stripped name
// is one short acronym-like token.
func recordKeys(r *recordEntry) (initialsKey, literalKey string) {
	initialsKey = initialsOf(r.tokens)

	bare := strings.TrimSpace(normalize.StripLegalForms(r.record.Name))
	if len(bare) >= 2 && len(bare) <= 4 && !strings.ContainsAny(bare, " -") && isAllUpper(bare) {
		literalKey = normalize.Fold(bare)
	}
	return initialsKey, literalKey
}

func isAllUpper(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func (s *initialsStrategy) Run(records *RecordIndex, listings *ListingIndex, tr *Tracker) {
	for _, code := range listings.PostalCodes() {
		recs := records.Postal(code)
		if len(recs) == 0 {
			continue
		}

		for _, r := range recs {
			if !tr.RecordFree(r.record.ID) {
				continue
			}
			initialsKey, literalKey := recordKeys(r)
			if initialsKey == "" && literalKey == "" {
				continue
			}

			for _, l := range listings.Postal(code) {
				if !tr.PhoneFree(l.phone) {
					continue
				}
				k := initialsOf(l.tokens)
				// A record that IS an acronym matching the listing's
				// computed initials needs no further confirmation;
				// the key equality is the whole signal.
				literalHit := literalKey != "" &&
					(literalKey == k || (len(l.tokens) == 1 && literalKey == l.tokens[0]))
				initialsHit := initialsKey != "" && initialsKey == k &&
					similarity.NameSimilarity(r.normName, l.normName) >= s.floor
				if !literalHit && !initialsHit {
					continue
				}
				tr.Accept(model.MatchAssignment{
					RecordID:    r.record.ID,
					Phone:       l.phone,
					Score:       s.score,
					Strategy:    s.Name(),
					SourceName:  l.listing.Name,
					MatchedName: r.record.Name,
				})
				break
			}
		}
	}
}
