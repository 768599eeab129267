// Package match links offline directory listings to business records missing
// a phone number through a cascade of similarity strategies.
package match

import (
	"regexp"
	"sort"
	"strings"

	"github.com/annuaire-pro/enrich-cli/internal/model"
	"github.com/annuaire-pro/enrich-cli/internal/normalize"
)

// listingEntry carries a listing with its precomputed comparison keys.
type listingEntry struct {
	listing    model.ListingRecord
	phone      string
	normName   string
	tokens     []string
	cityKey    string
	streetNum  string
	streetText string
}

// recordEntry carries a record still missing a phone with its keys.
type recordEntry struct {
	record     model.BusinessRecord
	normName   string
	tokens     []string
	cityKey    string
	streetNum  string
	streetText string
}

var postalCityRe = regexp.MustCompile(`\b\d{5}\s+(.+)$`)

// cityFromAddress pulls the city out of a free-text address, taking whatever
// follows the 5-digit postal code.
func cityFromAddress(addr string) string {
	m := postalCityRe.FindStringSubmatch(addr)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

var streetNumRe = regexp.MustCompile(`^\s*(\d+)`)

// splitStreet separates the leading street number from the street text.
func splitStreet(street string) (num, text string) {
	m := streetNumRe.FindStringSubmatch(street)
	if m != nil {
		num = m[1]
		street = street[strings.Index(street, m[1])+len(m[1]):]
	}
	return num, normalize.Fold(strings.TrimSpace(street))
}

func newListingEntry(l model.ListingRecord) listingEntry {
	city := l.City
	if city == "" {
		city = cityFromAddress(l.Street)
	}
	num, text := splitStreet(l.Street)
	norm := normalize.Name(l.Name)
	return listingEntry{
		listing:    l,
		phone:      l.Phone,
		normName:   norm,
		tokens:     normalize.DistinctiveTokens(norm),
		cityKey:    normalize.Fold(city),
		streetNum:  num,
		streetText: text,
	}
}

func newRecordEntry(r model.BusinessRecord) recordEntry {
	num, text := splitStreet(r.Street)
	norm := normalize.Name(r.Name)
	return recordEntry{
		record:     r,
		normName:   norm,
		tokens:     normalize.DistinctiveTokens(norm),
		cityKey:    normalize.Fold(r.City),
		streetNum:  num,
		streetText: text,
	}
}

// ListingIndex groups one department's listings by postal code.
type ListingIndex struct {
	entries  []listingEntry
	byPostal map[string][]int
}

// NewListingIndex indexes listings in load order. Callers are expected to
// have deduplicated phones already (the loader does).
func NewListingIndex(listings []model.ListingRecord) *ListingIndex {
	idx := &ListingIndex{byPostal: map[string][]int{}}
	for _, l := range listings {
		if l.Phone == "" {
			continue
		}
		e := newListingEntry(l)
		idx.entries = append(idx.entries, e)
		i := len(idx.entries) - 1
		if l.PostalCode != "" {
			idx.byPostal[l.PostalCode] = append(idx.byPostal[l.PostalCode], i)
		}
	}
	return idx
}

// Postal returns the listings registered under one postal code.
func (ix *ListingIndex) Postal(code string) []*listingEntry {
	return ix.resolve(ix.byPostal[code])
}

// All returns every listing in load order.
func (ix *ListingIndex) All() []*listingEntry {
	out := make([]*listingEntry, len(ix.entries))
	for i := range ix.entries {
		out[i] = &ix.entries[i]
	}
	return out
}

// PostalCodes returns the indexed postal codes in sorted order so cascade
// runs are deterministic.
func (ix *ListingIndex) PostalCodes() []string {
	codes := make([]string, 0, len(ix.byPostal))
	for c := range ix.byPostal {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func (ix *ListingIndex) resolve(idxs []int) []*listingEntry {
	out := make([]*listingEntry, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, &ix.entries[i])
	}
	return out
}

// RecordIndex groups one department's phoneless records by postal code,
// ordered by id.
type RecordIndex struct {
	entries  []recordEntry
	byPostal map[string][]int
}

func NewRecordIndex(records []model.BusinessRecord) *RecordIndex {
	sorted := make([]model.BusinessRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	idx := &RecordIndex{byPostal: map[string][]int{}}
	for _, r := range sorted {
		if !r.MissingPhone() {
			continue
		}
		idx.entries = append(idx.entries, newRecordEntry(r))
		i := len(idx.entries) - 1
		if r.PostalCode != "" {
			idx.byPostal[r.PostalCode] = append(idx.byPostal[r.PostalCode], i)
		}
	}
	return idx
}

func (ix *RecordIndex) Postal(code string) []*recordEntry {
	out := make([]*recordEntry, 0, len(ix.byPostal[code]))
	for _, i := range ix.byPostal[code] {
		out = append(out, &ix.entries[i])
	}
	return out
}

func (ix *RecordIndex) All() []*recordEntry {
	out := make([]*recordEntry, len(ix.entries))
	for i := range ix.entries {
		out[i] = &ix.entries[i]
	}
	return out
}
