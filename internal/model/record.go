// Package model defines the records flowing through the enrichment and
// matching engines.
package model

// BusinessRecord is a directory entry being enriched with contact fields.
// Identity and address fields are read-only; Phone, Website, Rating and
// ReviewCount are fill-only (a non-empty value is never overwritten).
type BusinessRecord struct {
	ID         int64  `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	Street     string `json:"street,omitempty" db:"street"`
	City       string `json:"city,omitempty" db:"city"`
	PostalCode string `json:"postal_code,omitempty" db:"postal_code"`
	Department string `json:"department,omitempty" db:"department"`
	Trade      string `json:"trade,omitempty" db:"trade"`

	Phone       string   `json:"phone,omitempty" db:"phone"`
	Website     string   `json:"website,omitempty" db:"website"`
	Rating      *float64 `json:"rating,omitempty" db:"rating"`
	ReviewCount *int     `json:"review_count,omitempty" db:"review_count"`
}

// MissingPhone reports whether the record still needs a phone number.
func (r *BusinessRecord) MissingPhone() bool {
	return r.Phone == ""
}

// MissingCount returns how many enrichable fields are still empty. Selection
// queries order by this so records missing the most data are scraped first.
func (r *BusinessRecord) MissingCount() int {
	n := 0
	if r.Phone == "" {
		n++
	}
	if r.Website == "" {
		n++
	}
	if r.Rating == nil {
		n++
	}
	return n
}

// ListingRecord is an entry from the offline directory collection used as a
// linkage source. Immutable once loaded; the loader deduplicates by phone
// (first occurrence wins).
type ListingRecord struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Department string `json:"department,omitempty"`
	Trade      string `json:"trade,omitempty"`
}

// EnrichmentResult is the outcome of a single scrape attempt. The zero value
// means no signal was found.
type EnrichmentResult struct {
	Phone       string
	Website     string
	Rating      *float64
	ReviewCount int
	Source      string
}

// Empty reports whether the attempt produced no usable signal.
func (r EnrichmentResult) Empty() bool {
	return r.Phone == "" && r.Website == "" && r.Rating == nil
}

// MatchAssignment is a committed link between one listing phone and one
// business record. Within a matching run a phone appears in at most one
// assignment and a record id appears in at most one assignment.
type MatchAssignment struct {
	RecordID    int64   `json:"record_id"`
	Phone       string  `json:"phone"`
	Score       float64 `json:"score"`
	Strategy    string  `json:"strategy"`
	SourceName  string  `json:"source_name"`
	MatchedName string  `json:"matched_name"`
}

// RunStats aggregates counters for one engine run. Snapshotted into the
// checkpoint artifact; mutated only under the owning engine's lock.
type RunStats struct {
	Processed   int `json:"processed"`
	NewPhones   int `json:"new_phones"`
	NewWebsites int `json:"new_websites"`
	NewRatings  int `json:"new_ratings"`
	Errors      int `json:"errors"`
	Blocked     int `json:"blocked"`
}
