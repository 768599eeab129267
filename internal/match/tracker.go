package match

import (
	"sort"

	"go.uber.org/zap"

	"github.com/annuaire-pro/enrich-cli/internal/model"
)

// Tracker enforces the bijective assignment invariant: across one matching
// run a phone joins at most one record and a record takes at most one phone.
// Commits are first-come-first-served; a later candidate is rejected even
// when its score is higher.
type Tracker struct {
	assignedPhones  map[string]bool
	assignedRecords map[int64]bool
	assignments     []model.MatchAssignment
	rejected        int
}

func NewTracker() *Tracker {
	return &Tracker{
		assignedPhones:  map[string]bool{},
		assignedRecords: map[int64]bool{},
	}
}

// Free reports whether both sides of a candidate pair are still unassigned.
// Strategies call this before scoring to skip settled pairs early.
func (t *Tracker) Free(recordID int64, phone string) bool {
	return !t.assignedRecords[recordID] && !t.assignedPhones[phone]
}

// RecordFree reports whether a record has no assignment yet.
func (t *Tracker) RecordFree(recordID int64) bool {
	return !t.assignedRecords[recordID]
}

// PhoneFree reports whether a phone has no assignment yet.
func (t *Tracker) PhoneFree(phone string) bool {
	return !t.assignedPhones[phone]
}

// Accept commits an assignment when both sides are free. Returns false and
// counts a rejection otherwise.
func (t *Tracker) Accept(a model.MatchAssignment) bool {
	if a.Phone == "" || a.RecordID == 0 {
		return false
	}
	if t.assignedRecords[a.RecordID] || t.assignedPhones[a.Phone] {
		t.rejected++
		zap.L().Debug("assignment rejected",
			zap.Int64("record_id", a.RecordID),
			zap.String("phone", a.Phone),
			zap.String("strategy", a.Strategy),
			zap.Float64("score", a.Score),
		)
		return false
	}
	t.assignedRecords[a.RecordID] = true
	t.assignedPhones[a.Phone] = true
	t.assignments = append(t.assignments, a)
	return true
}

// Assignments returns the committed links in acceptance order.
func (t *Tracker) Assignments() []model.MatchAssignment {
	return t.assignments
}

// Rejected returns how many candidates failed the bijectivity check.
func (t *Tracker) Rejected() int {
	return t.rejected
}

// Dedupe re-checks a finished assignment set: sorted by score descending
// (record id breaks ties for determinism), each entry passes the same
// two-set exclusion the tracker applies on commit. With a single tracker
// this drops nothing; it is the guarantee that the published set is
// bijective no matter how it was assembled.
func Dedupe(assignments []model.MatchAssignment) []model.MatchAssignment {
	sorted := make([]model.MatchAssignment, len(assignments))
	copy(sorted, assignments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].RecordID < sorted[j].RecordID
	})

	phones := make(map[string]bool, len(sorted))
	records := make(map[int64]bool, len(sorted))
	out := sorted[:0]
	for _, a := range sorted {
		if phones[a.Phone] || records[a.RecordID] {
			zap.L().Warn("dropping overlapping assignment",
				zap.Int64("record_id", a.RecordID),
				zap.String("phone", a.Phone),
				zap.String("strategy", a.Strategy),
			)
			continue
		}
		phones[a.Phone] = true
		records[a.RecordID] = true
		out = append(out, a)
	}
	return out
}
