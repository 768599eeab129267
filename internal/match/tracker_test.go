package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annuaire-pro/enrich-cli/internal/model"
)

func TestTrackerRejectsDuplicatePhone(t *testing.T) {
	tr := NewTracker()

	assert.True(t, tr.Accept(model.MatchAssignment{
		RecordID: 1, Phone: "0612345678", Score: 0.40, Strategy: "address",
	}))

	// a higher score does not unseat the committed assignment
	assert.False(t, tr.Accept(model.MatchAssignment{
		RecordID: 2, Phone: "0612345678", Score: 0.95, Strategy: "reverse_token",
	}))

	assert.Len(t, tr.Assignments(), 1)
	assert.Equal(t, int64(1), tr.Assignments()[0].RecordID)
	assert.Equal(t, 1, tr.Rejected())
}

func TestTrackerRejectsDuplicateRecord(t *testing.T) {
	tr := NewTracker()

	assert.True(t, tr.Accept(model.MatchAssignment{RecordID: 1, Phone: "0612345678"}))
	assert.False(t, tr.Accept(model.MatchAssignment{RecordID: 1, Phone: "0498765432"}))

	assert.False(t, tr.RecordFree(1))
	assert.True(t, tr.PhoneFree("0498765432"))
}

func TestTrackerRejectsIncompleteAssignment(t *testing.T) {
	tr := NewTracker()

	assert.False(t, tr.Accept(model.MatchAssignment{RecordID: 1}))
	assert.False(t, tr.Accept(model.MatchAssignment{Phone: "0612345678"}))
	assert.Empty(t, tr.Assignments())
	assert.Equal(t, 0, tr.Rejected())
}

func TestDedupeDropsOverlapsByScore(t *testing.T) {
	// an overlapping set built outside the tracker, as if merged from
	// several sources
	in := []model.MatchAssignment{
		{RecordID: 1, Phone: "0612345678", Score: 0.40, Strategy: "address"},
		{RecordID: 2, Phone: "0612345678", Score: 0.90, Strategy: "reverse_token"},
		{RecordID: 2, Phone: "0498765432", Score: 0.30, Strategy: "city_word"},
		{RecordID: 3, Phone: "0455555555", Score: 0.50, Strategy: "address"},
	}

	out := Dedupe(in)

	assert.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].RecordID)
	assert.Equal(t, "0612345678", out[0].Phone)
	assert.Equal(t, int64(3), out[1].RecordID)
}

func TestDedupeKeepsBijectiveSetIntact(t *testing.T) {
	tr := NewTracker()
	tr.Accept(model.MatchAssignment{RecordID: 1, Phone: "0612345678", Score: 0.40})
	tr.Accept(model.MatchAssignment{RecordID: 2, Phone: "0498765432", Score: 0.90})

	out := Dedupe(tr.Assignments())

	assert.Len(t, out, 2)
	// higher score first after the re-sort
	assert.Equal(t, int64(2), out[0].RecordID)
}

func TestTrackerFree(t *testing.T) {
	tr := NewTracker()
	assert.True(t, tr.Free(1, "0612345678"))

	tr.Accept(model.MatchAssignment{RecordID: 1, Phone: "0612345678"})
	assert.False(t, tr.Free(1, "0400000000"))
	assert.False(t, tr.Free(2, "0612345678"))
	assert.True(t, tr.Free(2, "0400000000"))
}
