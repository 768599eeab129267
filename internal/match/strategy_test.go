package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annuaire-pro/enrich-cli/internal/model"
)

func runStrategy(s Strategy, records []model.BusinessRecord, listings []model.ListingRecord) *Tracker {
	tr := NewTracker()
	s.Run(NewRecordIndex(records), NewListingIndex(listings), tr)
	return tr
}

func TestAddressStrategyMatchesSharedStreet(t *testing.T) {
	tr := runStrategy(&addressStrategy{threshold: 0.35},
		[]model.BusinessRecord{
			{ID: 1, Name: "Boucherie Sanzot", Street: "12 rue des Lilas", PostalCode: "75011"},
		},
		[]model.ListingRecord{
			{Name: "Boucherie Sanzot", Phone: "0143215678", Street: "12 rue des Lilas", PostalCode: "75011"},
		})

	require.Len(t, tr.Assignments(), 1)
	a := tr.Assignments()[0]
	assert.Equal(t, int64(1), a.RecordID)
	assert.Equal(t, "0143215678", a.Phone)
	assert.Equal(t, "address", a.Strategy)
	assert.GreaterOrEqual(t, a.Score, 0.35)
}

func TestAddressStrategyStreetNumberGate(t *testing.T) {
	tr := runStrategy(&addressStrategy{threshold: 0.35},
		[]model.BusinessRecord{
			{ID: 1, Name: "Boucherie Sanzot", Street: "14 rue des Lilas", PostalCode: "75011"},
		},
		[]model.ListingRecord{
			{Name: "Boucherie Sanzot", Phone: "0143215678", Street: "12 rue des Lilas", PostalCode: "75011"},
		})

	assert.Empty(t, tr.Assignments(), "differing street numbers block the pair")
}

func TestReverseTokenStrategyScenario(t *testing.T) {
	tr := runStrategy(&reverseTokenStrategy{threshold: 0.30},
		[]model.BusinessRecord{
			{ID: 7, Name: "MOREAU ELEC SARL", Street: "12 rue de Rivoli", PostalCode: "75001"},
		},
		[]model.ListingRecord{
			{Name: "Electricité Moreau", Phone: "0612345678", PostalCode: "75001"},
		})

	require.Len(t, tr.Assignments(), 1)
	a := tr.Assignments()[0]
	assert.Equal(t, int64(7), a.RecordID)
	assert.Equal(t, "0612345678", a.Phone)
	assert.Equal(t, "reverse_token", a.Strategy)
	assert.GreaterOrEqual(t, a.Score, 0.30)
}

func TestReverseTokenStrategyIgnoresOtherPostal(t *testing.T) {
	tr := runStrategy(&reverseTokenStrategy{threshold: 0.30},
		[]model.BusinessRecord{
			{ID: 7, Name: "MOREAU ELEC SARL", PostalCode: "75002"},
		},
		[]model.ListingRecord{
			{Name: "Electricité Moreau", Phone: "0612345678", PostalCode: "75001"},
		})

	assert.Empty(t, tr.Assignments())
}

func TestCityWordStrategyParsesCityFromAddress(t *testing.T) {
	tr := runStrategy(&cityWordStrategy{threshold: 0.25},
		[]model.BusinessRecord{
			{ID: 3, Name: "Faure Traiteur", City: "Montpellier", PostalCode: "34070", Department: "34"},
		},
		[]model.ListingRecord{
			{Name: "Faure et Fils", Phone: "0467112233", Street: "12 rue des Fleurs 34000 Montpellier", Department: "34"},
		})

	require.Len(t, tr.Assignments(), 1)
	a := tr.Assignments()[0]
	assert.Equal(t, "city_word", a.Strategy)
	assert.Equal(t, "0467112233", a.Phone)
	assert.GreaterOrEqual(t, a.Score, 0.25)
}

func TestCityWordStrategyRequiresTokenOverlap(t *testing.T) {
	tr := runStrategy(&cityWordStrategy{threshold: 0.25},
		[]model.BusinessRecord{
			{ID: 3, Name: "Faure Traiteur", City: "Montpellier", Department: "34"},
		},
		[]model.ListingRecord{
			{Name: "Girard Boulangerie", Phone: "0467112233", City: "Montpellier", Department: "34"},
		})

	assert.Empty(t, tr.Assignments())
}

func TestInitialsStrategyLiteralAcronym(t *testing.T) {
	tr := runStrategy(&initialsStrategy{floor: 0.15, score: 0.30},
		[]model.BusinessRecord{
			{ID: 5, Name: "TBC SARL", PostalCode: "69003"},
		},
		[]model.ListingRecord{
			{Name: "Techni Bois Concept", Phone: "0472334455", PostalCode: "69003"},
		})

	require.Len(t, tr.Assignments(), 1)
	a := tr.Assignments()[0]
	assert.Equal(t, "initials", a.Strategy)
	assert.InDelta(t, 0.30, a.Score, 1e-9)
}

func TestInitialsStrategyInitialsToInitials(t *testing.T) {
	tr := runStrategy(&initialsStrategy{floor: 0.15, score: 0.30},
		[]model.BusinessRecord{
			{ID: 5, Name: "Menuiserie Girard Lefevre", PostalCode: "69003"},
		},
		[]model.ListingRecord{
			{Name: "Girard Lefebvre", Phone: "0472334455", PostalCode: "69003"},
		})

	require.Len(t, tr.Assignments(), 1)
	assert.Equal(t, int64(5), tr.Assignments()[0].RecordID)
}

func TestInitialsStrategySimilarityFloor(t *testing.T) {
	// same initials, but the names share nothing
	tr := runStrategy(&initialsStrategy{floor: 0.15, score: 0.30},
		[]model.BusinessRecord{
			{ID: 5, Name: "Garnier Lemoine", PostalCode: "69003"},
		},
		[]model.ListingRecord{
			{Name: "Grosjean Labat", Phone: "0472334455", PostalCode: "69003"},
		})

	assert.Empty(t, tr.Assignments())
}

func TestKeywordStrategyStricterThreshold(t *testing.T) {
	s := &keywordStrategy{threshold: 0.45, minWordLen: 4}

	tr := NewTracker()
	s.Run(NewRecordIndex([]model.BusinessRecord{
		{ID: 9, Name: "Glaziou Couverture", PostalCode: "29200"},
	}), NewListingIndex([]model.ListingRecord{
		{Name: "Glaziou", Phone: "0298112233", PostalCode: "29200"},
	}), tr)

	require.Len(t, tr.Assignments(), 1)
	assert.Equal(t, "postal_keyword", tr.Assignments()[0].Strategy)
	assert.GreaterOrEqual(t, tr.Assignments()[0].Score, 0.45)
}

func TestKeywordStrategyRejectsWeakOverlap(t *testing.T) {
	s := &keywordStrategy{threshold: 0.45, minWordLen: 4}

	// shared token but too much non-overlapping material to clear 0.45
	tr := NewTracker()
	s.Run(NewRecordIndex([]model.BusinessRecord{
		{ID: 9, Name: "Glaziou Hervé Jos Yann", PostalCode: "29200"},
	}), NewListingIndex([]model.ListingRecord{
		{Name: "Glaziou Marzin Quemener", Phone: "0298112233", PostalCode: "29200"},
	}), tr)

	assert.Empty(t, tr.Assignments())
}

func TestCascadeBijectivity(t *testing.T) {
	records := []model.BusinessRecord{
		{ID: 1, Name: "Boucherie Sanzot", Street: "12 rue des Lilas", PostalCode: "75011"},
		{ID: 2, Name: "Sanzot Traiteur", Street: "12 rue des Lilas", PostalCode: "75011"},
		{ID: 3, Name: "MOREAU ELEC SARL", PostalCode: "75011"},
	}
	listings := []model.ListingRecord{
		{Name: "Boucherie Sanzot", Phone: "0143215678", Street: "12 rue des Lilas", PostalCode: "75011"},
		{Name: "Electricité Moreau", Phone: "0612345678", PostalCode: "75011"},
		{Name: "Sanzot", Phone: "0143219999", PostalCode: "75011"},
	}

	tr := NewTracker()
	recIdx := NewRecordIndex(records)
	listIdx := NewListingIndex(listings)
	for _, s := range cascade(DefaultThresholds(), false) {
		s.Run(recIdx, listIdx, tr)
	}

	phones := map[string]bool{}
	ids := map[int64]bool{}
	for _, a := range tr.Assignments() {
		assert.False(t, phones[a.Phone], "phone assigned twice: %s", a.Phone)
		assert.False(t, ids[a.RecordID], "record assigned twice: %d", a.RecordID)
		phones[a.Phone] = true
		ids[a.RecordID] = true
	}
	assert.NotEmpty(t, tr.Assignments())
}
