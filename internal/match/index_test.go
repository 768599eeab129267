package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annuaire-pro/enrich-cli/internal/model"
)

func TestCityFromAddress(t *testing.T) {
	assert.Equal(t, "Montpellier", cityFromAddress("12 rue des Fleurs 34000 Montpellier"))
	assert.Equal(t, "Aix-en-Provence", cityFromAddress("Zone artisanale 13090 Aix-en-Provence"))
	assert.Equal(t, "", cityFromAddress("12 rue des Fleurs"))
	assert.Equal(t, "", cityFromAddress(""))
}

func TestSplitStreet(t *testing.T) {
	num, text := splitStreet("12 rue des Lilas")
	assert.Equal(t, "12", num)
	assert.Equal(t, "rue des lilas", text)

	num, text = splitStreet("Chemin de la Côte")
	assert.Equal(t, "", num)
	assert.Equal(t, "chemin de la cote", text)

	num, _ = splitStreet("  4 bis avenue Foch")
	assert.Equal(t, "4", num)
}

func TestListingIndexGroupsByPostal(t *testing.T) {
	idx := NewListingIndex([]model.ListingRecord{
		{Name: "Durand", Phone: "0612345678", PostalCode: "75011"},
		{Name: "Moreau", Phone: "0498765432", PostalCode: "75016"},
		{Name: "Girard", Phone: "0143215678", PostalCode: "75011"},
		{Name: "Sans Telephone", PostalCode: "75011"},
	})

	assert.Equal(t, []string{"75011", "75016"}, idx.PostalCodes())
	assert.Len(t, idx.Postal("75011"), 2)
	assert.Len(t, idx.All(), 3, "phoneless listings are not indexed")
}

func TestRecordIndexKeepsOnlyPhoneless(t *testing.T) {
	idx := NewRecordIndex([]model.BusinessRecord{
		{ID: 3, Name: "Durand", PostalCode: "75011"},
		{ID: 1, Name: "Moreau", PostalCode: "75011", Phone: "0612345678"},
		{ID: 2, Name: "Girard", PostalCode: "75011"},
	})

	entries := idx.Postal("75011")
	assert.Len(t, entries, 2)
	// stable ascending id order
	assert.Equal(t, int64(2), entries[0].record.ID)
	assert.Equal(t, int64(3), entries[1].record.ID)
}

func TestListingEntryFallsBackToAddressCity(t *testing.T) {
	e := newListingEntry(model.ListingRecord{
		Name:   "Faure et Fils",
		Phone:  "0467112233",
		Street: "12 rue des Fleurs 34000 Montpellier",
	})
	assert.Equal(t, "montpellier", e.cityKey)
	assert.Equal(t, "12", e.streetNum)
}
