package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annuaire-pro/enrich-cli/internal/model"
)

func TestBuildQueryPrefersCommercialName(t *testing.T) {
	rec := model.BusinessRecord{
		Name:  "SARL DUPONT PLOMBERIE (Dupont Plomberie Express)",
		City:  "Nice",
		Trade: "plombier",
	}

	q := BuildQuery(rec)
	assert.Contains(t, q, "Dupont Plomberie Express")
	assert.Contains(t, q, "Nice")
	assert.Contains(t, q, "plombier")
	assert.Contains(t, q, "téléphone avis")
	assert.NotContains(t, q, "SARL")
	assert.NotContains(t, q, "DUPONT PLOMBERIE")
}

func TestBuildQueryStripsLegalForms(t *testing.T) {
	rec := model.BusinessRecord{
		Name:  "Ets. Durand S.A.R.L.",
		City:  "Lyon",
		Trade: "couvreur",
	}

	q := BuildQuery(rec)
	assert.Contains(t, q, "Durand")
	assert.Contains(t, q, "Lyon")
	assert.Contains(t, q, "couvreur")
	assert.NotContains(t, q, "SARL")
	assert.NotContains(t, q, "Ets")
}

func TestBuildQueryDeterministic(t *testing.T) {
	rec := model.BusinessRecord{Name: "Moreau Elec", City: "Paris", Trade: "electricien"}
	assert.Equal(t, BuildQuery(rec), BuildQuery(rec))
}

func TestBuildQueryEmptyFields(t *testing.T) {
	q := BuildQuery(model.BusinessRecord{Name: "Durand"})
	assert.Equal(t, "Durand téléphone avis", q)
}

func TestTradeKeyword(t *testing.T) {
	// accent-insensitive table hit
	assert.Equal(t, "électricien", tradeKeyword("Électricien"))
	assert.Equal(t, "plombier", tradeKeyword("plomberie"))
	assert.Equal(t, "peintre en bâtiment", tradeKeyword("peinture"))
	// unknown trade falls back to the raw tag
	assert.Equal(t, "ferronnier", tradeKeyword("Ferronnier"))
	assert.Equal(t, "", tradeKeyword("  "))
}
