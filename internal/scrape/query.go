// Package scrape drives the enrichment engine: query construction, the
// worker pool, and the per-department run loop.
package scrape

import (
	_ "embed"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/annuaire-pro/enrich-cli/internal/model"
	"github.com/annuaire-pro/enrich-cli/internal/normalize"
)

//go:embed trades.yaml
var tradesYAML []byte

var tradeTerms = loadTradeTerms()

func loadTradeTerms() map[string]string {
	terms := map[string]string{}
	if err := yaml.Unmarshal(tradesYAML, &terms); err != nil {
		zap.L().Warn("trade keyword table failed to parse, using raw trade tags", zap.Error(err))
		return map[string]string{}
	}
	return terms
}

// querySuffix narrows results toward pages that carry contact details and
// review widgets.
const querySuffix = "téléphone avis"

func tradeKeyword(trade string) string {
	key := normalize.Fold(strings.TrimSpace(trade))
	if term, ok := tradeTerms[key]; ok {
		return term
	}
	return strings.ToLower(strings.TrimSpace(trade))
}

// BuildQuery derives the search text for one record. The parenthesized
// commercial name wins over the legal name; legal forms never reach the
// query. Same record, same query.
func BuildQuery(rec model.BusinessRecord) string {
	name, ok := normalize.CommercialName(rec.Name)
	if !ok {
		name = normalize.StripLegalForms(rec.Name)
	}

	parts := make([]string, 0, 4)
	if name != "" {
		parts = append(parts, name)
	}
	if city := strings.TrimSpace(rec.City); city != "" {
		parts = append(parts, city)
	}
	if kw := tradeKeyword(rec.Trade); kw != "" {
		parts = append(parts, kw)
	}
	parts = append(parts, querySuffix)
	return strings.Join(parts, " ")
}
