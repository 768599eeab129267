package match

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annuaire-pro/enrich-cli/internal/model"
	"github.com/annuaire-pro/enrich-cli/internal/store"
)

func newMatchStore(t *testing.T, records ...model.BusinessRecord) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "records.db"), 10)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	for i := range records {
		require.NoError(t, s.InsertRecord(context.Background(), &records[i]))
	}
	return s
}

func TestEngineLinksAndPersists(t *testing.T) {
	ctx := context.Background()
	s := newMatchStore(t,
		model.BusinessRecord{Name: "MOREAU ELEC SARL", Street: "12 rue de Rivoli", PostalCode: "75001", Department: "75"},
	)

	listingsDir := t.TempDir()
	writeListings(t, listingsDir, "75", []model.ListingRecord{
		{Name: "Electricité Moreau", Phone: "0612345678", PostalCode: "75001"},
	})

	eng := NewEngine(EngineConfig{
		Departments: []string{"75"},
		ListingsDir: listingsDir,
	}, s, nil)

	summary, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Assigned)
	assert.Equal(t, 1, summary.ByStrategy["reverse_token"])

	missing, err := s.SelectMissingPhone(ctx, "75")
	require.NoError(t, err)
	assert.Empty(t, missing, "record received the listing phone")
}

func TestEngineDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := newMatchStore(t,
		model.BusinessRecord{Name: "MOREAU ELEC SARL", PostalCode: "75001", Department: "75"},
	)

	listingsDir := t.TempDir()
	writeListings(t, listingsDir, "75", []model.ListingRecord{
		{Name: "Electricité Moreau", Phone: "0612345678", PostalCode: "75001"},
	})

	eng := NewEngine(EngineConfig{
		Departments: []string{"75"},
		ListingsDir: listingsDir,
		DryRun:      true,
	}, s, nil)

	summary, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Assigned)
	assert.Equal(t, 1, summary.ByStrategy["reverse_token"])

	missing, err := s.SelectMissingPhone(ctx, "75")
	require.NoError(t, err)
	assert.Len(t, missing, 1)
}

func TestEngineGeoExpansion(t *testing.T) {
	ctx := context.Background()
	s := newMatchStore(t,
		model.BusinessRecord{Name: "Glaziou Couverture", PostalCode: "75001", Department: "75"},
	)

	// nothing at home; the phone lives in adjacent department 92
	listingsDir := t.TempDir()
	writeListings(t, listingsDir, "75", nil)
	writeListings(t, listingsDir, "92", []model.ListingRecord{
		{Name: "Glaziou", Phone: "0147556677", PostalCode: "92100"},
	})

	eng := NewEngine(EngineConfig{
		Departments: []string{"75"},
		ListingsDir: listingsDir,
		GeoExpand:   true,
	}, s, nil)

	summary, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Assigned)
	assert.Equal(t, 1, summary.ByStrategy["postal_keyword"])
}

func TestEngineNoGeoExpansionStaysHome(t *testing.T) {
	ctx := context.Background()
	s := newMatchStore(t,
		model.BusinessRecord{Name: "Glaziou Couverture", PostalCode: "75001", Department: "75"},
	)

	// the phone exists only in an adjacent department; without the
	// geographic variant nothing may reach for it
	listingsDir := t.TempDir()
	writeListings(t, listingsDir, "75", nil)
	writeListings(t, listingsDir, "92", []model.ListingRecord{
		{Name: "Glaziou", Phone: "0147556677", PostalCode: "92100"},
	})

	eng := NewEngine(EngineConfig{
		Departments: []string{"75"},
		ListingsDir: listingsDir,
	}, s, nil)

	summary, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Assigned)
	assert.Empty(t, summary.ByStrategy)

	missing, err := s.SelectMissingPhone(ctx, "75")
	require.NoError(t, err)
	assert.Len(t, missing, 1)
}

func TestEngineDuplicateListingPhones(t *testing.T) {
	ctx := context.Background()
	s := newMatchStore(t,
		model.BusinessRecord{Name: "Boucherie Sanzot", Street: "12 rue des Lilas", PostalCode: "75011", Department: "75"},
		model.BusinessRecord{Name: "Sanzot Traiteur", Street: "12 rue des Lilas", PostalCode: "75011", Department: "75"},
	)

	// the loader keeps the first occurrence of a duplicated phone, so only
	// one record can be linked
	listingsDir := t.TempDir()
	writeListings(t, listingsDir, "75", []model.ListingRecord{
		{Name: "Boucherie Sanzot", Phone: "0143215678", Street: "12 rue des Lilas", PostalCode: "75011"},
		{Name: "Sanzot Traiteur", Phone: "0143215678", Street: "12 rue des Lilas", PostalCode: "75011"},
	})

	eng := NewEngine(EngineConfig{
		Departments: []string{"75"},
		ListingsDir: listingsDir,
	}, s, nil)

	summary, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Assigned)

	missing, err := s.SelectMissingPhone(ctx, "75")
	require.NoError(t, err)
	assert.Len(t, missing, 1)
}
