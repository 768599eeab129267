package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annuaire-pro/enrich-cli/internal/model"
)

func readEvents(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	var events []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, sc.Err())
	return events
}

func TestTrailWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	trail, err := Open(dir, "a", "run-42")
	require.NoError(t, err)

	rating := 4.6
	trail.Enrichment(7, "Durand Plomberie", "Durand Plomberie Paris plombier téléphone avis",
		model.EnrichmentResult{Phone: "0612345678", Rating: &rating, ReviewCount: 128})
	trail.Match(model.MatchAssignment{
		RecordID: 9, Phone: "0498765432", Strategy: "reverse_token",
		Score: 0.41, SourceName: "MOREAU ELEC SARL", MatchedName: "Electricité Moreau",
	})
	trail.Rejection(model.MatchAssignment{RecordID: 11, Phone: "0498765432", Strategy: "address", Score: 0.55},
		"phone already assigned")
	require.NoError(t, trail.Close())

	events := readEvents(t, filepath.Join(dir, "audit-a.jsonl"))
	require.Len(t, events, 3)

	assert.Equal(t, "enrichment", events[0]["event"])
	assert.Equal(t, "run-42", events[0]["run_id"])
	assert.Equal(t, "0612345678", events[0]["phone"])
	assert.EqualValues(t, 128, events[0]["review_count"])
	_, hasWebsite := events[0]["website"]
	assert.False(t, hasWebsite, "empty fields omitted")

	assert.Equal(t, "match", events[1]["event"])
	assert.Equal(t, "reverse_token", events[1]["strategy"])
	assert.InDelta(t, 0.41, events[1]["score"].(float64), 1e-9)

	assert.Equal(t, "rejection", events[2]["event"])
	assert.Equal(t, "phone already assigned", events[2]["reason"])
}

func TestTrailAppendsAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir, "a", "run-1")
	require.NoError(t, err)
	first.Match(model.MatchAssignment{RecordID: 1, Phone: "0612345678", Strategy: "address", Score: 0.5})
	require.NoError(t, first.Close())

	second, err := Open(dir, "a", "run-2")
	require.NoError(t, err)
	second.Match(model.MatchAssignment{RecordID: 2, Phone: "0498765432", Strategy: "initials", Score: 0.3})
	require.NoError(t, second.Close())

	events := readEvents(t, filepath.Join(dir, "audit-a.jsonl"))
	require.Len(t, events, 2)
	assert.Equal(t, "run-1", events[0]["run_id"])
	assert.Equal(t, "run-2", events[1]["run_id"])
}

func TestTrailInstanceNamespacing(t *testing.T) {
	dir := t.TempDir()

	a, err := Open(dir, "a", "run-1")
	require.NoError(t, err)
	b, err := Open(dir, "b", "run-1")
	require.NoError(t, err)
	a.Match(model.MatchAssignment{RecordID: 1, Phone: "0612345678"})
	require.NoError(t, a.Close())
	require.NoError(t, b.Close())

	require.Len(t, readEvents(t, filepath.Join(dir, "audit-a.jsonl")), 1)
	assert.Empty(t, readEvents(t, filepath.Join(dir, "audit-b.jsonl")))
}
