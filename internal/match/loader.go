package match

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/annuaire-pro/enrich-cli/internal/model"
	"github.com/annuaire-pro/enrich-cli/internal/normalize"
)

// Loader reads per-department listing partitions from <dir>/<dept>.json and
// keeps at most maxLoaded of them in memory, evicting the least recently
// used. Listings with an invalid or premium-rate phone are dropped; duplicate
// phones keep their first occurrence.
type Loader struct {
	dir       string
	maxLoaded int

	cache map[string][]model.ListingRecord
	order []string
}

func NewLoader(dir string, maxLoaded int) *Loader {
	if maxLoaded <= 0 {
		maxLoaded = 6
	}
	return &Loader{
		dir:       dir,
		maxLoaded: maxLoaded,
		cache:     map[string][]model.ListingRecord{},
	}
}

// Load returns the cleaned listings of one department partition.
func (l *Loader) Load(dept string) ([]model.ListingRecord, error) {
	if listings, ok := l.cache[dept]; ok {
		l.touch(dept)
		return listings, nil
	}

	path := filepath.Join(l.dir, dept+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "match: read listings %s", path)
	}

	var raw []model.ListingRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "match: parse listings %s", path)
	}

	listings := cleanListings(dept, raw)
	l.insert(dept, listings)
	return listings, nil
}

// cleanListings normalizes phones, drops unusable entries, and deduplicates
// by phone with first occurrence winning.
func cleanListings(dept string, raw []model.ListingRecord) []model.ListingRecord {
	seen := map[string]bool{}
	out := make([]model.ListingRecord, 0, len(raw))
	dropped := 0
	for _, entry := range raw {
		phone, ok := normalize.Phone(entry.Phone)
		if !ok || entry.Name == "" {
			dropped++
			continue
		}
		if seen[phone] {
			dropped++
			continue
		}
		seen[phone] = true
		entry.Phone = phone
		if entry.Department == "" {
			entry.Department = dept
		}
		out = append(out, entry)
	}
	if dropped > 0 {
		zap.L().Debug("listings dropped during load",
			zap.String("department", dept),
			zap.Int("dropped", dropped),
			zap.Int("kept", len(out)),
		)
	}
	return out
}

func (l *Loader) touch(dept string) {
	for i, d := range l.order {
		if d == dept {
			l.order = append(append(l.order[:i:i], l.order[i+1:]...), dept)
			return
		}
	}
}

func (l *Loader) insert(dept string, listings []model.ListingRecord) {
	if len(l.order) >= l.maxLoaded {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.cache, oldest)
	}
	l.cache[dept] = listings
	l.order = append(l.order, dept)
}
