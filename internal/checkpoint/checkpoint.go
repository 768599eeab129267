// Package checkpoint persists per-department scraping progress so a run can
// resume after a restart without redoing or losing work.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/annuaire-pro/enrich-cli/internal/model"
)

// Checkpoint is the durable progress record for one instance. It is written
// periodically and at shutdown, and idempotently overwritten, never deleted.
type Checkpoint struct {
	Instance            string           `json:"instance"`
	CompletedPartitions []string         `json:"completedPartitions"`
	LastIDByPartition   map[string]int64 `json:"lastIdByPartition"`
	Stats               model.RunStats   `json:"stats"`
	SavedAt             time.Time        `json:"savedAt"`
}

// New returns an empty checkpoint for the given instance.
func New(instance string) *Checkpoint {
	return &Checkpoint{
		Instance:          instance,
		LastIDByPartition: make(map[string]int64),
	}
}

// Completed reports whether a department partition has been fully processed.
func (c *Checkpoint) Completed(dept string) bool {
	for _, d := range c.CompletedPartitions {
		if d == dept {
			return true
		}
	}
	return false
}

// MarkCompleted records a department as fully processed.
func (c *Checkpoint) MarkCompleted(dept string) {
	if !c.Completed(dept) {
		c.CompletedPartitions = append(c.CompletedPartitions, dept)
	}
}

// LastID returns the highest record id below which a department is fully
// processed, 0 when none. Records are processed in ascending id order, so a
// resumed run skips ids at or below this cursor.
func (c *Checkpoint) LastID(dept string) int64 {
	return c.LastIDByPartition[dept]
}

// SetLastID records the resume cursor for a department.
func (c *Checkpoint) SetLastID(dept string, id int64) {
	c.LastIDByPartition[dept] = id
}

// Store reads and writes checkpoint artifacts. Each instance identifier maps
// to a distinct file so concurrent runs over non-overlapping partitions do
// not clobber each other.
type Store struct {
	dir      string
	instance string
}

// NewStore creates a checkpoint store rooted at dir.
func NewStore(dir, instance string) *Store {
	return &Store{dir: dir, instance: instance}
}

// Path returns the checkpoint file location for this instance.
func (s *Store) Path() string {
	return filepath.Join(s.dir, fmt.Sprintf("checkpoint-%s.json", s.instance))
}

// Load returns the prior checkpoint when resume is set and one exists,
// otherwise a fresh one.
func (s *Store) Load(resume bool) (*Checkpoint, error) {
	if !resume {
		return New(s.instance), nil
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return New(s.instance), nil
		}
		return nil, eris.Wrapf(err, "checkpoint: read %s", s.Path())
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, eris.Wrapf(err, "checkpoint: parse %s", s.Path())
	}
	if cp.LastIDByPartition == nil {
		cp.LastIDByPartition = make(map[string]int64)
	}
	cp.Instance = s.instance
	return &cp, nil
}

// Save writes the checkpoint synchronously via a temp file and rename, so a
// crash mid-save never corrupts the previous artifact.
func (s *Store) Save(cp *Checkpoint) error {
	cp.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return eris.Wrap(err, "checkpoint: marshal")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return eris.Wrapf(err, "checkpoint: create dir %s", s.dir)
	}

	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "checkpoint: write %s", tmp)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return eris.Wrapf(err, "checkpoint: rename %s", tmp)
	}
	return nil
}
