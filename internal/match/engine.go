package match

import (
	"context"

	"go.uber.org/zap"

	"github.com/annuaire-pro/enrich-cli/internal/audit"
	"github.com/annuaire-pro/enrich-cli/internal/store"
)

// EngineConfig selects the work for one matching run.
type EngineConfig struct {
	Departments []string
	ListingsDir string
	GeoExpand   bool
	DryRun      bool
	MaxLoaded   int
	Thresholds  Thresholds

	// DisableInitials drops the acronym pass, the lowest-precision strategy.
	DisableInitials bool
}

// Summary aggregates the outcome of a matching run.
type Summary struct {
	Candidates int            `json:"candidates"`
	Assigned   int64          `json:"assigned"`
	Rejected   int            `json:"rejected"`
	ByStrategy map[string]int `json:"by_strategy"`
}

// Engine runs the strategy cascade over each department partition and
// persists the accepted assignments. Single-threaded and deterministic: the
// same inputs always produce the same assignments.
type Engine struct {
	cfg     EngineConfig
	records store.RecordStore
	loader  *Loader
	trail   *audit.Trail
}

func NewEngine(cfg EngineConfig, records store.RecordStore, trail *audit.Trail) *Engine {
	cfg.Thresholds.withDefaults()
	return &Engine{
		cfg:     cfg,
		records: records,
		loader:  NewLoader(cfg.ListingsDir, cfg.MaxLoaded),
		trail:   trail,
	}
}

// Run executes the cascade for every configured department, then commits the
// assignment set in one bulk pass.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	tracker := NewTracker()
	keyword := &keywordStrategy{
		threshold:  e.cfg.Thresholds.PostalKeyword,
		minWordLen: e.cfg.Thresholds.MinKeywordLen,
	}

	for _, dept := range e.cfg.Departments {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		if err := e.matchDepartment(ctx, dept, tracker, keyword); err != nil {
			zap.L().Error("department matching failed, skipping partition",
				zap.String("department", dept), zap.Error(err))
		}
	}

	assignments := Dedupe(tracker.Assignments())
	summary := Summary{
		Candidates: len(assignments) + tracker.Rejected(),
		Rejected:   tracker.Rejected(),
		ByStrategy: map[string]int{},
	}
	for _, a := range assignments {
		summary.ByStrategy[a.Strategy]++
		if e.trail != nil {
			e.trail.Match(a)
		}
	}

	if e.cfg.DryRun {
		zap.L().Info("dry run: skipping persistence",
			zap.Int("assignments", len(assignments)))
		return summary, nil
	}

	written, err := e.records.BulkAssignPhones(ctx, assignments)
	if err != nil {
		return summary, err
	}
	summary.Assigned = written
	zap.L().Info("matching run finished",
		zap.Int("candidates", summary.Candidates),
		zap.Int64("assigned", written),
		zap.Int("rejected", summary.Rejected),
	)
	return summary, nil
}

func (e *Engine) matchDepartment(ctx context.Context, dept string, tracker *Tracker, keyword *keywordStrategy) error {
	listings, err := e.loader.Load(dept)
	if err != nil {
		return err
	}
	records, err := e.records.SelectMissingPhone(ctx, dept)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		zap.L().Debug("no phoneless records", zap.String("department", dept))
		return nil
	}

	recIdx := NewRecordIndex(records)
	before := len(tracker.Assignments())

	if len(listings) > 0 {
		listIdx := NewListingIndex(listings)
		for _, strategy := range cascade(e.cfg.Thresholds, e.cfg.DisableInitials) {
			strategy.Run(recIdx, listIdx, tracker)
		}
		// the postal+keyword pass belongs to the geographic variant: it
		// exists to keep expansion into neighbors strict, so it only runs
		// when expansion is on
		if e.cfg.GeoExpand {
			keyword.Run(recIdx, listIdx, tracker)
		}
	}

	if e.cfg.GeoExpand {
		e.expandToNeighbors(dept, recIdx, tracker, keyword)
	}

	zap.L().Info("department matched",
		zap.String("department", dept),
		zap.Int("records", len(records)),
		zap.Int("listings", len(listings)),
		zap.Int("assigned", len(tracker.Assignments())-before),
	)
	return nil
}

// expandToNeighbors retries unassigned records against adjacent departments'
// listings through the keyword fallback only.
func (e *Engine) expandToNeighbors(dept string, recIdx *RecordIndex, tracker *Tracker, keyword *keywordStrategy) {
	remaining := 0
	for _, r := range recIdx.All() {
		if tracker.RecordFree(r.record.ID) {
			remaining++
		}
	}
	if remaining == 0 {
		return
	}

	for _, neighbor := range AdjacentDepartments(dept) {
		listings, err := e.loader.Load(neighbor)
		if err != nil {
			zap.L().Debug("neighbor listings unavailable",
				zap.String("department", neighbor), zap.Error(err))
			continue
		}
		keyword.RunExpanded(recIdx, NewListingIndex(listings), tracker)
	}
}
