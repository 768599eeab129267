package scrape

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/annuaire-pro/enrich-cli/internal/audit"
	"github.com/annuaire-pro/enrich-cli/internal/checkpoint"
	"github.com/annuaire-pro/enrich-cli/internal/extract"
	"github.com/annuaire-pro/enrich-cli/internal/fetcher"
	"github.com/annuaire-pro/enrich-cli/internal/model"
	"github.com/annuaire-pro/enrich-cli/internal/store"
	"github.com/annuaire-pro/enrich-cli/internal/throttle"
)

// EngineConfig selects the work for one enrichment run.
type EngineConfig struct {
	Departments     []string
	Limit           int
	CheckpointEvery int
	Resume          bool
	ShutdownGrace   time.Duration
	Pool            PoolOptions
}

func (c *EngineConfig) withDefaults() {
	if len(c.Departments) == 0 {
		c.Departments = DefaultDepartments
	}
	if c.Limit <= 0 {
		c.Limit = 5000
	}
	if c.CheckpointEvery <= 0 {
		c.CheckpointEvery = 25
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 5 * time.Second
	}
}

// Engine walks department partitions, dispatches enrichable records to the
// worker pool, and checkpoints progress. One Engine per run.
type Engine struct {
	cfg      EngineConfig
	records  store.RecordStore
	fetch    fetcher.SearchFetcher
	throttle *throttle.Controller
	ckptDir  *checkpoint.Store
	trail    *audit.Trail

	mu        sync.Mutex
	cp        *checkpoint.Checkpoint
	processed map[int64]bool
	sinceSave int

	// completion frontier for the partition being dispatched: the resume
	// cursor only advances over a contiguous prefix of completed tasks, so
	// an out-of-order completion never persists a cursor past work that is
	// still in flight.
	doneSeq  map[int]int64
	frontier int

	inflight sync.WaitGroup
}

func NewEngine(
	cfg EngineConfig,
	records store.RecordStore,
	fetch fetcher.SearchFetcher,
	thr *throttle.Controller,
	ckptDir *checkpoint.Store,
	trail *audit.Trail,
) *Engine {
	cfg.withDefaults()
	return &Engine{
		cfg:       cfg,
		records:   records,
		fetch:     fetch,
		throttle:  thr,
		ckptDir:   ckptDir,
		trail:     trail,
		processed: map[int64]bool{},
		doneSeq:   map[int]int64{},
	}
}

// Run executes the full enrichment pass. Cancellation via ctx stops dispatch,
// lets in-flight work drain, and saves a final checkpoint.
func (e *Engine) Run(ctx context.Context) (model.RunStats, error) {
	cp, err := e.ckptDir.Load(e.cfg.Resume)
	if err != nil {
		return model.RunStats{}, eris.Wrap(err, "scrape: load checkpoint")
	}
	e.cp = cp

	poolCtx, cancelPool := context.WithCancel(context.Background())
	defer cancelPool()
	pool := NewPool(e.cfg.Pool, e.throttle, e.processTask)
	pool.Start(poolCtx)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancelRun()
		return e.dispatchAll(gctx, pool)
	})
	g.Go(func() error {
		e.autosave(gctx)
		return nil
	})
	runErr := g.Wait()

	// Queued and in-flight items drain before the final save. After a
	// cancellation the workers get a grace period to finish what they
	// started, then the pool context is cut so cooldown waits and blocked
	// fetches abort instead of holding shutdown open.
	if runErr != nil {
		grace := time.AfterFunc(e.cfg.ShutdownGrace, cancelPool)
		defer grace.Stop()
	}
	e.inflight.Wait()
	cancelPool()
	pool.Wait()

	e.mu.Lock()
	stats := e.cp.Stats
	saveErr := e.ckptDir.Save(e.cp)
	e.mu.Unlock()
	if saveErr != nil {
		zap.L().Error("final checkpoint save failed", zap.Error(saveErr))
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return stats, runErr
	}
	return stats, nil
}

func (e *Engine) dispatchAll(ctx context.Context, pool *Pool) error {
	for _, dept := range e.cfg.Departments {
		e.mu.Lock()
		skip := e.cp.Completed(dept)
		afterID := e.cp.LastID(dept)
		e.doneSeq = map[int]int64{}
		e.frontier = 0
		e.mu.Unlock()
		if skip {
			continue
		}

		records, err := e.records.SelectEnrichable(ctx, dept, e.cfg.Limit, 0)
		if err != nil {
			zap.L().Error("department selection failed, skipping partition",
				zap.String("department", dept), zap.Error(err))
			e.countError()
			continue
		}
		zap.L().Info("processing department",
			zap.String("department", dept),
			zap.Int("records", len(records)),
			zap.Int64("after_id", afterID),
		)

		seq := 0
		for _, rec := range records {
			if rec.ID <= afterID {
				continue
			}
			e.mu.Lock()
			seen := e.processed[rec.ID]
			e.processed[rec.ID] = true
			e.mu.Unlock()
			if seen {
				continue
			}

			e.inflight.Add(1)
			s, id := seq, rec.ID
			t := task{
				dept:   dept,
				record: rec,
				complete: func() {
					e.recordDone(dept, s, id)
					e.inflight.Done()
				},
				release: e.inflight.Done,
			}
			seq++
			if err := pool.Dispatch(ctx, t); err != nil {
				e.inflight.Done()
				return err
			}
		}

		// All of the partition dispatched; mark it complete once drained.
		if err := e.waitDrain(ctx); err != nil {
			return err
		}
		e.mu.Lock()
		e.cp.MarkCompleted(dept)
		if err := e.ckptDir.Save(e.cp); err != nil {
			zap.L().Error("checkpoint save failed", zap.Error(err))
		}
		e.mu.Unlock()
	}
	return nil
}

// waitDrain blocks until in-flight tasks finish or ctx is cancelled. On
// cancellation it returns immediately; Run owns the remaining drain.
func (e *Engine) waitDrain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// autosaveInterval is a wall-clock backstop for the count-based checkpoint
// cadence; long cooldowns should not leave progress unsaved.
const autosaveInterval = time.Minute

func (e *Engine) autosave(ctx context.Context) {
	ticker := time.NewTicker(autosaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			if err := e.ckptDir.Save(e.cp); err != nil {
				zap.L().Error("checkpoint save failed", zap.Error(err))
			}
			e.mu.Unlock()
		}
	}
}

// recordDone registers one completed task and advances the resume cursor
// over the contiguous completed prefix, checkpointing periodically.
func (e *Engine) recordDone(dept string, seq int, id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doneSeq[seq] = id
	for {
		nextID, ok := e.doneSeq[e.frontier]
		if !ok {
			break
		}
		delete(e.doneSeq, e.frontier)
		e.frontier++
		if nextID > e.cp.LastID(dept) {
			e.cp.SetLastID(dept, nextID)
		}
	}
	e.sinceSave++
	if e.sinceSave >= e.cfg.CheckpointEvery {
		e.sinceSave = 0
		if err := e.ckptDir.Save(e.cp); err != nil {
			zap.L().Error("checkpoint save failed", zap.Error(err))
		}
	}
}

func (e *Engine) countError() {
	e.mu.Lock()
	e.cp.Stats.Errors++
	e.mu.Unlock()
}

// processTask runs one enrichment attempt: cooldown wait, query, fetch,
// extract, fill-only persist. Failures are soft; the record stays eligible
// for a later run. The return value reports whether the attempt ran to a
// conclusion: attempts cut short by cancellation return false so the resume
// cursor never advances past them.
func (e *Engine) processTask(ctx context.Context, t task) bool {
	rec := t.record
	if err := e.throttle.Wait(ctx); err != nil {
		return false
	}

	query := BuildQuery(rec)
	html, err := e.fetch.FetchResultPage(ctx, query)
	switch {
	case errors.Is(err, fetcher.ErrBlocked):
		cooldown := e.throttle.OnBlock()
		e.mu.Lock()
		e.cp.Stats.Blocked++
		e.mu.Unlock()
		if e.trail != nil {
			e.trail.Block(t.dept, cooldown.Seconds(), e.throttle.TotalBlocks())
		}
		return true
	case errors.Is(err, context.Canceled):
		return false
	case err != nil:
		zap.L().Warn("fetch failed",
			zap.Int64("record_id", rec.ID),
			zap.String("query", query),
			zap.Error(err),
		)
		e.mu.Lock()
		e.cp.Stats.Processed++
		e.cp.Stats.Errors++
		e.mu.Unlock()
		return true
	}
	e.throttle.OnSuccess()

	res := extract.Extract(html, rec.Name)

	e.mu.Lock()
	e.cp.Stats.Processed++
	e.mu.Unlock()

	if res.Empty() {
		zap.L().Debug("no signal extracted",
			zap.Int64("record_id", rec.ID),
			zap.String("query", query),
		)
		return true
	}

	if err := e.records.ApplyEnrichment(ctx, rec.ID, res); err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		zap.L().Warn("enrichment persist failed",
			zap.Int64("record_id", rec.ID),
			zap.Error(err),
		)
		e.countError()
		return true
	}

	e.mu.Lock()
	if res.Phone != "" && rec.MissingPhone() {
		e.cp.Stats.NewPhones++
	}
	if res.Website != "" && rec.Website == "" {
		e.cp.Stats.NewWebsites++
	}
	if res.Rating != nil && rec.Rating == nil {
		e.cp.Stats.NewRatings++
	}
	e.mu.Unlock()

	if e.trail != nil {
		e.trail.Enrichment(rec.ID, rec.Name, query, res)
	}
	return true
}
