package scrape

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/annuaire-pro/enrich-cli/internal/throttle"
)

// dispatchPoll is the sleep between passes when every worker queue is full.
const dispatchPoll = 50 * time.Millisecond

// PoolOptions tunes the worker pool.
type PoolOptions struct {
	InitialWorkers int
	MaxWorkers     int
	QueueCap       int
	DelayMin       time.Duration
	DelayMax       time.Duration
	ScaleInterval  time.Duration
}

func (o *PoolOptions) withDefaults() {
	if o.InitialWorkers <= 0 {
		o.InitialWorkers = 2
	}
	if o.MaxWorkers < o.InitialWorkers {
		o.MaxWorkers = o.InitialWorkers
	}
	if o.QueueCap <= 0 {
		o.QueueCap = 4
	}
	if o.DelayMin <= 0 {
		o.DelayMin = 2 * time.Second
	}
	if o.DelayMax < o.DelayMin {
		o.DelayMax = o.DelayMin + 3*time.Second
	}
	if o.ScaleInterval <= 0 {
		o.ScaleInterval = 30 * time.Second
	}
}

// Pool runs a growing set of workers, each with a private bounded queue.
// Scale-up is one worker per tick and stops while the throttle reports an
// active block state.
type Pool struct {
	opts     PoolOptions
	throttle *throttle.Controller
	process  func(ctx context.Context, t task) bool

	mu      sync.Mutex
	workers []*worker
	wg      sync.WaitGroup
}

func NewPool(opts PoolOptions, thr *throttle.Controller, process func(ctx context.Context, t task) bool) *Pool {
	opts.withDefaults()
	return &Pool{opts: opts, throttle: thr, process: process}
}

// Start launches the initial workers and the scale ticker. Workers stop when
// ctx is cancelled; Wait blocks until they have all exited.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.opts.InitialWorkers; i++ {
		p.addWorker(ctx)
	}
	p.wg.Add(1)
	go p.scaleLoop(ctx)
}

func (p *Pool) addWorker(ctx context.Context) {
	p.mu.Lock()
	id := len(p.workers) + 1
	w := newWorker(id, p.opts.QueueCap, p.opts.DelayMin, p.opts.DelayMax, p.process)
	p.workers = append(p.workers, w)
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		w.run(ctx)
	}()
}

func (p *Pool) scaleLoop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.opts.ScaleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.canScaleUp() {
				continue
			}
			p.addWorker(ctx)
			zap.L().Info("scaled worker pool up", zap.Int("workers", p.Size()))
		}
	}
}

// canScaleUp allows growth only below the cap and with a zero block counter.
func (p *Pool) canScaleUp() bool {
	p.mu.Lock()
	below := len(p.workers) < p.opts.MaxWorkers
	p.mu.Unlock()
	return below && !p.throttle.Blocked()
}

// Size returns the current worker count.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// Dispatch hands the task to the first worker with spare queue capacity,
// sleeping briefly when every queue is full. Returns ctx.Err() on shutdown.
func (p *Pool) Dispatch(ctx context.Context, t task) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.mu.Lock()
		workers := p.workers
		p.mu.Unlock()
		for _, w := range workers {
			if w.offer(t) {
				return nil
			}
		}

		timer := time.NewTimer(dispatchPoll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Wait blocks until every worker goroutine has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}
