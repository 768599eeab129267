package scrape

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/annuaire-pro/enrich-cli/internal/model"
)

// pollInterval is how long an idle worker sleeps before rechecking its queue.
const pollInterval = 100 * time.Millisecond

// task is one queued enrichment attempt. complete marks the record as
// processed and advances the resume cursor; release only lets the engine's
// drain wait finish. A task that never ran, or was cut short by shutdown,
// must be released, not completed, or a resumed run would skip it.
type task struct {
	dept     string
	record   model.BusinessRecord
	complete func()
	release  func()
}

// worker owns a private bounded queue. The dispatch loop pushes into it; the
// worker pulls, runs one enrichment attempt, then sleeps a randomized
// inter-request delay.
type worker struct {
	id       int
	queue    chan task
	delayMin time.Duration
	delayMax time.Duration
	process  func(ctx context.Context, t task) bool
}

func newWorker(id, queueCap int, delayMin, delayMax time.Duration, process func(ctx context.Context, t task) bool) *worker {
	if queueCap <= 0 {
		queueCap = 4
	}
	return &worker{
		id:       id,
		queue:    make(chan task, queueCap),
		delayMin: delayMin,
		delayMax: delayMax,
		process:  process,
	}
}

// offer attempts a non-blocking enqueue.
func (w *worker) offer(t task) bool {
	select {
	case w.queue <- t:
		return true
	default:
		return false
	}
}

func (w *worker) run(ctx context.Context) {
	zap.L().Debug("worker started", zap.Int("worker", w.id))
	for {
		select {
		case <-ctx.Done():
			w.drainCancelled()
			return
		case t := <-w.queue:
			if w.process(ctx, t) {
				t.complete()
			} else {
				t.release()
			}
			if !w.sleep(ctx, w.delay()) {
				w.drainCancelled()
				return
			}
		case <-time.After(pollInterval):
		}
	}
}

// drainCancelled releases tasks that will never run so the engine's drain
// wait can finish during shutdown. Released tasks do not advance the resume
// cursor.
func (w *worker) drainCancelled() {
	for {
		select {
		case t := <-w.queue:
			t.release()
		default:
			return
		}
	}
}

func (w *worker) delay() time.Duration {
	if w.delayMax <= w.delayMin {
		return w.delayMin
	}
	return w.delayMin + time.Duration(rand.Int63n(int64(w.delayMax-w.delayMin)))
}

func (w *worker) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
