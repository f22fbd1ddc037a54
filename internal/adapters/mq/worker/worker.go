// Package worker runs the parallel scoring stage of the pipeline.
//
// Scoring and per-scan filtering are independent across scans and safe to
// parallelize; only the hand-off into the tracker must happen in scan
// order, which is the Sequencer's job.
package worker

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/mzsweep/mzsweep/internal/adapters/mq/queue"
	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/internal/domain/scoring"
	"github.com/mzsweep/mzsweep/pkg/logger"
	"github.com/mzsweep/mzsweep/pkg/metrics"
)

// ScoredScan is the result of scoring and filtering one scan.
type ScoredScan struct {
	Scan       model.Scan
	Candidates []model.Candidate // post-filter
	Rejected   int               // candidates removed by the adaptive threshold
	Err        error             // non-nil when scoring failed
}

// Worker scores scans off the queue until the queue drains or the context
// is canceled.
type Worker struct {
	queue     queue.Queue
	scorer    scoring.PatternScorer
	threshold float64 // the k of the adaptive filter
	results   chan<- ScoredScan
	name      string
	logger    logger.Logger
}

// NewWorker creates a single scoring worker.
func NewWorker(q queue.Queue, scorer scoring.PatternScorer, threshold float64, results chan<- ScoredScan, opts ...Option) *Worker {
	w := &Worker{
		queue:     q,
		scorer:    scorer,
		threshold: threshold,
		results:   results,
		name:      "worker",
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run processes scans until the dequeue channel closes or ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	for scan := range w.queue.Dequeue(ctx) {
		res := w.process(ctx, scan)
		select {
		case w.results <- res:
		case <-ctx.Done():
			return
		}
	}
}

// process scores one scan and applies the per-scan adaptive filter.
func (w *Worker) process(ctx context.Context, scan model.Scan) ScoredScan {
	start := time.Now()
	raw, err := w.scorer.Candidates(ctx, scan)
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordErrorByComponent("worker", "scoring_error")
		w.logger.Error(ctx, "scoring failed",
			logger.Int("scan", scan.Index),
			logger.Error(err),
		)
		return ScoredScan{Scan: scan, Err: err}
	}

	kept := scoring.Filter(raw, w.threshold)
	rejected := len(raw) - len(kept)
	metrics.RecordCandidates(len(kept), rejected)

	return ScoredScan{Scan: scan, Candidates: kept, Rejected: rejected}
}

// Pool manages the scoring workers of one run.
type Pool struct {
	workers []*Worker
	results chan ScoredScan
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates workerCount scoring workers sharing one queue and one
// results channel. A non-positive count defaults to the CPU count.
func NewPool(workerCount int, q queue.Queue, scorer scoring.PatternScorer, threshold float64) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*Worker, workerCount),
		results: make(chan ScoredScan, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewWorker(q, scorer, threshold, p.results,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	return p
}

// Start launches all workers. The results channel closes once every worker
// has drained the queue.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}

	go func() {
		p.wg.Wait()
		close(p.results)
		metrics.UpdateWorkerActiveCount(0)
	}()
}

// Results returns the unordered scored-scan stream.
func (p *Pool) Results() <-chan ScoredScan {
	return p.results
}
