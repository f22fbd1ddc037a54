// Package service wires the detection pipeline together: scan source,
// scoring workers, the sweep line tracker and the exporters.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mzsweep/mzsweep/internal/adapters/export/pmf"
	"github.com/mzsweep/mzsweep/internal/adapters/export/sqlite"
	scanqueue "github.com/mzsweep/mzsweep/internal/adapters/mq/queue"
	workerpool "github.com/mzsweep/mzsweep/internal/adapters/mq/worker"
	"github.com/mzsweep/mzsweep/internal/adapters/repository"
	"github.com/mzsweep/mzsweep/internal/adapters/source"
	"github.com/mzsweep/mzsweep/internal/config"
	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/internal/domain/scoring"
	"github.com/mzsweep/mzsweep/internal/domain/synth"
	"github.com/mzsweep/mzsweep/internal/domain/tracker"
	"github.com/mzsweep/mzsweep/pkg/logger"
	"github.com/mzsweep/mzsweep/pkg/metrics"
)

// Progress stages reported per scan.
const (
	stageScored   = "scored"
	stageFiltered = "filtered"
	stageTracked  = "tracked"
)

// Service runs one feature detection pass over a scan sequence.
type Service struct {
	cfg    *config.Config
	source source.Source
	store  repository.Store

	sourcePath string
	pmfPath    string
	dbPath     string

	logger logger.Logger
}

// New constructs a Service. A source must be provided through options
// before Run is called.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:    cfg,
		logger: logger.Get().Named("service"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemStore()
	}

	return s
}

// Run executes the pipeline and returns the detected features. Features
// are also stored in the configured feature store and, when requested,
// exported to the PMF and SQLite sinks.
//
// When ctx is canceled mid-run, the tracker is flushed and the features
// synthesized from the traces closed so far are stored and returned
// together with the cancellation error. Exporters do not run on a
// canceled pass.
func (s *Service) Run(ctx context.Context) ([]model.Feature, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: no scan source", ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis canceled: %w", err)
	}

	start := time.Now()
	scans, err := s.source.Scans(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scans: %w", err)
	}
	if len(scans) == 0 {
		s.logger.Warn(ctx, "no scans to analyze")
		return nil, nil
	}

	s.logger.Info(ctx, "analyzing spectra",
		logger.Int("scans", len(scans)),
		logger.Int("max_charge", s.cfg.MaxCharge),
		logger.Int("workers", s.cfg.WorkerCount),
	)

	scorer := scoring.NewIsotopeScorer(maxMZ(scans),
		scoring.WithMaxCharge(s.cfg.MaxCharge),
		scoring.WithMode(s.cfg.RecordingMode),
		scoring.WithMZTolerance(s.cfg.MZTolerance),
	)

	trk := tracker.New(s.cfg.MaxCharge,
		tracker.WithGapTolerance(s.cfg.GapTolerance),
		tracker.WithMZTolerance(s.cfg.MZTolerance),
	)

	ordered, err := s.startWorkers(ctx, scans, scorer)
	if err != nil {
		return nil, err
	}

	trackErr := s.track(ctx, trk, ordered)
	if trackErr != nil && !errors.Is(trackErr, context.Canceled) && !errors.Is(trackErr, context.DeadlineExceeded) {
		return nil, trackErr
	}

	// Terminal flush: close whatever is still open so the synthesizer
	// sees every trace.
	trk.Flush()

	features := synth.Synthesize(trk.Closed(), len(scans), s.cfg.VotesCutoff)
	if err := s.store.Add(context.WithoutCancel(ctx), features...); err != nil {
		return features, fmt.Errorf("store features: %w", err)
	}

	if trackErr != nil {
		s.logger.Warn(ctx, "analysis canceled",
			logger.Int("features", len(features)),
			logger.Duration("elapsed", time.Since(start)),
		)
		return features, fmt.Errorf("analysis canceled: %w", trackErr)
	}

	if err := s.export(ctx, features, len(scans)); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "analysis finished",
		logger.Int("features", len(features)),
		logger.Duration("elapsed", time.Since(start)),
	)

	return features, nil
}

// Store exposes the feature store of this run.
func (s *Service) Store() repository.Store {
	return s.store
}

// startWorkers feeds the scans through the queue into the scoring pool
// and returns the reordered result stream.
func (s *Service) startWorkers(ctx context.Context, scans []model.Scan, scorer scoring.PatternScorer) (<-chan workerpool.ScoredScan, error) {
	q := scanqueue.NewInMemoryQueue(scanqueue.WithCapacity(s.cfg.QueueSize))

	go func() {
		defer q.Close()
		for _, scan := range scans {
			if !q.EnqueueWait(ctx, scan) {
				return
			}
		}
	}()

	pool := workerpool.NewPool(s.cfg.WorkerCount, q, scorer, s.cfg.IntensityThreshold)
	pool.Start(ctx)

	return workerpool.NewSequencer(0).Run(ctx, pool.Results()), nil
}

// track drives the sweep line over the ordered result stream. When the
// stream ends because of cancellation, the returned error wraps the
// context error so the caller can distinguish an aborted pass from a
// completed one.
func (s *Service) track(ctx context.Context, trk *tracker.Tracker, ordered <-chan workerpool.ScoredScan) error {
	for res := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}
		if res.Err != nil {
			return fmt.Errorf("score scan %d: %w", res.Scan.Index, res.Err)
		}
		metrics.RecordProgress(stageScored)
		metrics.RecordProgress(stageFiltered)

		trackStart := time.Now()
		if err := trk.Advance(res.Scan.Index, res.Candidates); err != nil {
			return fmt.Errorf("track scan %d: %w", res.Scan.Index, err)
		}
		metrics.RecordTrackingLatency(float64(time.Since(trackStart).Milliseconds()))
		metrics.RecordProgress(stageTracked)
		metrics.RecordScanProcessed()

		s.logger.Debug(ctx, "scan tracked",
			logger.Int("scan", res.Scan.Index),
			logger.Int("candidates", len(res.Candidates)),
			logger.Int("rejected", res.Rejected),
			logger.Int("open_traces", trk.OpenCount()),
		)
	}

	// The stream can also close early because the workers or the
	// sequencer saw the cancellation first.
	return ctx.Err()
}

// export runs the optional output sinks.
func (s *Service) export(ctx context.Context, features []model.Feature, scanCount int) error {
	if s.pmfPath != "" {
		if err := pmf.NewWriter(s.pmfPath).Write(ctx, features, scanCount); err != nil {
			return fmt.Errorf("pmf export: %w", err)
		}
	}

	if s.dbPath != "" {
		w, err := sqlite.NewWriter(s.dbPath)
		if err != nil {
			return fmt.Errorf("sqlite export: %w", err)
		}
		if _, err := w.WriteRun(ctx, s.sourcePath, scanCount, s.cfg.MaxCharge, features); err != nil {
			w.Close()
			return fmt.Errorf("sqlite export: %w", err)
		}
		if err := w.Finalize(); err != nil {
			return fmt.Errorf("sqlite export: %w", err)
		}
	}

	return nil
}

// maxMZ returns the largest m/z across all scans, used to size the
// scorer's envelope tables.
func maxMZ(scans []model.Scan) float64 {
	var max float64
	for _, scan := range scans {
		for _, p := range scan.Peaks {
			if p.MZ > max {
				max = p.MZ
			}
		}
	}
	return max
}
