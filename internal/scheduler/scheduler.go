package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hollis-dev/envprobe/internal/config"
	"github.com/hollis-dev/envprobe/internal/probe"
	"github.com/hollis-dev/envprobe/internal/storage"
)

// Store defines the storage operations required by the scheduler.
type Store interface {
	InsertProbe(ctx context.Context, r probe.Result) error
	LatestProbe(ctx context.Context, dependency string) (*storage.Probe, error)
}

// ProberFactory creates a Prober for a given dependency config.
type ProberFactory func(config.Dependency) (probe.Prober, error)

// Scheduler re-probes each dependency in its own goroutine.
type Scheduler struct {
	deps     []config.Dependency
	store    Store
	factory  ProberFactory
	onResult func(probe.Result, *probe.Status)
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// New creates a new Scheduler. Pass nil logger to use the default logger.
func New(deps []config.Dependency, store Store, factory ProberFactory, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		deps:    deps,
		store:   store,
		factory: factory,
		logger:  logger,
	}
}

// SetOnResult sets the callback invoked after each probe.
// result is the current probe result; prev is the previous status (nil on first probe).
func (s *Scheduler) SetOnResult(fn func(probe.Result, *probe.Status)) {
	s.onResult = fn
}

// Start spawns one goroutine per dependency. It is non-blocking.
func (s *Scheduler) Start(ctx context.Context) {
	for _, dep := range s.deps {
		p, err := s.factory(dep)
		if err != nil {
			s.logger.Error("creating prober", "dependency", dep.Name, "error", err)
			continue
		}
		s.wg.Add(1)
		go s.runDependency(ctx, dep, p)
	}
}

// Wait blocks until all dependency goroutines have exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runDependency(ctx context.Context, dep config.Dependency, p probe.Prober) {
	defer s.wg.Done()

	// Probe immediately.
	s.runProbe(ctx, dep, p)

	ticker := time.NewTicker(dep.Interval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runProbe(ctx, dep, p)
		}
	}
}

func (s *Scheduler) runProbe(ctx context.Context, dep config.Dependency, p probe.Prober) {
	// Fetch previous status before running the probe.
	prev, err := s.store.LatestProbe(ctx, dep.Name)
	if err != nil {
		s.logger.Warn("fetching previous probe", "dependency", dep.Name, "error", err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, dep.Timeout.Duration)
	result := p.Probe(probeCtx)
	cancel()

	s.logger.Info("probe result",
		"dependency", dep.Name,
		"status", result.Status,
		"latency", result.Latency,
		"error", result.Error,
	)

	if err := s.store.InsertProbe(ctx, result); err != nil {
		s.logger.Error("storing probe result", "dependency", dep.Name, "error", err)
	}

	if s.onResult != nil {
		var prevStatus *probe.Status
		if prev != nil {
			st := probe.Status(prev.Status)
			prevStatus = &st
		}
		s.onResult(result, prevStatus)
	}
}
