package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hollis-dev/envprobe/internal/config"
	"github.com/hollis-dev/envprobe/internal/probe"
)

// executeProbe resolves each named dependency (all of them when names is
// empty) and logs exactly one line per dependency. A dependency that cannot
// be resolved is reported, not treated as a failure: the returned error is
// nil in both branches so the process exits 0.
func executeProbe(logger *slog.Logger, cfg *config.Config, names []string) error {
	deps, err := selectDependencies(cfg, names)
	if err != nil {
		return err
	}

	for _, dep := range deps {
		p, err := probe.New(dep)
		if err != nil {
			return fmt.Errorf("creating prober for %q: %w", dep.Name, err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), dep.Timeout.Duration)
		result := p.Probe(ctx)
		cancel()

		if result.Status == probe.StatusInstalled {
			logger.Info("dependency installed",
				"dependency", dep.Name,
				"latency", result.Latency,
			)
		} else {
			logger.Error("dependency missing",
				"dependency", dep.Name,
				"error", result.Error,
			)
		}
	}

	return nil
}

// selectDependencies filters the configured dependencies down to the named
// ones, preserving config order. Empty names selects everything.
func selectDependencies(cfg *config.Config, names []string) ([]config.Dependency, error) {
	if len(names) == 0 {
		return cfg.Dependencies, nil
	}

	idx := make(map[string]config.Dependency, len(cfg.Dependencies))
	for _, dep := range cfg.Dependencies {
		idx[dep.Name] = dep
	}

	deps := make([]config.Dependency, 0, len(names))
	for _, name := range names {
		dep, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("dependency %q is not configured", name)
		}
		deps = append(deps, dep)
	}
	return deps, nil
}
