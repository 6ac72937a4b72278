package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hollis-dev/envprobe/internal/config"
)

type pkgConfigProber struct {
	dep      config.Dependency
	executor CommandExecutor
}

func newPkgConfigProber(dep config.Dependency) *pkgConfigProber {
	return &pkgConfigProber{dep: dep, executor: &osExecutor{}}
}

// NewPkgConfigProberWithExecutor creates a pkg-config probe with a custom executor (for testing).
func NewPkgConfigProberWithExecutor(dep config.Dependency, exec CommandExecutor) Prober {
	return &pkgConfigProber{dep: dep, executor: exec}
}

func (p *pkgConfigProber) Probe(ctx context.Context) Result {
	start := time.Now()
	result := Result{
		Dependency: p.dep.Name,
		ProbedAt:   start,
	}

	_, stderr, err := p.executor.Run(ctx, "pkg-config", "--exists", "--print-errors", p.dep.Target)
	result.Latency = time.Since(start)

	if err != nil {
		result.Status = StatusMissing
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = err.Error()
		}
		result.Error = fmt.Sprintf("pkg-config %s: %s", p.dep.Target, msg)
		return result
	}

	result.Status = StatusInstalled
	return result
}
