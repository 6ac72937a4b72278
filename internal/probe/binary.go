package probe

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/hollis-dev/envprobe/internal/config"
)

type binaryProber struct {
	dep config.Dependency
}

func newBinaryProber(dep config.Dependency) *binaryProber {
	return &binaryProber{dep: dep}
}

func (p *binaryProber) Probe(ctx context.Context) Result {
	start := time.Now()
	result := Result{
		Dependency: p.dep.Name,
		ProbedAt:   start,
	}

	_, err := exec.LookPath(p.dep.Target)
	result.Latency = time.Since(start)

	if err != nil {
		result.Status = StatusMissing
		result.Error = fmt.Sprintf("executable %q not found on PATH", p.dep.Target)
		return result
	}

	result.Status = StatusInstalled
	return result
}
