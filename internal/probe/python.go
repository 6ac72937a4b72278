package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hollis-dev/envprobe/internal/config"
)

const defaultInterpreter = "python3"

type pythonProber struct {
	dep      config.Dependency
	executor CommandExecutor
}

func newPythonProber(dep config.Dependency) *pythonProber {
	return &pythonProber{dep: dep, executor: &osExecutor{}}
}

// NewPythonProberWithExecutor creates a python probe with a custom executor (for testing).
func NewPythonProberWithExecutor(dep config.Dependency, exec CommandExecutor) Prober {
	return &pythonProber{dep: dep, executor: exec}
}

func (p *pythonProber) Probe(ctx context.Context) Result {
	start := time.Now()
	result := Result{
		Dependency: p.dep.Name,
		ProbedAt:   start,
	}

	_, stderr, err := p.executor.Run(ctx, defaultInterpreter, "-c", fmt.Sprintf("import %s", p.dep.Target))
	result.Latency = time.Since(start)

	if err != nil {
		result.Status = StatusMissing
		msg := lastLine(stderr)
		if msg == "" {
			msg = err.Error()
		}
		result.Error = fmt.Sprintf("import %s: %s", p.dep.Target, msg)
		return result
	}

	result.Status = StatusInstalled
	return result
}

// lastLine returns the final non-empty line of output. Python tracebacks
// put the actual error (ModuleNotFoundError: ...) on the last line.
func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
