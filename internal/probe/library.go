package probe

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hollis-dev/envprobe/internal/config"
)

type libraryProber struct {
	dep      config.Dependency
	executor CommandExecutor
}

func newLibraryProber(dep config.Dependency) *libraryProber {
	return &libraryProber{dep: dep, executor: &osExecutor{}}
}

// NewLibraryProberWithExecutor creates a library probe with a custom executor (for testing).
func NewLibraryProberWithExecutor(dep config.Dependency, exec CommandExecutor) Prober {
	return &libraryProber{dep: dep, executor: exec}
}

func (p *libraryProber) Probe(ctx context.Context) Result {
	start := time.Now()
	result := Result{
		Dependency: p.dep.Name,
		ProbedAt:   start,
	}

	stdout, _, err := p.executor.Run(ctx, "ldconfig", "-p")
	result.Latency = time.Since(start)

	if err != nil {
		result.Status = StatusMissing
		result.Error = fmt.Sprintf("running ldconfig: %v", err)
		return result
	}

	if !containsLibrary(stdout, p.dep.Target) {
		result.Status = StatusMissing
		result.Error = fmt.Sprintf("shared library %q not in linker cache", libraryName(p.dep.Target))
		return result
	}

	result.Status = StatusInstalled
	return result
}

// libraryName normalizes a target like "ssl" or "libssl.so" to "libssl.so".
func libraryName(target string) string {
	name := target
	if !strings.HasPrefix(name, "lib") {
		name = "lib" + name
	}
	if !strings.Contains(name, ".so") {
		name += ".so"
	}
	return name
}

// containsLibrary scans `ldconfig -p` output for an entry whose soname
// matches the target, ignoring trailing version suffixes.
func containsLibrary(out []byte, target string) bool {
	want := libraryName(target)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		soname := fields[0]
		if soname == want || strings.HasPrefix(soname, want+".") {
			return true
		}
	}
	return false
}
