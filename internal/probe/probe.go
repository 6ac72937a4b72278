package probe

import (
	"context"
	"fmt"

	"github.com/hollis-dev/envprobe/internal/config"
)

// Prober performs a single dependency resolution attempt.
type Prober interface {
	Probe(ctx context.Context) Result
}

// New returns the appropriate Prober for the given dependency configuration.
func New(dep config.Dependency) (Prober, error) {
	switch dep.Kind {
	case "binary":
		return newBinaryProber(dep), nil
	case "python":
		return newPythonProber(dep), nil
	case "library":
		return newLibraryProber(dep), nil
	case "pkgconfig":
		return newPkgConfigProber(dep), nil
	case "docker":
		return newDockerProber(dep), nil
	default:
		return nil, fmt.Errorf("unknown probe kind %q", dep.Kind)
	}
}
