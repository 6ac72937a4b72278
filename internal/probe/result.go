package probe

import "time"

// Status represents the availability of a dependency.
type Status string

const (
	StatusInstalled Status = "installed"
	StatusMissing   Status = "missing"
)

// Result is the outcome of a single dependency probe.
type Result struct {
	Dependency string
	Status     Status
	Latency    time.Duration
	Error      string
	ProbedAt   time.Time
}
