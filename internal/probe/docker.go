package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hollis-dev/envprobe/internal/config"
)

const dockerSockPath = "/var/run/docker.sock"

// DockerClient abstracts Docker Engine API access for testability.
type DockerClient interface {
	Ping(ctx context.Context) error
}

type dockerProber struct {
	dep    config.Dependency
	client DockerClient
}

func newDockerProber(dep config.Dependency) *dockerProber {
	sock := dockerSockPath
	// An absolute target overrides the default socket path.
	if strings.HasPrefix(dep.Target, "/") {
		sock = dep.Target
	}
	return &dockerProber{
		dep:    dep,
		client: newUnixDockerClient(sock, dep.Timeout.Duration),
	}
}

// NewDockerProberWithClient creates a docker probe with a custom client (for testing).
func NewDockerProberWithClient(dep config.Dependency, client DockerClient) Prober {
	return &dockerProber{dep: dep, client: client}
}

func (p *dockerProber) Probe(ctx context.Context) Result {
	start := time.Now()
	result := Result{
		Dependency: p.dep.Name,
		ProbedAt:   start,
	}

	err := p.client.Ping(ctx)
	result.Latency = time.Since(start)

	if err != nil {
		result.Status = StatusMissing
		result.Error = err.Error()
		return result
	}

	result.Status = StatusInstalled
	return result
}

// unixDockerClient pings the Docker Engine API over the Unix socket.
type unixDockerClient struct {
	client *http.Client
}

func newUnixDockerClient(sock string, timeout time.Duration) *unixDockerClient {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return net.DialTimeout("unix", sock, timeout)
		},
	}
	return &unixDockerClient{
		client: &http.Client{Transport: transport, Timeout: timeout},
	}
}

func (d *unixDockerClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://localhost/_ping", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("querying docker socket: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("docker API returned status %d", resp.StatusCode)
	}
	return nil
}
