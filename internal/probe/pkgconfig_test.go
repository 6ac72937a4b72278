package probe_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hollis-dev/envprobe/internal/config"
	"github.com/hollis-dev/envprobe/internal/probe"
)

func makePkgConfigDependency(t *testing.T, target string) config.Dependency {
	t.Helper()
	return config.Dependency{
		Name:    "test-pkg",
		Kind:    "pkgconfig",
		Target:  target,
		Timeout: config.Duration{Duration: 2 * time.Second},
	}
}

func TestPkgConfigProber_Installed(t *testing.T) {
	exec := &mockExecutor{}
	p := probe.NewPkgConfigProberWithExecutor(makePkgConfigDependency(t, "openssl"), exec)

	result := p.Probe(context.Background())
	if result.Status != probe.StatusInstalled {
		t.Errorf("expected StatusInstalled, got %q: %s", result.Status, result.Error)
	}
	if exec.gotName != "pkg-config" {
		t.Errorf("expected pkg-config invocation, got %q", exec.gotName)
	}
}

func TestPkgConfigProber_Missing(t *testing.T) {
	exec := &mockExecutor{
		stderr: []byte("Package openssl was not found in the pkg-config search path.\n"),
		err:    errors.New("exit status 1"),
	}
	p := probe.NewPkgConfigProberWithExecutor(makePkgConfigDependency(t, "openssl"), exec)

	result := p.Probe(context.Background())
	if result.Status != probe.StatusMissing {
		t.Errorf("expected StatusMissing, got %q", result.Status)
	}
	if !strings.Contains(result.Error, "was not found") {
		t.Errorf("expected pkg-config stderr in error, got %q", result.Error)
	}
}
