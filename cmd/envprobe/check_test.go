package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/hollis-dev/envprobe/internal/config"
)

func TestRunChecks_AllInstalled_OutputFormat(t *testing.T) {
	cfg := &config.Config{
		Dependencies: []config.Dependency{
			{
				Name:    "shell",
				Kind:    "binary",
				Target:  "sh",
				Timeout: config.Duration{Duration: 5 * time.Second},
			},
		},
	}

	var buf bytes.Buffer
	err := runChecks(&buf, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "shell") {
		t.Errorf("expected output to contain 'shell', got:\n%s", output)
	}
	if !strings.Contains(output, "binary") {
		t.Errorf("expected output to contain 'binary', got:\n%s", output)
	}
	if !strings.Contains(output, "installed") {
		t.Errorf("expected output to contain 'installed', got:\n%s", output)
	}
	if !strings.Contains(output, "DEPENDENCY") {
		t.Errorf("expected header row with 'DEPENDENCY', got:\n%s", output)
	}
}

func TestRunChecks_MissingDependency_ReturnsError(t *testing.T) {
	cfg := &config.Config{
		Dependencies: []config.Dependency{
			{
				Name:    "shell",
				Kind:    "binary",
				Target:  "sh",
				Timeout: config.Duration{Duration: 5 * time.Second},
			},
			{
				Name:    "ghostlib",
				Kind:    "binary",
				Target:  "definitely-not-a-real-binary-3f9c",
				Timeout: config.Duration{Duration: 5 * time.Second},
			},
		},
	}

	var buf bytes.Buffer
	err := runChecks(&buf, cfg)
	if err == nil {
		t.Fatal("expected error when a dependency is missing, got nil")
	}

	output := buf.String()
	if !strings.Contains(output, "ghostlib") {
		t.Errorf("expected 'ghostlib' in output, got:\n%s", output)
	}
	if !strings.Contains(output, "missing") {
		t.Errorf("expected 'missing' in output, got:\n%s", output)
	}
}

func TestRunChecks_BadKindReportedAsMissing(t *testing.T) {
	cfg := &config.Config{
		Dependencies: []config.Dependency{
			{
				Name:    "odd",
				Kind:    "gem",
				Target:  "rails",
				Timeout: config.Duration{Duration: time.Second},
			},
		},
	}

	var buf bytes.Buffer
	err := runChecks(&buf, cfg)
	if err == nil {
		t.Fatal("expected error for unknown kind, got nil")
	}
	if !strings.Contains(buf.String(), "creating prober") {
		t.Errorf("expected prober creation error in output, got:\n%s", buf.String())
	}
}
