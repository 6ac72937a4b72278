package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hollis-dev/envprobe/internal/config"
)

// recordHandler is a slog.Handler that captures emitted records.
type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.records = append(h.records, r.Clone())
	h.mu.Unlock()
	return nil
}

func (h *recordHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(_ string) slog.Handler      { return h }

func (h *recordHandler) all() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.records
}

func recordAttr(r slog.Record, key string) string {
	var val string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			val = a.Value.String()
			return false
		}
		return true
	})
	return val
}

func makeProbeConfig(deps ...config.Dependency) *config.Config {
	return &config.Config{Dependencies: deps}
}

func binaryDep(name, target string) config.Dependency {
	return config.Dependency{
		Name:    name,
		Kind:    "binary",
		Target:  target,
		Timeout: config.Duration{Duration: 5 * time.Second},
	}
}

func TestExecuteProbe_Installed_OneInfoLine(t *testing.T) {
	h := &recordHandler{}
	cfg := makeProbeConfig(binaryDep("shell", "sh"))

	err := executeProbe(slog.New(h), cfg, nil)
	if err != nil {
		t.Fatalf("expected nil error for installed dependency, got %v", err)
	}

	records := h.all()
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 log line, got %d", len(records))
	}
	if records[0].Level != slog.LevelInfo {
		t.Errorf("expected Info level, got %v", records[0].Level)
	}
	if !strings.Contains(records[0].Message, "installed") {
		t.Errorf("expected 'installed' in message, got %q", records[0].Message)
	}
	if recordAttr(records[0], "dependency") != "shell" {
		t.Errorf("expected dependency name in log line, got %q", recordAttr(records[0], "dependency"))
	}
}

func TestExecuteProbe_Missing_OneErrorLine_ExitsClean(t *testing.T) {
	h := &recordHandler{}
	cfg := makeProbeConfig(binaryDep("ghostlib", "definitely-not-a-real-binary-3f9c"))

	err := executeProbe(slog.New(h), cfg, nil)
	if err != nil {
		t.Fatalf("missing dependency must not fail the command, got %v", err)
	}

	records := h.all()
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 log line, got %d", len(records))
	}
	if records[0].Level != slog.LevelError {
		t.Errorf("expected Error level, got %v", records[0].Level)
	}
	if recordAttr(records[0], "dependency") != "ghostlib" {
		t.Errorf("expected dependency name in log line, got %q", recordAttr(records[0], "dependency"))
	}
}

func TestExecuteProbe_Idempotent(t *testing.T) {
	cfg := makeProbeConfig(binaryDep("shell", "sh"))

	for i := 0; i < 2; i++ {
		h := &recordHandler{}
		if err := executeProbe(slog.New(h), cfg, nil); err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
		records := h.all()
		if len(records) != 1 || records[0].Level != slog.LevelInfo {
			t.Fatalf("run %d: expected one Info line, got %d records", i, len(records))
		}
	}
}

func TestExecuteProbe_SelectByName(t *testing.T) {
	h := &recordHandler{}
	cfg := makeProbeConfig(
		binaryDep("shell", "sh"),
		binaryDep("ghostlib", "definitely-not-a-real-binary-3f9c"),
	)

	err := executeProbe(slog.New(h), cfg, []string{"shell"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records := h.all()
	if len(records) != 1 {
		t.Fatalf("expected 1 log line for 1 selected dependency, got %d", len(records))
	}
	if recordAttr(records[0], "dependency") != "shell" {
		t.Errorf("expected only 'shell' probed, got %q", recordAttr(records[0], "dependency"))
	}
}

func TestExecuteProbe_UnknownName(t *testing.T) {
	h := &recordHandler{}
	cfg := makeProbeConfig(binaryDep("shell", "sh"))

	err := executeProbe(slog.New(h), cfg, []string{"nonexistent"})
	if err == nil {
		t.Fatal("expected error for unconfigured dependency name, got nil")
	}
	if len(h.all()) != 0 {
		t.Errorf("expected no log lines on selection error, got %d", len(h.all()))
	}
}

func TestExecuteProbe_AllConfigured(t *testing.T) {
	h := &recordHandler{}
	cfg := makeProbeConfig(
		binaryDep("shell", "sh"),
		binaryDep("ghostlib", "definitely-not-a-real-binary-3f9c"),
	)

	err := executeProbe(slog.New(h), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.all()) != 2 {
		t.Fatalf("expected one line per dependency, got %d", len(h.all()))
	}
}
