package alert_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hollis-dev/envprobe/internal/alert"
	"github.com/hollis-dev/envprobe/internal/probe"
)

func statusPtr(s probe.Status) *probe.Status {
	return &s
}

func makeResult(dependency string, status probe.Status) probe.Result {
	return probe.Result{
		Dependency: dependency,
		Status:     status,
		Latency:    10 * time.Millisecond,
		ProbedAt:   time.Now().UTC(),
	}
}

func TestAlerter_StateChange_InstalledToMissing(t *testing.T) {
	var callCount int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&callCount, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := alert.New(srv.URL, time.Hour, nil)
	a.Notify(makeResult("numpy", probe.StatusMissing), statusPtr(probe.StatusInstalled))

	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&callCount) != 1 {
		t.Errorf("expected 1 webhook call for installed→missing, got %d", atomic.LoadInt32(&callCount))
	}
}

func TestAlerter_StateChange_MissingToInstalled(t *testing.T) {
	var callCount int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&callCount, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := alert.New(srv.URL, time.Hour, nil)
	a.Notify(makeResult("numpy", probe.StatusInstalled), statusPtr(probe.StatusMissing))

	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&callCount) != 1 {
		t.Errorf("expected 1 webhook call for missing→installed, got %d", atomic.LoadInt32(&callCount))
	}
}

func TestAlerter_NoChange_NoWebhook(t *testing.T) {
	var callCount int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&callCount, 1)
	}))
	defer srv.Close()

	a := alert.New(srv.URL, time.Hour, nil)
	a.Notify(makeResult("numpy", probe.StatusInstalled), statusPtr(probe.StatusInstalled))

	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&callCount) != 0 {
		t.Errorf("expected no webhook call without state change, got %d", atomic.LoadInt32(&callCount))
	}
}

func TestAlerter_FirstProbe_NoWebhook(t *testing.T) {
	var callCount int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&callCount, 1)
	}))
	defer srv.Close()

	a := alert.New(srv.URL, time.Hour, nil)
	a.Notify(makeResult("numpy", probe.StatusMissing), nil)

	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&callCount) != 0 {
		t.Errorf("expected no webhook call on first probe, got %d", atomic.LoadInt32(&callCount))
	}
}

func TestAlerter_CooldownSuppressesRepeat(t *testing.T) {
	var callCount int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&callCount, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := alert.New(srv.URL, time.Hour, nil)
	a.Notify(makeResult("numpy", probe.StatusMissing), statusPtr(probe.StatusInstalled))
	a.Notify(makeResult("numpy", probe.StatusInstalled), statusPtr(probe.StatusMissing))

	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&callCount) != 1 {
		t.Errorf("expected second alert suppressed by cooldown, got %d calls", atomic.LoadInt32(&callCount))
	}
}

func TestAlerter_PayloadContents(t *testing.T) {
	payloadCh := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		json.Unmarshal(body, &payload)
		payloadCh <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := alert.New(srv.URL, time.Hour, nil)
	r := makeResult("numpy", probe.StatusMissing)
	r.Error = "import numpy: ModuleNotFoundError: No module named 'numpy'"
	a.Notify(r, statusPtr(probe.StatusInstalled))

	select {
	case payload := <-payloadCh:
		if payload["dependency"] != "numpy" {
			t.Errorf("expected dependency 'numpy', got %v", payload["dependency"])
		}
		if payload["status"] != "missing" {
			t.Errorf("expected status 'missing', got %v", payload["status"])
		}
		if payload["previous_status"] != "installed" {
			t.Errorf("expected previous_status 'installed', got %v", payload["previous_status"])
		}
		if payload["source"] != "envprobe" {
			t.Errorf("expected source 'envprobe', got %v", payload["source"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no webhook received")
	}
}
