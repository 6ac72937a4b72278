package alert

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hollis-dev/envprobe/internal/probe"
)

// Alerter sends webhook notifications on dependency availability changes.
type Alerter struct {
	webhookURL string
	cooldown   time.Duration
	client     *http.Client
	lastAlert  map[string]time.Time
	mu         sync.Mutex
	logger     *slog.Logger
}

// New creates a new Alerter. Pass nil logger to use the default logger.
func New(webhookURL string, cooldown time.Duration, logger *slog.Logger) *Alerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Alerter{
		webhookURL: webhookURL,
		cooldown:   cooldown,
		client:     &http.Client{Timeout: 10 * time.Second},
		lastAlert:  make(map[string]time.Time),
		logger:     logger,
	}
}

type webhookPayload struct {
	Dependency     string `json:"dependency"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status"`
	Error          string `json:"error"`
	LatencyMs      int64  `json:"latency_ms"`
	ProbedAt       string `json:"probed_at"`
	Source         string `json:"source"`
}

// Notify sends a webhook if the dependency's availability has changed and
// the cooldown has elapsed.
func (a *Alerter) Notify(result probe.Result, previousStatus *probe.Status) {
	// No previous status means first probe — skip.
	if previousStatus == nil {
		return
	}
	// No state change — skip.
	if result.Status == *previousStatus {
		return
	}

	// Check cooldown.
	a.mu.Lock()
	last, exists := a.lastAlert[result.Dependency]
	if exists && time.Since(last) < a.cooldown {
		a.mu.Unlock()
		a.logger.Info("alert suppressed by cooldown", "dependency", result.Dependency)
		return
	}
	a.lastAlert[result.Dependency] = time.Now()
	a.mu.Unlock()

	// Send asynchronously so Notify doesn't block the scheduler.
	go a.send(result, string(*previousStatus))
}

func (a *Alerter) send(result probe.Result, prevStatus string) {
	payload := webhookPayload{
		Dependency:     result.Dependency,
		Status:         string(result.Status),
		PreviousStatus: prevStatus,
		Error:          result.Error,
		LatencyMs:      result.Latency.Milliseconds(),
		ProbedAt:       result.ProbedAt.UTC().Format(time.RFC3339),
		Source:         "envprobe",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		a.logger.Error("marshaling webhook payload", "dependency", result.Dependency, "error", err)
		return
	}

	resp, err := a.client.Post(a.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		a.logger.Error("sending webhook", "dependency", result.Dependency, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		a.logger.Warn("webhook returned non-2xx status",
			"dependency", result.Dependency,
			"status", resp.StatusCode,
		)
	}
}
