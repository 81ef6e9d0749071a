package handlers

import (
	"context"
	"net/http"
	"time"
)

// ReadinessCheck probes a single backing dependency.
type ReadinessCheck func(ctx context.Context) error

const readinessCheckTimeout = 5 * time.Second

// HealthHandlers serves the /healthz and /readyz probes.
type HealthHandlers struct {
	clock     func() time.Time
	startedAt time.Time
	checks    map[string]ReadinessCheck
}

// HealthOption customises the health handlers.
type HealthOption func(*HealthHandlers)

// WithHealthClock overrides the time source used for uptime and timestamps.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithHealthStartedAt pins the process start time reported in uptime.
func WithHealthStartedAt(startedAt time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if !startedAt.IsZero() {
			h.startedAt = startedAt
		}
	}
}

// WithHealthReadinessCheck registers a named dependency probe for /readyz.
func WithHealthReadinessCheck(name string, check ReadinessCheck) HealthOption {
	return func(h *HealthHandlers) {
		if name == "" || check == nil {
			return
		}
		h.checks[name] = check
	}
}

// NewHealthHandlers constructs health handlers with the given options.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		clock:     time.Now,
		startedAt: time.Now(),
		checks:    map[string]ReadinessCheck{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Healthz reports process liveness without touching any dependency.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.startedAt).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

// Readyz runs every registered dependency probe and reports per-check status.
// Any failing check turns the overall response into a 503.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	checks := make(map[string]map[string]any, len(h.checks))
	healthy := true

	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), readinessCheckTimeout)
		started := h.clock()
		err := check(ctx)
		cancel()

		entry := map[string]any{
			"status":  "ok",
			"latency": h.clock().Sub(started).String(),
		}
		if err != nil {
			healthy = false
			entry["status"] = "unavailable"
			entry["error"] = err.Error()
		}
		checks[name] = entry
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, code, map[string]any{
		"status":    status,
		"checks":    checks,
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}
