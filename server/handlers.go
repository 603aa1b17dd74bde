package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Probes are the liveness callbacks the handlers report on. Nil callbacks
// are treated as "feature disabled" and skipped by readiness.
type Probes struct {
	BackendConnected func() bool
	DiscordReady     func() bool
	RegistrySize     func() int
}

// Handlers holds the dependencies for the HTTP endpoints.
type Handlers struct {
	probes  Probes
	started time.Time
}

// NewHandlers creates the handler set.
func NewHandlers(probes Probes) *Handlers {
	return &Handlers{probes: probes, started: time.Now()}
}

// HandleHealthz responds to liveness probe requests. The process being able
// to answer is the whole check; connectivity belongs to readiness.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests with per-dependency checks.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, _ *http.Request) {
	checks := []struct {
		name string
		fn   func() bool
	}{
		{"streamerbot", h.probes.BackendConnected},
		{"discord", h.probes.DiscordReady},
	}

	for _, check := range checks {
		if check.fn == nil {
			continue
		}
		if !check.fn() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        fmt.Sprintf("%s not connected", check.name),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HandleStatus reports a small operational snapshot.
func (h *Handlers) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	}
	if h.probes.BackendConnected != nil {
		status["streamerbot_connected"] = h.probes.BackendConnected()
	}
	if h.probes.DiscordReady != nil {
		status["discord_ready"] = h.probes.DiscordReady()
	}
	if h.probes.RegistrySize != nil {
		status["mirrored_messages"] = h.probes.RegistrySize()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}
