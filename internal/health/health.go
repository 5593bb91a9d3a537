// Package health answers the liveness and readiness probes for the voice
// server. Liveness is unconditional: a process that can still serve HTTP is
// alive. Readiness walks a fixed list of probes (detector warm-up, interaction
// database, knowledge index) and refuses traffic until all of them pass, so a
// kiosk never gets connected to a half-initialised pipeline.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// probeTimeout bounds a single readiness probe.
const probeTimeout = 3 * time.Second

// Checker is one named readiness probe. Check returns nil when the dependency
// can serve.
type Checker struct {
	// Name keys the probe's entry in the response body.
	Name string

	// Check probes the dependency. It must honour ctx.
	Check func(ctx context.Context) error
}

// report is the body written by both endpoints.
type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves /healthz and /readyz. The probe list is fixed at
// construction; the handler itself holds no mutable state and is safe for
// concurrent use.
type Handler struct {
	checkers []Checker
}

// New builds a Handler over the given probes. They run sequentially, in
// order, on every /readyz request.
func New(checkers ...Checker) *Handler {
	return &Handler{checkers: append([]Checker(nil), checkers...)}
}

// Healthz always reports ok.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report{Status: "ok"})
}

// Readyz runs every probe and answers 503 when any of them fails. Each probe
// gets its own [probeTimeout] deadline derived from the request context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	body, ready := h.run(r.Context())
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}

func (h *Handler) run(ctx context.Context) (report, bool) {
	body := report{Status: "ok", Checks: make(map[string]string, len(h.checkers))}
	ready := true

	for _, c := range h.checkers {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := c.Check(probeCtx)
		cancel()

		if err != nil {
			body.Checks[c.Name] = "fail: " + err.Error()
			body.Status = "fail"
			ready = false
			continue
		}
		body.Checks[c.Name] = "ok"
	}
	return body, ready
}

// Register mounts both endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, body report) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
