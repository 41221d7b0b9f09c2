package api

import (
	"net/http"
	"sync"

	"github.com/ekdahl/kolada-mcp/internal/log"
)

// Probe tracks startup readiness. The app marks it ready once the catalog
// and embedding index are loaded; until then /ready answers 503.
type Probe struct {
	mu             sync.RWMutex
	ready          bool
	kpis           int
	municipalities int
	vectors        int
}

// NewProbe creates a not-yet-ready probe.
func NewProbe() *Probe {
	return &Probe{}
}

// SetReady marks the probe ready and records the loaded counts.
func (p *Probe) SetReady(kpis, municipalities, vectors int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready = true
	p.kpis = kpis
	p.municipalities = municipalities
	p.vectors = vectors
}

// Ready reports whether startup loading has completed.
func (p *Probe) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

type readiness struct {
	Status         string `json:"status"`
	KPIs           int    `json:"kpis"`
	Municipalities int    `json:"municipalities"`
	Vectors        int    `json:"vectors"`
}

func (p *Probe) snapshot() readiness {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return readiness{
		Status:         "ready",
		KPIs:           p.kpis,
		Municipalities: p.municipalities,
		Vectors:        p.vectors,
	}
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	probe  *Probe
	logger log.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(probe *Probe, logger log.Logger) *HealthHandler {
	return &HealthHandler{probe: probe, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness returns 200 OK whenever the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness returns 200 with the loaded counts once the catalog and
// embedding index are up, 503 before that.
func (h *HealthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	if h.probe == nil || !h.probe.Ready() {
		h.logger.Debug("readiness check failed: still loading")
		http.Error(w, "catalog and index not loaded", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, h.probe.snapshot())
}
