package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ekdahl/kolada-mcp/internal/log"
)

func newTestServer(probe *Probe) *Server {
	health := NewHealthHandler(probe, log.NewNop())
	return NewServer(health, nil, log.NewNop())
}

func TestLiveness(t *testing.T) {
	srv := newTestServer(NewProbe())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}

func TestReadinessBeforeLoad(t *testing.T) {
	srv := newTestServer(NewProbe())

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 before load", rec.Code)
	}
}

func TestReadinessAfterLoad(t *testing.T) {
	probe := NewProbe()
	probe.SetReady(6000, 310, 6000)
	srv := newTestServer(probe)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 after load", rec.Code)
	}

	var body readiness
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Status != "ready" || body.KPIs != 6000 || body.Vectors != 6000 {
		t.Errorf("body = %+v", body)
	}
}

func TestHealthMethodNotAllowed(t *testing.T) {
	srv := newTestServer(NewProbe())

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405 for POST", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	srv := newTestServer(NewProbe())
	srv.mux.HandleFunc("GET /panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 after panic", rec.Code)
	}
}
