package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ekdahl/kolada-mcp/internal/kolada"
	"github.com/ekdahl/kolada-mcp/internal/log"
)

func TestLoadCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/kpi":
			_, _ = w.Write([]byte(`{"count":2,"values":[
				{"id":"N00001","title":"Skattesats","description":"Kommunal skattesats","operating_area":"Ekonomi","unit":"%"},
				{"id":"N00002","title":"Behörighet","description":"Andel behöriga","operating_area":"Utbildning","unit":"%"}
			],"next_page":""}`))
		case "/municipality":
			_, _ = w.Write([]byte(`{"count":1,"values":[
				{"id":"0180","title":"Stockholm","type":"K"}
			],"next_page":""}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := kolada.New(kolada.Config{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, log.NewNop())

	cat, err := loadCatalog(context.Background(), client, log.NewNop())
	if err != nil {
		t.Fatalf("loadCatalog: %v", err)
	}
	if cat.KPICount() != 2 {
		t.Errorf("KPICount = %d, want 2", cat.KPICount())
	}
	if cat.MunicipalityCount() != 1 {
		t.Errorf("MunicipalityCount = %d, want 1", cat.MunicipalityCount())
	}
}

func TestLoadCatalogUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := kolada.New(kolada.Config{
		BaseURL:    srv.URL,
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	}, log.NewNop())

	if _, err := loadCatalog(context.Background(), client, log.NewNop()); err == nil {
		t.Error("expected error when upstream is down")
	}
}

func TestAppClose(t *testing.T) {
	a := &App{Logger: log.NewNop()}
	if err := a.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
