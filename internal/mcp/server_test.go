package mcp

import (
	"context"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ekdahl/kolada-mcp/internal/catalog"
	"github.com/ekdahl/kolada-mcp/internal/embedding"
	"github.com/ekdahl/kolada-mcp/internal/kolada"
	"github.com/ekdahl/kolada-mcp/internal/log"
	"github.com/ekdahl/kolada-mcp/internal/tools"
)

type stubObservations struct{}

func (stubObservations) Get(context.Context, string, []string, []int) ([]kolada.Observation, error) {
	return nil, nil
}

type stubSearcher struct{}

func (stubSearcher) Search(context.Context, string, int, *float64) ([]embedding.Match, error) {
	return nil, nil
}

func testKit(t *testing.T) *tools.Kit {
	t.Helper()
	cat, err := catalog.New(
		[]catalog.KPI{{ID: "N00001", Title: "Skattesats", OperatingArea: "Ekonomi"}},
		[]catalog.Municipality{{ID: "0180", Title: "Stockholm", Type: catalog.TypeMunicipality}},
	)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	kit, err := tools.NewKit(tools.KitConfig{
		Catalog:      cat,
		Searcher:     stubSearcher{},
		Observations: stubObservations{},
		Logger:       log.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewKit: %v", err)
	}
	return kit
}

func TestNewServer(t *testing.T) {
	s, err := NewServer(Config{
		Name:    "kolada-mcp",
		Version: "1.0.0",
		Kit:     testKit(t),
		Logger:  log.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if s.mcpServer == nil {
		t.Error("mcpServer is nil")
	}
}

func TestNewServerValidation(t *testing.T) {
	kit := testKit(t)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing name", Config{Version: "1.0.0", Kit: kit, Logger: log.NewNop()}},
		{"missing version", Config{Name: "kolada-mcp", Kit: kit, Logger: log.NewNop()}},
		{"missing kit", Config{Name: "kolada-mcp", Version: "1.0.0", Logger: log.NewNop()}},
		{"missing logger", Config{Name: "kolada-mcp", Version: "1.0.0", Kit: kit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewServer(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResultToMCPError(t *testing.T) {
	result := tools.Result{
		Status:    tools.StatusError,
		RequestID: "req-1",
		Error: &tools.Error{
			Code:    tools.ErrCodeNotFound,
			Message: "kpi N99999 not found",
			Details: map[string]any{"kpi_id": "N99999"},
		},
	}

	out := resultToMCP(result, log.NewNop())
	if !out.IsError {
		t.Fatal("IsError = false, want true")
	}

	text := out.Content[0].(*sdk.TextContent).Text
	if !strings.Contains(text, "[NotFound]") {
		t.Errorf("text %q missing error code", text)
	}
	if !strings.Contains(text, "req-1") {
		t.Errorf("text %q missing request id", text)
	}
	if !strings.Contains(text, "N99999") {
		t.Errorf("text %q missing details", text)
	}
}

func TestResultToMCPSuccess(t *testing.T) {
	result := tools.Result{
		Status: tools.StatusSuccess,
		Data:   map[string]any{"count": 3},
	}

	out := resultToMCP(result, log.NewNop())
	if out.IsError {
		t.Fatal("IsError = true for success result")
	}

	text := out.Content[0].(*sdk.TextContent).Text
	if !strings.Contains(text, `"count":3`) {
		t.Errorf("text %q, want JSON with count", text)
	}
}

func TestDataToMCPNil(t *testing.T) {
	out := dataToMCP(nil)
	if out.IsError {
		t.Error("IsError = true for nil data")
	}
	if text := out.Content[0].(*sdk.TextContent).Text; text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}
