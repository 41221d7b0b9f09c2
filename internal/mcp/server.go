package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ekdahl/kolada-mcp/internal/log"
	"github.com/ekdahl/kolada-mcp/internal/tools"
)

// Server wraps the MCP SDK server and the Kolada tool kit.
type Server struct {
	mcpServer *mcp.Server
	kit       *tools.Kit
	logger    log.Logger
	name      string
	version   string
}

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
	Kit     *tools.Kit
	Logger  log.Logger
}

// NewServer creates an MCP server with all Kolada tools registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Kit == nil {
		return nil, fmt.Errorf("tool kit is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		kit:       cfg.Kit,
		logger:    cfg.Logger,
		name:      cfg.Name,
		version:   cfg.Version,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Run starts the MCP server on the given transport. Blocks until the
// context is canceled or the transport closes.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("MCP server starting", "name", s.name, "version", s.version)
	return s.mcpServer.Run(ctx, transport)
}

// HTTPHandler returns a streamable-HTTP handler for serving the same
// server over HTTP.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// register infers the input schema from In, wires the handler and converts
// its Result envelope to an MCP tool result. Handler error returns are
// system failures and propagate as protocol errors.
func register[In any](s *Server, name, description string, handler func(context.Context, In) (tools.Result, error)) error {
	inputSchema, err := jsonschema.For[In](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", name, err)
	}

	tool := &mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		result, err := handler(ctx, in)
		if err != nil {
			return nil, nil, fmt.Errorf("system error: %w", err)
		}
		return resultToMCP(result, s.logger), nil, nil
	})
	return nil
}

// registerTools registers every Kolada tool.
func (s *Server) registerTools() error {
	if err := register(s, tools.ListOperatingAreasName,
		"List all operating areas (policy domains) in the Kolada KPI catalog with their indicator counts, largest first. "+
			"Use this first to get an overview of what statistics exist.",
		s.kit.ListOperatingAreas); err != nil {
		return err
	}

	if err := register(s, tools.KPIsByOperatingAreaName,
		"List every KPI in one operating area, e.g. 'Utbildning' or 'Ekonomi'. "+
			"The area name is matched case-insensitively. An unknown area returns an empty list.",
		s.kit.KPIsByOperatingArea); err != nil {
		return err
	}

	if err := register(s, tools.SearchKPIsName,
		"Semantic search over the Kolada KPI catalog. Describe the statistic in free text (Swedish works best, e.g. "+
			"'andel behöriga till gymnasiet') and get the closest indicators ranked by similarity score in [-1, 1]. "+
			"Use this when you do not know the exact KPI id.",
		s.kit.SearchKPIs); err != nil {
		return err
	}

	if err := register(s, tools.KPIMetadataName,
		"Get full metadata for one KPI id: title, description, operating area and unit. "+
			"Id matching is exact; use search_kpis if you only have a description.",
		s.kit.KPIMetadata); err != nil {
		return err
	}

	if err := register(s, tools.FetchDataName,
		"Fetch raw Kolada observations for one KPI: per municipality, year and gender dimension (T=total, M=men, K=women). "+
			"Returns the data as-is with no analysis; absent values are null, never zero. "+
			"Prefer analyze_kpi_across_municipalities or compare_kpis when you want statistics rather than raw rows.",
		s.kit.FetchData); err != nil {
		return err
	}

	if err := register(s, tools.AnalyzeKPIName,
		"Rank municipalities on one KPI for a year. Ties share a rank (competition ranking) and the result includes "+
			"count, mean, median, min, max and standard deviation over the municipalities that have data. "+
			"Direction 'asc' ranks the smallest value first (default), 'desc' the largest. "+
			"Municipalities without data are listed separately.",
		s.kit.AnalyzeKPI); err != nil {
		return err
	}

	if err := register(s, tools.CompareKPIsName,
		"Compare two KPIs across municipalities for one year. Mode 'difference' returns value_a - value_b per municipality; "+
			"mode 'correlation' returns the Pearson coefficient over municipalities that have both values. "+
			"Municipalities missing either value are excluded and counted.",
		s.kit.CompareKPIs); err != nil {
		return err
	}

	if err := register(s, tools.ListMunicipalitiesName,
		"List Swedish municipalities and regions with their Kolada ids. "+
			"Filter by type: 'K' municipalities, 'R' regions, 'L' county councils.",
		s.kit.ListMunicipalities); err != nil {
		return err
	}

	if err := register(s, tools.FilterMunicipalitiesByKPIName,
		"Find the municipalities whose KPI value is above, below or equal to a threshold for a year. "+
			"Comparison is strict for 'above' and 'below'. Municipalities without data never match.",
		s.kit.FilterMunicipalitiesByKPI); err != nil {
		return err
	}

	return nil
}
