package server

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/crosscli/go-crosscli/internal/clilog"
	"github.com/crosscli/go-crosscli/internal/crosscli"
	"github.com/crosscli/go-crosscli/internal/version"
)

// MCPServer exposes session discovery as MCP tools, so assistants can
// look up each other's history.
type MCPServer struct {
	server   *mcp.Server
	registry *crosscli.Registry
	config   Config
}

// NewMCPServer creates a new MCP server with crosscli tools.
func NewMCPServer(registry *crosscli.Registry, config Config) *MCPServer {
	clilog.Log.Debug("NewMCPServer: creating MCP server")
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "crosscli",
		Version: version.Get(),
	}, nil)

	ms := &MCPServer{
		server:   server,
		registry: registry,
		config:   config,
	}
	ms.registerTools()

	return ms
}

// registerTools adds the crosscli tools to the MCP server.
func (ms *MCPServer) registerTools() {
	mcp.AddTool(ms.server, &mcp.Tool{
		Name:        "list_adapters",
		Description: "List supported AI assistant CLIs with detection status and session counts",
	}, ms.handleListAdapters)

	mcp.AddTool(ms.server, &mcp.Tool{
		Name:        "query_sessions",
		Description: "Find past AI assistant sessions across all installed CLIs, filtered by cli name, keyword, time range and limit",
	}, ms.handleQuerySessions)

	mcp.AddTool(ms.server, &mcp.Tool{
		Name:        "get_session_context",
		Description: "Get the recent conversation messages of one session, for resuming work in another assistant",
	}, ms.handleGetSessionContext)
}

// Tool input/output types

type listAdaptersInput struct{}

type listAdaptersOutput struct {
	Adapters []crosscli.AdapterStatus `json:"adapters"`
}

type querySessionsInput struct {
	CLI     string `json:"cli,omitempty"`     // claude, codex, gemini, qwen, iflow
	Search  string `json:"search,omitempty"`  // keyword over summaries and content
	Range   string `json:"range,omitempty"`   // today, week or month
	Project string `json:"project,omitempty"` // project path filter
	Limit   int    `json:"limit,omitempty"`   // result cap, default 20
}

type querySessionsOutput struct {
	Sessions []crosscli.SessionMeta `json:"sessions"`
	Warnings []string               `json:"warnings,omitempty"`
}

type getSessionContextInput struct {
	CLI       string `json:"cli"`
	SessionID string `json:"session_id"`
	Budget    int    `json:"budget,omitempty"` // max messages, default 50
}

// formatJSON renders a value as indented JSON for tool text content.
func formatJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

func (ms *MCPServer) scan(ctx context.Context, sources []crosscli.Source) (*crosscli.ScanResult, error) {
	start := time.Now()
	result, err := crosscli.Scan(ctx, ms.registry, crosscli.ScanOptions{
		Sources: sources,
		Timeout: ms.config.ScanTimeout,
	})
	observeScan(result, err, time.Since(start))
	return result, err
}

// Tool handlers

func (ms *MCPServer) handleListAdapters(ctx context.Context, req *mcp.CallToolRequest, _ listAdaptersInput) (*mcp.CallToolResult, listAdaptersOutput, error) {
	result, err := ms.scan(ctx, nil)
	if err != nil {
		return nil, listAdaptersOutput{}, err
	}
	output := listAdaptersOutput{Adapters: result.Statuses}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(output)}},
	}, output, nil
}

func (ms *MCPServer) handleQuerySessions(ctx context.Context, req *mcp.CallToolRequest, input querySessionsInput) (*mcp.CallToolResult, querySessionsOutput, error) {
	queryRequests.WithLabelValues("mcp_sessions").Inc()

	spec := crosscli.QuerySpec{
		CLI:         crosscli.Source(input.CLI),
		Keyword:     input.Search,
		ProjectPath: input.Project,
		Limit:       input.Limit,
	}
	if spec.Limit == 0 {
		spec.Limit = 20
	}

	now := time.Now()
	switch input.Range {
	case "":
	case "today":
		rng := crosscli.Today(now)
		spec.Range = &rng
	case "week":
		rng := crosscli.Week(now)
		spec.Range = &rng
	case "month":
		rng := crosscli.Month(now)
		spec.Range = &rng
	default:
		return nil, querySessionsOutput{}, crosscli.ErrInvalidTimeRange
	}

	var sources []crosscli.Source
	if spec.CLI != "" {
		sources = []crosscli.Source{spec.CLI}
	}

	result, err := ms.scan(ctx, sources)
	if err != nil {
		return nil, querySessionsOutput{}, err
	}

	sessions, err := crosscli.Query(ctx, result.Index, spec, crosscli.RegistrySearcher(ms.registry))
	if err != nil {
		return nil, querySessionsOutput{}, err
	}

	output := querySessionsOutput{Sessions: sessions, Warnings: result.Warnings}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(output)}},
	}, output, nil
}

func (ms *MCPServer) handleGetSessionContext(ctx context.Context, req *mcp.CallToolRequest, input getSessionContextInput) (*mcp.CallToolResult, *crosscli.ContextPayload, error) {
	queryRequests.WithLabelValues("mcp_context").Inc()

	cli := crosscli.Source(input.CLI)
	result, err := ms.scan(ctx, []crosscli.Source{cli})
	if err != nil {
		return nil, nil, err
	}

	var meta *crosscli.SessionMeta
	for i := range result.Index {
		if result.Index[i].ID == input.SessionID {
			meta = &result.Index[i]
			break
		}
	}
	if meta == nil {
		return nil, nil, os.ErrNotExist
	}

	payload, err := crosscli.ExtractContext(ctx, ms.registry, *meta, input.Budget)
	if err != nil {
		return nil, nil, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(payload)}},
	}, payload, nil
}

// RunStdio runs the MCP server over stdin/stdout until ctx is done.
func (ms *MCPServer) RunStdio(ctx context.Context) error {
	return ms.server.Run(ctx, &mcp.LoggingTransport{Transport: &mcp.StdioTransport{}, Writer: os.Stderr})
}
