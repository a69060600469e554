// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes validation and monitoring tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/headonpro/contenthooks/internal/format"
	"github.com/headonpro/contenthooks/internal/metrics"
	"github.com/headonpro/contenthooks/internal/rules"
)

// Server wraps the MCP server with contenthooks tools.
type Server struct {
	mcp      *server.MCPServer
	engine   *rules.Engine
	registry *rules.Registry
	recorder *metrics.Recorder
}

// New creates a new MCP server with all contenthooks tools registered.
func New(engine *rules.Engine, registry *rules.Registry, recorder *metrics.Recorder) *Server {
	s := &Server{engine: engine, registry: registry, recorder: recorder}

	s.mcp = server.NewMCPServer(
		"contenthooks",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("validate_content",
		mcp.WithDescription("Run the registered validation rules for a content category against a payload. "+
			"Returns the ordered rule outcomes. Read the rule authoring contract first via the "+
			"get_rule_contract tool or the contenthooks://rule-contract resource."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Content category (e.g. team, season)")),
		mcp.WithString("operation", mcp.Required(), mcp.Description("Lifecycle operation: create or update")),
		mcp.WithString("data", mcp.Required(), mcp.Description("Record payload as a JSON object")),
		mcp.WithString("existing", mcp.Description("Optional existing data as a JSON object (for duplicate/overlap checks)")),
	), s.validateContent)

	s.mcp.AddTool(mcp.NewTool("list_rules",
		mcp.WithDescription("List registered validation rules with their usage statistics."),
		mcp.WithString("category", mcp.Description("Optional content category filter")),
	), s.listRules)

	s.mcp.AddTool(mcp.NewTool("get_operation_stats",
		mcp.WithDescription("Return execution statistics for hook operations."),
		mcp.WithString("name", mcp.Description("Optional operation name (e.g. team.beforeCreate); empty for all")),
	), s.getOperationStats)

	s.mcp.AddTool(mcp.NewTool("get_slow_operations",
		mcp.WithDescription("List hook operations whose average execution time exceeds a threshold, slowest first."),
		mcp.WithString("threshold_ms", mcp.Description("Threshold in milliseconds (default 100)")),
	), s.getSlowOperations)

	s.mcp.AddTool(mcp.NewTool("get_rule_contract",
		mcp.WithDescription("Returns the canonical rule authoring contract. "+
			"Call this before writing or reviewing validation rules."),
	), s.getRuleContract)

	// Resource: rule authoring contract.
	s.mcp.AddResource(
		mcp.NewResource("contenthooks://rule-contract", "Rule Authoring Contract",
			mcp.WithResourceDescription("Contract every validation rule must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRuleContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) validateContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	operation, err := req.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawData, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(rawData), &payload); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("data is not a JSON object: %v", err)), nil
	}

	var existing map[string]any
	if raw, rawErr := req.RequireString("existing"); rawErr == nil && raw != "" {
		if err := json.Unmarshal([]byte(raw), &existing); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("existing is not a JSON object: %v", err)), nil
		}
	}

	res, err := s.engine.Validate(ctx, category, operation, payload, existing)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(format.ValidationResponseFrom(res), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listRules(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := ""
	if c, err := req.RequireString("category"); err == nil {
		category = c
	}

	stats := s.registry.Stats()
	if category != "" {
		filtered := stats[:0:0]
		for _, st := range stats {
			if st.Category == category {
				filtered = append(filtered, st)
			}
		}
		stats = filtered
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getOperationStats(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if name, err := req.RequireString("name"); err == nil && name != "" {
		st, ok := s.recorder.Snapshot(name)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no executions recorded for %s", name)), nil
		}
		out, _ := json.MarshalIndent(st, "", "  ")
		return mcp.NewToolResultText(string(out)), nil
	}
	out, _ := json.MarshalIndent(s.recorder.All(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSlowOperations(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threshold := 100
	if raw, err := req.RequireString("threshold_ms"); err == nil && raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 {
			threshold = n
		}
	}
	ops := s.recorder.SlowOperations(time.Duration(threshold) * time.Millisecond)
	if len(ops) == 0 {
		return mcp.NewToolResultText("no slow operations"), nil
	}
	out, _ := json.MarshalIndent(ops, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRuleContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RuleContract), nil
}

func (s *Server) readRuleContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "contenthooks://rule-contract",
			MIMEType: "text/markdown",
			Text:     RuleContract,
		},
	}, nil
}
