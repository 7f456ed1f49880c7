package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/uimap/discovery/internal/store"
)

// RegisterMCP registers discovery tools on an MCP server, exposing the
// latest graph and run history to agent clients.
func (d *Discovery) RegisterMCP(srv *mcp.Server) {
	d.registerStatsTool(srv)
	d.registerExportTool(srv)
	d.registerStatesTool(srv)
	d.registerRunsTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		var res mcp.CallToolResult
		res.SetError(fmt.Errorf("marshal: %w", err))
		return &res, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

func errResult(err error) (*mcp.CallToolResult, error) {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res, nil
}

func (d *Discovery) registerStatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "map_stats",
		Description: "Summary of the latest discovered UI graph: state count, transition count, state type distribution.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc := d.Document()
		if doc == nil {
			return errResult(errors.New("no completed run yet"))
		}
		return jsonResult(doc.Statistics)
	})
}

func (d *Discovery) registerExportTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "map_export",
		Description: "Full export of the latest discovered UI graph (nodes, edges, statistics), reusable as a seed.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc := d.Document()
		if doc == nil {
			return errResult(errors.New("no completed run yet"))
		}
		return jsonResult(doc)
	})
}

type statesRequest struct {
	StateType string `json:"state_type,omitempty"`
}

func (d *Discovery) registerStatesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "map_states",
		Description: "List discovered UI states, optionally filtered by state type.",
		InputSchema: inputSchema(map[string]any{
			"state_type": map[string]any{
				"type":        "string",
				"enum":        []any{"form", "dashboard", "list", "detail", "error", "interactive", "unknown"},
				"description": "Only return states of this type",
			},
		}, nil),
	}
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r statesRequest
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return errResult(fmt.Errorf("invalid arguments: %w", err))
			}
		}
		doc := d.Document()
		if doc == nil {
			return errResult(errors.New("no completed run yet"))
		}
		if r.StateType == "" {
			return jsonResult(doc.Nodes)
		}
		var out []any
		for _, n := range doc.Nodes {
			if n.StateType == r.StateType {
				out = append(out, n)
			}
		}
		return jsonResult(out)
	})
}

type runsRequest struct {
	Limit int `json:"limit,omitempty"`
}

func (d *Discovery) registerRunsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "map_runs",
		Description: "List discovery runs, newest first.",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Max runs to return (default 50)"},
		}, nil),
	}
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r runsRequest
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return errResult(fmt.Errorf("invalid arguments: %w", err))
			}
		}
		runs, err := d.st.ListRuns(ctx, r.Limit)
		if err != nil {
			return errResult(err)
		}
		if runs == nil {
			runs = []*store.Run{}
		}
		return jsonResult(runs)
	})
}
