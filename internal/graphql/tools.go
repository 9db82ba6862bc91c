package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/optisigns-mcp/internal/safety"
	"github.com/jamesprial/optisigns-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const toolNameQuery = "graphql_query"

// GraphQLTools exposes the raw API as a single graphql_query tool for
// operations the typed tools do not cover.
func GraphQLTools(client Client, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolQuery(client, audit),
	}
}

func toolQuery(client Client, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameQuery,
		mcp.WithDescription("Execute an arbitrary GraphQL query or mutation against the OptiSigns API. Use when the other tools do not cover what is needed."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The GraphQL document to execute."),
		),
		mcp.WithString("variables",
			mcp.Description("Optional JSON object of variables."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		query := req.GetString("query", "")
		rawVars := req.GetString("variables", "")
		params := map[string]any{"query": query, "variables": rawVars}

		var vars map[string]any
		if rawVars != "" {
			if err := json.Unmarshal([]byte(rawVars), &vars); err != nil {
				return tools.Fail(audit, toolNameQuery, params, fmt.Errorf("parse variables JSON: %w", err), start), nil
			}
		}

		data, err := client.Execute(ctx, query, vars)
		if err != nil {
			return tools.Fail(audit, toolNameQuery, params, Wrap("execute query", err), start), nil
		}

		var parsed any
		if err := json.Unmarshal(data, &parsed); err != nil {
			return tools.Fail(audit, toolNameQuery, params, err, start), nil
		}

		tools.LogAudit(audit, toolNameQuery, params, "ok", start)
		return tools.JSONResult(parsed), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
