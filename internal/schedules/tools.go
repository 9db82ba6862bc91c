package schedules

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jamesprial/optisigns-mcp/internal/safety"
	"github.com/jamesprial/optisigns-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	toolNameList   = "schedules_list"
	toolNameCreate = "schedules_create"
	toolNameUpdate = "schedules_update"
	toolNameDelete = "schedules_delete"
)

// DestructiveTools lists schedule tool names that require confirmation before
// execution.
var DestructiveTools = []string{toolNameDelete}

const itemsDescription = `Schedule items as a JSON array, e.g. [{"playlistId":"p1","startTime":"08:00","endTime":"12:00"}]`

// ScheduleTools returns the MCP tool registrations for schedule management.
func ScheduleTools(mgr ScheduleManager, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolList(mgr, audit),
		toolCreate(mgr, audit),
		toolUpdate(mgr, audit),
		toolDelete(mgr, confirm, audit),
	}
}

// parseItems decodes the items argument. An empty string yields nil.
func parseItems(raw string) ([]Item, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parse items JSON: %w", err)
	}
	return items, nil
}

func formatSchedule(s Schedule) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (id=%s)", s.Name, s.ID)
	for _, it := range s.Items {
		fmt.Fprintf(&sb, "\n  %s to %s: playlist %s", it.StartTime, it.EndTime, it.PlaylistID)
	}
	return sb.String()
}

func toolList(mgr ScheduleManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameList,
		mcp.WithDescription("List schedules and their playlist time windows."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		list, err := mgr.List(ctx)
		if err != nil {
			return tools.Fail(audit, toolNameList, params, err, start), nil
		}
		if len(list) == 0 {
			tools.LogAudit(audit, toolNameList, params, "ok: empty", start)
			return mcp.NewToolResultText("No schedules found."), nil
		}

		var sb strings.Builder
		for i, s := range list {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(formatSchedule(s))
		}
		tools.LogAudit(audit, toolNameList, params, "ok", start)
		return mcp.NewToolResultText(sb.String()), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCreate(mgr ScheduleManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameCreate,
		mcp.WithDescription("Create a schedule that plays playlists in time windows."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Schedule name"),
		),
		mcp.WithString("items",
			mcp.Description(itemsDescription),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		rawItems := req.GetString("items", "")
		params := map[string]any{"name": name, "items": rawItems}

		items, err := parseItems(rawItems)
		if err != nil {
			return tools.Fail(audit, toolNameCreate, params, err, start), nil
		}

		s, err := mgr.Create(ctx, CreateInput{Name: name, Items: items})
		if err != nil {
			return tools.Fail(audit, toolNameCreate, params, err, start), nil
		}
		tools.LogAudit(audit, toolNameCreate, params, "ok", start)
		return mcp.NewToolResultText(formatSchedule(*s)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolUpdate(mgr ScheduleManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameUpdate,
		mcp.WithDescription("Rename a schedule and/or replace all of its items."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Schedule id"),
		),
		mcp.WithString("name",
			mcp.Description("New schedule name"),
		),
		mcp.WithString("items",
			mcp.Description(itemsDescription+"; replaces existing items"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("id", "")
		name := req.GetString("name", "")
		rawItems := req.GetString("items", "")
		params := map[string]any{"id": id, "name": name, "items": rawItems}

		var input UpdateInput
		if name != "" {
			input.Name = &name
		}
		items, err := parseItems(rawItems)
		if err != nil {
			return tools.Fail(audit, toolNameUpdate, params, err, start), nil
		}
		input.Items = items

		s, err := mgr.Update(ctx, id, input)
		if err != nil {
			return tools.Fail(audit, toolNameUpdate, params, err, start), nil
		}
		tools.LogAudit(audit, toolNameUpdate, params, "ok", start)
		return mcp.NewToolResultText(formatSchedule(*s)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolDelete(mgr ScheduleManager, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameDelete,
		mcp.WithDescription("Permanently delete a schedule. Requires a confirmation token."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Schedule id"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("id", "")
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"id": id}

		if id == "" {
			return tools.Fail(audit, toolNameDelete, params, fmt.Errorf("id is required"), start), nil
		}
		if !confirm.Confirm(token, toolNameDelete, id) {
			desc := fmt.Sprintf("This will permanently delete schedule %s. Devices following it fall back to no content.", id)
			return tools.ConfirmPrompt(confirm, toolNameDelete, id, desc), nil
		}

		ok, err := mgr.Delete(ctx, id)
		if err != nil {
			return tools.Fail(audit, toolNameDelete, params, err, start), nil
		}
		if !ok {
			tools.LogAudit(audit, toolNameDelete, params, "ok: server declined", start)
			return mcp.NewToolResultText(fmt.Sprintf("schedule %q was not deleted by the server", id)), nil
		}
		tools.LogAudit(audit, toolNameDelete, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("schedule %q deleted successfully", id)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
