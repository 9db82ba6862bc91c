package playlists

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jamesprial/optisigns-mcp/internal/safety"
	"github.com/jamesprial/optisigns-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	toolNameList        = "playlists_list"
	toolNameCreate      = "playlists_create"
	toolNameAddItems    = "playlists_add_items"
	toolNameRemoveItems = "playlists_remove_items"
	toolNameModifyItem  = "playlists_modify_item"
	toolNameDelete      = "playlists_delete"
)

// defaultItemDuration is used for new items when no duration is given.
const defaultItemDuration = 10

// DestructiveTools lists playlist tool names that require confirmation before
// execution.
var DestructiveTools = []string{toolNameDelete}

// PlaylistTools returns the MCP tool registrations for playlist management.
func PlaylistTools(mgr PlaylistManager, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger, teamID string) []tools.Registration {
	return []tools.Registration{
		toolList(mgr, audit, teamID),
		toolCreate(mgr, audit, teamID),
		toolAddItems(mgr, audit, teamID),
		toolRemoveItems(mgr, audit, teamID),
		toolModifyItem(mgr, audit, teamID),
		toolDelete(mgr, confirm, audit, teamID),
	}
}

// formatPlaylist renders a playlist and its items in order.
func formatPlaylist(p Playlist) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (id=%s, %d items)", p.Name, p.ID, len(p.Items))
	for i, it := range p.Items {
		fmt.Fprintf(&sb, "\n  %d. asset %s for %gs", i, it.AssetID, it.Duration)
	}
	return sb.String()
}

// itemsFromIDs builds ItemInputs with the same duration for every asset.
func itemsFromIDs(rawIDs string, duration int) ([]ItemInput, error) {
	ids, err := tools.SplitList(rawIDs)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, fmt.Errorf("invalid duration %d: must be positive", duration)
	}
	items := make([]ItemInput, len(ids))
	for i, id := range ids {
		items[i] = ItemInput{AssetID: id, Duration: float64(duration)}
	}
	return items, nil
}

func toolList(mgr PlaylistManager, audit *safety.AuditLogger, defaultTeam string) tools.Registration {
	tool := mcp.NewTool(toolNameList,
		mcp.WithDescription("List playlists with their items in play order."),
		mcp.WithString("team_id",
			mcp.Description("Team id (defaults to the configured team)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		teamID := req.GetString("team_id", defaultTeam)
		params := map[string]any{"team_id": teamID}

		list, err := mgr.List(ctx, teamID)
		if err != nil {
			return tools.Fail(audit, toolNameList, params, err, start), nil
		}
		if len(list) == 0 {
			tools.LogAudit(audit, toolNameList, params, "ok: empty", start)
			return mcp.NewToolResultText("No playlists found."), nil
		}

		var sb strings.Builder
		for i, p := range list {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(formatPlaylist(p))
		}
		tools.LogAudit(audit, toolNameList, params, "ok", start)
		return mcp.NewToolResultText(sb.String()), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCreate(mgr PlaylistManager, audit *safety.AuditLogger, defaultTeam string) tools.Registration {
	tool := mcp.NewTool(toolNameCreate,
		mcp.WithDescription("Create a playlist, optionally with initial assets."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Playlist name"),
		),
		mcp.WithString("asset_ids",
			mcp.Description("Asset ids in play order, comma separated or as a JSON array"),
		),
		mcp.WithNumber("duration",
			mcp.Description("Seconds each asset is shown (default: 10)"),
		),
		mcp.WithString("team_id",
			mcp.Description("Team id (defaults to the configured team)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		rawIDs := req.GetString("asset_ids", "")
		duration := req.GetInt("duration", defaultItemDuration)
		teamID := req.GetString("team_id", defaultTeam)
		params := map[string]any{"name": name, "asset_ids": rawIDs, "duration": duration, "team_id": teamID}

		items, err := itemsFromIDs(rawIDs, duration)
		if err != nil {
			return tools.Fail(audit, toolNameCreate, params, err, start), nil
		}

		p, err := mgr.Create(ctx, CreateInput{Name: name, Items: items}, teamID)
		if err != nil {
			return tools.Fail(audit, toolNameCreate, params, err, start), nil
		}
		tools.LogAudit(audit, toolNameCreate, params, "ok", start)
		return mcp.NewToolResultText(formatPlaylist(*p)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolAddItems(mgr PlaylistManager, audit *safety.AuditLogger, defaultTeam string) tools.Registration {
	tool := mcp.NewTool(toolNameAddItems,
		mcp.WithDescription("Insert assets into a playlist at a 0-based position."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Playlist id"),
		),
		mcp.WithString("asset_ids",
			mcp.Required(),
			mcp.Description("Asset ids to insert, comma separated or as a JSON array"),
		),
		mcp.WithNumber("position",
			mcp.Required(),
			mcp.Description("0-based index to insert at; past the end appends"),
		),
		mcp.WithNumber("duration",
			mcp.Description("Seconds each asset is shown (default: 10)"),
		),
		mcp.WithString("team_id",
			mcp.Description("Team id (defaults to the configured team)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("id", "")
		rawIDs := req.GetString("asset_ids", "")
		position := req.GetInt("position", -1)
		duration := req.GetInt("duration", defaultItemDuration)
		teamID := req.GetString("team_id", defaultTeam)
		params := map[string]any{"id": id, "asset_ids": rawIDs, "position": position, "duration": duration, "team_id": teamID}

		items, err := itemsFromIDs(rawIDs, duration)
		if err != nil {
			return tools.Fail(audit, toolNameAddItems, params, err, start), nil
		}

		p, err := mgr.AddItems(ctx, id, position, items, teamID)
		if err != nil {
			return tools.Fail(audit, toolNameAddItems, params, err, start), nil
		}
		tools.LogAudit(audit, toolNameAddItems, params, "ok", start)
		return mcp.NewToolResultText(formatPlaylist(*p)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolRemoveItems(mgr PlaylistManager, audit *safety.AuditLogger, defaultTeam string) tools.Registration {
	tool := mcp.NewTool(toolNameRemoveItems,
		mcp.WithDescription("Remove items from a playlist by 0-based position. Positions refer to the playlist before the removal."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Playlist id"),
		),
		mcp.WithString("positions",
			mcp.Required(),
			mcp.Description("Positions to remove, e.g. \"0,2\" or \"[0,2]\""),
		),
		mcp.WithString("team_id",
			mcp.Description("Team id (defaults to the configured team)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("id", "")
		rawPositions := req.GetString("positions", "")
		teamID := req.GetString("team_id", defaultTeam)
		params := map[string]any{"id": id, "positions": rawPositions, "team_id": teamID}

		positions, err := tools.SplitInts(rawPositions)
		if err != nil {
			return tools.Fail(audit, toolNameRemoveItems, params, err, start), nil
		}

		p, err := mgr.RemoveItems(ctx, id, positions, teamID)
		if err != nil {
			return tools.Fail(audit, toolNameRemoveItems, params, err, start), nil
		}
		tools.LogAudit(audit, toolNameRemoveItems, params, "ok", start)
		return mcp.NewToolResultText(formatPlaylist(*p)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolModifyItem(mgr PlaylistManager, audit *safety.AuditLogger, defaultTeam string) tools.Registration {
	tool := mcp.NewTool(toolNameModifyItem,
		mcp.WithDescription("Change how long a playlist item is shown, or move it to a new position."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Playlist id"),
		),
		mcp.WithNumber("position",
			mcp.Required(),
			mcp.Description("0-based position of the item"),
		),
		mcp.WithNumber("duration",
			mcp.Description("New duration in seconds"),
		),
		mcp.WithNumber("new_position",
			mcp.Description("0-based position to move the item to"),
		),
		mcp.WithString("team_id",
			mcp.Description("Team id (defaults to the configured team)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("id", "")
		position := req.GetInt("position", -1)
		duration := req.GetInt("duration", -1)
		newPosition := req.GetInt("new_position", -1)
		teamID := req.GetString("team_id", defaultTeam)
		params := map[string]any{"id": id, "position": position, "duration": duration, "new_position": newPosition, "team_id": teamID}

		var patch ItemPatch
		if duration >= 0 {
			d := float64(duration)
			patch.Duration = &d
		}
		if newPosition >= 0 {
			patch.Position = &newPosition
		}

		p, err := mgr.ModifyItem(ctx, id, position, patch, teamID)
		if err != nil {
			return tools.Fail(audit, toolNameModifyItem, params, err, start), nil
		}
		tools.LogAudit(audit, toolNameModifyItem, params, "ok", start)
		return mcp.NewToolResultText(formatPlaylist(*p)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolDelete(mgr PlaylistManager, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger, defaultTeam string) tools.Registration {
	tool := mcp.NewTool(toolNameDelete,
		mcp.WithDescription("Permanently delete a playlist. Requires a confirmation token."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Playlist id"),
		),
		mcp.WithString("team_id",
			mcp.Description("Team id (defaults to the configured team)"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("id", "")
		teamID := req.GetString("team_id", defaultTeam)
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"id": id, "team_id": teamID}

		if id == "" {
			return tools.Fail(audit, toolNameDelete, params, fmt.Errorf("id is required"), start), nil
		}
		if !confirm.Confirm(token, toolNameDelete, id) {
			desc := fmt.Sprintf("This will permanently delete playlist %s. Screens and schedules using it lose the content. This cannot be undone.", id)
			return tools.ConfirmPrompt(confirm, toolNameDelete, id, desc), nil
		}

		ok, err := mgr.Delete(ctx, id, teamID)
		if err != nil {
			return tools.Fail(audit, toolNameDelete, params, err, start), nil
		}
		if !ok {
			tools.LogAudit(audit, toolNameDelete, params, "ok: server declined", start)
			return mcp.NewToolResultText(fmt.Sprintf("playlist %q was not deleted by the server", id)), nil
		}
		tools.LogAudit(audit, toolNameDelete, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("playlist %q deleted successfully", id)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
