package devices

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
	toolNameList   = "devices_list"
	toolNameGet    = "devices_get"
	toolNameUpdate = "devices_update"
	toolNamePair   = "devices_pair"
	toolNameUnpair = "devices_unpair"
)

// DestructiveTools lists device tool names that require confirmation before
// execution.
var DestructiveTools = []string{toolNameUnpair}

// DeviceTools returns the MCP tool registrations for device management.
// filter restricts which devices devices_update and devices_unpair may touch;
// teamID is used when a call does not name a team.
func DeviceTools(mgr DeviceManager, filter *safety.Filter, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger, teamID string) []tools.Registration {
	return []tools.Registration{
		toolList(mgr, audit),
		toolGet(mgr, audit),
		toolUpdate(mgr, filter, audit),
		toolPair(mgr, audit, teamID),
		toolUnpair(mgr, filter, confirm, audit, teamID),
	}
}

func toolList(mgr DeviceManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameList,
		mcp.WithDescription("List OptiSigns devices. When name is given only devices with exactly that name are returned."),
		mcp.WithString("name",
			mcp.Description("Exact device name to match (optional)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		params := map[string]any{"name": name}

		var (
			list []Device
			err  error
		)
		if name != "" {
			list, err = mgr.FindByName(ctx, name)
		} else {
			list, err = mgr.ListAll(ctx)
		}
		if err != nil {
			return tools.Fail(audit, toolNameList, params, err, start), nil
		}

		if len(list) == 0 {
			tools.LogAudit(audit, toolNameList, params, "ok: empty", start)
			return mcp.NewToolResultText("No devices found."), nil
		}

		var sb strings.Builder
		for i, d := range list {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(formatDevice(d))
		}
		tools.LogAudit(audit, toolNameList, params, "ok", start)
		return mcp.NewToolResultText(sb.String()), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// formatDevice renders one device as a single summary line.
func formatDevice(d Device) string {
	content := "nothing"
	switch d.CurrentType {
	case MediaAsset:
		content = "asset " + d.CurrentAssetID
	case MediaPlaylist:
		content = "playlist " + d.CurrentPlaylistID
	case MediaSchedule:
		content = "schedule " + d.CurrentScheduleID
	}
	path := d.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s (id=%s, folder=%s) showing %s", d.Name, d.ID, path, content)
}

func toolGet(mgr DeviceManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameGet,
		mcp.WithDescription("Get the full record of one OptiSigns device by id."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Device id"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("id", "")
		params := map[string]any{"id": id}

		d, err := mgr.GetByID(ctx, id)
		if err != nil {
			return tools.Fail(audit, toolNameGet, params, err, start), nil
		}
		tools.LogAudit(audit, toolNameGet, params, "ok", start)
		return tools.JSONResult(d), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolUpdate(mgr DeviceManager, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameUpdate,
		mcp.WithDescription("Update an OptiSigns device: rename it, rotate it, move it to a folder, switch what it shows, or set its operational schedule or content tag rule. Only the given fields change."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Device id"),
		),
		mcp.WithString("name",
			mcp.Description("New device name"),
		),
		mcp.WithString("orientation",
			mcp.Description("LANDSCAPE, ROTATE_90, ROTATE_180 or ROTATE_270"),
		),
		mcp.WithString("folder",
			mcp.Description("Folder path; use \"/\" for the root"),
		),
		mcp.WithString("content_type",
			mcp.Description("ASSET, PLAYLIST, SCHEDULE or NONE; requires content_id unless NONE"),
		),
		mcp.WithString("content_id",
			mcp.Description("Id of the asset, playlist or schedule to show"),
		),
		mcp.WithString("operational_schedule_id",
			mcp.Description("Operational schedule id (feature.scheduleOpsId)"),
		),
		mcp.WithString("tag_rule_id",
			mcp.Description("Content tag rule id (feature.contentTagRuleId)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("id", "")
		name := req.GetString("name", "")
		orientation := strings.ToUpper(req.GetString("orientation", ""))
		folder := req.GetString("folder", "")
		contentType := strings.ToUpper(req.GetString("content_type", ""))
		contentID := req.GetString("content_id", "")
		opsID := req.GetString("operational_schedule_id", "")
		ruleID := req.GetString("tag_rule_id", "")

		params := map[string]any{
			"id":                      id,
			"name":                    name,
			"orientation":             orientation,
			"folder":                  folder,
			"content_type":            contentType,
			"content_id":              contentID,
			"operational_schedule_id": opsID,
			"tag_rule_id":             ruleID,
		}

		current, err := mgr.GetByID(ctx, id)
		if err != nil {
			return tools.Fail(audit, toolNameUpdate, params, err, start), nil
		}
		if err := filter.Check(current.Name); err != nil {
			return tools.Fail(audit, toolNameUpdate, params, err, start), nil
		}

		patch, err := buildPatch(name, orientation, folder, contentType, contentID, opsID, ruleID)
		if err != nil {
			return tools.Fail(audit, toolNameUpdate, params, err, start), nil
		}

		updated, err := mgr.Update(ctx, id, patch)
		if err != nil {
			return tools.Fail(audit, toolNameUpdate, params, err, start), nil
		}
		tools.LogAudit(audit, toolNameUpdate, params, "ok", start)
		return tools.JSONResult(updated), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// validOrientations is the allowlist for the orientation argument.
var validOrientations = map[Orientation]struct{}{
	OrientationLandscape: {},
	OrientationRotate90:  {},
	OrientationRotate180: {},
	OrientationRotate270: {},
}

// buildPatch turns devices_update arguments into an UpdateInput. It fails when
// no field would change.
func buildPatch(name, orientation, folder, contentType, contentID, opsID, ruleID string) (UpdateInput, error) {
	var patch UpdateInput
	changed := false

	if name != "" {
		patch.Name = &name
		changed = true
	}
	if orientation != "" {
		o := Orientation(orientation)
		if _, ok := validOrientations[o]; !ok {
			return UpdateInput{}, fmt.Errorf("invalid orientation %q", orientation)
		}
		patch.Orientation = &o
		changed = true
	}
	if folder != "" {
		p := folder
		if p == "/" {
			p = ""
		}
		patch.Path = &p
		changed = true
	}
	if contentType != "" {
		kind := MediaType(contentType)
		patch.CurrentType = &kind
		switch kind {
		case MediaAsset:
			patch.CurrentAssetID = &contentID
		case MediaPlaylist:
			patch.CurrentPlaylistID = &contentID
		case MediaSchedule:
			patch.CurrentScheduleID = &contentID
		case MediaNone:
		default:
			return UpdateInput{}, fmt.Errorf("invalid content_type %q", contentType)
		}
		if kind != MediaNone && contentID == "" {
			return UpdateInput{}, fmt.Errorf("content_type %s requires content_id", kind)
		}
		changed = true
	}
	if opsID != "" || ruleID != "" {
		patch.Feature = &Feature{ScheduleOpsID: opsID, ContentTagRuleID: ruleID}
		changed = true
	}

	if !changed {
		return UpdateInput{}, fmt.Errorf("nothing to update: supply at least one field")
	}
	return patch, nil
}

func toolPair(mgr DeviceManager, audit *safety.AuditLogger, defaultTeam string) tools.Registration {
	tool := mcp.NewTool(toolNamePair,
		mcp.WithDescription("Pair a new screen with the team using the pairing code it displays."),
		mcp.WithString("pairing_code",
			mcp.Required(),
			mcp.Description("Code shown on the unpaired screen"),
		),
		mcp.WithString("folder",
			mcp.Description("Folder path to place the device in (default: root)"),
		),
		mcp.WithString("team_id",
			mcp.Description("Team id (defaults to the configured team)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		code := req.GetString("pairing_code", "")
		folder := req.GetString("folder", "")
		teamID := req.GetString("team_id", defaultTeam)
		params := map[string]any{
			"pairing_code": code,
			"folder":       folder,
			"team_id":      teamID,
		}

		if teamID == "" {
			return tools.Fail(audit, toolNamePair, params, fmt.Errorf("team_id is required"), start), nil
		}

		d, err := mgr.Pair(ctx, code, folder, teamID)
		if err != nil {
			return tools.Fail(audit, toolNamePair, params, err, start), nil
		}
		tools.LogAudit(audit, toolNamePair, params, "ok", start)
		return tools.JSONResult(d), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolUnpair(mgr DeviceManager, filter *safety.Filter, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger, defaultTeam string) tools.Registration {
	tool := mcp.NewTool(toolNameUnpair,
		mcp.WithDescription("Unpair one or more devices from the team. The screens stop playing team content and must be paired again to return. Requires a confirmation token."),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Device ids, comma separated or as a JSON array"),
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
		rawIDs := req.GetString("ids", "")
		teamID := req.GetString("team_id", defaultTeam)
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"ids": rawIDs, "team_id": teamID}

		ids, err := tools.SplitList(rawIDs)
		if err != nil {
			return tools.Fail(audit, toolNameUnpair, params, err, start), nil
		}
		if len(ids) == 0 {
			return tools.Fail(audit, toolNameUnpair, params, fmt.Errorf("ids is required"), start), nil
		}
		if teamID == "" {
			return tools.Fail(audit, toolNameUnpair, params, fmt.Errorf("team_id is required"), start), nil
		}

		names := make([]string, 0, len(ids))
		for _, id := range ids {
			d, err := mgr.GetByID(ctx, id)
			if err != nil {
				return tools.Fail(audit, toolNameUnpair, params, err, start), nil
			}
			if err := filter.Check(d.Name); err != nil {
				return tools.Fail(audit, toolNameUnpair, params, err, start), nil
			}
			names = append(names, d.Name)
		}

		resource := strings.Join(ids, ",")
		if !confirm.Confirm(token, toolNameUnpair, resource) {
			desc := fmt.Sprintf("This will unpair %s from team %s. The screens must be paired again to show content.",
				strings.Join(names, ", "), teamID)
			return tools.ConfirmPrompt(confirm, toolNameUnpair, resource, desc), nil
		}

		ok, err := mgr.Unpair(ctx, teamID, ids...)
		if err != nil {
			return tools.Fail(audit, toolNameUnpair, params, err, start), nil
		}
		if !ok {
			tools.LogAudit(audit, toolNameUnpair, params, "ok: server declined", start)
			return mcp.NewToolResultText("The server did not unpair the devices."), nil
		}
		tools.LogAudit(audit, toolNameUnpair, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("unpaired %d device(s): %s", len(ids), strings.Join(names, ", "))), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
