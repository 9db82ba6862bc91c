package assets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jamesprial/optisigns-mcp/internal/safety"
	"github.com/jamesprial/optisigns-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	toolNameUpload         = "assets_upload"
	toolNameCreateWebsite  = "assets_create_website"
	toolNameGet            = "assets_get"
	toolNameModifySettings = "assets_modify_settings"
	toolNameDelete         = "assets_delete"
)

// DestructiveTools lists asset tool names that require confirmation before
// execution.
var DestructiveTools = []string{toolNameDelete}

// AssetTools returns the MCP tool registrations for asset management. teamID
// is used when a call does not name a team.
func AssetTools(mgr AssetManager, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger, teamID string) []tools.Registration {
	return []tools.Registration{
		toolUpload(mgr, audit, teamID),
		toolCreateWebsite(mgr, audit, teamID),
		toolGet(mgr, audit, teamID),
		toolModifySettings(mgr, audit, teamID),
		toolDelete(mgr, confirm, audit, teamID),
	}
}

func toolUpload(mgr AssetManager, audit *safety.AuditLogger, defaultTeam string) tools.Registration {
	tool := mcp.NewTool(toolNameUpload,
		mcp.WithDescription("Upload a file from a local path or an http(s) URL and register it as an asset. The asset starts in the processing state while the upload service converts it."),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("Local file path or http(s) URL"),
		),
		mcp.WithString("file_name",
			mcp.Description("Display file name (defaults to the last path segment of source)"),
		),
		mcp.WithString("team_id",
			mcp.Description("Team id (defaults to the configured team)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		source := req.GetString("source", "")
		fileName := req.GetString("file_name", "")
		teamID := req.GetString("team_id", defaultTeam)
		params := map[string]any{"source": source, "file_name": fileName, "team_id": teamID}

		a, err := mgr.UploadFile(ctx, source, fileName, teamID)
		if err != nil {
			return tools.Fail(audit, toolNameUpload, params, err, start), nil
		}
		tools.LogAudit(audit, toolNameUpload, params, "ok", start)
		return tools.JSONResult(a), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCreateWebsite(mgr AssetManager, audit *safety.AuditLogger, defaultTeam string) tools.Registration {
	tool := mcp.NewTool(toolNameCreateWebsite,
		mcp.WithDescription("Create a website app asset that shows the given URL."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Web page URL"),
		),
		mcp.WithString("title",
			mcp.Description("Asset title"),
		),
		mcp.WithString("team_id",
			mcp.Description("Team id (defaults to the configured team)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		url := req.GetString("url", "")
		title := req.GetString("title", "")
		teamID := req.GetString("team_id", defaultTeam)
		params := map[string]any{"url": url, "title": title, "team_id": teamID}

		a, err := mgr.CreateWebsiteAsset(ctx, WebsiteInput{URL: url, Title: title}, teamID)
		if err != nil {
			return tools.Fail(audit, toolNameCreateWebsite, params, err, start), nil
		}
		tools.LogAudit(audit, toolNameCreateWebsite, params, "ok", start)
		return tools.JSONResult(a), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolGet(mgr AssetManager, audit *safety.AuditLogger, defaultTeam string) tools.Registration {
	tool := mcp.NewTool(toolNameGet,
		mcp.WithDescription("Get the full record of one asset by id."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Asset id"),
		),
		mcp.WithString("team_id",
			mcp.Description("Team id (defaults to the configured team)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("id", "")
		teamID := req.GetString("team_id", defaultTeam)
		params := map[string]any{"id": id, "team_id": teamID}

		a, err := mgr.GetDetail(ctx, id, teamID)
		if err != nil {
			return tools.Fail(audit, toolNameGet, params, err, start), nil
		}
		tools.LogAudit(audit, toolNameGet, params, "ok", start)
		return tools.JSONResult(a), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolModifySettings(mgr AssetManager, audit *safety.AuditLogger, defaultTeam string) tools.Registration {
	tool := mcp.NewTool(toolNameModifySettings,
		mcp.WithDescription("Change display settings of an asset. Only the given settings change."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Asset id"),
		),
		mcp.WithString("name",
			mcp.Description("New asset name"),
		),
		mcp.WithNumber("duration",
			mcp.Description("Display duration in seconds"),
		),
		mcp.WithString("orientation",
			mcp.Description("Asset orientation"),
		),
		mcp.WithString("scale",
			mcp.Description("FIT, FILL, STRETCH or NONE"),
		),
		mcp.WithString("stretch",
			mcp.Description("true or false"),
		),
		mcp.WithNumber("refresh_interval",
			mcp.Description("Web page refresh interval in seconds"),
		),
		mcp.WithString("url",
			mcp.Description("New web link for website assets"),
		),
		mcp.WithString("tags",
			mcp.Description("Tags, comma separated or as a JSON array; replaces existing tags"),
		),
		mcp.WithString("team_id",
			mcp.Description("Team id (defaults to the configured team)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		id := req.GetString("id", "")
		teamID := req.GetString("team_id", defaultTeam)
		args := settingsArgs{
			name:            req.GetString("name", ""),
			duration:        req.GetInt("duration", -1),
			orientation:     req.GetString("orientation", ""),
			scale:           strings.ToUpper(req.GetString("scale", "")),
			stretch:         req.GetString("stretch", ""),
			refreshInterval: req.GetInt("refresh_interval", -1),
			url:             req.GetString("url", ""),
			tags:            req.GetString("tags", ""),
		}
		params := map[string]any{"id": id, "team_id": teamID, "settings": args.audit()}

		settings, err := args.build()
		if err != nil {
			return tools.Fail(audit, toolNameModifySettings, params, err, start), nil
		}

		a, err := mgr.ModifySettings(ctx, id, settings, teamID)
		if err != nil {
			return tools.Fail(audit, toolNameModifySettings, params, err, start), nil
		}
		tools.LogAudit(audit, toolNameModifySettings, params, "ok", start)
		return tools.JSONResult(a), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// settingsArgs holds the raw assets_modify_settings arguments. Negative
// numbers mean "not given".
type settingsArgs struct {
	name            string
	duration        int
	orientation     string
	scale           string
	stretch         string
	refreshInterval int
	url             string
	tags            string
}

func (a settingsArgs) audit() map[string]any {
	return map[string]any{
		"name":             a.name,
		"duration":         a.duration,
		"orientation":      a.orientation,
		"scale":            a.scale,
		"stretch":          a.stretch,
		"refresh_interval": a.refreshInterval,
		"url":              a.url,
		"tags":             a.tags,
	}
}

func (a settingsArgs) build() (Settings, error) {
	var s Settings
	if a.name != "" {
		s.Name = &a.name
	}
	if a.duration >= 0 {
		d := float64(a.duration)
		s.DocumentDuration = &d
	}
	if a.orientation != "" {
		s.Orientation = &a.orientation
	}
	if a.scale != "" {
		switch a.scale {
		case "FIT", "FILL", "STRETCH", "NONE":
			s.Scale = &a.scale
		default:
			return Settings{}, fmt.Errorf("invalid scale %q", a.scale)
		}
	}
	if a.stretch != "" {
		b, err := strconv.ParseBool(a.stretch)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid stretch %q: want true or false", a.stretch)
		}
		s.StretchAsset = &b
	}
	if a.refreshInterval >= 0 {
		r := float64(a.refreshInterval)
		s.RefreshInterval = &r
	}
	if a.url != "" {
		s.WebLink = &a.url
	}
	if a.tags != "" {
		tags, err := tools.SplitList(a.tags)
		if err != nil {
			return Settings{}, err
		}
		s.Tags = tags
	}
	return s, nil
}

func toolDelete(mgr AssetManager, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger, defaultTeam string) tools.Registration {
	tool := mcp.NewTool(toolNameDelete,
		mcp.WithDescription("Permanently delete an asset. Requires a confirmation token."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Asset id"),
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
			desc := fmt.Sprintf("This will permanently delete asset %s. Playlists and screens using it lose the content. This cannot be undone.", id)
			return tools.ConfirmPrompt(confirm, toolNameDelete, id, desc), nil
		}

		ok, err := mgr.Delete(ctx, id, teamID)
		if err != nil {
			return tools.Fail(audit, toolNameDelete, params, err, start), nil
		}
		if !ok {
			tools.LogAudit(audit, toolNameDelete, params, "ok: server declined", start)
			return mcp.NewToolResultText(fmt.Sprintf("asset %q was not deleted by the server", id)), nil
		}
		tools.LogAudit(audit, toolNameDelete, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("asset %q deleted successfully", id)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
