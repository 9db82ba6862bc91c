// Package assets manages OptiSigns content assets (uploaded files and web
// apps) via the GraphQL API and an external upload service.
package assets

import (
	"context"
	"encoding/json"
)

// Asset type and status values used when registering assets.
const (
	TypeFile = "file"
	TypeWeb  = "web"

	StatusProcessing = "processing"
)

// Asset is a content item as returned by saveAsset and getAssetDetail.
type Asset struct {
	ID                 string         `json:"_id"`
	Name               string         `json:"name,omitempty"`
	Type               string         `json:"type,omitempty"`
	SubType            string         `json:"subType,omitempty"`
	Status             string         `json:"status,omitempty"`
	TeamID             string         `json:"teamId,omitempty"`
	AccountID          string         `json:"accountId,omitempty"`
	Path               *string        `json:"path,omitempty"`
	ProcessID          string         `json:"processId,omitempty"`
	OriginalFileName   string         `json:"originalFileName,omitempty"`
	Filename           string         `json:"filename,omitempty"`
	FileType           string         `json:"fileType,omitempty"`
	FileExtension      string         `json:"fileExtension,omitempty"`
	FileSize           float64        `json:"fileSize,omitempty"`
	AWSS3ID            string         `json:"AWSS3ID,omitempty"`
	Bucket             string         `json:"bucket,omitempty"`
	Thumbnail          string         `json:"thumbnail,omitempty"`
	WebLink            string         `json:"webLink,omitempty"`
	WebType            string         `json:"webType,omitempty"`
	EmbedLink          string         `json:"embedLink,omitempty"`
	AppType            string         `json:"appType,omitempty"`
	Width              float64        `json:"width,omitempty"`
	Height             float64        `json:"height,omitempty"`
	Duration           float64        `json:"duration,omitempty"`
	DocumentDuration   float64        `json:"documentDuration,omitempty"`
	Orientation        string         `json:"orientation,omitempty"`
	Scale              string         `json:"scale,omitempty"`
	StretchAsset       bool           `json:"stretchAsset,omitempty"`
	RefreshInterval    float64        `json:"refreshInterval,omitempty"`
	RequestDesktopSite bool           `json:"requestDesktopSite,omitempty"`
	IFrameAllow        bool           `json:"iFrameAllow,omitempty"`
	IsDisable          bool           `json:"isDisable,omitempty"`
	IsHide             bool           `json:"isHide,omitempty"`
	Tags               []string       `json:"tags,omitempty"`
	ScreenZones        []ScreenZone   `json:"screenZones,omitempty"`
	Options            map[string]any `json:"options,omitempty"`
	Meta               map[string]any `json:"meta,omitempty"`
	CreatedAt          *string        `json:"createdAt,omitempty"`
	LastUpdatedDate    *string        `json:"lastUpdatedDate,omitempty"`
}

// ScreenZone is one region of a multi-zone layout asset.
type ScreenZone struct {
	ID                string  `json:"id"`
	Name              string  `json:"name,omitempty"`
	CurrentType       string  `json:"currentType,omitempty"`
	CurrentAssetID    string  `json:"currentAssetId,omitempty"`
	CurrentPlaylistID string  `json:"currentPlaylistId,omitempty"`
	CurrentScheduleID string  `json:"currentScheduleId,omitempty"`
	Left              float64 `json:"left"`
	Top               float64 `json:"top"`
	Width             float64 `json:"width"`
	Height            float64 `json:"height"`
}

// WebsiteInput describes a website app asset.
type WebsiteInput struct {
	URL   string
	Title string
}

// Settings is a partial update for an asset. Nil fields are not sent and the
// server keeps their current values.
type Settings struct {
	Name               *string  `json:"name,omitempty"`
	DocumentDuration   *float64 `json:"documentDuration,omitempty"`
	Orientation        *string  `json:"orientation,omitempty"`
	Scale              *string  `json:"scale,omitempty"`
	StretchAsset       *bool    `json:"stretchAsset,omitempty"`
	RefreshInterval    *float64 `json:"refreshInterval,omitempty"`
	RequestDesktopSite *bool    `json:"requestDesktopSite,omitempty"`
	IFrameAllow        *bool    `json:"iFrameAllow,omitempty"`
	IsDisable          *bool    `json:"isDisable,omitempty"`
	WebLink            *string  `json:"webLink,omitempty"`
	Path               *string  `json:"path,omitempty"`
	Tags               []string `json:"tags,omitempty"`
}

// UploadOptions are the signed credentials the API hands out for a direct
// upload to the upload service.
type UploadOptions struct {
	Params    json.RawMessage `json:"params"`
	Signature string          `json:"signature"`
}

// Assembly is the upload service's reply to a file upload.
type Assembly struct {
	ID      string `json:"assembly_id"`
	OK      string `json:"ok,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// AssetManager defines the asset operations.
type AssetManager interface {
	UploadFile(ctx context.Context, source, fileName, teamID string) (*Asset, error)
	CreateWebsiteAsset(ctx context.Context, input WebsiteInput, teamID string) (*Asset, error)
	GetDetail(ctx context.Context, id, teamID string) (*Asset, error)
	ModifySettings(ctx context.Context, id string, settings Settings, teamID string) (*Asset, error)
	Delete(ctx context.Context, id, teamID string) (bool, error)
}
