// Package devices manages the OptiSigns screen fleet: listing, lookup,
// pairing, unpairing and field updates, via the GraphQL API.
package devices

import (
	"context"
	"encoding/json"
)

// MediaType tags which kind of content a device is currently showing.
type MediaType string

const (
	MediaAsset    MediaType = "ASSET"
	MediaPlaylist MediaType = "PLAYLIST"
	MediaSchedule MediaType = "SCHEDULE"
	MediaNone     MediaType = "NONE"
)

// Orientation is the ORIENTATION_TYPES enum.
type Orientation string

const (
	OrientationLandscape Orientation = "LANDSCAPE"
	OrientationRotate90  Orientation = "ROTATE_90"
	OrientationRotate180 Orientation = "ROTATE_180"
	OrientationRotate270 Orientation = "ROTATE_270"
)

// Device is a screen as returned by the devices query.
type Device struct {
	ID                string      `json:"_id"`
	Name              string      `json:"deviceName"`
	UUID              string      `json:"UUID,omitempty"`
	PairingCode       string      `json:"pairingCode,omitempty"`
	CurrentType       MediaType   `json:"currentType,omitempty"`
	CurrentAssetID    string      `json:"currentAssetId,omitempty"`
	CurrentPlaylistID string      `json:"currentPlaylistId,omitempty"`
	CurrentScheduleID string      `json:"currentScheduleId,omitempty"`
	Orientation       Orientation `json:"orientation,omitempty"`
	Path              string      `json:"path,omitempty"`
	TeamID            string      `json:"teamId,omitempty"`
	Tags              []string    `json:"tags,omitempty"`
	Feature           *Feature    `json:"feature,omitempty"`

	// Telemetry reported by the player app.
	LocalAppVersion string  `json:"localAppVersion,omitempty"`
	OS              string  `json:"os,omitempty"`
	OSVersion       string  `json:"osVersion,omitempty"`
	Model           string  `json:"model,omitempty"`
	Manufacturer    string  `json:"manufacturer,omitempty"`
	Platform        string  `json:"platform,omitempty"`
	LastHeartBeat   *string `json:"lastHeartBeat,omitempty"`
	Status          *int    `json:"status,omitempty"`
}

// Feature holds per-device feature settings. The API treats it as free-form
// JSON; the fields this package edits are typed and the rest are carried
// through untouched so a full update does not erase them.
type Feature struct {
	ScheduleOpsID    string
	ContentTagRuleID string
	Extra            map[string]any
}

const (
	featureScheduleOps    = "scheduleOpsId"
	featureContentTagRule = "contentTagRuleId"
)

// UnmarshalJSON implements json.Unmarshaler.
func (f *Feature) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Feature{}
	if v, ok := raw[featureScheduleOps].(string); ok {
		f.ScheduleOpsID = v
		delete(raw, featureScheduleOps)
	}
	if v, ok := raw[featureContentTagRule].(string); ok {
		f.ContentTagRuleID = v
		delete(raw, featureContentTagRule)
	}
	if len(raw) > 0 {
		f.Extra = raw
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f Feature) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.Extra)+2)
	for k, v := range f.Extra {
		out[k] = v
	}
	if f.ScheduleOpsID != "" {
		out[featureScheduleOps] = f.ScheduleOpsID
	}
	if f.ContentTagRuleID != "" {
		out[featureContentTagRule] = f.ContentTagRuleID
	}
	return json.Marshal(out)
}

// UpdateInput is the UpdateDeviceInput payload. Nil fields are left as the
// device currently has them.
type UpdateInput struct {
	Name              *string      `json:"deviceName,omitempty"`
	Orientation       *Orientation `json:"orientation,omitempty"`
	CurrentType       *MediaType   `json:"currentType,omitempty"`
	CurrentAssetID    *string      `json:"currentAssetId,omitempty"`
	CurrentPlaylistID *string      `json:"currentPlaylistId,omitempty"`
	CurrentScheduleID *string      `json:"currentScheduleId,omitempty"`
	Path              *string      `json:"path,omitempty"`
	Tags              []string     `json:"tags,omitempty"`
	Feature           *Feature     `json:"feature,omitempty"`
}

// PairInput is the PairDeviceInput payload.
type PairInput struct {
	PairingCode string `json:"pairingCode"`
	Path        string `json:"path"`
	TeamID      string `json:"teamId"`
}

// DeviceManager defines the device operations.
type DeviceManager interface {
	ListAll(ctx context.Context) ([]Device, error)
	FindByName(ctx context.Context, name string) ([]Device, error)
	GetByID(ctx context.Context, id string) (*Device, error)
	Update(ctx context.Context, id string, patch UpdateInput) (*Device, error)
	MoveToFolder(ctx context.Context, id, path string) (*Device, error)
	AssignContent(ctx context.Context, id string, kind MediaType, contentID string) (*Device, error)
	AssignOperationalSchedule(ctx context.Context, id, scheduleID string) (*Device, error)
	AssignTagRule(ctx context.Context, id, ruleID string) (*Device, error)
	Pair(ctx context.Context, pairingCode, path, teamID string) (*Device, error)
	Unpair(ctx context.Context, teamID string, ids ...string) (bool, error)
}
