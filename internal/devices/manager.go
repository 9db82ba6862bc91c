package devices

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jamesprial/optisigns-mcp/internal/graphql"
)

// Compile-time interface check.
var _ DeviceManager = (*GraphQLDeviceManager)(nil)

// GraphQLDeviceManager implements DeviceManager using a GraphQL client.
type GraphQLDeviceManager struct {
	client graphql.Client
}

// NewGraphQLDeviceManager returns a new GraphQLDeviceManager backed by the
// provided GraphQL client.
func NewGraphQLDeviceManager(client graphql.Client) *GraphQLDeviceManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &GraphQLDeviceManager{client: client}
}

// deviceFields is the selection used wherever a full Device is decoded.
const deviceFields = `_id
      deviceName
      UUID
      pairingCode
      currentType
      currentAssetId
      currentPlaylistId
      currentScheduleId
      orientation
      path
      teamId
      tags
      feature
      localAppVersion
      os
      osVersion
      model
      manufacturer
      platform
      lastHeartBeat
      status`

var (
	listAllQuery = `query {
  devices(query: {}) {
    page { edges { node {
      ` + deviceFields + `
    } } }
  }
}`

	findByNameQuery = `query($name: String!) {
  devices(query: { deviceName: $name }) {
    page { edges { node {
      ` + deviceFields + `
    } } }
  }
}`

	getByIDQuery = `query($id: String!) {
  devices(query: { _id: $id }) {
    page { edges { node {
      ` + deviceFields + `
    } } }
  }
}`

	updateMutation = `mutation($_id: String!, $payload: UpdateDeviceInput!) {
  updateDevice(_id: $_id, payload: $payload) {
    ` + deviceFields + `
  }
}`

	pairMutation = `mutation($payload: PairDeviceInput!, $teamId: String!) {
  pairDevice(payload: $payload, teamId: $teamId) {
    ` + deviceFields + `
  }
}`
)

const unpairMutation = `mutation($payload: UnPairDeviceInput!, $teamId: String!) {
  unPairDevices(payload: $payload, teamId: $teamId)
}`

// devicesResponse maps the contents of the data object for device queries.
type devicesResponse struct {
	Devices graphql.Connection[Device] `json:"devices"`
}

// validateID rejects blank ids before any request is made.
func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("invalid device id: empty string")
	}
	return nil
}

// query runs a devices(query: ...) lookup and flattens the page.
func (m *GraphQLDeviceManager) query(ctx context.Context, op, query string, vars map[string]any) ([]Device, error) {
	data, err := m.client.Execute(ctx, query, vars)
	if err != nil {
		return nil, graphql.Wrap(op, err)
	}

	var resp devicesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, graphql.Wrap(op, fmt.Errorf("parse response: %w", err))
	}
	return resp.Devices.Nodes(), nil
}

// ListAll returns every device visible to the token, in server order.
func (m *GraphQLDeviceManager) ListAll(ctx context.Context) ([]Device, error) {
	return m.query(ctx, "fetch devices", listAllQuery, nil)
}

// FindByName returns the devices whose name matches name exactly.
func (m *GraphQLDeviceManager) FindByName(ctx context.Context, name string) ([]Device, error) {
	return m.query(ctx, "find device by name", findByNameQuery, map[string]any{"name": name})
}

// GetByID returns the device with the given id, or a *graphql.NotFoundError
// when the server has none.
func (m *GraphQLDeviceManager) GetByID(ctx context.Context, id string) (*Device, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	devices, err := m.query(ctx, "get device by id", getByIDQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, &graphql.NotFoundError{Kind: "device", ID: id}
	}
	return &devices[0], nil
}

// Update reads the device and then writes its mutable fields back with patch
// applied on top. A missing device fails before the write is attempted.
//
// The read and the write are separate round trips with no version check, so
// two concurrent updates of the same device can overwrite each other.
func (m *GraphQLDeviceManager) Update(ctx context.Context, id string, patch UpdateInput) (*Device, error) {
	existing, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := updatePayload(mergeUpdate(existing, patch))
	if err != nil {
		return nil, graphql.Wrap("update device", fmt.Errorf("encode payload: %w", err))
	}
	data, err := m.client.Execute(ctx, updateMutation, map[string]any{
		"_id":     id,
		"payload": payload,
	})
	if err != nil {
		return nil, graphql.Wrap("update device", err)
	}

	var resp struct {
		UpdateDevice *Device `json:"updateDevice"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, graphql.Wrap("update device", fmt.Errorf("parse response: %w", err))
	}
	if resp.UpdateDevice == nil {
		return nil, graphql.Failf("update device", "empty response")
	}
	return resp.UpdateDevice, nil
}

// mergeUpdate builds the full update payload from the current device state
// with every non-nil patch field taking precedence.
func mergeUpdate(d *Device, patch UpdateInput) UpdateInput {
	out := UpdateInput{
		Name:        strPtr(d.Name),
		Orientation: nonEmpty(d.Orientation),
		CurrentType: nonEmpty(d.CurrentType),
		Path:        strPtr(d.Path),
		Tags:        d.Tags,
	}
	if d.CurrentAssetID != "" {
		out.CurrentAssetID = strPtr(d.CurrentAssetID)
	}
	if d.CurrentPlaylistID != "" {
		out.CurrentPlaylistID = strPtr(d.CurrentPlaylistID)
	}
	if d.CurrentScheduleID != "" {
		out.CurrentScheduleID = strPtr(d.CurrentScheduleID)
	}
	if d.Feature != nil {
		f := *d.Feature
		out.Feature = &f
	}

	if patch.Name != nil {
		out.Name = patch.Name
	}
	if patch.Orientation != nil {
		out.Orientation = patch.Orientation
	}
	if patch.CurrentType != nil {
		out.CurrentType = patch.CurrentType
	}
	if patch.CurrentAssetID != nil {
		out.CurrentAssetID = patch.CurrentAssetID
	}
	if patch.CurrentPlaylistID != nil {
		out.CurrentPlaylistID = patch.CurrentPlaylistID
	}
	if patch.CurrentScheduleID != nil {
		out.CurrentScheduleID = patch.CurrentScheduleID
	}
	if patch.Path != nil {
		out.Path = patch.Path
	}
	if patch.Tags != nil {
		out.Tags = patch.Tags
	}
	if patch.Feature != nil {
		out.Feature = mergeFeature(out.Feature, patch.Feature)
	}

	// Only the id matching currentType may stay populated.
	if out.CurrentType != nil {
		keep := *out.CurrentType
		if keep != MediaAsset {
			out.CurrentAssetID = nil
		}
		if keep != MediaPlaylist {
			out.CurrentPlaylistID = nil
		}
		if keep != MediaSchedule {
			out.CurrentScheduleID = nil
		}
	}
	return out
}

// contentIDKeys maps each media type to the payload key of its content id.
var contentIDKeys = map[MediaType]string{
	MediaAsset:    "currentAssetId",
	MediaPlaylist: "currentPlaylistId",
	MediaSchedule: "currentScheduleId",
}

// updatePayload encodes in as the mutation payload. When currentType is set,
// the content ids of the other media types are sent as explicit nulls so the
// server drops them rather than keeping stale values.
func updatePayload(in UpdateInput) (map[string]any, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if in.CurrentType != nil {
		for kind, key := range contentIDKeys {
			if kind != *in.CurrentType {
				payload[key] = nil
			}
		}
	}
	return payload, nil
}

// mergeFeature overlays the set fields of patch on base.
func mergeFeature(base, patch *Feature) *Feature {
	out := Feature{}
	if base != nil {
		out.ScheduleOpsID = base.ScheduleOpsID
		out.ContentTagRuleID = base.ContentTagRuleID
		if len(base.Extra) > 0 {
			out.Extra = make(map[string]any, len(base.Extra))
			for k, v := range base.Extra {
				out.Extra[k] = v
			}
		}
	}
	if patch.ScheduleOpsID != "" {
		out.ScheduleOpsID = patch.ScheduleOpsID
	}
	if patch.ContentTagRuleID != "" {
		out.ContentTagRuleID = patch.ContentTagRuleID
	}
	for k, v := range patch.Extra {
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(patch.Extra))
		}
		out.Extra[k] = v
	}
	return &out
}

// MoveToFolder sets the device's folder path. An empty path moves it to the
// root.
func (m *GraphQLDeviceManager) MoveToFolder(ctx context.Context, id, path string) (*Device, error) {
	return m.Update(ctx, id, UpdateInput{Path: &path})
}

// AssignContent points the device at an asset, playlist or schedule and sets
// the matching currentType tag.
func (m *GraphQLDeviceManager) AssignContent(ctx context.Context, id string, kind MediaType, contentID string) (*Device, error) {
	patch := UpdateInput{CurrentType: &kind}
	switch kind {
	case MediaAsset:
		patch.CurrentAssetID = &contentID
	case MediaPlaylist:
		patch.CurrentPlaylistID = &contentID
	case MediaSchedule:
		patch.CurrentScheduleID = &contentID
	case MediaNone:
	default:
		return nil, fmt.Errorf("invalid media type %q: must be ASSET, PLAYLIST, SCHEDULE or NONE", kind)
	}
	if kind != MediaNone && strings.TrimSpace(contentID) == "" {
		return nil, fmt.Errorf("content id is required for media type %s", kind)
	}
	return m.Update(ctx, id, patch)
}

// AssignOperationalSchedule sets feature.scheduleOpsId.
func (m *GraphQLDeviceManager) AssignOperationalSchedule(ctx context.Context, id, scheduleID string) (*Device, error) {
	if strings.TrimSpace(scheduleID) == "" {
		return nil, fmt.Errorf("operational schedule id is required")
	}
	return m.Update(ctx, id, UpdateInput{Feature: &Feature{ScheduleOpsID: scheduleID}})
}

// AssignTagRule sets feature.contentTagRuleId.
func (m *GraphQLDeviceManager) AssignTagRule(ctx context.Context, id, ruleID string) (*Device, error) {
	if strings.TrimSpace(ruleID) == "" {
		return nil, fmt.Errorf("tag rule id is required")
	}
	return m.Update(ctx, id, UpdateInput{Feature: &Feature{ContentTagRuleID: ruleID}})
}

// Pair attaches the device showing pairingCode to teamID, placing it in the
// folder at path ("" for none).
func (m *GraphQLDeviceManager) Pair(ctx context.Context, pairingCode, path, teamID string) (*Device, error) {
	if strings.TrimSpace(pairingCode) == "" {
		return nil, fmt.Errorf("pairing code is required")
	}

	data, err := m.client.Execute(ctx, pairMutation, map[string]any{
		"payload": PairInput{PairingCode: pairingCode, Path: path, TeamID: teamID},
		"teamId":  teamID,
	})
	if err != nil {
		return nil, graphql.Wrap("pair device", err)
	}

	var resp struct {
		PairDevice *Device `json:"pairDevice"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, graphql.Wrap("pair device", fmt.Errorf("parse response: %w", err))
	}
	if resp.PairDevice == nil {
		return nil, graphql.Failf("pair device", "empty response")
	}
	return resp.PairDevice, nil
}

// Unpair detaches one or more devices from teamID. Devices are never deleted
// outright; unpairing is the only removal the API offers.
func (m *GraphQLDeviceManager) Unpair(ctx context.Context, teamID string, ids ...string) (bool, error) {
	if len(ids) == 0 {
		return false, fmt.Errorf("at least one device id is required")
	}
	for _, id := range ids {
		if err := validateID(id); err != nil {
			return false, err
		}
	}

	data, err := m.client.Execute(ctx, unpairMutation, map[string]any{
		"payload": map[string]any{"deviceIds": ids},
		"teamId":  teamID,
	})
	if err != nil {
		return false, graphql.Wrap("unpair device", err)
	}

	var resp struct {
		UnPairDevices bool `json:"unPairDevices"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return false, graphql.Wrap("unpair device", fmt.Errorf("parse response: %w", err))
	}
	return resp.UnPairDevices, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonEmpty[T ~string](v T) *T {
	if v == "" {
		return nil
	}
	return &v
}
