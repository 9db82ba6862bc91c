package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jamesprial/optisigns-mcp/internal/graphql"
	"github.com/jamesprial/optisigns-mcp/internal/objects"
)

// Compile-time interface check.
var _ AssetManager = (*GraphQLAssetManager)(nil)

// GraphQLAssetManager implements AssetManager using a GraphQL client and an
// Uploader for the file bytes.
type GraphQLAssetManager struct {
	client     graphql.Client
	uploader   Uploader
	httpClient *http.Client
}

// ManagerOption customizes a GraphQLAssetManager.
type ManagerOption func(*GraphQLAssetManager)

// WithUploader replaces the default TransloaditUploader.
func WithUploader(u Uploader) ManagerOption {
	return func(m *GraphQLAssetManager) {
		if u != nil {
			m.uploader = u
		}
	}
}

// WithDownloadClient sets the HTTP client used to fetch remote upload
// sources.
func WithDownloadClient(hc *http.Client) ManagerOption {
	return func(m *GraphQLAssetManager) {
		if hc != nil {
			m.httpClient = hc
		}
	}
}

// NewGraphQLAssetManager returns a new GraphQLAssetManager backed by the
// provided GraphQL client.
func NewGraphQLAssetManager(client graphql.Client, opts ...ManagerOption) *GraphQLAssetManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	m := &GraphQLAssetManager{
		client:     client,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.uploader == nil {
		m.uploader = NewTransloaditUploader("", m.httpClient)
	}
	return m
}

// assetFields is the saveAsset selection.
const assetFields = `_id
    AWSS3ID
    accountId
    appType
    bucket
    createdAt
    documentDuration
    duration
    embedLink
    fileExtension
    fileSize
    fileType
    filename
    height
    iFrameAllow
    isDisable
    isHide
    lastUpdatedDate
    meta
    name
    options
    orientation
    originalFileName
    path
    processId
    refreshInterval
    requestDesktopSite
    scale
    screenZones {
      id
      name
      currentType
      currentAssetId
      currentPlaylistId
      currentScheduleId
      left
      top
      width
      height
    }
    status
    stretchAsset
    subType
    tags
    teamId
    thumbnail
    type
    webLink
    webType
    width`

const uploadOptionsQuery = `query {
  getFileUploadOptions
}`

var saveAssetMutation = `mutation saveAsset($payload: AssetInput!, $teamId: String) {
  saveAsset(payload: $payload, teamId: $teamId) {
    ` + assetFields + `
  }
}`

const assetDetailQuery = `query($id: String!, $teamId: String) {
  getAssetDetail(_id: $id, teamId: $teamId)
}`

// saveAsset runs the saveAsset mutation and decodes the result.
func (m *GraphQLAssetManager) saveAsset(ctx context.Context, op string, payload any, teamID string) (*Asset, error) {
	data, err := m.client.Execute(ctx, saveAssetMutation, map[string]any{
		"payload": payload,
		"teamId":  graphql.NullableString(teamID),
	})
	if err != nil {
		return nil, graphql.Wrap(op, err)
	}

	var resp struct {
		SaveAsset *Asset `json:"saveAsset"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, graphql.Wrap(op, fmt.Errorf("parse response: %w", err))
	}
	if resp.SaveAsset == nil {
		return nil, graphql.Failf(op, "empty response")
	}
	return resp.SaveAsset, nil
}

// UploadFile uploads the file at source (a local path or an http(s) URL) and
// registers it as a file asset. It runs three steps in order: fetch signed
// upload options, post the bytes to the upload service, then save an asset
// that references the upload's assembly id with status "processing".
//
// A failure in the last step leaves the upload on the service with no asset
// pointing at it; nothing is rolled back.
func (m *GraphQLAssetManager) UploadFile(ctx context.Context, source, fileName, teamID string) (*Asset, error) {
	const op = "upload file asset"

	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%s: source is required", op)
	}

	data, err := m.client.Execute(ctx, uploadOptionsQuery, nil)
	if err != nil {
		return nil, graphql.Wrap(op, err)
	}
	var optsResp struct {
		GetFileUploadOptions *UploadOptions `json:"getFileUploadOptions"`
	}
	if err := json.Unmarshal(data, &optsResp); err != nil {
		return nil, graphql.Wrap(op, fmt.Errorf("parse upload options: %w", err))
	}
	if optsResp.GetFileUploadOptions == nil {
		return nil, graphql.Failf(op, "no upload options returned")
	}

	body, sourceName, err := openSource(ctx, m.httpClient, source)
	if err != nil {
		return nil, graphql.Fail(op, err)
	}
	defer func() { _ = body.Close() }()

	if fileName == "" {
		fileName = sourceName
	}

	asm, err := m.uploader.Upload(ctx, *optsResp.GetFileUploadOptions, sourceName, body)
	if err != nil {
		return nil, graphql.Fail(op, err)
	}

	payload := map[string]any{
		"type":             TypeFile,
		"originalFileName": fileName,
		"processId":        asm.ID,
		"status":           StatusProcessing,
		"path":             nil,
	}
	return m.saveAsset(ctx, op, payload, teamID)
}

// CreateWebsiteAsset registers a static website app asset for input.URL.
func (m *GraphQLAssetManager) CreateWebsiteAsset(ctx context.Context, input WebsiteInput, teamID string) (*Asset, error) {
	const op = "create website app asset"

	if strings.TrimSpace(input.URL) == "" {
		return nil, fmt.Errorf("%s: url is required", op)
	}

	payload := map[string]any{
		"type":             TypeWeb,
		"subType":          "static",
		"path":             nil,
		"webLink":          input.URL,
		"originalFileName": input.Title,
		"fileType":         "web",
		"webType":          "website",
	}
	return m.saveAsset(ctx, op, payload, teamID)
}

// GetDetail returns the asset with the given id, or a *graphql.NotFoundError
// when the server returns null.
func (m *GraphQLAssetManager) GetDetail(ctx context.Context, id, teamID string) (*Asset, error) {
	const op = "get asset detail"

	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("invalid asset id: empty string")
	}

	data, err := m.client.Execute(ctx, assetDetailQuery, map[string]any{
		"id":     id,
		"teamId": graphql.NullableString(teamID),
	})
	if err != nil {
		return nil, graphql.Wrap(op, err)
	}

	var resp struct {
		GetAssetDetail *Asset `json:"getAssetDetail"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, graphql.Wrap(op, fmt.Errorf("parse response: %w", err))
	}
	if resp.GetAssetDetail == nil {
		return nil, &graphql.NotFoundError{Kind: "asset", ID: id}
	}
	return resp.GetAssetDetail, nil
}

// ModifySettings sends the non-nil fields of settings for the asset in one
// saveAsset call; the server merges them into the stored record.
func (m *GraphQLAssetManager) ModifySettings(ctx context.Context, id string, settings Settings, teamID string) (*Asset, error) {
	const op = "modify asset settings"

	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("invalid asset id: empty string")
	}

	payload, err := settingsPayload(id, settings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m.saveAsset(ctx, op, payload, teamID)
}

// settingsPayload flattens settings into a map with the asset id added.
func settingsPayload(id string, s Settings) (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("no settings to change")
	}
	payload["_id"] = id
	return payload, nil
}

// Delete removes the asset. The server's answer is returned as is, so false
// means the server declined rather than that the call failed.
func (m *GraphQLAssetManager) Delete(ctx context.Context, id, teamID string) (bool, error) {
	return objects.Delete(ctx, m.client, "delete asset", objects.TypeAsset, teamID, id)
}
