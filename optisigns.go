// Package optisigns is a client for the OptiSigns digital signage GraphQL
// API. A Client groups typed managers for devices, assets, playlists and
// schedules that share one authenticated transport.
//
//	c, err := optisigns.New(optisigns.Config{Token: os.Getenv("OPTISIGNS_API_TOKEN")})
//	if err != nil {
//		return err
//	}
//	screens, err := c.Devices.ListAll(ctx)
//
// Every manager method returns either a *NotFoundError, a
// *RemoteOperationError or a local validation error. Methods are safe for
// concurrent use; no retries or caching are performed.
package optisigns

import (
	"net/http"
	"time"

	"github.com/jamesprial/optisigns-mcp/internal/assets"
	"github.com/jamesprial/optisigns-mcp/internal/devices"
	"github.com/jamesprial/optisigns-mcp/internal/graphql"
	"github.com/jamesprial/optisigns-mcp/internal/playlists"
	"github.com/jamesprial/optisigns-mcp/internal/schedules"
)

// DefaultEndpoint is used when Config.Endpoint is empty.
const DefaultEndpoint = graphql.DefaultEndpoint

// DefaultUploadURL is the upload service endpoint used by Assets.UploadFile.
const DefaultUploadURL = assets.DefaultUploadURL

// Errors.
type (
	ConfigurationError   = graphql.ConfigurationError
	NotFoundError        = graphql.NotFoundError
	RemoteOperationError = graphql.RemoteOperationError
	ResponseError        = graphql.ResponseError
	GraphQLError         = graphql.GraphQLError
)

var (
	ErrInvalidEndpoint   = graphql.ErrInvalidEndpoint
	ErrMissingCredential = graphql.ErrMissingCredential
)

// Devices.
type (
	Device        = devices.Device
	DeviceUpdate  = devices.UpdateInput
	DeviceFeature = devices.Feature
	DeviceManager = devices.DeviceManager
	MediaType     = devices.MediaType
	Orientation   = devices.Orientation
)

const (
	MediaAsset    = devices.MediaAsset
	MediaPlaylist = devices.MediaPlaylist
	MediaSchedule = devices.MediaSchedule
	MediaNone     = devices.MediaNone

	OrientationLandscape = devices.OrientationLandscape
	OrientationRotate90  = devices.OrientationRotate90
	OrientationRotate180 = devices.OrientationRotate180
	OrientationRotate270 = devices.OrientationRotate270
)

// Assets.
type (
	Asset         = assets.Asset
	AssetSettings = assets.Settings
	WebsiteInput  = assets.WebsiteInput
	AssetManager  = assets.AssetManager
	Uploader      = assets.Uploader
)

// Playlists.
type (
	Playlist          = playlists.Playlist
	PlaylistItem      = playlists.Item
	PlaylistItemInput = playlists.ItemInput
	PlaylistOptions   = playlists.Options
	PlaylistCreate    = playlists.CreateInput
	PlaylistEdit      = playlists.EditInput
	PlaylistItemPatch = playlists.ItemPatch
	PlaylistManager   = playlists.PlaylistManager
)

// Schedules.
type (
	Schedule        = schedules.Schedule
	ScheduleItem    = schedules.Item
	ScheduleCreate  = schedules.CreateInput
	ScheduleUpdate  = schedules.UpdateInput
	ScheduleManager = schedules.ScheduleManager
)

// Config holds the connection settings. Token is required; an empty Endpoint
// selects DefaultEndpoint.
type Config struct {
	Endpoint string
	Token    string
}

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	uploadURL  string
	uploader   Uploader
}

// Option customizes New.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for API calls, uploads and
// downloads of remote upload sources.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTimeout bounds each API request. Without it only the caller's context
// limits a request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithUploadURL overrides DefaultUploadURL.
func WithUploadURL(u string) Option {
	return func(o *options) { o.uploadURL = u }
}

// WithUploader replaces the upload service client entirely.
func WithUploader(u Uploader) Option {
	return func(o *options) { o.uploader = u }
}

// Client is the entry point to the API.
type Client struct {
	Devices   DeviceManager
	Assets    AssetManager
	Playlists PlaylistManager
	Schedules ScheduleManager

	endpoint string
}

// New validates cfg and builds a Client. It performs no network I/O. A
// blank token or a malformed endpoint yields a *ConfigurationError.
func New(cfg Config, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var gqlOpts []graphql.Option
	if o.httpClient != nil {
		gqlOpts = append(gqlOpts, graphql.WithHTTPClient(o.httpClient))
	}
	if o.timeout > 0 {
		gqlOpts = append(gqlOpts, graphql.WithTimeout(o.timeout))
	}
	gql, err := graphql.NewHTTPClient(cfg.Endpoint, cfg.Token, gqlOpts...)
	if err != nil {
		return nil, err
	}

	uploader := o.uploader
	if uploader == nil {
		uploader = assets.NewTransloaditUploader(o.uploadURL, o.httpClient)
	}

	return &Client{
		Devices:   devices.NewGraphQLDeviceManager(gql),
		Assets:    assets.NewGraphQLAssetManager(gql, assets.WithUploader(uploader), assets.WithDownloadClient(o.httpClient)),
		Playlists: playlists.NewGraphQLPlaylistManager(gql),
		Schedules: schedules.NewGraphQLScheduleManager(gql),
		endpoint:  gql.Endpoint(),
	}, nil
}

// Endpoint returns the GraphQL endpoint the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}
