// Package playlists manages OptiSigns playlists and their ordered items via
// the GraphQL API.
package playlists

import "context"

// Playlist is an ordered sequence of assets.
type Playlist struct {
	ID              string   `json:"_id"`
	Name            string   `json:"name"`
	TeamID          string   `json:"teamId,omitempty"`
	Path            string   `json:"path,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Color           string   `json:"color,omitempty"`
	IsDisable       bool     `json:"isDisable,omitempty"`
	TotalDuration   float64  `json:"totalDuration,omitempty"`
	Options         *Options `json:"options,omitempty"`
	Items           []Item   `json:"items"`
	CreatedAt       *string  `json:"createdAt,omitempty"`
	LastUpdatedDate *string  `json:"lastUpdatedDate,omitempty"`
}

// Item is one entry of a playlist. Order is its 0-based position.
type Item struct {
	ID       string  `json:"_id,omitempty"`
	AssetID  string  `json:"assetId"`
	Duration float64 `json:"duration"`
	Order    int     `json:"order"`
}

// Options are playback options applied to the whole playlist.
type Options struct {
	Shuffle           bool    `json:"shuffle,omitempty"`
	DefaultTransition string  `json:"defaultTransition,omitempty"`
	SlideDuration     float64 `json:"slideDuration,omitempty"`
	NormalDuration    float64 `json:"normalDuration,omitempty"`
	DurationLimit     float64 `json:"durationLimit,omitempty"`
	ScaleImage        string  `json:"scaleImage,omitempty"`
	ScaleVideo        string  `json:"scaleVideo,omitempty"`
	ScaleDocument     string  `json:"scaleDocument,omitempty"`
}

// ItemInput adds an asset to a playlist for Duration seconds.
type ItemInput struct {
	AssetID  string  `json:"assetId"`
	Duration float64 `json:"duration"`
}

// CreateInput describes a new playlist.
type CreateInput struct {
	Name    string      `json:"name"`
	Items   []ItemInput `json:"items,omitempty"`
	Options *Options    `json:"options,omitempty"`
	Tags    []string    `json:"tags,omitempty"`
	Path    string      `json:"path,omitempty"`
}

// EditInput changes a playlist. A nil Name keeps the name; a nil Items keeps
// the items, while a non-nil Items replaces the whole list.
type EditInput struct {
	Name    *string     `json:"name,omitempty"`
	Items   []ItemInput `json:"items,omitempty"`
	Options *Options    `json:"options,omitempty"`
	Tags    []string    `json:"tags,omitempty"`
}

// ItemPatch changes one item. Position moves the item to a new index.
type ItemPatch struct {
	Duration *float64 `json:"duration,omitempty"`
	Position *int     `json:"order,omitempty"`
}

// PlaylistManager defines the playlist operations.
type PlaylistManager interface {
	List(ctx context.Context, teamID string) ([]Playlist, error)
	Get(ctx context.Context, id, teamID string) (*Playlist, error)
	Create(ctx context.Context, input CreateInput, teamID string) (*Playlist, error)
	Edit(ctx context.Context, id string, input EditInput, teamID string) (*Playlist, error)
	AddItems(ctx context.Context, id string, position int, items []ItemInput, teamID string) (*Playlist, error)
	RemoveItems(ctx context.Context, id string, positions []int, teamID string) (*Playlist, error)
	ModifyItem(ctx context.Context, id string, position int, patch ItemPatch, teamID string) (*Playlist, error)
	Delete(ctx context.Context, id, teamID string) (bool, error)
}
