package playlists

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jamesprial/optisigns-mcp/internal/graphql"
	"github.com/jamesprial/optisigns-mcp/internal/objects"
)

// Compile-time interface check.
var _ PlaylistManager = (*GraphQLPlaylistManager)(nil)

// GraphQLPlaylistManager implements PlaylistManager using a GraphQL client.
type GraphQLPlaylistManager struct {
	client graphql.Client
}

// NewGraphQLPlaylistManager returns a new GraphQLPlaylistManager backed by
// the provided GraphQL client.
func NewGraphQLPlaylistManager(client graphql.Client) *GraphQLPlaylistManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &GraphQLPlaylistManager{client: client}
}

const playlistFields = `_id
    name
    teamId
    path
    tags
    color
    isDisable
    totalDuration
    createdAt
    lastUpdatedDate
    options {
      shuffle
      defaultTransition
      slideDuration
      normalDuration
      durationLimit
      scaleImage
      scaleVideo
      scaleDocument
    }
    items {
      _id
      assetId
      duration
      order
    }`

var (
	listQuery = `query($query: PlaylistQueryInput, $teamId: String) {
  playlists(query: $query, teamId: $teamId) {
    page { edges { node {
    ` + playlistFields + `
    } } }
  }
}`

	saveMutation = `mutation savePlaylist($payload: PlaylistInput!, $teamId: String) {
  savePlaylist(payload: $payload, teamId: $teamId) {
    ` + playlistFields + `
  }
}`

	addItemsMutation = `mutation($_id: String!, $position: Int!, $items: [PlaylistItemInput!]!, $teamId: String) {
  addPlaylistItems(_id: $_id, position: $position, items: $items, teamId: $teamId) {
    ` + playlistFields + `
  }
}`

	removeItemsMutation = `mutation($_id: String!, $positions: [Int!]!, $teamId: String) {
  removePlaylistItems(_id: $_id, positions: $positions, teamId: $teamId) {
    ` + playlistFields + `
  }
}`

	modifyItemMutation = `mutation($_id: String!, $position: Int!, $payload: ModifyPlaylistItemInput!, $teamId: String) {
  modifyPlaylistItem(_id: $_id, position: $position, payload: $payload, teamId: $teamId) {
    ` + playlistFields + `
  }
}`
)

// playlistsResponse maps the contents of the data object for list queries.
type playlistsResponse struct {
	Playlists graphql.Connection[Playlist] `json:"playlists"`
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("invalid playlist id: empty string")
	}
	return nil
}

func validatePosition(p int) error {
	if p < 0 {
		return fmt.Errorf("invalid playlist position %d: must not be negative", p)
	}
	return nil
}

func (m *GraphQLPlaylistManager) list(ctx context.Context, op string, query map[string]any, teamID string) ([]Playlist, error) {
	data, err := m.client.Execute(ctx, listQuery, map[string]any{
		"query":  query,
		"teamId": graphql.NullableString(teamID),
	})
	if err != nil {
		return nil, graphql.Wrap(op, err)
	}

	var resp playlistsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, graphql.Wrap(op, fmt.Errorf("parse response: %w", err))
	}
	return resp.Playlists.Nodes(), nil
}

// List returns every playlist of the team in server order.
func (m *GraphQLPlaylistManager) List(ctx context.Context, teamID string) ([]Playlist, error) {
	return m.list(ctx, "fetch playlists", map[string]any{}, teamID)
}

// Get returns one playlist, or a *graphql.NotFoundError.
func (m *GraphQLPlaylistManager) Get(ctx context.Context, id, teamID string) (*Playlist, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	list, err := m.list(ctx, "get playlist", map[string]any{"_id": id}, teamID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &graphql.NotFoundError{Kind: "playlist", ID: id}
	}
	return &list[0], nil
}

// mutate runs a playlist mutation whose result field is field.
func (m *GraphQLPlaylistManager) mutate(ctx context.Context, op, mutation, field string, vars map[string]any) (*Playlist, error) {
	data, err := m.client.Execute(ctx, mutation, vars)
	if err != nil {
		return nil, graphql.Wrap(op, err)
	}

	var resp map[string]*Playlist
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, graphql.Wrap(op, fmt.Errorf("parse response: %w", err))
	}
	p := resp[field]
	if p == nil {
		return nil, graphql.Failf(op, "empty response")
	}
	return p, nil
}

// Create saves a new playlist with its initial items.
func (m *GraphQLPlaylistManager) Create(ctx context.Context, input CreateInput, teamID string) (*Playlist, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("playlist name is required")
	}
	for i, it := range input.Items {
		if it.AssetID == "" {
			return nil, fmt.Errorf("item %d: asset id is required", i)
		}
	}
	return m.mutate(ctx, "create playlist", saveMutation, "savePlaylist", map[string]any{
		"payload": input,
		"teamId":  graphql.NullableString(teamID),
	})
}

// Edit renames the playlist and/or replaces its items.
func (m *GraphQLPlaylistManager) Edit(ctx context.Context, id string, input EditInput, teamID string) (*Playlist, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if input.Name == nil && input.Items == nil && input.Options == nil && input.Tags == nil {
		return nil, fmt.Errorf("nothing to edit")
	}

	payload := map[string]any{"_id": id}
	if input.Name != nil {
		payload["name"] = *input.Name
	}
	if input.Items != nil {
		payload["items"] = input.Items
	}
	if input.Options != nil {
		payload["options"] = input.Options
	}
	if input.Tags != nil {
		payload["tags"] = input.Tags
	}
	return m.mutate(ctx, "edit playlist", saveMutation, "savePlaylist", map[string]any{
		"payload": payload,
		"teamId":  graphql.NullableString(teamID),
	})
}

// AddItems inserts items before the item currently at position. A position
// past the end appends.
func (m *GraphQLPlaylistManager) AddItems(ctx context.Context, id string, position int, items []ItemInput, teamID string) (*Playlist, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := validatePosition(position); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("at least one item is required")
	}
	return m.mutate(ctx, "add playlist items", addItemsMutation, "addPlaylistItems", map[string]any{
		"_id":      id,
		"position": position,
		"items":    items,
		"teamId":   graphql.NullableString(teamID),
	})
}

// RemoveItems removes the items at positions. Positions index the playlist as
// it was before this call, so removing [0, 2] drops the first and third
// items. The list is sent exactly as given.
func (m *GraphQLPlaylistManager) RemoveItems(ctx context.Context, id string, positions []int, teamID string) (*Playlist, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("at least one position is required")
	}
	for _, p := range positions {
		if err := validatePosition(p); err != nil {
			return nil, err
		}
	}
	return m.mutate(ctx, "remove playlist items", removeItemsMutation, "removePlaylistItems", map[string]any{
		"_id":       id,
		"positions": positions,
		"teamId":    graphql.NullableString(teamID),
	})
}

// ModifyItem changes the duration of the item at position and/or moves it.
func (m *GraphQLPlaylistManager) ModifyItem(ctx context.Context, id string, position int, patch ItemPatch, teamID string) (*Playlist, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := validatePosition(position); err != nil {
		return nil, err
	}
	if patch.Duration == nil && patch.Position == nil {
		return nil, fmt.Errorf("nothing to modify")
	}
	if patch.Position != nil {
		if err := validatePosition(*patch.Position); err != nil {
			return nil, err
		}
	}
	if patch.Duration != nil && *patch.Duration <= 0 {
		return nil, fmt.Errorf("invalid duration %v: must be positive", *patch.Duration)
	}
	return m.mutate(ctx, "modify playlist item", modifyItemMutation, "modifyPlaylistItem", map[string]any{
		"_id":      id,
		"position": position,
		"payload":  patch,
		"teamId":   graphql.NullableString(teamID),
	})
}

// Delete removes the playlist through the shared deleteObjects mutation.
func (m *GraphQLPlaylistManager) Delete(ctx context.Context, id, teamID string) (bool, error) {
	return objects.Delete(ctx, m.client, "delete playlist", objects.TypePlaylist, teamID, id)
}
