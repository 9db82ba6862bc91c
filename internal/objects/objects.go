// Package objects implements the API's generic deleteObjects mutation, which
// removes assets, playlists and other content by id and object type.
package objects

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jamesprial/optisigns-mcp/internal/graphql"
)

// Type is the OBJECT_TYPES enum accepted by deleteObjects.
type Type string

const (
	TypeAsset    Type = "ASSET"
	TypePlaylist Type = "PLAYLIST"
	TypeSchedule Type = "SCHEDULE"
	TypeFolder   Type = "FOLDER"
)

const deleteMutation = `mutation($payload: DeleteObjectInput!, $teamId: String) {
  deleteObjects(payload: $payload, teamId: $teamId)
}`

// deleteResponse maps the contents of the data object.
type deleteResponse struct {
	DeleteObjects bool `json:"deleteObjects"`
}

// Delete removes the objects with the given ids. op names the caller's
// operation in any returned error. The server's boolean is returned as is;
// false is not an error.
func Delete(ctx context.Context, client graphql.Client, op string, typ Type, teamID string, ids ...string) (bool, error) {
	if len(ids) == 0 {
		return false, fmt.Errorf("%s: at least one id is required", op)
	}
	for _, id := range ids {
		if id == "" {
			return false, fmt.Errorf("%s: empty id", op)
		}
	}

	vars := map[string]any{
		"payload": map[string]any{
			"ids":  ids,
			"type": string(typ),
		},
		"teamId": graphql.NullableString(teamID),
	}

	data, err := client.Execute(ctx, deleteMutation, vars)
	if err != nil {
		return false, graphql.Wrap(op, err)
	}

	var resp deleteResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return false, graphql.Wrap(op, fmt.Errorf("parse response: %w", err))
	}
	return resp.DeleteObjects, nil
}
