package schedules

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jamesprial/optisigns-mcp/internal/graphql"
)

// Compile-time interface check.
var _ ScheduleManager = (*GraphQLScheduleManager)(nil)

// GraphQLScheduleManager implements ScheduleManager using a GraphQL client.
type GraphQLScheduleManager struct {
	client graphql.Client
}

// NewGraphQLScheduleManager returns a new GraphQLScheduleManager backed by
// the provided GraphQL client.
func NewGraphQLScheduleManager(client graphql.Client) *GraphQLScheduleManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &GraphQLScheduleManager{client: client}
}

const scheduleFields = `_id
    name
    items {
      playlistId
      startTime
      endTime
    }`

var (
	listQuery = `query {
  schedules {
    ` + scheduleFields + `
  }
}`

	createMutation = `mutation($data: ScheduleCreateInput!) {
  createSchedule(data: $data) {
    ` + scheduleFields + `
  }
}`

	updateMutation = `mutation($id: String!, $data: ScheduleUpdateInput!) {
  updateSchedule(id: $id, data: $data) {
    ` + scheduleFields + `
  }
}`
)

const deleteMutation = `mutation($id: String!) {
  deleteSchedule(id: $id)
}`

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("invalid schedule id: empty string")
	}
	return nil
}

func validateItems(items []Item) error {
	for i, it := range items {
		if it.PlaylistID == "" {
			return fmt.Errorf("item %d: playlist id is required", i)
		}
	}
	return nil
}

// List returns every schedule. An empty result is a non-nil empty slice.
func (m *GraphQLScheduleManager) List(ctx context.Context) ([]Schedule, error) {
	const op = "fetch schedules"

	data, err := m.client.Execute(ctx, listQuery, nil)
	if err != nil {
		return nil, graphql.Wrap(op, err)
	}

	var resp struct {
		Schedules []Schedule `json:"schedules"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, graphql.Wrap(op, fmt.Errorf("parse response: %w", err))
	}
	if resp.Schedules == nil {
		return []Schedule{}, nil
	}
	return resp.Schedules, nil
}

// mutate runs a schedule mutation whose result field is field.
func (m *GraphQLScheduleManager) mutate(ctx context.Context, op, mutation, field string, vars map[string]any) (*Schedule, error) {
	data, err := m.client.Execute(ctx, mutation, vars)
	if err != nil {
		return nil, graphql.Wrap(op, err)
	}

	var resp map[string]*Schedule
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, graphql.Wrap(op, fmt.Errorf("parse response: %w", err))
	}
	s := resp[field]
	if s == nil {
		return nil, graphql.Failf(op, "empty response")
	}
	return s, nil
}

// Create saves a new schedule with its ordered items.
func (m *GraphQLScheduleManager) Create(ctx context.Context, input CreateInput) (*Schedule, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("schedule name is required")
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}
	if input.Items == nil {
		input.Items = []Item{}
	}
	return m.mutate(ctx, "create schedule", createMutation, "createSchedule", map[string]any{"data": input})
}

// Update changes the name and/or replaces the items of a schedule. An empty,
// non-nil Items removes every item.
func (m *GraphQLScheduleManager) Update(ctx context.Context, id string, input UpdateInput) (*Schedule, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if input.Name == nil && input.Items == nil {
		return nil, fmt.Errorf("nothing to update")
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}

	data := map[string]any{}
	if input.Name != nil {
		data["name"] = *input.Name
	}
	if input.Items != nil {
		data["items"] = input.Items
	}
	return m.mutate(ctx, "update schedule", updateMutation, "updateSchedule", map[string]any{
		"id":   id,
		"data": data,
	})
}

// Delete removes the schedule and returns the server's answer.
func (m *GraphQLScheduleManager) Delete(ctx context.Context, id string) (bool, error) {
	const op = "delete schedule"

	if err := validateID(id); err != nil {
		return false, err
	}

	data, err := m.client.Execute(ctx, deleteMutation, map[string]any{"id": id})
	if err != nil {
		return false, graphql.Wrap(op, err)
	}

	var resp struct {
		DeleteSchedule bool `json:"deleteSchedule"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return false, graphql.Wrap(op, fmt.Errorf("parse response: %w", err))
	}
	return resp.DeleteSchedule, nil
}
