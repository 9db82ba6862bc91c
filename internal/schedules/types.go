// Package schedules manages OptiSigns schedules, which assign playlists to
// time windows.
package schedules

import "context"

// Schedule is a named set of time-windowed playlist assignments.
type Schedule struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Item assigns a playlist to the window [StartTime, EndTime]. Times are
// passed through exactly as given; ordering and overlap are checked by the
// server, if at all.
type Item struct {
	PlaylistID string `json:"playlistId"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

// CreateInput is the ScheduleCreateInput payload.
type CreateInput struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// UpdateInput is the ScheduleUpdateInput payload. Nil fields are not sent; a
// non-nil empty Items is sent as an empty list.
type UpdateInput struct {
	Name  *string `json:"name,omitempty"`
	Items []Item  `json:"items,omitempty"`
}

// ScheduleManager defines the schedule operations.
type ScheduleManager interface {
	List(ctx context.Context) ([]Schedule, error)
	Create(ctx context.Context, input CreateInput) (*Schedule, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Schedule, error)
	Delete(ctx context.Context, id string) (bool, error)
}
