package playlists

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/jamesprial/optisigns-mcp/internal/safety"
	"github.com/jamesprial/optisigns-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
)

// mockPlaylistManager implements PlaylistManager with function fields.
type mockPlaylistManager struct {
	listFunc        func(ctx context.Context, teamID string) ([]Playlist, error)
	getFunc         func(ctx context.Context, id, teamID string) (*Playlist, error)
	createFunc      func(ctx context.Context, input CreateInput, teamID string) (*Playlist, error)
	editFunc        func(ctx context.Context, id string, input EditInput, teamID string) (*Playlist, error)
	addItemsFunc    func(ctx context.Context, id string, position int, items []ItemInput, teamID string) (*Playlist, error)
	removeItemsFunc func(ctx context.Context, id string, positions []int, teamID string) (*Playlist, error)
	modifyItemFunc  func(ctx context.Context, id string, position int, patch ItemPatch, teamID string) (*Playlist, error)
	deleteFunc      func(ctx context.Context, id, teamID string) (bool, error)
}

var _ PlaylistManager = (*mockPlaylistManager)(nil)

func (m *mockPlaylistManager) List(ctx context.Context, teamID string) ([]Playlist, error) {
	return m.listFunc(ctx, teamID)
}

func (m *mockPlaylistManager) Get(ctx context.Context, id, teamID string) (*Playlist, error) {
	return m.getFunc(ctx, id, teamID)
}

func (m *mockPlaylistManager) Create(ctx context.Context, input CreateInput, teamID string) (*Playlist, error) {
	return m.createFunc(ctx, input, teamID)
}

func (m *mockPlaylistManager) Edit(ctx context.Context, id string, input EditInput, teamID string) (*Playlist, error) {
	return m.editFunc(ctx, id, input, teamID)
}

func (m *mockPlaylistManager) AddItems(ctx context.Context, id string, position int, items []ItemInput, teamID string) (*Playlist, error) {
	return m.addItemsFunc(ctx, id, position, items, teamID)
}

func (m *mockPlaylistManager) RemoveItems(ctx context.Context, id string, positions []int, teamID string) (*Playlist, error) {
	return m.removeItemsFunc(ctx, id, positions, teamID)
}

func (m *mockPlaylistManager) ModifyItem(ctx context.Context, id string, position int, patch ItemPatch, teamID string) (*Playlist, error) {
	return m.modifyItemFunc(ctx, id, position, patch, teamID)
}

func (m *mockPlaylistManager) Delete(ctx context.Context, id, teamID string) (bool, error) {
	return m.deleteFunc(ctx, id, teamID)
}

var tokenPattern = regexp.MustCompile(`confirmation_token="([a-f0-9]+)"`)

var morning = Playlist{ID: "p1", Name: "Morning", Items: []Item{
	{AssetID: "a0", Duration: 10},
	{AssetID: "a1", Duration: 15},
}}

func findTool(t *testing.T, regs []tools.Registration, name string) tools.Registration {
	t.Helper()
	for _, r := range regs {
		if r.Tool.Name == name {
			return r
		}
	}
	t.Fatalf("tool %q not registered", name)
	return tools.Registration{}
}

func invoke(t *testing.T, reg tools.Registration, args map[string]any) string {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := reg.Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	tc, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("Content[0] is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func Test_PlaylistTools_Registrations(t *testing.T) {
	regs := PlaylistTools(&mockPlaylistManager{}, nil, nil, "")
	want := "playlists_list,playlists_create,playlists_add_items,playlists_remove_items,playlists_modify_item,playlists_delete"
	if got := strings.Join(tools.Names(regs), ","); got != want {
		t.Errorf("tools = %s, want %s", got, want)
	}
}

func Test_PlaylistsList_Cases(t *testing.T) {
	tests := []struct {
		name     string
		list     []Playlist
		wantText string
	}{
		{name: "items in order", list: []Playlist{morning}, wantText: "Morning (id=p1, 2 items)\n  0. asset a0 for 10s\n  1. asset a1 for 15s"},
		{name: "empty", list: []Playlist{}, wantText: "No playlists found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := &mockPlaylistManager{listFunc: func(ctx context.Context, teamID string) ([]Playlist, error) {
				return tt.list, nil
			}}
			if text := invoke(t, findTool(t, PlaylistTools(mgr, nil, nil, ""), "playlists_list"), map[string]any{}); text != tt.wantText {
				t.Errorf("result = %q, want %q", text, tt.wantText)
			}
		})
	}
}

func Test_PlaylistsCreate_DefaultDuration(t *testing.T) {
	var got CreateInput
	mgr := &mockPlaylistManager{createFunc: func(ctx context.Context, input CreateInput, teamID string) (*Playlist, error) {
		got = input
		return &morning, nil
	}}
	invoke(t, findTool(t, PlaylistTools(mgr, nil, nil, ""), "playlists_create"), map[string]any{"name": "Morning", "asset_ids": "a0, a1"})

	if got.Name != "Morning" || len(got.Items) != 2 {
		t.Fatalf("input = %+v", got)
	}
	for i, it := range got.Items {
		if it.Duration != defaultItemDuration {
			t.Errorf("Items[%d].Duration = %v, want %d", i, it.Duration, defaultItemDuration)
		}
	}
}

func Test_PlaylistsAddItems_InvalidDuration(t *testing.T) {
	called := false
	mgr := &mockPlaylistManager{addItemsFunc: func(ctx context.Context, id string, position int, items []ItemInput, teamID string) (*Playlist, error) {
		called = true
		return &morning, nil
	}}
	text := invoke(t, findTool(t, PlaylistTools(mgr, nil, nil, ""), "playlists_add_items"),
		map[string]any{"id": "p1", "asset_ids": "a9", "position": float64(0), "duration": float64(0)})
	if called {
		t.Error("AddItems called with an invalid duration")
	}
	if !strings.Contains(text, "must be positive") {
		t.Errorf("result = %q", text)
	}
}

func Test_PlaylistsRemoveItems_PassesPositions(t *testing.T) {
	tests := []struct {
		name      string
		positions string
		want      []int
		wantErr   string
	}{
		{name: "comma list", positions: "0,2", want: []int{0, 2}},
		{name: "json array", positions: "[2, 0]", want: []int{2, 0}},
		{name: "not a number", positions: "first", wantErr: `invalid integer "first"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			mgr := &mockPlaylistManager{removeItemsFunc: func(ctx context.Context, id string, positions []int, teamID string) (*Playlist, error) {
				got = positions
				return &morning, nil
			}}
			text := invoke(t, findTool(t, PlaylistTools(mgr, nil, nil, ""), "playlists_remove_items"), map[string]any{"id": "p1", "positions": tt.positions})
			if tt.wantErr != "" {
				if !strings.Contains(text, tt.wantErr) || got != nil {
					t.Errorf("result = %q, positions = %v", text, got)
				}
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("positions = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("positions = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func Test_PlaylistsModifyItem_BuildsPatch(t *testing.T) {
	var got ItemPatch
	mgr := &mockPlaylistManager{modifyItemFunc: func(ctx context.Context, id string, position int, patch ItemPatch, teamID string) (*Playlist, error) {
		got = patch
		return &morning, nil
	}}
	invoke(t, findTool(t, PlaylistTools(mgr, nil, nil, ""), "playlists_modify_item"), map[string]any{"id": "p1", "position": float64(1), "new_position": float64(0)})

	if got.Duration != nil {
		t.Errorf("Duration = %v, want nil", *got.Duration)
	}
	if got.Position == nil || *got.Position != 0 {
		t.Errorf("Position = %v, want 0", got.Position)
	}
}

func Test_PlaylistsDelete_ConfirmationFlow(t *testing.T) {
	calls := 0
	mgr := &mockPlaylistManager{deleteFunc: func(ctx context.Context, id, teamID string) (bool, error) {
		calls++
		return true, nil
	}}
	reg := findTool(t, PlaylistTools(mgr, safety.NewConfirmationTracker(DestructiveTools), nil, ""), "playlists_delete")

	prompt := invoke(t, reg, map[string]any{"id": "p1"})
	m := tokenPattern.FindStringSubmatch(prompt)
	if calls != 0 || len(m) != 2 {
		t.Fatalf("calls = %d, prompt = %q", calls, prompt)
	}
	if text := invoke(t, reg, map[string]any{"id": "p1", "confirmation_token": m[1]}); text != `playlist "p1" deleted successfully` {
		t.Errorf("result = %q", text)
	}
	// Tokens are single use.
	if text := invoke(t, reg, map[string]any{"id": "p1", "confirmation_token": m[1]}); !strings.Contains(text, "Confirmation required") {
		t.Errorf("reused token result = %q", text)
	}
	if calls != 1 {
		t.Errorf("Delete calls = %d, want 1", calls)
	}
}
