package devices

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jamesprial/optisigns-mcp/internal/graphql"
)

// call records one Execute invocation.
type call struct {
	query     string
	variables map[string]any
}

// mockClient implements graphql.Client with a function field and records
// every call.
type mockClient struct {
	executeFunc func(ctx context.Context, query string, variables map[string]any) ([]byte, error)
	calls       []call
}

func (m *mockClient) Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	m.calls = append(m.calls, call{query: query, variables: variables})
	return m.executeFunc(ctx, query, variables)
}

var _ graphql.Client = (*mockClient)(nil)

// respond returns a mock that answers every call with data.
func respond(data string) *mockClient {
	return &mockClient{executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
		return []byte(data), nil
	}}
}

// devicePage wraps device JSON objects in the devices connection envelope.
func devicePage(nodes ...string) string {
	edges := make([]string, len(nodes))
	for i, n := range nodes {
		edges[i] = `{"node":` + n + `}`
	}
	return `{"devices":{"page":{"edges":[` + strings.Join(edges, ",") + `]}}}`
}

const lobbyJSON = `{
	"_id": "d1",
	"deviceName": "Lobby",
	"currentType": "PLAYLIST",
	"currentPlaylistId": "p1",
	"orientation": "LANDSCAPE",
	"path": "/floor1",
	"tags": ["front"],
	"feature": {"scheduleOpsId": "ops1", "mute": true}
}`

// payloadOf re-encodes the payload variable of c as a generic map.
func payloadOf(t *testing.T, c call) map[string]any {
	t.Helper()
	raw, err := json.Marshal(c.variables["payload"])
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return out
}

func Test_NewGraphQLDeviceManager_NilClientPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil client")
		}
	}()
	NewGraphQLDeviceManager(nil)
}

func Test_ListAll_PreservesServerOrder(t *testing.T) {
	client := respond(devicePage(`{"_id":"d3","deviceName":"C"}`, `{"_id":"d1","deviceName":"A"}`, `{"_id":"d2","deviceName":"B"}`))
	got, err := NewGraphQLDeviceManager(client).ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	want := []string{"d3", "d1", "d2"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
}

func Test_ListAll_Empty(t *testing.T) {
	got, err := NewGraphQLDeviceManager(respond(devicePage())).ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListAll() = %#v, want empty non-nil slice", got)
	}
}

func Test_FindByName_SendsName(t *testing.T) {
	client := respond(devicePage(lobbyJSON))
	got, err := NewGraphQLDeviceManager(client).FindByName(context.Background(), "Lobby")
	if err != nil {
		t.Fatalf("FindByName() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "Lobby" {
		t.Errorf("FindByName() = %+v", got)
	}
	if client.calls[0].variables["name"] != "Lobby" {
		t.Errorf("name variable = %v", client.calls[0].variables["name"])
	}
}

func Test_GetByID_Cases(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		response    string
		err         error
		wantName    string
		wantErr     string
		wantNotFind bool
		wantCalls   int
	}{
		{name: "found", id: "d1", response: devicePage(lobbyJSON), wantName: "Lobby", wantCalls: 1},
		{name: "missing", id: "missing", response: devicePage(), wantNotFind: true, wantErr: "device with id missing not found", wantCalls: 1},
		{name: "blank id", id: " ", wantErr: "invalid device id", wantCalls: 0},
		{
			name:      "remote error",
			id:        "d1",
			err:       &graphql.ResponseError{StatusCode: 200, Errors: []graphql.GraphQLError{{Message: "Unauthorized"}}},
			wantErr:   "Failed to get device by id: Unauthorized",
			wantCalls: 1,
		},
		{name: "malformed data", id: "d1", response: `{"devices":42}`, wantErr: "Failed to get device by id", wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return []byte(tt.response), nil
			}}

			d, err := NewGraphQLDeviceManager(client).GetByID(context.Background(), tt.id)
			if len(client.calls) != tt.wantCalls {
				t.Errorf("calls = %d, want %d", len(client.calls), tt.wantCalls)
			}
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want it to contain %q", err, tt.wantErr)
				}
				var nf *graphql.NotFoundError
				if errors.As(err, &nf) != tt.wantNotFind {
					t.Errorf("NotFoundError = %v, want %v", errors.As(err, &nf), tt.wantNotFind)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetByID() error = %v", err)
			}
			if d.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", d.Name, tt.wantName)
			}
			if tt.wantCalls > 0 && client.calls[0].variables["id"] != tt.id {
				t.Errorf("id variable = %v", client.calls[0].variables["id"])
			}
		})
	}
}

func Test_Update_MissingDeviceSkipsWrite(t *testing.T) {
	client := respond(devicePage())
	name := "New"
	_, err := NewGraphQLDeviceManager(client).Update(context.Background(), "missing", UpdateInput{Name: &name})

	var nf *graphql.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want *graphql.NotFoundError", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("calls = %d, want 1 (lookup only)", len(client.calls))
	}
	if strings.Contains(client.calls[0].query, "updateDevice") {
		t.Error("update mutation was issued for a missing device")
	}
}

// updateClient answers the lookup with lobbyJSON and echoes the update.
func updateClient() *mockClient {
	return &mockClient{executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
		if strings.Contains(query, "updateDevice") {
			return []byte(`{"updateDevice":{"_id":"d1","deviceName":"Renamed"}}`), nil
		}
		return []byte(devicePage(lobbyJSON)), nil
	}}
}

func Test_Update_MergesPatchOverCurrentState(t *testing.T) {
	client := updateClient()
	name := "Renamed"
	got, err := NewGraphQLDeviceManager(client).Update(context.Background(), "d1", UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", got.Name)
	}
	if len(client.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(client.calls))
	}

	write := client.calls[1]
	if write.variables["_id"] != "d1" {
		t.Errorf("_id = %v, want d1", write.variables["_id"])
	}
	p := payloadOf(t, write)
	want := map[string]any{
		"deviceName":        "Renamed",
		"currentType":       "PLAYLIST",
		"currentPlaylistId": "p1",
		"orientation":       "LANDSCAPE",
		"path":              "/floor1",
	}
	for k, v := range want {
		if p[k] != v {
			t.Errorf("payload[%q] = %v, want %v", k, p[k], v)
		}
	}
	if v, present := p["currentAssetId"]; !present || v != nil {
		t.Errorf("currentAssetId = %v (present %v), want explicit null", v, present)
	}
	feature, _ := p["feature"].(map[string]any)
	if feature["scheduleOpsId"] != "ops1" || feature["mute"] != true {
		t.Errorf("feature = %v, want existing settings kept", p["feature"])
	}
}

func Test_ConvenienceUpdates_Cases(t *testing.T) {
	tests := []struct {
		name  string
		run   func(m *GraphQLDeviceManager) (*Device, error)
		check func(t *testing.T, p map[string]any)
	}{
		{
			name: "move to folder",
			run: func(m *GraphQLDeviceManager) (*Device, error) {
				return m.MoveToFolder(context.Background(), "d1", "/floor2")
			},
			check: func(t *testing.T, p map[string]any) {
				if p["path"] != "/floor2" {
					t.Errorf("path = %v", p["path"])
				}
			},
		},
		{
			name: "assign asset",
			run: func(m *GraphQLDeviceManager) (*Device, error) {
				return m.AssignContent(context.Background(), "d1", MediaAsset, "a9")
			},
			check: func(t *testing.T, p map[string]any) {
				if p["currentType"] != "ASSET" || p["currentAssetId"] != "a9" {
					t.Errorf("payload = %v", p)
				}
			},
		},
		{
			name: "operational schedule keeps other feature keys",
			run: func(m *GraphQLDeviceManager) (*Device, error) {
				return m.AssignOperationalSchedule(context.Background(), "d1", "ops2")
			},
			check: func(t *testing.T, p map[string]any) {
				f, _ := p["feature"].(map[string]any)
				if f["scheduleOpsId"] != "ops2" || f["mute"] != true {
					t.Errorf("feature = %v", f)
				}
			},
		},
		{
			name: "tag rule",
			run: func(m *GraphQLDeviceManager) (*Device, error) {
				return m.AssignTagRule(context.Background(), "d1", "rule1")
			},
			check: func(t *testing.T, p map[string]any) {
				f, _ := p["feature"].(map[string]any)
				if f["contentTagRuleId"] != "rule1" || f["scheduleOpsId"] != "ops1" {
					t.Errorf("feature = %v", f)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := updateClient()
			if _, err := tt.run(NewGraphQLDeviceManager(client)); err != nil {
				t.Fatalf("error = %v", err)
			}
			if len(client.calls) != 2 {
				t.Fatalf("calls = %d, want 2", len(client.calls))
			}
			tt.check(t, payloadOf(t, client.calls[1]))
		})
	}
}

func Test_AssignContent_ClearsOtherContentIDs(t *testing.T) {
	tests := []struct {
		name      string
		kind      MediaType
		contentID string
		wantSet   map[string]string
		wantNull  []string
	}{
		{
			name:      "playlist to asset",
			kind:      MediaAsset,
			contentID: "a9",
			wantSet:   map[string]string{"currentType": "ASSET", "currentAssetId": "a9"},
			wantNull:  []string{"currentPlaylistId", "currentScheduleId"},
		},
		{
			name:      "playlist to schedule",
			kind:      MediaSchedule,
			contentID: "s1",
			wantSet:   map[string]string{"currentType": "SCHEDULE", "currentScheduleId": "s1"},
			wantNull:  []string{"currentAssetId", "currentPlaylistId"},
		},
		{
			name:     "none clears every id",
			kind:     MediaNone,
			wantSet:  map[string]string{"currentType": "NONE"},
			wantNull: []string{"currentAssetId", "currentPlaylistId", "currentScheduleId"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := updateClient()
			if _, err := NewGraphQLDeviceManager(client).AssignContent(context.Background(), "d1", tt.kind, tt.contentID); err != nil {
				t.Fatalf("AssignContent() error = %v", err)
			}
			p := payloadOf(t, client.calls[1])
			for k, v := range tt.wantSet {
				if p[k] != v {
					t.Errorf("payload[%q] = %v, want %v", k, p[k], v)
				}
			}
			for _, k := range tt.wantNull {
				v, present := p[k]
				if !present || v != nil {
					t.Errorf("payload[%q] = %v (present %v), want explicit null", k, v, present)
				}
			}
		})
	}
}

func Test_FeatureAssignments_RejectEmptyID(t *testing.T) {
	tests := []struct {
		name    string
		run     func(m *GraphQLDeviceManager) (*Device, error)
		wantErr string
	}{
		{
			name: "operational schedule",
			run: func(m *GraphQLDeviceManager) (*Device, error) {
				return m.AssignOperationalSchedule(context.Background(), "d1", "")
			},
			wantErr: "operational schedule id is required",
		},
		{
			name: "tag rule",
			run: func(m *GraphQLDeviceManager) (*Device, error) {
				return m.AssignTagRule(context.Background(), "d1", " ")
			},
			wantErr: "tag rule id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := updateClient()
			_, err := tt.run(NewGraphQLDeviceManager(client))
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
			if len(client.calls) != 0 {
				t.Errorf("calls = %d, want 0", len(client.calls))
			}
		})
	}
}

func Test_AssignContent_InvalidKind(t *testing.T) {
	client := updateClient()
	_, err := NewGraphQLDeviceManager(client).AssignContent(context.Background(), "d1", MediaType("VIDEO"), "x")
	if err == nil {
		t.Fatal("expected error for invalid media type")
	}
	if len(client.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(client.calls))
	}
}

func Test_Update_RemoteErrorIncludesOp(t *testing.T) {
	client := &mockClient{executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
		if strings.Contains(query, "updateDevice") {
			return nil, &graphql.ResponseError{StatusCode: 200, Errors: []graphql.GraphQLError{{Message: "Device is locked"}}}
		}
		return []byte(devicePage(lobbyJSON)), nil
	}}
	name := "x"
	_, err := NewGraphQLDeviceManager(client).Update(context.Background(), "d1", UpdateInput{Name: &name})

	var roe *graphql.RemoteOperationError
	if !errors.As(err, &roe) {
		t.Fatalf("error = %v, want *graphql.RemoteOperationError", err)
	}
	if roe.Op != "update device" || roe.Message != "Device is locked" {
		t.Errorf("error = %+v", roe)
	}
	if err.Error() != "Failed to update device: Device is locked" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func Test_Pair(t *testing.T) {
	client := respond(`{"pairDevice":{"_id":"d5","deviceName":"New Screen","pairingCode":"ABC123"}}`)
	d, err := NewGraphQLDeviceManager(client).Pair(context.Background(), "ABC123", "/new", "team1")
	if err != nil {
		t.Fatalf("Pair() error = %v", err)
	}
	if d.ID != "d5" {
		t.Errorf("ID = %q, want d5", d.ID)
	}
	p := payloadOf(t, client.calls[0])
	if p["pairingCode"] != "ABC123" || p["path"] != "/new" || p["teamId"] != "team1" {
		t.Errorf("payload = %v", p)
	}
	if client.calls[0].variables["teamId"] != "team1" {
		t.Errorf("teamId = %v", client.calls[0].variables["teamId"])
	}
}

func Test_Pair_EmptyCode(t *testing.T) {
	client := respond(`{}`)
	if _, err := NewGraphQLDeviceManager(client).Pair(context.Background(), "", "", "team1"); err == nil {
		t.Fatal("expected error for empty pairing code")
	}
	if len(client.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(client.calls))
	}
}

func Test_Unpair_Cases(t *testing.T) {
	tests := []struct {
		name      string
		ids       []string
		response  string
		want      bool
		wantErr   bool
		wantCalls int
	}{
		{name: "server confirms", ids: []string{"d1", "d2"}, response: `{"unPairDevices":true}`, want: true, wantCalls: 1},
		{name: "server declines", ids: []string{"d1"}, response: `{"unPairDevices":false}`, want: false, wantCalls: 1},
		{name: "no ids", ids: nil, wantErr: true},
		{name: "blank id", ids: []string{"d1", ""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := respond(tt.response)
			got, err := NewGraphQLDeviceManager(client).Unpair(context.Background(), "team1", tt.ids...)
			if len(client.calls) != tt.wantCalls {
				t.Errorf("calls = %d, want %d", len(client.calls), tt.wantCalls)
			}
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unpair() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Unpair() = %v, want %v", got, tt.want)
			}
			p := payloadOf(t, client.calls[0])
			ids, _ := p["deviceIds"].([]any)
			if len(ids) != len(tt.ids) {
				t.Errorf("deviceIds = %v, want %v", p["deviceIds"], tt.ids)
			}
		})
	}
}

func Test_Feature_JSONKeepsUnknownKeys(t *testing.T) {
	var f Feature
	if err := json.Unmarshal([]byte(`{"scheduleOpsId":"o","contentTagRuleId":"r","mute":true}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.ScheduleOpsID != "o" || f.ContentTagRuleID != "r" || f.Extra["mute"] != true {
		t.Errorf("Feature = %+v", f)
	}
	out, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"contentTagRuleId":"r","mute":true,"scheduleOpsId":"o"}` {
		t.Errorf("Marshal = %s", out)
	}
}
