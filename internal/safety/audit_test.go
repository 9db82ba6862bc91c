package safety

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func Test_AuditLogger_Log_Cases(t *testing.T) {
	ts := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		entry    AuditEntry
		validate func(t *testing.T, got map[string]any)
	}{
		{
			name: "all fields serialized",
			entry: AuditEntry{
				Timestamp: ts,
				Tool:      "devices_update",
				Params:    map[string]any{"id": "d1", "name": "Lobby"},
				Result:    "ok",
				Duration:  150 * time.Millisecond,
			},
			validate: func(t *testing.T, got map[string]any) {
				t.Helper()
				if got["tool"] != "devices_update" {
					t.Errorf("tool = %v", got["tool"])
				}
				if got["result"] != "ok" {
					t.Errorf("result = %v", got["result"])
				}
				if got["timestamp"] != "2026-01-15T10:30:00Z" {
					t.Errorf("timestamp = %v", got["timestamp"])
				}
				if got["duration_ns"] != float64(150*time.Millisecond) {
					t.Errorf("duration_ns = %v", got["duration_ns"])
				}
				params, _ := got["params"].(map[string]any)
				if params["id"] != "d1" || params["name"] != "Lobby" {
					t.Errorf("params = %v", got["params"])
				}
			},
		},
		{
			name:  "missing id is generated",
			entry: AuditEntry{Timestamp: ts, Tool: "assets_get"},
			validate: func(t *testing.T, got map[string]any) {
				t.Helper()
				id, _ := got["id"].(string)
				if _, err := uuid.Parse(id); err != nil {
					t.Errorf("id = %q is not a UUID: %v", id, err)
				}
			},
		},
		{
			name:  "given id is kept",
			entry: AuditEntry{ID: "fixed-id", Timestamp: ts, Tool: "assets_get"},
			validate: func(t *testing.T, got map[string]any) {
				t.Helper()
				if got["id"] != "fixed-id" {
					t.Errorf("id = %v, want fixed-id", got["id"])
				}
			},
		},
		{
			name:  "nil params",
			entry: AuditEntry{Timestamp: ts, Tool: "schedules_list", Params: nil},
			validate: func(t *testing.T, got map[string]any) {
				t.Helper()
				if v, ok := got["params"]; !ok || v != nil {
					t.Errorf("params = %v (present %v), want null", v, ok)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewAuditLogger(&buf)
			if err := logger.Log(tt.entry); err != nil {
				t.Fatalf("Log() error = %v", err)
			}
			out := buf.String()
			if !strings.HasSuffix(out, "\n") || strings.Count(out, "\n") != 1 {
				t.Fatalf("output %q is not exactly one line", out)
			}
			var got map[string]any
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("output is not JSON: %v", err)
			}
			tt.validate(t, got)
		})
	}
}

func Test_AuditLogger_ConcurrentEntriesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAuditLogger(&buf)

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = logger.Log(AuditEntry{Timestamp: time.Now(), Tool: "playlists_list", Result: "ok"})
		}()
	}
	wg.Wait()

	ids := make(map[string]bool, n)
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line %q is not a JSON entry: %v", sc.Text(), err)
		}
		ids[e.ID] = true
	}
	if len(ids) != n {
		t.Errorf("got %d distinct entries, want %d", len(ids), n)
	}
}

func Test_AuditLogger_NilWriter(t *testing.T) {
	if logger := NewAuditLogger(nil); logger != nil {
		t.Errorf("NewAuditLogger(nil) = %v, want nil", logger)
	}
	var logger *AuditLogger
	if err := logger.Log(AuditEntry{Tool: "x"}); !errors.Is(err, ErrNilWriter) {
		t.Errorf("Log() on nil logger = %v, want ErrNilWriter", err)
	}
}
