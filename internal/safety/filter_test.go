package safety

import (
	"strings"
	"testing"
)

func Test_Filter_IsAllowed_Cases(t *testing.T) {
	tests := []struct {
		name      string
		allowlist []string
		denylist  []string
		device    string
		want      bool
	}{
		{name: "nil lists allow everything", device: "Lobby TV", want: true},
		{name: "empty lists allow everything", allowlist: []string{}, denylist: []string{}, device: "Lobby TV", want: true},
		{name: "exact allowlist entry", allowlist: []string{"kiosk"}, device: "kiosk", want: true},
		{name: "not in allowlist", allowlist: []string{"kiosk"}, device: "lobby-1", want: false},
		{name: "denylist entry", denylist: []string{"ceo-office"}, device: "ceo-office", want: false},
		{name: "denylist wins over allowlist", allowlist: []string{"lobby-*"}, denylist: []string{"lobby-ceo"}, device: "lobby-ceo", want: false},
		{name: "glob allowlist", allowlist: []string{"lobby-*"}, device: "lobby-3", want: true},
		{name: "glob denylist", denylist: []string{"*test*"}, device: "menu-test-board", want: false},
		{name: "case insensitive", allowlist: []string{"Lobby-*"}, device: "LOBBY-east", want: true},
		{name: "names with spaces", denylist: []string{"front desk"}, device: "Front Desk", want: false},
		{name: "malformed pattern never matches", allowlist: []string{"[lobby"}, device: "[lobby", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(tt.allowlist, tt.denylist)
			if got := f.IsAllowed(tt.device); got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v", tt.device, got, tt.want)
			}
		})
	}
}

func Test_Filter_NilAllowsAll(t *testing.T) {
	var f *Filter
	if !f.IsAllowed("anything") {
		t.Error("nil Filter should allow everything")
	}
	if err := f.Check("anything"); err != nil {
		t.Errorf("nil Filter Check() = %v, want nil", err)
	}
}

func Test_Filter_Check(t *testing.T) {
	f := NewFilter(nil, []string{"ceo-*"})
	if err := f.Check("lobby"); err != nil {
		t.Errorf("Check(lobby) = %v, want nil", err)
	}
	err := f.Check("ceo-office")
	if err == nil {
		t.Fatal("Check(ceo-office) = nil, want error")
	}
	if !strings.Contains(err.Error(), `"ceo-office"`) {
		t.Errorf("error %q does not name the device", err.Error())
	}
}
