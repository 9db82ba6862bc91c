package internal

import (
	"testing"

	"github.com/kcmvp/archunit"
)

func TestArchitecture(t *testing.T) {
	transport := archunit.Packages("transport", []string{".../internal/graphql"})
	managers := archunit.Packages("managers", []string{
		".../internal/devices",
		".../internal/assets",
		".../internal/playlists",
		".../internal/schedules",
		".../internal/objects",
	})
	server := archunit.Packages("server", []string{
		".../internal/config",
		".../internal/auth",
	})

	// Library code never reaches into server-only configuration or auth.
	if err := managers.ShouldNotReferLayers(server); err != nil {
		t.Errorf("Architecture violation: managers depend on server packages: %v", err)
	}
	if err := transport.ShouldNotReferLayers(server); err != nil {
		t.Errorf("Architecture violation: transport depends on server packages: %v", err)
	}
	// The transport is the bottom layer.
	if err := transport.ShouldNotReferLayers(managers); err != nil {
		t.Errorf("Architecture violation: transport depends on managers: %v", err)
	}
}

func TestManagerPackagesPresent(t *testing.T) {
	for _, name := range []string{"devices", "assets", "playlists", "schedules"} {
		layer := archunit.Packages(name, []string{".../internal/" + name})
		if len(layer.Packages()) == 0 {
			t.Errorf("no %s package found", name)
		}
	}
}
