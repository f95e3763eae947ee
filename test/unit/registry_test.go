package unit

import (
	"strings"
	"testing"

	"github.com/pointdeck/pointdeck/internal/server"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func TestRegistryCreateStoresRoom(t *testing.T) {
	registry := server.NewRegistry(6)

	room, err := registry.Create("host", "Helen")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if registry.Len() != 1 {
		t.Errorf("Expected 1 live room, got %d", registry.Len())
	}

	got, ok := registry.Get(room.Code())
	if !ok {
		t.Fatalf("Room %s not found after creation", room.Code())
	}
	if got != room {
		t.Error("Get returned a different room instance")
	}
	if !got.IsHost("host") {
		t.Error("Creator must be the room host")
	}

	view := got.View()
	if len(view.Players) != 1 || view.Players["host"] != "Helen" {
		t.Errorf("Expected creator as sole member, got %v", view.Players)
	}
}

func TestRegistryCodesAreUniqueAndWellFormed(t *testing.T) {
	registry := server.NewRegistry(6)
	seen := make(map[string]bool)

	for i := 0; i < 200; i++ {
		room, err := registry.Create("host", "Helen")
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		code := room.Code()

		if seen[code] {
			t.Fatalf("Duplicate room code allocated: %s", code)
		}
		seen[code] = true

		if len(code) != 6 {
			t.Errorf("Expected 6-character code, got %q", code)
		}
		for _, ch := range code {
			if !strings.ContainsRune(codeAlphabet, ch) {
				t.Errorf("Code %q contains character outside the alphabet", code)
			}
		}
	}

	if registry.Len() != 200 {
		t.Errorf("Expected 200 live rooms, got %d", registry.Len())
	}
}

func TestRegistryGetUnknownCode(t *testing.T) {
	registry := server.NewRegistry(6)

	if _, ok := registry.Get("ZZZZZZ"); ok {
		t.Error("Expected lookup miss for unknown code")
	}
}

func TestRegistryDeleteIsIdempotent(t *testing.T) {
	registry := server.NewRegistry(6)
	room, err := registry.Create("host", "Helen")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	registry.Delete(room.Code())
	if _, ok := registry.Get(room.Code()); ok {
		t.Error("Room still resolvable after delete")
	}

	// Deleting an absent code must be a no-op.
	registry.Delete(room.Code())
	registry.Delete("NOSUCH")

	if registry.Len() != 0 {
		t.Errorf("Expected empty registry, got %d rooms", registry.Len())
	}
}

func TestRegistryDefaultsCodeLength(t *testing.T) {
	registry := server.NewRegistry(0)

	room, err := registry.Create("host", "Helen")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(room.Code()) != 6 {
		t.Errorf("Expected default 6-character code, got %q", room.Code())
	}
}
