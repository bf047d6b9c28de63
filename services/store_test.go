package services

import (
	"testing"

	"portkeeper/internal/models"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())

	cfg := &models.TunnelConfig{
		ID:         "cfg-1",
		InstanceID: "inst-1",
		Provider:   models.ProviderBore,
		Enabled:    true,
		Port:       25565,
	}
	if err := store.Save(cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Get("inst-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Provider != models.ProviderBore || got.Port != 25565 || !got.Enabled {
		t.Errorf("round trip mangled the config: %+v", got)
	}
}

func TestFileStoreGetAbsent(t *testing.T) {
	store := NewFileStore(t.TempDir())

	if _, err := store.Get("nope"); err == nil {
		t.Fatal("getting an absent config must fail")
	}
}

func TestFileStoreDelete(t *testing.T) {
	store := NewFileStore(t.TempDir())

	cfg := &models.TunnelConfig{InstanceID: "inst-1", Provider: models.ProviderPlayit}
	if err := store.Save(cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Delete("inst-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Get("inst-1"); err == nil {
		t.Error("deleted config must not be gettable")
	}
	// Deleting again is a no-op.
	if err := store.Delete("inst-1"); err != nil {
		t.Errorf("repeat delete must succeed, got %v", err)
	}
}

func TestFileStoreList(t *testing.T) {
	store := NewFileStore(t.TempDir())

	if configs, err := store.List(); err != nil || len(configs) != 0 {
		t.Fatalf("empty store must list nothing, got %v %v", configs, err)
	}

	store.Save(&models.TunnelConfig{InstanceID: "a", Provider: models.ProviderBore})
	store.Save(&models.TunnelConfig{InstanceID: "b", Provider: models.ProviderNgrok, Secret: "tok"})

	configs, err := store.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(configs))
	}
}

func TestRememberURLs(t *testing.T) {
	store := NewFileStore(t.TempDir())
	bus := NewEventBus()
	RememberURLs(store, bus)

	store.Save(&models.TunnelConfig{InstanceID: "inst-1", Provider: models.ProviderBore})

	bus.PublishURL("inst-1", "bore.pub:34567")

	got, err := store.Get("inst-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.LastURL != "bore.pub:34567" {
		t.Errorf("LastURL must be persisted, got %q", got.LastURL)
	}

	// URL events for unknown instances are ignored.
	bus.PublishURL("ghost", "x:1")
}
