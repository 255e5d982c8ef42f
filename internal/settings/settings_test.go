package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "settings.toml"))

	if !reflect.DeepEqual(s, Default()) {
		t.Errorf("Load() = %+v, want defaults %+v", s, Default())
	}
	if !s.Notifications.EnableCompletionNotifications {
		t.Error("completion notifications should default to enabled")
	}
	if s.BadgeDisplayType != BadgeDisplayTotal {
		t.Errorf("BadgeDisplayType = %q, want %q", s.BadgeDisplayType, BadgeDisplayTotal)
	}
}

func TestLoadUnreadableFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("this is { not toml"), 0o600); err != nil {
		t.Fatal(err)
	}

	if s := Load(path); !reflect.DeepEqual(s, Default()) {
		t.Errorf("Load() = %+v, want defaults", s)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")

	original := Settings{
		Connection: Connection{Host: "https://nas:5001", Username: "admin", Password: "secret"},
		Notifications: Notifications{
			EnableCompletionNotifications: true,
			CompletionPollingSeconds:      120,
		},
		VisibleTasks:     []string{"downloading", "waiting"},
		BadgeDisplayType: BadgeDisplayFiltered,
	}
	if err := Save(path, original); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if loaded := Load(path); !reflect.DeepEqual(loaded, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, original)
	}
}

func TestStoreUpdatePersistsAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	store := NewStore(path)

	var notified []Settings
	store.Subscribe(func(s Settings) {
		notified = append(notified, s)
	})

	err := store.Update(func(s *Settings) {
		s.Connection.Host = "https://nas:5001"
		s.Notifications.CompletionPollingSeconds = 30
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	if len(notified) != 1 || notified[0].Connection.Host != "https://nas:5001" {
		t.Errorf("listener notifications = %+v, want one with the new host", notified)
	}
	if got := store.Get(); got.Notifications.CompletionPollingSeconds != 30 {
		t.Errorf("Get() = %+v, want the updated polling interval", got)
	}

	// A fresh store sees the persisted value.
	if reloaded := NewStore(path).Get(); reloaded.Connection.Host != "https://nas:5001" {
		t.Errorf("reloaded settings = %+v, want the persisted host", reloaded)
	}
}
