// Package settings handles persisted user settings. Settings live in a TOML
// file next to the state database and are the only data the UI surfaces
// write; task state is owned by the poll coordinator.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

type Connection struct {
	Host     string `toml:"host"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type Notifications struct {
	EnableCompletionNotifications bool `toml:"enableCompletionNotifications"`
	EnableFeedbackNotifications   bool `toml:"enableFeedbackNotifications"`
	CompletionPollingSeconds      int  `toml:"completionPollingSeconds"`
}

func (n Notifications) PollingInterval() time.Duration {
	return time.Duration(n.CompletionPollingSeconds) * time.Second
}

// Badge display modes.
const (
	BadgeDisplayTotal    = "total"
	BadgeDisplayFiltered = "filtered"
)

type Settings struct {
	Connection       Connection    `toml:"connection"`
	Notifications    Notifications `toml:"notifications"`
	VisibleTasks     []string      `toml:"visibleTasks"` // statuses shown; empty means all
	BadgeDisplayType string        `toml:"badgeDisplayType"`
}

func Default() Settings {
	return Settings{
		Notifications: Notifications{
			EnableCompletionNotifications: true,
			EnableFeedbackNotifications:   true,
			CompletionPollingSeconds:      60,
		},
		BadgeDisplayType: BadgeDisplayTotal,
	}
}

// Load reads settings from path, falling back to defaults when the file is
// missing or unreadable.
func Load(path string) Settings {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Default()
		}
		return s
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return Default()
	}
	if s.BadgeDisplayType == "" {
		s.BadgeDisplayType = BadgeDisplayTotal
	}
	return s
}

// Save writes settings to path, creating directories as needed.
func Save(path string, s Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
