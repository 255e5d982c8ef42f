package settings

import (
	"sync"
)

// Store keeps the current settings in memory and persists every update.
// Listeners receive the full new settings after each committed change.
type Store struct {
	path string

	mu        sync.Mutex
	current   Settings
	listeners []func(Settings)
}

func NewStore(path string) *Store {
	return &Store{
		path:    path,
		current: Load(path),
	}
}

func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSettings(s.current)
}

func (s *Store) Subscribe(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Update applies fn to a copy of the current settings, persists the result
// and notifies listeners. On a persistence error nothing changes.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneSettings(s.current)
	fn(&next)
	if err := Save(s.path, next); err != nil {
		return err
	}
	s.current = next
	for _, listener := range s.listeners {
		listener(cloneSettings(next))
	}
	return nil
}

func cloneSettings(s Settings) Settings {
	dup := s
	if len(s.VisibleTasks) > 0 {
		dup.VisibleTasks = make([]string, len(s.VisibleTasks))
		copy(dup.VisibleTasks, s.VisibleTasks)
	}
	return dup
}
