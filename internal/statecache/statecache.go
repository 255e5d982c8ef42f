package statecache

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dswatch/dswatch/internal/dsclient"
	"github.com/dswatch/dswatch/internal/logutils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// FailureReason records why the last poll could not produce a task list.
// A nil *FailureReason means the connection is healthy.
type FailureReason struct {
	MissingConfig bool   `json:"missingConfig,omitempty"`
	Message       string `json:"failureMessage,omitempty"`
}

func MissingConfigReason() *FailureReason {
	return &FailureReason{MissingConfig: true}
}

func ErrorReason(message string) *FailureReason {
	return &FailureReason{Message: message}
}

// State is the persisted last-known view of the remote server. Tasks are a
// wholesale snapshot: each successful poll replaces the list, never merges.
type State struct {
	Tasks              []dsclient.Task
	FailureReason      *FailureReason
	LastInitiatedFetch time.Time // zero when no poll was ever started
	LastCompletedFetch time.Time // zero when no poll ever concluded
}

// Patch is a shallow merge: only non-nil fields are applied. FailureReason
// is nullable, so it needs its own applied flag.
type Patch struct {
	Tasks            *[]dsclient.Task
	FailureReason    *FailureReason
	SetFailureReason bool
	InitiatedFetchAt *time.Time
	CompletedFetchAt *time.Time
}

type cachedStateRow struct {
	ID               uint `gorm:"primaryKey"`
	TasksJSON        string
	FailureJSON      string
	InitiatedFetchAt *time.Time
	CompletedFetchAt *time.Time
}

func (cachedStateRow) TableName() string {
	return "cached_state"
}

// Store is the durable task-state cache. Writes are serialized; listeners
// run synchronously after each committed write with the new state and must
// not call back into the store.
type Store struct {
	db        *gorm.DB
	mu        sync.Mutex // held across commit and listener dispatch
	state     State
	listeners []func(State)
}

func Open(stateDir string) (*Store, error) {
	dbPath := filepath.Join(stateDir, "state.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.AutoMigrate(&cachedStateRow{}); err != nil {
		return nil, fmt.Errorf("auto migration failed: %w", err)
	}

	s := &Store{db: db}
	if err := s.load(); err != nil {
		return nil, err
	}
	logutils.Log.WithField("path", dbPath).Info("State cache initialized")
	return s, nil
}

func (s *Store) load() error {
	var row cachedStateRow
	err := s.db.First(&row, 1).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return fmt.Errorf("failed to load cached state: %w", err)
	}
	state, err := rowToState(&row)
	if err != nil {
		// A corrupt row is dropped rather than propagated: the next poll
		// rebuilds the snapshot from the server.
		logutils.Log.WithError(err).Warn("Discarding unreadable cached state")
		return nil
	}
	s.state = state
	return nil
}

// Get returns a copy of the current state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

// Subscribe registers a listener invoked after every committed write.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Apply merges the patch, persists the result as one write, and notifies
// listeners. On a persistence error the in-memory state is left unmodified
// and no listener fires.
func (s *Store) Apply(p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneState(s.state)
	if p.Tasks != nil {
		next.Tasks = cloneTasks(*p.Tasks)
	}
	if p.SetFailureReason {
		next.FailureReason = cloneFailure(p.FailureReason)
	}
	if p.InitiatedFetchAt != nil {
		next.LastInitiatedFetch = *p.InitiatedFetchAt
	}
	if p.CompletedFetchAt != nil {
		next.LastCompletedFetch = *p.CompletedFetchAt
	}

	row, err := stateToRow(next)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}

	s.state = next
	for _, fn := range s.listeners {
		fn(cloneState(next))
	}
	return nil
}

func stateToRow(state State) (*cachedStateRow, error) {
	tasksJSON, err := json.Marshal(state.Tasks)
	if err != nil {
		return nil, err
	}
	row := &cachedStateRow{ID: 1, TasksJSON: string(tasksJSON)}
	if state.FailureReason != nil {
		failureJSON, err := json.Marshal(state.FailureReason)
		if err != nil {
			return nil, err
		}
		row.FailureJSON = string(failureJSON)
	}
	if !state.LastInitiatedFetch.IsZero() {
		t := state.LastInitiatedFetch
		row.InitiatedFetchAt = &t
	}
	if !state.LastCompletedFetch.IsZero() {
		t := state.LastCompletedFetch
		row.CompletedFetchAt = &t
	}
	return row, nil
}

func rowToState(row *cachedStateRow) (State, error) {
	var state State
	if row.TasksJSON != "" {
		if err := json.Unmarshal([]byte(row.TasksJSON), &state.Tasks); err != nil {
			return State{}, err
		}
	}
	if row.FailureJSON != "" {
		var reason FailureReason
		if err := json.Unmarshal([]byte(row.FailureJSON), &reason); err != nil {
			return State{}, err
		}
		state.FailureReason = &reason
	}
	if row.InitiatedFetchAt != nil {
		state.LastInitiatedFetch = *row.InitiatedFetchAt
	}
	if row.CompletedFetchAt != nil {
		state.LastCompletedFetch = *row.CompletedFetchAt
	}
	return state, nil
}

func cloneState(state State) State {
	dup := state
	dup.Tasks = cloneTasks(state.Tasks)
	dup.FailureReason = cloneFailure(state.FailureReason)
	return dup
}

func cloneTasks(tasks []dsclient.Task) []dsclient.Task {
	if len(tasks) == 0 {
		return nil
	}
	dup := make([]dsclient.Task, len(tasks))
	for i, task := range tasks {
		if task.Additional != nil {
			additional := *task.Additional
			if additional.Transfer != nil {
				transfer := *additional.Transfer
				additional.Transfer = &transfer
			}
			task.Additional = &additional
		}
		dup[i] = task
	}
	return dup
}

func cloneFailure(reason *FailureReason) *FailureReason {
	if reason == nil {
		return nil
	}
	dup := *reason
	return &dup
}
