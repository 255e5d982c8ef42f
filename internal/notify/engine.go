package notify

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dswatch/dswatch/internal/dsclient"
	"github.com/dswatch/dswatch/internal/lang"
	"github.com/dswatch/dswatch/internal/settings"
	"github.com/dswatch/dswatch/internal/statecache"
)

// Engine watches cache state transitions and decides what the user sees:
// the badge (icon, text, color), per-task completion notifications, and the
// lifecycle of the periodic poll timer. All process-wide mutable state
// (settings snapshot, tracked terminal-task set, timer handle) lives here so
// tests can construct a fresh engine.
type Engine struct {
	mu        sync.Mutex
	startedAt time.Time
	notifier  Notifier
	badge     Badge
	current   func() settings.Settings
	poll      func()

	applied   *settings.Notifications
	finished  map[string]struct{} // nil until the first confirmed poll
	stopTimer func()
}

func NewEngine(notifier Notifier, badge Badge, current func() settings.Settings, poll func()) *Engine {
	return &Engine{
		startedAt: time.Now(),
		notifier:  notifier,
		badge:     badge,
		current:   current,
		poll:      poll,
	}
}

// HandleChange runs on every committed cache write. The three decisions are
// independent: timer reconciliation, badge rendering, completion diffing.
func (e *Engine) HandleChange(state statecache.State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg := e.current()
	e.reconcileSettings(cfg)
	e.renderBadge(state, cfg)
	e.notifyCompletions(state, cfg)
}

// Stop tears down the periodic poll timer.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopTimer != nil {
		e.stopTimer()
		e.stopTimer = nil
	}
}

func (e *Engine) reconcileSettings(cfg settings.Settings) {
	notifications := cfg.Notifications
	if e.applied == nil || *e.applied != notifications {
		if e.stopTimer != nil {
			e.stopTimer()
			e.stopTimer = nil
		}
		if notifications.EnableCompletionNotifications && notifications.PollingInterval() > 0 {
			e.stopTimer = startPeriodicPoll(notifications.PollingInterval(), e.poll)
		}
	}
	e.applied = &notifications
}

func (e *Engine) renderBadge(state statecache.State, cfg settings.Settings) {
	if state.FailureReason != nil {
		e.badge.SetIcon(IconDisabled)
		e.badge.SetText("")
		e.badge.SetColor(BadgeRed)
		return
	}

	var count int
	switch cfg.BadgeDisplayType {
	case settings.BadgeDisplayTotal:
		count = len(state.Tasks)
	case settings.BadgeDisplayFiltered:
		count = countVisible(state.Tasks, cfg.VisibleTasks)
	default:
		panic(fmt.Sprintf("unknown badge display type: %q", cfg.BadgeDisplayType))
	}

	e.badge.SetIcon(IconActive)
	e.badge.SetText(strconv.Itoa(count))
	e.badge.SetColor(BadgeGreen)
}

// notifyCompletions diffs terminal task ids against the tracked set. Only a
// confirmed poll counts: completed after process start, with no failure
// reason. The first confirmed poll seeds the set silently so tasks that were
// already done before the process started never notify; each id notifies at
// most once for the process lifetime.
func (e *Engine) notifyCompletions(state statecache.State, cfg settings.Settings) {
	if state.LastCompletedFetch.IsZero() ||
		!state.LastCompletedFetch.After(e.startedAt) ||
		state.FailureReason != nil {
		return
	}

	terminal := make(map[string]struct{})
	for _, task := range state.Tasks {
		if dsclient.IsTerminal(task.Status) {
			terminal[task.ID] = struct{}{}
		}
	}

	if e.finished == nil {
		e.finished = terminal
		return
	}

	for _, task := range state.Tasks {
		if _, ok := terminal[task.ID]; !ok {
			continue
		}
		if _, seen := e.finished[task.ID]; seen {
			continue
		}
		if cfg.Notifications.EnableCompletionNotifications {
			e.notifier.Notify("", task.Title, lang.GetMessage(lang.DownloadFinishedMsgID))
		}
		e.finished[task.ID] = struct{}{}
	}
}

func countVisible(tasks []dsclient.Task, visible []string) int {
	if len(visible) == 0 {
		return len(tasks)
	}
	allowed := make(map[string]struct{}, len(visible))
	for _, status := range visible {
		allowed[status] = struct{}{}
	}
	count := 0
	for _, task := range tasks {
		if _, ok := allowed[task.Status]; ok {
			count++
		}
	}
	return count
}

func startPeriodicPoll(interval time.Duration, poll func()) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				poll()
			}
		}
	}()
	return func() { close(done) }
}
