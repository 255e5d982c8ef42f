package notify

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dswatch/dswatch/internal/dsclient"
	"github.com/dswatch/dswatch/internal/settings"
	"github.com/dswatch/dswatch/internal/statecache"
)

type recordedNotification struct {
	id, title, body string
}

type fakeNotifier struct {
	mu    sync.Mutex
	next  int
	calls []recordedNotification
}

func (f *fakeNotifier) Notify(id, title, body string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == "" {
		f.next++
		id = fmt.Sprintf("n%d", f.next)
	}
	f.calls = append(f.calls, recordedNotification{id: id, title: title, body: body})
	return id
}

func (f *fakeNotifier) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.title
	}
	return out
}

type fakeBadge struct {
	icon  IconSet
	text  string
	color Color
}

func (f *fakeBadge) SetIcon(icon IconSet) { f.icon = icon }
func (f *fakeBadge) SetText(text string)  { f.text = text }
func (f *fakeBadge) SetColor(c Color)     { f.color = c }

type engineHarness struct {
	notifier *fakeNotifier
	badge    *fakeBadge
	cfg      settings.Settings
	polls    atomic.Int64
	engine   *Engine
}

func newEngineHarness(t *testing.T) *engineHarness {
	t.Helper()
	h := &engineHarness{notifier: &fakeNotifier{}, badge: &fakeBadge{}, cfg: settings.Default()}
	h.engine = NewEngine(h.notifier, h.badge, func() settings.Settings { return h.cfg }, func() {
		h.polls.Add(1)
	})
	t.Cleanup(h.engine.Stop)
	return h
}

// confirmedState builds a state whose completion timestamp postdates the
// engine's start, so it counts for completion diffing.
func confirmedState(tasks ...dsclient.Task) statecache.State {
	now := time.Now().Add(time.Second)
	return statecache.State{
		Tasks:              tasks,
		LastInitiatedFetch: now,
		LastCompletedFetch: now,
	}
}

func task(id, title, status string) dsclient.Task {
	return dsclient.Task{ID: id, Title: title, Status: status}
}

func TestFirstConfirmedPollSeedsSilently(t *testing.T) {
	h := newEngineHarness(t)

	h.engine.HandleChange(confirmedState(
		task("1", "already done", dsclient.StatusFinished),
		task("2", "running", dsclient.StatusDownloading),
	))

	if got := h.notifier.titles(); len(got) != 0 {
		t.Errorf("notifications = %v, want none for the seeding poll", got)
	}
}

func TestCompletionNotifiesOncePerTask(t *testing.T) {
	h := newEngineHarness(t)

	h.engine.HandleChange(confirmedState(task("1", "movie", dsclient.StatusDownloading)))
	h.engine.HandleChange(confirmedState(task("1", "movie", dsclient.StatusFinished)))
	h.engine.HandleChange(confirmedState(task("1", "movie", dsclient.StatusFinished)))
	h.engine.HandleChange(confirmedState(task("1", "movie", dsclient.StatusSeeding)))

	got := h.notifier.titles()
	if len(got) != 1 || got[0] != "movie" {
		t.Errorf("notifications = %v, want exactly one for task 1", got)
	}
}

func TestSeedingCountsAsTerminal(t *testing.T) {
	h := newEngineHarness(t)

	h.engine.HandleChange(confirmedState(task("1", "iso", dsclient.StatusDownloading)))
	h.engine.HandleChange(confirmedState(task("1", "iso", dsclient.StatusSeeding)))

	if got := h.notifier.titles(); len(got) != 1 {
		t.Errorf("notifications = %v, want one for the seeding transition", got)
	}
}

func TestFailedPollsDoNotAdvanceTheTrackedSet(t *testing.T) {
	h := newEngineHarness(t)

	h.engine.HandleChange(confirmedState(task("1", "movie", dsclient.StatusDownloading)))

	// A poll that failed must neither notify nor seed, even if the stale
	// snapshot happens to contain terminal tasks.
	failed := confirmedState(task("1", "movie", dsclient.StatusFinished))
	failed.FailureReason = statecache.ErrorReason("connection refused")
	h.engine.HandleChange(failed)
	if got := h.notifier.titles(); len(got) != 0 {
		t.Fatalf("notifications = %v, want none while failing", got)
	}

	// Once a confirmed poll arrives, the completion fires.
	h.engine.HandleChange(confirmedState(task("1", "movie", dsclient.StatusFinished)))
	if got := h.notifier.titles(); len(got) != 1 {
		t.Errorf("notifications = %v, want the deferred completion", got)
	}
}

func TestStalePollBeforeStartIsIgnored(t *testing.T) {
	h := newEngineHarness(t)

	old := time.Now().Add(-time.Hour)
	h.engine.HandleChange(statecache.State{
		Tasks:              []dsclient.Task{task("1", "movie", dsclient.StatusFinished)},
		LastInitiatedFetch: old,
		LastCompletedFetch: old,
	})
	h.engine.HandleChange(confirmedState(task("1", "movie", dsclient.StatusFinished)))

	// The stale poll must not have seeded: the confirmed one does, silently.
	if got := h.notifier.titles(); len(got) != 0 {
		t.Errorf("notifications = %v, want none", got)
	}
}

func TestDisabledCompletionsStillTrackFinishedTasks(t *testing.T) {
	h := newEngineHarness(t)
	h.cfg.Notifications.EnableCompletionNotifications = false

	h.engine.HandleChange(confirmedState(task("1", "movie", dsclient.StatusDownloading)))
	h.engine.HandleChange(confirmedState(task("1", "movie", dsclient.StatusFinished)))

	if got := h.notifier.titles(); len(got) != 0 {
		t.Fatalf("notifications = %v, want none while disabled", got)
	}

	// Re-enabling later must not retroactively notify: the id was tracked.
	h.cfg.Notifications.EnableCompletionNotifications = true
	h.engine.HandleChange(confirmedState(task("1", "movie", dsclient.StatusFinished)))
	if got := h.notifier.titles(); len(got) != 0 {
		t.Errorf("notifications = %v, want still none", got)
	}
}

func TestBadgeShowsTaskCount(t *testing.T) {
	h := newEngineHarness(t)

	h.engine.HandleChange(confirmedState(
		task("1", "a", dsclient.StatusDownloading),
		task("2", "b", dsclient.StatusWaiting),
		task("3", "c", dsclient.StatusFinished),
	))

	if h.badge.icon != IconActive {
		t.Errorf("icon = %q, want %q", h.badge.icon, IconActive)
	}
	if h.badge.text != "3" {
		t.Errorf("text = %q, want %q", h.badge.text, "3")
	}
	if h.badge.color != BadgeGreen {
		t.Errorf("color = %+v, want green", h.badge.color)
	}
}

func TestBadgeFilteredCountsVisibleStatusesOnly(t *testing.T) {
	h := newEngineHarness(t)
	h.cfg.BadgeDisplayType = settings.BadgeDisplayFiltered
	h.cfg.VisibleTasks = []string{dsclient.StatusDownloading}

	h.engine.HandleChange(confirmedState(
		task("1", "a", dsclient.StatusDownloading),
		task("2", "b", dsclient.StatusFinished),
	))

	if h.badge.text != "1" {
		t.Errorf("text = %q, want %q", h.badge.text, "1")
	}
}

func TestBadgeFilteredWithEmptyFilterShowsAll(t *testing.T) {
	h := newEngineHarness(t)
	h.cfg.BadgeDisplayType = settings.BadgeDisplayFiltered
	h.cfg.VisibleTasks = nil

	h.engine.HandleChange(confirmedState(
		task("1", "a", dsclient.StatusDownloading),
		task("2", "b", dsclient.StatusFinished),
	))

	if h.badge.text != "2" {
		t.Errorf("text = %q, want %q", h.badge.text, "2")
	}
}

func TestBadgeShowsFailureState(t *testing.T) {
	h := newEngineHarness(t)

	state := confirmedState(task("1", "a", dsclient.StatusDownloading))
	state.FailureReason = statecache.MissingConfigReason()
	h.engine.HandleChange(state)

	if h.badge.icon != IconDisabled {
		t.Errorf("icon = %q, want %q", h.badge.icon, IconDisabled)
	}
	if h.badge.text != "" {
		t.Errorf("text = %q, want empty", h.badge.text)
	}
	if h.badge.color != BadgeRed {
		t.Errorf("color = %+v, want red", h.badge.color)
	}
}

func TestUnknownBadgeDisplayTypePanics(t *testing.T) {
	h := newEngineHarness(t)
	h.cfg.BadgeDisplayType = "bogus"

	defer func() {
		if recover() == nil {
			t.Error("expected a panic for an unknown badge display type")
		}
	}()
	h.engine.HandleChange(confirmedState())
}

func TestPeriodicPollFollowsSettings(t *testing.T) {
	h := newEngineHarness(t)
	h.cfg.Notifications.CompletionPollingSeconds = 1

	h.engine.HandleChange(confirmedState())

	deadline := time.After(3 * time.Second)
	for h.polls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("periodic poll never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Disabling completions stops the timer.
	h.cfg.Notifications.EnableCompletionNotifications = false
	h.engine.HandleChange(confirmedState())
	settled := h.polls.Load()
	time.Sleep(1500 * time.Millisecond)
	if got := h.polls.Load(); got != settled {
		t.Errorf("polls advanced from %d to %d after the timer was stopped", settled, got)
	}
}

func TestUnchangedSettingsKeepTheSameTimer(t *testing.T) {
	h := newEngineHarness(t)
	h.cfg.Notifications.CompletionPollingSeconds = 1

	h.engine.HandleChange(confirmedState())
	time.Sleep(600 * time.Millisecond)
	// Repeated state changes with identical settings must not reset the
	// ticker; a fresh ticker here would push the first fire past the check.
	h.engine.HandleChange(confirmedState())
	h.engine.HandleChange(confirmedState())
	time.Sleep(600 * time.Millisecond)

	if h.polls.Load() == 0 {
		t.Error("timer was reset by unchanged settings and never fired")
	}
}

func TestGatedNotifierSuppressesButStillAllocatesIDs(t *testing.T) {
	sink := &fakeNotifier{}
	enabled := true
	gated := Gated(sink, func() bool { return enabled })

	id := gated.Notify("", "visible", "")
	if id == "" {
		t.Fatal("expected an id from the enabled path")
	}
	if len(sink.calls) != 1 {
		t.Fatalf("sink calls = %v, want one", sink.calls)
	}

	enabled = false
	suppressedID := gated.Notify("", "hidden", "")
	if suppressedID == "" {
		t.Error("suppressed notifications must still yield an id")
	}
	if len(sink.calls) != 1 {
		t.Errorf("sink calls = %v, want the suppressed call absent", sink.calls)
	}

	if gated.Notify(id, "update", "") != id {
		t.Error("suppressed updates must return the given id unchanged")
	}
}
