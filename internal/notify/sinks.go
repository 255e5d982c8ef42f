// Package notify derives user-visible signals (badge state, completion and
// feedback notifications) from cache and settings changes.
package notify

import (
	"github.com/dswatch/dswatch/internal/logutils"
	"github.com/google/uuid"
)

// Notifier delivers a user-facing notification. Passing the id returned by a
// previous call updates that notification in place; an empty id creates a
// new one.
type Notifier interface {
	Notify(id, title, body string) string
}

// IconSet selects which icon family the badge shows.
type IconSet string

const (
	IconActive   IconSet = "active"
	IconDisabled IconSet = "disabled"
)

// Color is an RGBA badge background color.
type Color struct {
	R, G, B, A uint8
}

var (
	BadgeGreen = Color{G: 255, A: 255}
	BadgeRed   = Color{R: 255, A: 255}
)

// Badge renders the at-a-glance indicator. Implementations own the actual
// drawing; the engine only decides what to show.
type Badge interface {
	SetIcon(set IconSet)
	SetText(text string)
	SetColor(c Color)
}

// LogNotifier writes notifications to the log. It is the always-available
// fallback sink.
type LogNotifier struct{}

func (LogNotifier) Notify(id, title, body string) string {
	if id == "" {
		id = uuid.New().String()
	}
	logutils.Log.WithFields(map[string]interface{}{
		"notification": id,
		"body":         body,
	}).Info(title)
	return id
}

// LogBadge records badge decisions in the log at debug level.
type LogBadge struct{}

func (LogBadge) SetIcon(set IconSet) {
	logutils.Log.WithField("icon", set).Debug("Badge icon updated")
}

func (LogBadge) SetText(text string) {
	logutils.Log.WithField("text", text).Debug("Badge text updated")
}

func (LogBadge) SetColor(c Color) {
	logutils.Log.WithField("color", c).Debug("Badge color updated")
}

// Gated wraps a Notifier behind an enablement check, evaluated per call.
// Suppressed notifications still allocate an identity so a later enabled
// update stays addressable.
func Gated(sink Notifier, enabled func() bool) Notifier {
	return gatedNotifier{sink: sink, enabled: enabled}
}

type gatedNotifier struct {
	sink    Notifier
	enabled func() bool
}

func (g gatedNotifier) Notify(id, title, body string) string {
	if !g.enabled() {
		if id == "" {
			id = uuid.New().String()
		}
		return id
	}
	return g.sink.Notify(id, title, body)
}
