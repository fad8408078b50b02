package domain

import (
	"context"
	"time"
)

// Launcher spawns and terminates desktop programs. Implementations wrap
// whatever the OS offers (exec + process table scan).
type Launcher interface {
	// Launch starts the executable at path detached from the assistant.
	// Returns the PID of the new process.
	Launch(ctx context.Context, path string) (int, error)
	// Close terminates every process whose name contains the given
	// fragment (case-insensitive). Returns the number killed.
	Close(ctx context.Context, name string) (int, error)
}

// Automator injects input into whatever application has focus.
// Implementations can be robotgo-backed or no-op for headless tests.
type Automator interface {
	TypeText(text string) error
	Copy() error
	Paste() error
	// Screenshot captures the screen and returns the saved file path.
	Screenshot() (string, error)
}

// Browser opens URLs in the user's default web browser.
type Browser interface {
	OpenURL(url string) error
}

// AudioControl adjusts the system output device.
type AudioControl interface {
	Volume() (int, error)
	SetVolume(percent int) error
	ChangeVolume(delta int) error
	ToggleMute() (muted bool, err error)
}

// ScreenControl adjusts display brightness.
type ScreenControl interface {
	SetBrightness(percent int) error
	ChangeBrightness(delta int) error
}

// Notifier delivers messages to the user. Implementations can write to
// the terminal, raise desktop notifications, or speak through TTS.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// HistoryStore records every recognized command for the session.
type HistoryStore interface {
	Append(entry HistoryEntry)
	Recent(n int) []HistoryEntry
	Clear()
}

// ReminderStore holds pending reminders for the supervisor to fire.
// Pending and Fired return snapshots; all mutation goes through the
// store so concurrent readers never observe a half-written reminder.
type ReminderStore interface {
	Add(message string, due time.Time) (*Reminder, error)
	Pending() []*Reminder
	Fired() []*Reminder
	Dismiss(id string) error
	// DismissAllFired dismisses every fired reminder, returning how many.
	DismissAllFired() int
	// MarkFired transitions a pending reminder to fired at the given time.
	MarkFired(id string, at time.Time) error
	// Escalate bumps a fired reminder's nag level and notification time.
	Escalate(id string, at time.Time) error
}
