package domain

import "time"

// Reminder is a one-shot spoken alert scheduled by the user
// ("remind me in ten minutes to stretch").
type Reminder struct {
	ID      string
	Message string
	Due     time.Time
	Status  ReminderStatus

	// Nag bookkeeping, managed by the reminder supervisor.
	LastNotified    time.Time
	EscalationLevel int
}

// ReminderStatus tracks the lifecycle of a reminder.
type ReminderStatus int

const (
	ReminderPending ReminderStatus = iota
	ReminderFired
	ReminderDismissed
)

// String returns a human-readable reminder status.
func (s ReminderStatus) String() string {
	switch s {
	case ReminderPending:
		return "pending"
	case ReminderFired:
		return "fired"
	case ReminderDismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}
