package domain

import "time"

// HistoryEntry records one recognized command and its outcome.
// History is session-only; nothing is persisted across restarts.
type HistoryEntry struct {
	Text    string // the utterance after wake-word stripping
	Intent  IntentType
	Result  string // spoken feedback produced by the action
	OK      bool
	HeardAt time.Time
}
