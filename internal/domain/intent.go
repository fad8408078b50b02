package domain

// IntentType classifies what the user asked the assistant to do.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentOpen
	IntentClose
	IntentTypeText
	IntentSearch
	IntentCopy
	IntentPaste
	IntentScreenshot
	IntentVolume
	IntentBrightness
	IntentMute
	IntentTime
	IntentDate
	IntentRemind
	IntentDismiss // dismiss fired reminders
	IntentNote
	IntentMapProgram // register a new trigger phrase -> executable path
	IntentHistory
	IntentHelp
	IntentQuit
)

// String returns a human-readable intent type.
func (i IntentType) String() string {
	switch i {
	case IntentOpen:
		return "open"
	case IntentClose:
		return "close"
	case IntentTypeText:
		return "type"
	case IntentSearch:
		return "search"
	case IntentCopy:
		return "copy"
	case IntentPaste:
		return "paste"
	case IntentScreenshot:
		return "screenshot"
	case IntentVolume:
		return "volume"
	case IntentBrightness:
		return "brightness"
	case IntentMute:
		return "mute"
	case IntentTime:
		return "time"
	case IntentDate:
		return "date"
	case IntentRemind:
		return "remind"
	case IntentDismiss:
		return "dismiss"
	case IntentNote:
		return "note"
	case IntentMapProgram:
		return "map_program"
	case IntentHistory:
		return "history"
	case IntentHelp:
		return "help"
	case IntentQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Intent represents a parsed user command.
type Intent struct {
	Type    IntentType
	Payload string // text after the trigger verb, e.g. "notepad" for "open notepad"
}
