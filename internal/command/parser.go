package command

import (
	"strings"

	"github.com/MrJi421/VOCEX/internal/domain"
	"github.com/MrJi421/VOCEX/internal/logger"
)

// KeywordParser matches utterances to intents using a verb table.
// Every verb the assistant understands, with its synonyms, lives here;
// the payload is whatever text remains after the verb is stripped.
type KeywordParser struct {
	log      *logger.Logger
	triggers []triggerRule
}

type triggerRule struct {
	phrase string
	intent domain.IntentType
}

// NewKeywordParser creates a keyword-based command parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.triggers = []triggerRule{
		{"open", domain.IntentOpen},
		{"launch", domain.IntentOpen},
		{"start", domain.IntentOpen},
		{"run", domain.IntentOpen},

		{"write", domain.IntentTypeText},
		{"type", domain.IntentTypeText},

		{"search for", domain.IntentSearch},
		{"search", domain.IntentSearch},
		{"google", domain.IntentSearch},
		{"look up", domain.IntentSearch},
		{"find", domain.IntentSearch},

		{"close", domain.IntentClose},
		{"kill", domain.IntentClose},
		{"exit", domain.IntentClose},
		{"quit", domain.IntentClose},

		{"copy", domain.IntentCopy},
		{"paste", domain.IntentPaste},
		{"screenshot", domain.IntentScreenshot},
		{"take a screenshot", domain.IntentScreenshot},

		{"volume", domain.IntentVolume},
		{"brightness", domain.IntentBrightness},
		{"mute", domain.IntentMute},
		{"unmute", domain.IntentMute},

		{"what time is it", domain.IntentTime},
		{"time", domain.IntentTime},
		{"what's the date", domain.IntentDate},
		{"date", domain.IntentDate},

		{"remind me", domain.IntentRemind},
		{"remind", domain.IntentRemind},
		{"reminder", domain.IntentRemind},

		// The long forms outrank "reminder" so "dismiss the reminder"
		// doesn't parse as a new reminder.
		{"dismiss the reminders", domain.IntentDismiss},
		{"dismiss the reminder", domain.IntentDismiss},
		{"dismiss reminders", domain.IntentDismiss},
		{"dismiss reminder", domain.IntentDismiss},
		{"dismiss", domain.IntentDismiss},

		{"note", domain.IntentNote},

		{"map", domain.IntentMapProgram},
		{"history", domain.IntentHistory},
		{"help", domain.IntentHelp},
	}
	return p
}

// Parse converts an utterance into an intent. When the text contains
// more than one known trigger ("search for open source"), the longest
// trigger wins; ties go to the earliest occurrence. Unmatched input
// yields IntentUnknown with the full text as payload.
func (p *KeywordParser) Parse(input string) *domain.Intent {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	trimmed = strings.Trim(trimmed, ".!?")
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentUnknown}
	}

	p.log.Debug("parsing input: %q", trimmed)

	bestLen := 0
	bestIdx := -1
	var bestRule triggerRule

	for _, rule := range p.triggers {
		idx := indexWord(trimmed, rule.phrase)
		if idx < 0 {
			continue
		}
		if len(rule.phrase) > bestLen || (len(rule.phrase) == bestLen && idx < bestIdx) {
			bestLen = len(rule.phrase)
			bestIdx = idx
			bestRule = rule
		}
	}

	if bestIdx < 0 {
		p.log.Debug("no trigger matched, returning unknown intent")
		return &domain.Intent{Type: domain.IntentUnknown, Payload: trimmed}
	}

	payload := strings.TrimSpace(trimmed[:bestIdx] + trimmed[bestIdx+bestLen:])
	intent := bestRule.intent

	// A bare "quit" or "exit" with nothing to close means "quit the
	// assistant", not "close a program".
	if intent == domain.IntentClose && payload == "" &&
		(bestRule.phrase == "quit" || bestRule.phrase == "exit") {
		intent = domain.IntentQuit
	}

	p.log.Debug("matched trigger %q -> %s (payload=%q)", bestRule.phrase, intent, payload)
	return &domain.Intent{Type: intent, Payload: payload}
}

// indexWord returns the index of the first word-boundary occurrence of
// phrase in s, or -1.
func indexWord(s, phrase string) int {
	for start := 0; start <= len(s)-len(phrase); {
		idx := strings.Index(s[start:], phrase)
		if idx < 0 {
			return -1
		}
		idx += start
		end := idx + len(phrase)
		leftOK := idx == 0 || s[idx-1] == ' '
		rightOK := end == len(s) || s[end] == ' ' || s[end] == ',' || s[end] == '.'
		if leftOK && rightOK {
			return idx
		}
		start = idx + 1
	}
	return -1
}
