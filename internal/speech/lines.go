// Package speech — lines.go centralises the assistant's spoken
// personality. Keep lines short and direct; the TTS engine handles
// inflection.
package speech

import (
	"fmt"
	"math/rand"
)

// ── Greeting / Global ────────────────────────────────────────────

func LineWelcome() string {
	return "Hello. Say my name when you need me."
}

func LineBye() string {
	return "Goodbye."
}

// LineUnknown reads back what was heard so the user can tell a
// mis-recognition from a genuinely unsupported command.
func LineUnknown(input string) string {
	return fmt.Sprintf("Didn't catch that: %s.", input)
}

// ── Listening acknowledgment ─────────────────────────────────────
// Spoken when the wake word is detected, so the user knows they've
// been heard and should start talking.

var listeningFillers = []string{
	"I'm listening.",
	"Listening.",
	"Yes?",
	"What do you need?",
	"I'm here.",
	"Go ahead.",
}

// LineListening returns a random acknowledgment for when the wake
// word is detected.
func LineListening() string {
	return listeningFillers[rand.Intn(len(listeningFillers))]
}

// ListeningFillers returns all listening acknowledgment strings so
// they can be prefetched into the TTS cache at startup.
func ListeningFillers() []string {
	out := make([]string, len(listeningFillers))
	copy(out, listeningFillers)
	return out
}
