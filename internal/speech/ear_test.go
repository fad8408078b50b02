package speech

import (
	"testing"
)

func newTestEar() *Ear {
	return NewEar("whisper-cli", "model.bin", nil, testLog())
}

func TestStripWakeWord(t *testing.T) {
	e := newTestEar()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"wake word only", "xizo", " "},
		{"wake phrase only", "hey xizo", " "},
		{"wake word with command", "xizo open notepad", "open notepad"},
		{"wake phrase with command", "hey xizo open notepad", "open notepad"},
		{"wake word mid-sentence", "um, hey xizo close spotify", "close spotify"},
		{"comma after wake word", "xizo, what time is it", "what time is it"},
		{"case insensitive", "Hey Xizo open chrome", "open chrome"},
		{"whisper misspelling", "zizo open notepad", "open notepad"},
		{"no wake word", "open notepad", ""},
		{"unrelated speech", "I was talking to my friend", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.stripWakeWord(tt.in); got != tt.want {
				t.Errorf("stripWakeWord(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripWakeWordClean(t *testing.T) {
	e := newTestEar()

	got := e.stripWakeWordClean("open notepad xizo please")
	if got != "open notepad  please" && got != "open notepad please" {
		t.Errorf("stripWakeWordClean = %q", got)
	}

	if got := e.stripWakeWordClean("no wake word here at all"); got != "no wake word here at all" {
		t.Errorf("stripWakeWordClean without wake word = %q", got)
	}
}

func TestIsJustWakeWord(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{" ", true},
		{", .", true},
		{"!?", true},
		{"open notepad", false},
		{".a", false},
	}
	for _, tt := range tests {
		if got := isJustWakeWord(tt.in); got != tt.want {
			t.Errorf("isJustWakeWord(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCleanTranscription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "open notepad", "open notepad"},
		{"blank audio", "[BLANK_AUDIO]", ""},
		{"silence", "(silence)", ""},
		{"junk around speech", "(typing) open notepad (clicking)", "open notepad"},
		{"newlines collapsed", "open\nnotepad\r\n", "open notepad"},
		{"hallucinated thanks", "Thank you.", ""},
		{"hallucinated you", "you", ""},
		{"env annotation", "(dog barking) xizo", "xizo"},
		{"bracket annotation", "[laughter] hello", "hello"},
		{"timestamp prefix", "[00:00:00.000 --> 00:00:05.000] open notepad", "open notepad"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanTranscription(tt.in); got != tt.want {
				t.Errorf("cleanTranscription(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
