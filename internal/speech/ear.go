package speech

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/MrJi421/VOCEX/internal/logger"
)

// earState is the current phase of the capture loop.
type earState int

const (
	// earDormant: short probe recordings, scanning for a wake phrase.
	earDormant earState = iota
	// earListening: a wake phrase was heard; capture the command.
	earListening
)

// Wake phrases that promote the ear from dormant to listening. Matched
// case-insensitively anywhere in a probe transcription. The variant
// spellings are how whisper tends to render the name.
var defaultWakeWords = []string{
	"hey xizo",
	"listen xizo",
	"xizo",
	"zizo",
	"ziso",
	"hey zizo",
}

// envAnnotation catches whisper's environmental tags, e.g.
// "(keyboard clicking)", "[laughter]", "(speaking French)".
var envAnnotation = regexp.MustCompile(`[\(\[][a-zA-Z][a-zA-Z\s]*[\)\]]`)

// EarOption configures the Ear.
type EarOption func(*Ear)

// WithRecordDuration sets the length of each chunk recorded while
// actively capturing a command.
func WithRecordDuration(d time.Duration) EarOption {
	return func(e *Ear) { e.recordDuration = d }
}

// WithSilenceGap sets the pause inserted between recording chunks.
func WithSilenceGap(d time.Duration) EarOption {
	return func(e *Ear) { e.silenceGap = d }
}

// WithTempDir sets where intermediate WAV files are written.
func WithTempDir(dir string) EarOption {
	return func(e *Ear) { e.tempDir = dir }
}

// WithWakeWords replaces the default wake phrases.
func WithWakeWords(words ...string) EarOption {
	return func(e *Ear) { e.wakeWords = words }
}

// WithListenTimeout bounds how long a single command capture may run
// before the ear gives up and drops back to dormant.
func WithListenTimeout(d time.Duration) EarOption {
	return func(e *Ear) { e.listenTimeout = d }
}

// WithDormantDuration sets the length of each dormant probe recording.
// Shorter probes react to the wake phrase faster at the cost of more
// transcriber invocations.
func WithDormantDuration(d time.Duration) EarOption {
	return func(e *Ear) { e.dormantDuration = d }
}

// Ear turns microphone audio into command text, gated by a wake phrase.
// Transcription runs through a local whisper-cli process per chunk.
//
// Dormant probes are discarded unless they contain a wake phrase, so
// speech that doesn't address the assistant never produces a command.
// On a wake match the Mouth is interrupted, then either the rest of
// the same utterance is emitted directly ("hey xizo open notepad") or
// the ear records follow-up chunks until the speaker goes quiet. The
// assembled text, wake phrase removed, arrives on C().
type Ear struct {
	whisperBin string
	modelPath  string
	tempDir    string
	log        *logger.Logger
	mouth      *Mouth // may be nil; used for echo checks and interrupts

	wakeWords       []string
	recordDuration  time.Duration // command-capture chunk length
	dormantDuration time.Duration // probe chunk length
	silenceGap      time.Duration
	listenTimeout   time.Duration // ceiling on one command capture

	mu     sync.Mutex
	state  earState
	textCh chan string
}

// NewEar builds the voice input loop. whisperBin is the whisper-cli
// executable, modelPath the GGML model file. A nil mouth disables echo
// prevention and wake-phrase interrupts.
func NewEar(whisperBin, modelPath string, mouth *Mouth, log *logger.Logger, opts ...EarOption) *Ear {
	e := &Ear{
		whisperBin:      whisperBin,
		modelPath:       modelPath,
		tempDir:         ".vocex-stt",
		log:             log,
		mouth:           mouth,
		wakeWords:       defaultWakeWords,
		recordDuration:  1 * time.Second,
		dormantDuration: 3 * time.Second,
		silenceGap:      300 * time.Millisecond,
		listenTimeout:   15 * time.Second,
		state:           earDormant,
		textCh:          make(chan string, 8),
	}
	for _, opt := range opts {
		opt(e)
	}

	if _, err := exec.LookPath(e.whisperBin); err != nil {
		log.Error("ear: whisper binary %q not found in PATH: %v", e.whisperBin, err)
	}

	return e
}

// C is the stream of recognized commands. The main loop selects on it
// alongside keyboard input.
func (e *Ear) C() <-chan string {
	return e.textCh
}

// Run drives the capture loop until ctx is cancelled. Meant to be
// started in its own goroutine.
func (e *Ear) Run(ctx context.Context) {
	e.log.Info("ear: started (probe=%s, chunk=%s, timeout=%s, wake=%v)",
		e.dormantDuration, e.recordDuration, e.listenTimeout, e.wakeWords)

	for {
		select {
		case <-ctx.Done():
			e.log.Info("ear: stopped")
			return
		default:
		}

		switch e.currentState() {
		case earDormant:
			e.probe(ctx)
		case earListening:
			e.captureCommand(ctx)
		}
	}
}

func (e *Ear) currentState() earState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Ear) setState(s earState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// awaitQuietMouth blocks until the Mouth has nothing queued or playing,
// so the next recording doesn't capture our own speaker output.
func (e *Ear) awaitQuietMouth(ctx context.Context) {
	if e.mouth == nil {
		return
	}
	for e.mouth.IsSpeaking() || e.mouth.QueueLen() > 0 {
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return
		}
	}
}

func (e *Ear) mouthBusy() bool {
	return e.mouth != nil && (e.mouth.IsSpeaking() || e.mouth.QueueLen() > 0)
}

// probe records one dormant clip and looks for a wake phrase. A clip
// with no wake phrase is dropped without further processing.
func (e *Ear) probe(ctx context.Context) {
	// Skip the cycle entirely while speech is playing; the mic would
	// only hear the speaker.
	if e.mouthBusy() {
		time.Sleep(200 * time.Millisecond)
		return
	}

	text := e.transcribeFor(ctx, e.dormantDuration)

	// If playback began mid-recording the clip is contaminated with
	// our own voice. Drop it.
	if e.mouthBusy() {
		e.log.Debug("ear/probe: dropped, playback started during recording")
		return
	}

	text = cleanTranscription(text)
	if text == "" {
		return
	}

	e.log.Debug("ear/probe: heard %q", text)

	remaining := e.stripWakeWord(text)
	if remaining == "" {
		return
	}

	e.log.Info("ear: wake phrase in %q", text)

	if e.mouth != nil {
		e.mouth.Interrupt()
		e.log.Debug("ear: interrupted playback")
	}

	// Wake phrase and command in one breath: emit the remainder now.
	// Re-clean it first so stray hallucinations don't pass as commands.
	remaining = strings.TrimSpace(remaining)
	remaining = cleanTranscription(remaining)
	if remaining != "" && !isJustWakeWord(remaining) {
		e.log.Info("ear: immediate command: %q", remaining)
		select {
		case e.textCh <- remaining:
		case <-ctx.Done():
		}
		return
	}

	// Wake phrase alone: acknowledge out loud and capture the command.
	if e.mouth != nil {
		filler := LineListening()
		e.mouth.Say(filler, PriorityCritical)
		e.log.Debug("ear: said %q", filler)
	}

	e.setState(earListening)
}

// captureCommand accumulates chunks until the speaker goes quiet or
// the timeout fires, then emits the joined text and drops back to
// dormant.
func (e *Ear) captureCommand(ctx context.Context) {
	e.log.Info("ear: listening...")

	// Let the acknowledgment finish playing and give the speaker a
	// moment to start.
	e.awaitQuietMouth(ctx)
	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		e.setState(earDormant)
		return
	}

	deadline := time.After(e.listenTimeout)
	var parts []string
	emptyRuns := 0
	heardSpeech := false
	// More silence is tolerated before the first words than after;
	// once the speaker has started, a short gap ends the capture.
	const graceEmpty = 4
	const postSpeechEmpty = 2

	for {
		select {
		case <-ctx.Done():
			e.setState(earDormant)
			return
		case <-deadline:
			e.log.Debug("ear: capture timeout")
			goto done
		default:
		}

		chunk := e.transcribeFor(ctx, e.recordDuration)
		chunk = cleanTranscription(chunk)

		if chunk == "" {
			emptyRuns++
			maxEmpty := graceEmpty
			if heardSpeech {
				maxEmpty = postSpeechEmpty
			}
			if emptyRuns >= maxEmpty {
				e.log.Debug("ear: silence, ending capture (heard=%v)", heardSpeech)
				goto done
			}
			continue
		}

		emptyRuns = 0
		heardSpeech = true

		// The speaker may repeat the wake phrase mid-sentence.
		chunk = e.stripWakeWordClean(chunk)
		if chunk != "" {
			e.log.Debug("ear/capture: chunk %q", chunk)
			parts = append(parts, chunk)
		}

		select {
		case <-time.After(e.silenceGap):
		case <-ctx.Done():
			e.setState(earDormant)
			return
		}
	}

done:
	e.setState(earDormant)

	combined := strings.TrimSpace(strings.Join(parts, " "))
	if combined == "" {
		e.log.Debug("ear: capture produced no text")
		return
	}

	e.log.Info("ear: heard command: %q", combined)

	select {
	case e.textCh <- combined:
	case <-ctx.Done():
	}
}

// stripWakeWord locates a wake phrase in text and returns what follows
// it. Returns "" when no wake phrase is present, and a single space
// when the wake phrase was the whole utterance.
func (e *Ear) stripWakeWord(text string) string {
	lower := strings.ToLower(text)
	for _, w := range e.wakeWords {
		wl := strings.ToLower(w)

		if lower == wl {
			return " "
		}

		if strings.HasPrefix(lower, wl) {
			rest := strings.TrimSpace(text[len(wl):])
			rest = strings.TrimLeft(rest, " ,.\n\r\t")
			if rest == "" {
				return " "
			}
			return rest
		}

		// Mid-utterance wake phrase: "um, hey xizo open notepad".
		if idx := strings.Index(lower, wl); idx >= 0 {
			rest := strings.TrimSpace(text[idx+len(wl):])
			if rest == "" {
				return " "
			}
			return rest
		}
	}
	return ""
}

// stripWakeWordClean deletes every wake phrase occurrence from text.
// Applied to chunks captured mid-command.
func (e *Ear) stripWakeWordClean(text string) string {
	lower := strings.ToLower(text)
	for _, w := range e.wakeWords {
		wl := strings.ToLower(w)
		lower = strings.ReplaceAll(lower, wl, "")
	}
	return strings.TrimSpace(lower)
}

// isJustWakeWord reports whether s carries no content beyond spaces
// and punctuation.
func isJustWakeWord(s string) bool {
	for _, r := range s {
		if r != ' ' && r != ',' && r != '.' && r != '!' && r != '?' {
			return false
		}
	}
	return true
}

// transcribeFor records for the given duration and returns whatever
// the whisper CLI transcribed.
func (e *Ear) transcribeFor(ctx context.Context, duration time.Duration) string {
	var result string
	var wg sync.WaitGroup
	wg.Add(1)

	callback := func(text string) {
		result = text
		wg.Done()
	}

	verbose := e.log.Level() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(
		e.whisperBin,
		e.modelPath,
		e.tempDir,
		"wav",
		callback,
		verbose,
	)
	if err != nil {
		e.log.Error("ear: transcriber init failed: %v", err)
		time.Sleep(2 * time.Second)
		return ""
	}

	if err := t.Start(); err != nil {
		e.log.Error("ear: recording start failed: %v", err)
		time.Sleep(2 * time.Second)
		return ""
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
		t.Stop()
		wg.Wait()
		return ""
	}

	t.Stop()
	wg.Wait()

	return result
}

// cleanTranscription normalizes whitespace and removes whisper's noise
// markers and known hallucinations. Noise markers are removed wherever
// they appear; hallucinations only discard the text when nothing else
// remains.
func cleanTranscription(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)

	junkPatterns := []string{
		"[BLANK_AUDIO]",
		"[BLANK AUDIO]",
		"(silence)",
		"[silence]",
		"(no speech)",
		"[no speech]",
		"[Music]",
		"(music)",
		"(keyboard clicking)",
		"(keyboard clacking)",
		"(typing)",
		"(clicking)",
		"(mouse clicking)",
		"(breathing)",
		"(sighing)",
		"(coughing)",
		"(laughing)",
		"(footsteps)",
		"(door closing)",
		"(door opening)",
		"(phone ringing)",
		"(dog barking)",
		"(background noise)",
		"(inaudible)",
		"(unintelligible)",
		"(static)",
		"(beeping)",
	}
	for _, j := range junkPatterns {
		s = strings.ReplaceAll(s, j, "")
		s = strings.ReplaceAll(s, strings.ToLower(j), "")
		s = strings.ReplaceAll(s, strings.ToUpper(j), "")
	}

	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	s = strings.TrimSpace(s)

	// Anything parenthesized or bracketed that the junk list missed.
	s = envAnnotation.ReplaceAllString(s, "")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	s = strings.TrimSpace(s)

	// Phrases whisper invents from near-silent audio.
	hallucinations := []string{
		"...",
		"you",
		"Thank you.",
		"Thanks for watching!",
		"Thank you for watching.",
		"Bye.",
		"Bye!",
		"The end.",
		"Sous-titres réalisés para la communauté d'Amara.org",
	}
	lower := strings.ToLower(s)
	for _, h := range hallucinations {
		if strings.ToLower(h) == lower {
			return ""
		}
	}

	// Timestamp prefixes like "[00:00:00.000 --> 00:00:05.000]".
	if strings.HasPrefix(s, "[") {
		if idx := strings.Index(s, "]"); idx != -1 && idx < 40 {
			rest := strings.TrimSpace(s[idx+1:])
			if rest != "" {
				return rest
			}
		}
	}

	return s
}
