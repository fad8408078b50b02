package command

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MrJi421/VOCEX/internal/domain"
	"github.com/MrJi421/VOCEX/internal/logger"
)

// Result is the outcome of dispatching one utterance. Feedback is the
// phrase to speak back to the user. Urgent marks failures so the
// feedback queue can jump them ahead of routine chatter.
type Result struct {
	Intent   domain.IntentType
	Feedback string
	Urgent   bool
	Quit     bool
	Err      error
}

// Deps bundles the ports a Dispatcher drives. Any nil port makes the
// matching intents report that the action is unavailable instead of
// panicking, so a trimmed-down build still degrades gracefully.
type Deps struct {
	Procs     domain.Launcher
	Robot     domain.Automator
	Web       domain.Browser
	Audio     domain.AudioControl
	Screen    domain.ScreenControl
	Reminders domain.ReminderStore
}

// Dispatcher binds parsed intents to OS actions. Every utterance
// triggers at most one action, and every outcome lands in history.
type Dispatcher struct {
	parser   *KeywordParser
	registry *Registry
	history  domain.HistoryStore
	deps     Deps

	notesPath string
	now       func() time.Time

	log *logger.Logger
}

type DispatcherOption func(*Dispatcher)

// WithNotesPath overrides where dictated notes are appended.
func WithNotesPath(path string) DispatcherOption {
	return func(d *Dispatcher) { d.notesPath = path }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(parser *KeywordParser, registry *Registry, history domain.HistoryStore, deps Deps, log *logger.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		parser:    parser,
		registry:  registry,
		history:   history,
		deps:      deps,
		notesPath: defaultNotesPath(),
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func defaultNotesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "vocex-notes.txt"
	}
	return filepath.Join(home, "vocex-notes.txt")
}

// Dispatch parses the utterance, runs the bound action and records the
// outcome. It never returns a nil-feedback success: the caller always
// has something to speak.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) Result {
	intent := d.parser.Parse(text)
	d.log.Debug("dispatch %q -> %s (payload %q)", text, intent.Type, intent.Payload)

	res := d.run(ctx, intent)
	res.Intent = intent.Type

	if res.Err != nil {
		res.Urgent = true
		if res.Feedback == "" {
			res.Feedback = fmt.Sprintf("Sorry, that failed: %v", res.Err)
		}
		d.log.Warn("%s failed: %v", intent.Type, res.Err)
	}

	if d.history != nil {
		d.history.Append(domain.HistoryEntry{
			Text:    text,
			Intent:  intent.Type,
			Result:  res.Feedback,
			OK:      res.Err == nil,
			HeardAt: d.now(),
		})
	}
	return res
}

func (d *Dispatcher) run(ctx context.Context, intent *domain.Intent) Result {
	switch intent.Type {
	case domain.IntentOpen:
		return d.open(ctx, intent.Payload)
	case domain.IntentClose:
		return d.close(ctx, intent.Payload)
	case domain.IntentTypeText:
		return d.typeText(intent.Payload)
	case domain.IntentSearch:
		return d.search(intent.Payload)
	case domain.IntentCopy:
		return d.copy()
	case domain.IntentPaste:
		return d.paste()
	case domain.IntentScreenshot:
		return d.screenshot()
	case domain.IntentVolume:
		return d.volume(intent.Payload)
	case domain.IntentBrightness:
		return d.brightness(intent.Payload)
	case domain.IntentMute:
		return d.mute()
	case domain.IntentTime:
		return Result{Feedback: fmt.Sprintf("It is %s.", d.now().Format("3:04 PM"))}
	case domain.IntentDate:
		return Result{Feedback: fmt.Sprintf("Today is %s.", d.now().Format("Monday, January 2"))}
	case domain.IntentRemind:
		return d.remind(intent.Payload)
	case domain.IntentDismiss:
		return d.dismiss()
	case domain.IntentNote:
		return d.note(intent.Payload)
	case domain.IntentMapProgram:
		return d.mapProgram(intent.Payload)
	case domain.IntentHistory:
		return d.recent()
	case domain.IntentHelp:
		return Result{Feedback: helpLine}
	case domain.IntentQuit:
		return Result{Feedback: "Goodbye.", Quit: true}
	default:
		return Result{
			Feedback: "Command not understood.",
			Err:      domain.ErrUnknownCommand,
		}
	}
}

const helpLine = "You can ask me to open or close programs, type text, search the web, " +
	"copy, paste, take screenshots, change volume or brightness, set reminders, " +
	"take notes, or tell you the time and date."

func (d *Dispatcher) open(ctx context.Context, payload string) Result {
	if payload == "" {
		return Result{Feedback: "Open what?", Err: domain.ErrNoPayload}
	}
	if d.deps.Procs == nil {
		return d.unavailable("launching programs")
	}

	target := payload
	spoken := payload
	if path, name, ok := d.registry.Resolve(payload); ok {
		target = path
		spoken = name
	}

	pid, err := d.deps.Procs.Launch(ctx, target)
	if err != nil {
		return Result{
			Feedback: fmt.Sprintf("I could not open %s.", spoken),
			Err:      err,
		}
	}
	d.log.Info("launched %s (pid %d)", spoken, pid)
	return Result{Feedback: fmt.Sprintf("Opening %s.", spoken)}
}

func (d *Dispatcher) close(ctx context.Context, payload string) Result {
	if payload == "" {
		return Result{Feedback: "Close what?", Err: domain.ErrNoPayload}
	}
	if d.deps.Procs == nil {
		return d.unavailable("closing programs")
	}

	// Match on the executable, not the trigger: "word" maps to
	// winword.exe and only the latter appears in the process table.
	target := payload
	spoken := payload
	if path, canonical, ok := d.registry.Resolve(payload); ok {
		target = path
		spoken = canonical
	}

	n, err := d.deps.Procs.Close(ctx, target)
	if err != nil {
		return Result{
			Feedback: fmt.Sprintf("I could not close %s.", spoken),
			Err:      err,
		}
	}
	d.log.Info("closed %d process(es) for %s", n, spoken)
	return Result{Feedback: fmt.Sprintf("Closed %s.", spoken)}
}

func (d *Dispatcher) typeText(payload string) Result {
	if payload == "" {
		return Result{Feedback: "Type what?", Err: domain.ErrNoPayload}
	}
	if d.deps.Robot == nil {
		return d.unavailable("typing")
	}
	if err := d.deps.Robot.TypeText(payload); err != nil {
		return Result{Feedback: "Typing failed.", Err: err}
	}
	return Result{Feedback: "Done typing."}
}

func (d *Dispatcher) search(payload string) Result {
	if payload == "" {
		return Result{Feedback: "Search for what?", Err: domain.ErrNoPayload}
	}
	if d.deps.Web == nil {
		return d.unavailable("web search")
	}
	u := "https://www.google.com/search?q=" + url.QueryEscape(payload)
	if err := d.deps.Web.OpenURL(u); err != nil {
		return Result{Feedback: "I could not open the browser.", Err: err}
	}
	return Result{Feedback: fmt.Sprintf("Searching for %s.", payload)}
}

func (d *Dispatcher) copy() Result {
	if d.deps.Robot == nil {
		return d.unavailable("clipboard")
	}
	if err := d.deps.Robot.Copy(); err != nil {
		return Result{Feedback: "Copy failed.", Err: err}
	}
	return Result{Feedback: "Copied."}
}

func (d *Dispatcher) paste() Result {
	if d.deps.Robot == nil {
		return d.unavailable("clipboard")
	}
	if err := d.deps.Robot.Paste(); err != nil {
		return Result{Feedback: "Paste failed.", Err: err}
	}
	return Result{Feedback: "Pasted."}
}

func (d *Dispatcher) screenshot() Result {
	if d.deps.Robot == nil {
		return d.unavailable("screenshots")
	}
	path, err := d.deps.Robot.Screenshot()
	if err != nil {
		return Result{Feedback: "Screenshot failed.", Err: err}
	}
	d.log.Info("screenshot saved to %s", path)
	return Result{Feedback: "Screenshot saved."}
}

const volumeStep = 10

func (d *Dispatcher) volume(payload string) Result {
	if d.deps.Audio == nil {
		return d.unavailable("volume control")
	}
	switch {
	case payload == "":
		v, err := d.deps.Audio.Volume()
		if err != nil {
			return Result{Feedback: "I could not read the volume.", Err: err}
		}
		return Result{Feedback: fmt.Sprintf("Volume is at %d percent.", v)}
	case strings.Contains(payload, "up"):
		if err := d.deps.Audio.ChangeVolume(volumeStep); err != nil {
			return Result{Feedback: "I could not change the volume.", Err: err}
		}
		return Result{Feedback: "Volume up."}
	case strings.Contains(payload, "down"):
		if err := d.deps.Audio.ChangeVolume(-volumeStep); err != nil {
			return Result{Feedback: "I could not change the volume.", Err: err}
		}
		return Result{Feedback: "Volume down."}
	default:
		level, ok := firstNumber(payload)
		if !ok {
			return Result{Feedback: "Say volume up, volume down, or a level.", Err: domain.ErrNoPayload}
		}
		if level < 0 {
			level = 0
		}
		if level > 100 {
			level = 100
		}
		if err := d.deps.Audio.SetVolume(level); err != nil {
			return Result{Feedback: "I could not set the volume.", Err: err}
		}
		return Result{Feedback: fmt.Sprintf("Volume set to %d percent.", level)}
	}
}

func (d *Dispatcher) brightness(payload string) Result {
	if d.deps.Screen == nil {
		return d.unavailable("brightness control")
	}
	var err error
	var feedback string
	switch {
	case strings.Contains(payload, "up"):
		err = d.deps.Screen.ChangeBrightness(volumeStep)
		feedback = "Brightness up."
	case strings.Contains(payload, "down"):
		err = d.deps.Screen.ChangeBrightness(-volumeStep)
		feedback = "Brightness down."
	default:
		level, ok := firstNumber(payload)
		if !ok {
			return Result{Feedback: "Say brightness up, brightness down, or a level.", Err: domain.ErrNoPayload}
		}
		err = d.deps.Screen.SetBrightness(level)
		feedback = fmt.Sprintf("Brightness set to %d percent.", level)
	}
	if err != nil {
		if err == domain.ErrNotSupported {
			return Result{Feedback: "Brightness control is not supported on this system.", Err: err}
		}
		return Result{Feedback: "I could not change the brightness.", Err: err}
	}
	return Result{Feedback: feedback}
}

func (d *Dispatcher) mute() Result {
	if d.deps.Audio == nil {
		return d.unavailable("volume control")
	}
	muted, err := d.deps.Audio.ToggleMute()
	if err != nil {
		return Result{Feedback: "I could not change the mute state.", Err: err}
	}
	if muted {
		return Result{Feedback: "Muted."}
	}
	return Result{Feedback: "Unmuted."}
}

var reminderClause = regexp.MustCompile(`\bin\s+(\d+|an?)\s+(second|minute|hour)s?\b`)

func (d *Dispatcher) remind(payload string) Result {
	if d.deps.Reminders == nil {
		return d.unavailable("reminders")
	}
	message, due, err := parseReminder(payload, d.now())
	if err != nil {
		return Result{Feedback: "Say something like: remind me in ten minutes to stretch.", Err: err}
	}
	r, err := d.deps.Reminders.Add(message, due)
	if err != nil {
		return Result{Feedback: "I could not set that reminder.", Err: err}
	}
	d.log.Info("reminder %s set for %s", r.ID, due.Format(time.Kitchen))
	return Result{Feedback: fmt.Sprintf("Reminder set for %s.", due.Format("3:04 PM"))}
}

// parseReminder pulls an "in N minutes" clause out of the payload; the
// rest of the text is the reminder message.
func parseReminder(payload string, now time.Time) (string, time.Time, error) {
	m := reminderClause.FindStringSubmatchIndex(payload)
	if m == nil {
		return "", time.Time{}, domain.ErrNoPayload
	}
	amount := payload[m[2]:m[3]]
	unit := payload[m[4]:m[5]]

	n := 1
	if amount != "a" && amount != "an" {
		var err error
		n, err = strconv.Atoi(amount)
		if err != nil || n <= 0 {
			return "", time.Time{}, domain.ErrNoPayload
		}
	}

	var dur time.Duration
	switch unit {
	case "second":
		dur = time.Duration(n) * time.Second
	case "minute":
		dur = time.Duration(n) * time.Minute
	case "hour":
		dur = time.Duration(n) * time.Hour
	}

	message := strings.TrimSpace(payload[:m[0]] + payload[m[1]:])
	message = strings.TrimPrefix(message, "me ")
	message = strings.TrimPrefix(message, "me")
	message = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(message), "to "))
	if message == "" {
		message = "your reminder"
	}
	return message, now.Add(dur), nil
}

func (d *Dispatcher) dismiss() Result {
	if d.deps.Reminders == nil {
		return d.unavailable("reminders")
	}
	n := d.deps.Reminders.DismissAllFired()
	switch n {
	case 0:
		return Result{Feedback: "No reminders to dismiss."}
	case 1:
		return Result{Feedback: "Reminder dismissed."}
	default:
		return Result{Feedback: fmt.Sprintf("Dismissed %d reminders.", n)}
	}
}

func (d *Dispatcher) note(payload string) Result {
	if payload == "" {
		return Result{Feedback: "Note what?", Err: domain.ErrNoPayload}
	}
	line := fmt.Sprintf("[%s] %s\n", d.now().Format("2006-01-02 15:04"), payload)
	f, err := os.OpenFile(d.notesPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Result{Feedback: "I could not save the note.", Err: err}
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return Result{Feedback: "I could not save the note.", Err: err}
	}
	return Result{Feedback: "Noted."}
}

func (d *Dispatcher) mapProgram(payload string) Result {
	name, path, ok := strings.Cut(payload, " to ")
	if !ok {
		return Result{Feedback: "Say: map name to path.", Err: domain.ErrNoPayload}
	}
	err := d.registry.RegisterProgram(strings.TrimSpace(name), strings.TrimSpace(path))
	if err != nil {
		if err == domain.ErrAlreadyExists {
			return Result{Feedback: fmt.Sprintf("%s is already mapped.", strings.TrimSpace(name)), Err: err}
		}
		return Result{Feedback: "I could not map that program.", Err: err}
	}
	return Result{Feedback: fmt.Sprintf("Mapped %s.", strings.TrimSpace(name))}
}

const recentShown = 5

func (d *Dispatcher) recent() Result {
	if d.history == nil {
		return d.unavailable("history")
	}
	entries := d.history.Recent(recentShown)
	if len(entries) == 0 {
		return Result{Feedback: "No commands yet."}
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.Text)
	}
	return Result{Feedback: "Recent commands: " + strings.Join(parts, ", ") + "."}
}

func (d *Dispatcher) unavailable(what string) Result {
	return Result{
		Feedback: fmt.Sprintf("Sorry, %s is not available.", what),
		Err:      domain.ErrNotSupported,
	}
}

var numberRe = regexp.MustCompile(`\d+`)

func firstNumber(s string) (int, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}
