package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrJi421/VOCEX/internal/domain"
)

type fakeLauncher struct {
	launched []string
	closed   []string
	err      error
}

func (f *fakeLauncher) Launch(_ context.Context, path string) (int, error) {
	f.launched = append(f.launched, path)
	return 4242, f.err
}

func (f *fakeLauncher) Close(_ context.Context, name string) (int, error) {
	f.closed = append(f.closed, name)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

type fakeRobot struct {
	typed  []string
	copies int
	pastes int
	shots  int
	err    error
}

func (f *fakeRobot) TypeText(text string) error {
	f.typed = append(f.typed, text)
	return f.err
}
func (f *fakeRobot) Copy() error { f.copies++; return f.err }
func (f *fakeRobot) Paste() error { f.pastes++; return f.err }
func (f *fakeRobot) Screenshot() (string, error) {
	f.shots++
	return "shot.png", f.err
}

type fakeBrowser struct {
	urls []string
	err  error
}

func (f *fakeBrowser) OpenURL(u string) error {
	f.urls = append(f.urls, u)
	return f.err
}

type fakeAudio struct {
	vol   int
	muted bool
	err   error
}

func (f *fakeAudio) Volume() (int, error) { return f.vol, f.err }
func (f *fakeAudio) SetVolume(v int) error {
	f.vol = v
	return f.err
}
func (f *fakeAudio) ChangeVolume(delta int) error {
	f.vol += delta
	return f.err
}
func (f *fakeAudio) ToggleMute() (bool, error) {
	f.muted = !f.muted
	return f.muted, f.err
}

type fakeScreen struct {
	level int
	err   error
}

func (f *fakeScreen) SetBrightness(p int) error {
	f.level = p
	return f.err
}
func (f *fakeScreen) ChangeBrightness(delta int) error {
	f.level += delta
	return f.err
}

type fakeReminders struct {
	added []*domain.Reminder
	fired int
	err   error
}

func (f *fakeReminders) Add(message string, due time.Time) (*domain.Reminder, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := &domain.Reminder{ID: "r1", Message: message, Due: due, Status: domain.ReminderPending}
	f.added = append(f.added, r)
	return r, nil
}
func (f *fakeReminders) Pending() []*domain.Reminder { return f.added }
func (f *fakeReminders) Fired() []*domain.Reminder { return nil }
func (f *fakeReminders) Dismiss(string) error { return nil }
func (f *fakeReminders) MarkFired(string, time.Time) error { return nil }
func (f *fakeReminders) Escalate(string, time.Time) error { return nil }

func (f *fakeReminders) DismissAllFired() int {
	n := f.fired
	f.fired = 0
	return n
}

type testPorts struct {
	procs     *fakeLauncher
	robot     *fakeRobot
	web       *fakeBrowser
	audio     *fakeAudio
	screen    *fakeScreen
	reminders *fakeReminders
}

var testNow = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

func newTestDispatcher(t *testing.T) (*Dispatcher, *testPorts, *History) {
	t.Helper()
	ports := &testPorts{
		procs:     &fakeLauncher{},
		robot:     &fakeRobot{},
		web:       &fakeBrowser{},
		audio:     &fakeAudio{vol: 40},
		screen:    &fakeScreen{level: 50},
		reminders: &fakeReminders{},
	}
	log := testLogger()
	hist := NewHistory(0)
	d := NewDispatcher(
		NewKeywordParser(log),
		NewRegistry(log),
		hist,
		Deps{
			Procs:     ports.procs,
			Robot:     ports.robot,
			Web:       ports.web,
			Audio:     ports.audio,
			Screen:    ports.screen,
			Reminders: ports.reminders,
		},
		log,
		WithClock(func() time.Time { return testNow }),
		WithNotesPath(filepath.Join(t.TempDir(), "notes.txt")),
	)
	return d, ports, hist
}

func TestDispatchOpenKnownProgram(t *testing.T) {
	d, ports, _ := newTestDispatcher(t)

	res := d.Dispatch(context.Background(), "open notepad")
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if len(ports.procs.launched) != 1 || ports.procs.launched[0] != "notepad.exe" {
		t.Errorf("launched = %v, want [notepad.exe]", ports.procs.launched)
	}
	if res.Feedback != "Opening notepad." {
		t.Errorf("feedback = %q", res.Feedback)
	}
}

func TestDispatchOpenUnknownProgramUsesRawName(t *testing.T) {
	d, ports, _ := newTestDispatcher(t)

	res := d.Dispatch(context.Background(), "open htop")
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if len(ports.procs.launched) != 1 || ports.procs.launched[0] != "htop" {
		t.Errorf("launched = %v, want [htop]", ports.procs.launched)
	}
}

func TestDispatchOpenFailureIsUrgent(t *testing.T) {
	d, ports, hist := newTestDispatcher(t)
	ports.procs.err = errors.New("exec: not found")

	res := d.Dispatch(context.Background(), "open notepad")
	if res.Err == nil {
		t.Fatal("want error")
	}
	if !res.Urgent {
		t.Error("failure should be urgent")
	}
	if res.Feedback != "I could not open notepad." {
		t.Errorf("feedback = %q", res.Feedback)
	}

	recent := hist.Recent(1)
	if len(recent) != 1 || recent[0].OK {
		t.Error("failure should be recorded in history with OK=false")
	}
}

func TestDispatchClose(t *testing.T) {
	d, ports, _ := newTestDispatcher(t)

	res := d.Dispatch(context.Background(), "close spotify")
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if len(ports.procs.closed) != 1 || ports.procs.closed[0] != "spotify.exe" {
		t.Errorf("closed = %v, want [spotify.exe]", ports.procs.closed)
	}
}

func TestDispatchCloseMatchesExecutable(t *testing.T) {
	d, ports, _ := newTestDispatcher(t)

	// "word" runs as winword.exe; the process table never contains the
	// spoken name, so the close must target the mapped executable.
	res := d.Dispatch(context.Background(), "close word")
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if len(ports.procs.closed) != 1 || ports.procs.closed[0] != "winword.exe" {
		t.Errorf("closed = %v, want [winword.exe]", ports.procs.closed)
	}
	if res.Feedback != "Closed word." {
		t.Errorf("feedback = %q", res.Feedback)
	}
}

func TestDispatchCloseUnmappedUsesRawName(t *testing.T) {
	d, ports, _ := newTestDispatcher(t)

	res := d.Dispatch(context.Background(), "close htop")
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if len(ports.procs.closed) != 1 || ports.procs.closed[0] != "htop" {
		t.Errorf("closed = %v, want [htop]", ports.procs.closed)
	}
}

func TestDispatchTypeText(t *testing.T) {
	d, ports, _ := newTestDispatcher(t)

	res := d.Dispatch(context.Background(), "type hello world")
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if len(ports.robot.typed) != 1 || ports.robot.typed[0] != "hello world" {
		t.Errorf("typed = %v", ports.robot.typed)
	}
}

func TestDispatchSearchEscapesQuery(t *testing.T) {
	d, ports, _ := newTestDispatcher(t)

	res := d.Dispatch(context.Background(), "search for go generics & iterators")
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if len(ports.web.urls) != 1 {
		t.Fatalf("urls = %v", ports.web.urls)
	}
	u := ports.web.urls[0]
	if !strings.HasPrefix(u, "https://www.google.com/search?q=") {
		t.Errorf("url = %q", u)
	}
	if strings.Contains(u, " ") || strings.Contains(u, "&i") {
		t.Errorf("query not escaped: %q", u)
	}
}

func TestDispatchClipboardAndScreenshot(t *testing.T) {
	d, ports, _ := newTestDispatcher(t)
	ctx := context.Background()

	if res := d.Dispatch(ctx, "copy"); res.Err != nil {
		t.Fatalf("copy: %v", res.Err)
	}
	if res := d.Dispatch(ctx, "paste"); res.Err != nil {
		t.Fatalf("paste: %v", res.Err)
	}
	if res := d.Dispatch(ctx, "take a screenshot"); res.Err != nil {
		t.Fatalf("screenshot: %v", res.Err)
	}
	if ports.robot.copies != 1 || ports.robot.pastes != 1 || ports.robot.shots != 1 {
		t.Errorf("robot calls = %d/%d/%d, want 1/1/1",
			ports.robot.copies, ports.robot.pastes, ports.robot.shots)
	}
}

func TestDispatchVolume(t *testing.T) {
	tests := []struct {
		input   string
		wantVol int
	}{
		{"volume up", 50},
		{"volume down", 30},
		{"volume 75", 75},
		{"set volume to 200", 100}, // clamped
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, ports, _ := newTestDispatcher(t)
			res := d.Dispatch(context.Background(), tt.input)
			if res.Err != nil {
				t.Fatalf("Dispatch: %v", res.Err)
			}
			if ports.audio.vol != tt.wantVol {
				t.Errorf("volume = %d, want %d", ports.audio.vol, tt.wantVol)
			}
		})
	}
}

func TestDispatchVolumeReport(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	res := d.Dispatch(context.Background(), "volume")
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if res.Feedback != "Volume is at 40 percent." {
		t.Errorf("feedback = %q", res.Feedback)
	}
}

func TestDispatchMuteToggles(t *testing.T) {
	d, ports, _ := newTestDispatcher(t)
	ctx := context.Background()

	res := d.Dispatch(ctx, "mute")
	if res.Feedback != "Muted." || !ports.audio.muted {
		t.Errorf("first toggle: feedback=%q muted=%v", res.Feedback, ports.audio.muted)
	}
	res = d.Dispatch(ctx, "mute")
	if res.Feedback != "Unmuted." || ports.audio.muted {
		t.Errorf("second toggle: feedback=%q muted=%v", res.Feedback, ports.audio.muted)
	}
}

func TestDispatchBrightness(t *testing.T) {
	d, ports, _ := newTestDispatcher(t)

	res := d.Dispatch(context.Background(), "brightness 80")
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if ports.screen.level != 80 {
		t.Errorf("brightness = %d, want 80", ports.screen.level)
	}
}

func TestDispatchBrightnessNotSupported(t *testing.T) {
	d, ports, _ := newTestDispatcher(t)
	ports.screen.err = domain.ErrNotSupported

	res := d.Dispatch(context.Background(), "brightness up")
	if !errors.Is(res.Err, domain.ErrNotSupported) {
		t.Fatalf("err = %v", res.Err)
	}
	if res.Feedback != "Brightness control is not supported on this system." {
		t.Errorf("feedback = %q", res.Feedback)
	}
}

func TestDispatchTimeAndDate(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	res := d.Dispatch(ctx, "what time is it")
	if res.Feedback != "It is 2:30 PM." {
		t.Errorf("time feedback = %q", res.Feedback)
	}
	res = d.Dispatch(ctx, "what's the date")
	if res.Feedback != "Today is Sunday, June 15." {
		t.Errorf("date feedback = %q", res.Feedback)
	}
}

func TestDispatchRemind(t *testing.T) {
	d, ports, _ := newTestDispatcher(t)

	res := d.Dispatch(context.Background(), "remind me in 10 minutes to stretch")
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if len(ports.reminders.added) != 1 {
		t.Fatalf("added = %v", ports.reminders.added)
	}
	r := ports.reminders.added[0]
	if r.Message != "stretch" {
		t.Errorf("message = %q, want stretch", r.Message)
	}
	if want := testNow.Add(10 * time.Minute); !r.Due.Equal(want) {
		t.Errorf("due = %v, want %v", r.Due, want)
	}
	if res.Feedback != "Reminder set for 2:40 PM." {
		t.Errorf("feedback = %q", res.Feedback)
	}
}

func TestDispatchDismiss(t *testing.T) {
	tests := []struct {
		fired    int
		feedback string
	}{
		{0, "No reminders to dismiss."},
		{1, "Reminder dismissed."},
		{3, "Dismissed 3 reminders."},
	}

	for _, tt := range tests {
		d, ports, _ := newTestDispatcher(t)
		ports.reminders.fired = tt.fired

		res := d.Dispatch(context.Background(), "dismiss the reminder")
		if res.Err != nil {
			t.Fatalf("Dispatch: %v", res.Err)
		}
		if res.Feedback != tt.feedback {
			t.Errorf("fired=%d: feedback = %q, want %q", tt.fired, res.Feedback, tt.feedback)
		}
		if ports.reminders.fired != 0 {
			t.Errorf("fired=%d: reminders not cleared", tt.fired)
		}
	}
}

func TestParseReminder(t *testing.T) {
	tests := []struct {
		payload string
		message string
		delta   time.Duration
		wantErr bool
	}{
		{"me in 10 minutes to stretch", "stretch", 10 * time.Minute, false},
		{"me to call mom in an hour", "call mom", time.Hour, false},
		{"me in 1 minute to check the oven", "check the oven", time.Minute, false},
		{"me in 30 seconds to breathe", "breathe", 30 * time.Second, false},
		{"me in a minute", "your reminder", time.Minute, false},
		{"me to do something eventually", "", 0, true},
		{"", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			msg, due, err := parseReminder(tt.payload, testNow)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseReminder: %v", err)
			}
			if msg != tt.message {
				t.Errorf("message = %q, want %q", msg, tt.message)
			}
			if want := testNow.Add(tt.delta); !due.Equal(want) {
				t.Errorf("due = %v, want %v", due, want)
			}
		})
	}
}

func TestDispatchNoteAppendsToFile(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	WithNotesPath(path)(d)

	res := d.Dispatch(context.Background(), "note buy milk")
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "buy milk") {
		t.Errorf("note file = %q", data)
	}
}

func TestDispatchMapProgram(t *testing.T) {
	d, ports, _ := newTestDispatcher(t)
	ctx := context.Background()

	res := d.Dispatch(ctx, "map gimp to gimp.exe")
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}

	// The new mapping resolves on the next open.
	res = d.Dispatch(ctx, "open gimp")
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if got := ports.procs.launched[len(ports.procs.launched)-1]; got != "gimp.exe" {
		t.Errorf("launched = %q, want gimp.exe", got)
	}

	// Remapping is rejected.
	res = d.Dispatch(ctx, "map gimp to other.exe")
	if !errors.Is(res.Err, domain.ErrAlreadyExists) {
		t.Errorf("remap err = %v, want ErrAlreadyExists", res.Err)
	}
}

func TestDispatchHistory(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	res := d.Dispatch(ctx, "history")
	if res.Feedback != "No commands yet." {
		t.Errorf("empty history feedback = %q", res.Feedback)
	}

	d.Dispatch(ctx, "copy")
	res = d.Dispatch(ctx, "history")
	if !strings.Contains(res.Feedback, "copy") {
		t.Errorf("history feedback = %q", res.Feedback)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	d, _, hist := newTestDispatcher(t)

	res := d.Dispatch(context.Background(), "make me a sandwich")
	if !errors.Is(res.Err, domain.ErrUnknownCommand) {
		t.Fatalf("err = %v, want ErrUnknownCommand", res.Err)
	}
	if res.Feedback != "Command not understood." {
		t.Errorf("feedback = %q", res.Feedback)
	}
	if !res.Urgent {
		t.Error("unknown command feedback should be urgent")
	}

	// Still lands in history so the user can review what was heard.
	recent := hist.Recent(1)
	if len(recent) != 1 || recent[0].Text != "make me a sandwich" {
		t.Errorf("history = %+v", recent)
	}
}

func TestDispatchQuit(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	res := d.Dispatch(context.Background(), "quit")
	if !res.Quit {
		t.Error("quit should set Quit")
	}
}

func TestDispatchMissingPayload(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	res := d.Dispatch(context.Background(), "open")
	if !errors.Is(res.Err, domain.ErrNoPayload) {
		t.Fatalf("err = %v, want ErrNoPayload", res.Err)
	}
	if res.Feedback != "Open what?" {
		t.Errorf("feedback = %q", res.Feedback)
	}
}

func TestDispatchNilPortDegrades(t *testing.T) {
	log := testLogger()
	d := NewDispatcher(NewKeywordParser(log), NewRegistry(log), NewHistory(0), Deps{}, log)

	res := d.Dispatch(context.Background(), "open notepad")
	if !errors.Is(res.Err, domain.ErrNotSupported) {
		t.Fatalf("err = %v, want ErrNotSupported", res.Err)
	}
	if res.Feedback == "" {
		t.Error("degraded dispatch should still produce feedback")
	}
}
