// Package display is the Bubble Tea terminal front end.
//
// [UI] keeps an input prompt and a reminder status bar pinned at the
// bottom of the terminal; everything else goes above the rendered
// area through Program.Println / Printf so concurrent writers never
// garble the frame.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJi421/VOCEX/internal/domain"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	reminderWaitStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fde68a"))

	reminderDueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#f9a8a8"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// BannerStyle — dim steel for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// Chat — pale cyan for assistant speech.
	chatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a5f3fc"))

	// Primary text — light zinc.
	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	// Secondary text — dimmed zinc for hints and metadata.
	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	// Urgent — washed red for failures and alerts.
	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#f9a8a8"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

// ── UI ───────────────────────────────────────────────────────────

// UI owns the terminal for the lifetime of the program.
//
// [UI.Run] blocks; once [UI.WaitReady] returns, any goroutine may
// print through [UI.Println] / [UI.Printf] and consume
// [UI.InputChan].
type UI struct {
	program   *tea.Program
	inputCh   chan string
	readyCh   chan struct{}
	reminders domain.ReminderStore
	done      atomic.Bool
}

// NewUI builds the terminal display. Run() starts it.
func NewUI(reminders domain.ReminderStore) *UI {
	return &UI{
		reminders: reminders,
		inputCh:   make(chan string, 16),
		readyCh:   make(chan struct{}),
	}
}

// Println prints a line above the prompt. Thread-safe.
// If the program hasn't started yet, falls back to fmt.Println.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt. Thread-safe.
func (u *UI) Printf(format string, a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format, a...)
	}
}

// InputChan streams completed input lines to the app loop.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// ── Styled print helpers ─────────────────────────────────────────

// PrintChat writes an assistant line to the scrollback.
func (u *UI) PrintChat(text string) {
	u.Println(chatStyle.Render("  " + text))
}

// PrintHint writes a dimmed secondary line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an urgent/error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintVoice echoes a voice-recognized utterance.
func (u *UI) PrintVoice(text string) {
	u.Println(secondaryStyle.Render("[voice] ") + primaryStyle.Render(text))
}

// PrintUserInput echoes a typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("vocex") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// Run starts the Bubble Tea event loop.  Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// The prompt stays unstyled: lipgloss would add ANSI bytes that
	// throw off textinput's width and scroll offsets on long lines.
	ti.Prompt = "vocex> "
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60 // resized on the first WindowSizeMsg

	m := model{
		reminders: u.reminders,
		input:     ti,
		inputCh:   u.inputCh,
		readyCh:   u.readyCh,
		echoFn: func(v string) {
			u.PrintUserInput(v)
		},
	}

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	reminders domain.ReminderStore
	input     textinput.Model
	inputCh   chan<- string
	readyCh   chan struct{}
	echoFn    func(string) // prints user input into scrollback
	bar       []reminderInfo
	width     int
}

type reminderInfo struct {
	message string
	due     time.Duration // time until due, <= 0 when fired
	fired   bool
}

// Output helpers.
type tickMsg time.Time

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) != "" {
				m.inputCh <- v
				// Echo through a Cmd, outside Update, so the
				// print can't deadlock the message loop.
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		// Let the text input use the full width minus the prompt ("vocex> " = 7 chars).
		const promptLen = 7
		if msg.Width > promptLen {
			m.input.Width = msg.Width - promptLen
		}
		return m, nil

	case tickMsg:
		m.refreshReminders()
		cmds := []tea.Cmd{tickCmd()}
		if len(m.bar) > 0 {
			cmds = append(cmds, tea.SetWindowTitle(m.titleStr()))
		} else {
			cmds = append(cmds, tea.SetWindowTitle("VOCEX"))
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) refreshReminders() {
	if m.reminders == nil {
		return
	}
	now := time.Now()
	m.bar = m.bar[:0]
	for _, r := range m.reminders.Pending() {
		m.bar = append(m.bar, reminderInfo{
			message: r.Message,
			due:     r.Due.Sub(now),
		})
	}
	for _, r := range m.reminders.Fired() {
		m.bar = append(m.bar, reminderInfo{
			message: r.Message,
			fired:   true,
		})
	}
}

func (m model) titleStr() string {
	var p []string
	for _, r := range m.bar {
		if r.fired {
			p = append(p, r.message+": DUE!")
		} else {
			p = append(p, r.message+": "+fmtDuration(r.due))
		}
	}
	return "VOCEX — " + strings.Join(p, " | ")
}

func (m model) View() string {
	var b strings.Builder

	if len(m.bar) > 0 {
		b.WriteString(m.renderBar())
		b.WriteByte('\n')
	}

	// Keep a blank line between scrollback and prompt.
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}

func (m model) renderBar() string {
	var parts []string
	for _, r := range m.bar {
		label := truncateMsg(r.message, 24)
		if r.fired {
			parts = append(parts, reminderDueStyle.Render(label+": DUE!"))
		} else {
			parts = append(parts,
				labelStyle.Render(label+": ")+
					reminderWaitStyle.Render(fmtDuration(r.due)))
		}
	}

	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "

	w := m.width
	if w <= 0 {
		w = 80
	}
	return barBg.Width(w).Render(content)
}

// ── Helpers ──────────────────────────────────────────────────────

func fmtDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if m == 0 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func truncateMsg(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
