// VOCEX — a voice-controlled desktop assistant.
//
// Usage:
//
//	vocex [-verbose] [-quiet] [-voice]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJi421/VOCEX/internal/command"
	"github.com/MrJi421/VOCEX/internal/display"
	"github.com/MrJi421/VOCEX/internal/domain"
	"github.com/MrJi421/VOCEX/internal/logger"
	"github.com/MrJi421/VOCEX/internal/reminder"
	"github.com/MrJi421/VOCEX/internal/speech"
	"github.com/MrJi421/VOCEX/internal/system"
)

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", ".vocex-logs/vocex.log", "file to write logs to (use \"stderr\" to log to console)")
	noSpeech := flag.Bool("no-speech", false, "disable text-to-speech even if Azure keys are set")
	diskCache := flag.Bool("disk-cache", true, "persist TTS audio cache to disk (reads from disk even when false)")
	cacheDir := flag.String("cache-dir", ".vocex-cache", "directory for persistent TTS audio cache")
	notesFile := flag.String("notes-file", "", "file to append dictated notes to (default: ~/vocex-notes.txt)")
	voice := flag.Bool("voice", false, "enable voice input via local Whisper STT")
	whisperBin := flag.String("whisper-bin", "whisper-cli", "path to the whisper-cpp CLI binary")
	whisperModel := flag.String("whisper-model", "bin/ggml-small.bin", "path to the Whisper GGML model file")
	recordSecs := flag.Int("record-secs", 2, "seconds per voice recording chunk")
	flag.Parse()

	// Configure logger.
	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Direct logs to a file by default so the REPL stays clean.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		dir := filepath.Dir(*logFile)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Redirect Go's default log package (used by third-party libs like
	// the whisper transcriber) to the same output so it doesn't spam
	// the terminal.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	// Root context, cancelled once the UI exits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire dependencies.
	registry := command.NewRegistry(log)
	parser := command.NewKeywordParser(log)
	history := command.NewHistory(command.DefaultHistoryCap)
	reminders := reminder.NewStore(log)
	ui := display.NewUI(reminders)
	textNotifier := display.NewUINotifier(ui, log)

	// Build the active notifier. If TTS is available, wrap the text
	// notifier with a SpeakingNotifier that also speaks through the Mouth.
	var activeNotifier domain.Notifier = textNotifier
	var mouth *speech.Mouth

	azureKey := os.Getenv(speech.EnvAzureSpeechKey)
	azureRegion := os.Getenv(speech.EnvAzureSpeechRegion)

	if azureKey != "" && azureRegion != "" && !*noSpeech {
		ttsClient := speech.NewAzureClient(azureKey, azureRegion, log)

		player, err := speech.NewPlayer(log)
		if err != nil {
			log.Error("audio player init failed, speech disabled: %v", err)
		} else {
			mouth = speech.NewMouth(ttsClient, player, log,
				speech.WithCacheDir(*cacheDir),
				speech.WithDiskWrite(*diskCache),
			)
			mouth.Start(ctx)
			mouth.Prefetch(ctx, speech.ListeningFillers()...)
			mouth.Prefetch(ctx, speech.LineWelcome(), speech.LineBye())
			activeNotifier = speech.NewSpeakingNotifier(textNotifier, mouth, log)
			log.Info("TTS enabled (voice=%s, region=%s)", speech.DefaultVoice, azureRegion)
		}
	} else if !*noSpeech {
		log.Info("TTS disabled: set %s and %s env vars to enable", speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
	}

	// OS-facing ports.
	var dispatchOpts []command.DispatcherOption
	if *notesFile != "" {
		dispatchOpts = append(dispatchOpts, command.WithNotesPath(*notesFile))
	}
	dispatcher := command.NewDispatcher(parser, registry, history, command.Deps{
		Procs:     system.NewProcessManager(log),
		Robot:     system.NewRobot(log),
		Web:       system.NewWebSearcher(log),
		Audio:     system.NewMixer(log),
		Screen:    system.NewBacklight(log),
		Reminders: reminders,
	}, log, dispatchOpts...)

	// Build voice input (STT) if enabled.
	var ear *speech.Ear
	if *voice {
		if _, err := os.Stat(*whisperModel); err != nil {
			fmt.Fprintf(os.Stderr, "error: whisper model not found at %s\n", *whisperModel)
			os.Exit(1)
		}
		os.MkdirAll(".vocex-stt", 0o755)
		ear = speech.NewEar(*whisperBin, *whisperModel, mouth, log,
			speech.WithRecordDuration(time.Duration(*recordSecs)*time.Second),
		)
		go ear.Run(ctx)
		log.Info("voice input enabled (bin=%s, model=%s, chunk=%ds)", *whisperBin, *whisperModel, *recordSecs)
	}

	// Start the background reminder supervisor.
	supervisor := reminder.New(reminders, activeNotifier, log)
	supervisor.Start(ctx)
	defer supervisor.Stop()

	app := &cliApp{
		dispatcher: dispatcher,
		mouth:      mouth,
		ear:        ear,
		log:        log,
		ui:         ui,
	}

	fmt.Println(display.RenderBanner())

	if ear != nil {
		fmt.Println(display.BannerStyle.Render("  Voice mode ON — say \"Hey Xizo\" to activate, or type commands."))
		fmt.Println(display.BannerStyle.Render("  Type 'quit' to exit."))
	} else {
		fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	}
	fmt.Println()

	// Run app logic in a background goroutine.
	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// The UI takes over the terminal and blocks here until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()

	if mouth != nil {
		hits, misses := mouth.Cache().Stats()
		log.Info("TTS cache: %d hits, %d misses", hits, misses)
	}
}

type cliApp struct {
	dispatcher *command.Dispatcher
	mouth      *speech.Mouth // nil when TTS is disabled
	ear        *speech.Ear   // nil when voice input is disabled
	log        *logger.Logger
	ui         *display.UI
}

// say prints a message to the scrollback and queues it for speech at
// the given priority.
func (a *cliApp) say(text string, priority speech.Priority) {
	a.ui.PrintChat(text)
	if a.mouth != nil {
		a.mouth.Say(text, priority)
	}
}

// sayUrgent prints a message highlighted and queues it at high priority.
func (a *cliApp) sayUrgent(text string) {
	a.ui.PrintUrgent(text)
	if a.mouth != nil {
		a.mouth.Say(text, speech.PriorityHigh)
	}
}

func (a *cliApp) run(ctx context.Context) {
	a.say(speech.LineWelcome(), speech.PriorityNormal)
	a.ui.Println("")

	// With voice disabled voiceCh stays nil and that select case never
	// fires, leaving only keyboard input.
	var voiceCh <-chan string
	if a.ear != nil {
		voiceCh = a.ear.C()
	}

	uiCh := a.ui.InputChan()

	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case input, ok = <-uiCh:
			if !ok {
				return
			}
		case input = <-voiceCh:
			// Print what was heard so the user sees it in the REPL.
			a.ui.PrintVoice(input)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if a.handle(ctx, input) {
			return
		}
	}
}

// handle dispatches one utterance and speaks the outcome. Returns true
// when the app should quit.
func (a *cliApp) handle(ctx context.Context, input string) bool {
	// A new command interrupts whatever is currently being spoken so
	// the assistant doesn't talk over its own response.
	if a.mouth != nil {
		a.mouth.Interrupt()
	}

	res := a.dispatcher.Dispatch(ctx, input)

	switch {
	case res.Quit:
		a.say(res.Feedback, speech.PriorityNormal)
		// Brief pause so TTS can start the goodbye line.
		time.Sleep(300 * time.Millisecond)
		a.ui.Quit()
		return true
	case res.Intent == domain.IntentUnknown:
		// Read the utterance back so a mis-transcription is obvious.
		a.sayUrgent(speech.LineUnknown(input))
	case res.Urgent:
		a.sayUrgent(res.Feedback)
	case res.Intent == domain.IntentHelp:
		a.showHelp()
	default:
		a.say(res.Feedback, speech.PriorityNormal)
	}
	return false
}

func (a *cliApp) showHelp() {
	a.ui.PrintChat("Commands:")
	a.ui.PrintHint("  open <program>        Launch a program (notepad, chrome, spotify...)")
	a.ui.PrintHint("  close <program>       Terminate a running program")
	a.ui.PrintHint("  type <text>           Type text into the focused window")
	a.ui.PrintHint("  search for <query>    Web search in the default browser")
	a.ui.PrintHint("  copy / paste          Clipboard via Ctrl+C / Ctrl+V")
	a.ui.PrintHint("  screenshot            Capture the screen to Pictures")
	a.ui.PrintHint("  volume up/down/<n>    Adjust or set the master volume")
	a.ui.PrintHint("  brightness up/down/<n> Adjust or set display brightness")
	a.ui.PrintHint("  mute                  Toggle mute")
	a.ui.PrintHint("  time / date           Current time or date")
	a.ui.PrintHint("  remind me in <n> minutes to <x>  Set a spoken reminder")
	a.ui.PrintHint("  dismiss               Clear fired reminders")
	a.ui.PrintHint("  note <text>           Append a note to the notes file")
	a.ui.PrintHint("  map <name> to <path>  Register a new program mapping")
	a.ui.PrintHint("  history               Recent commands")
	a.ui.PrintHint("  quit / exit           Exit")
}
