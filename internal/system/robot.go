package system

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/go-vgo/robotgo"

	"github.com/MrJi421/VOCEX/internal/domain"
	"github.com/MrJi421/VOCEX/internal/logger"
)

// Compile-time interface check.
var _ domain.Automator = (*Robot)(nil)

// Robot drives the keyboard and clipboard of the focused window.
type Robot struct {
	shotDir string
	log     *logger.Logger
}

type RobotOption func(*Robot)

// WithScreenshotDir overrides where screenshots are written.
func WithScreenshotDir(dir string) RobotOption {
	return func(r *Robot) { r.shotDir = dir }
}

func NewRobot(log *logger.Logger, opts ...RobotOption) *Robot {
	r := &Robot{log: log}
	if home, err := os.UserHomeDir(); err == nil {
		r.shotDir = filepath.Join(home, "Pictures")
	} else {
		r.shotDir = "."
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TypeText types the text into whatever window has focus.
func (r *Robot) TypeText(text string) error {
	if text == "" {
		return domain.ErrNoPayload
	}
	robotgo.TypeStr(text)
	r.log.Debug("typed %d characters", len(text))
	return nil
}

// Copy sends Ctrl+C to the focused window, then waits briefly for the
// selection to land on the clipboard.
func (r *Robot) Copy() error {
	if err := robotgo.KeyTap("c", "ctrl"); err != nil {
		return err
	}
	time.Sleep(150 * time.Millisecond)
	if content, err := clipboard.ReadAll(); err == nil {
		r.log.Debug("copied %d characters", len(content))
	}
	return nil
}

// Paste sends Ctrl+V to the focused window.
func (r *Robot) Paste() error {
	return robotgo.KeyTap("v", "ctrl")
}

// Screenshot captures the full screen and returns the saved file path.
func (r *Robot) Screenshot() (string, error) {
	if err := os.MkdirAll(r.shotDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(r.shotDir, fmt.Sprintf("vocex-%s.png", time.Now().Format("20060102-150405")))
	robotgo.SaveCapture(path)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("screenshot not written: %w", err)
	}
	r.log.Info("screenshot saved to %s", path)
	return path, nil
}
