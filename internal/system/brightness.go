package system

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/MrJi421/VOCEX/internal/domain"
	"github.com/MrJi421/VOCEX/internal/logger"
)

// Compile-time interface check.
var _ domain.ScreenControl = (*Backlight)(nil)

// Backlight adjusts display brightness. On Windows it goes through
// WMI via powershell; on Linux it uses brightnessctl. Anywhere else
// it reports ErrNotSupported.
type Backlight struct {
	log *logger.Logger
}

func NewBacklight(log *logger.Logger) *Backlight {
	return &Backlight{log: log}
}

func (b *Backlight) SetBrightness(percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	b.log.Debug("setting brightness to %d", percent)

	switch runtime.GOOS {
	case "windows":
		script := fmt.Sprintf(
			"(Get-WmiObject -Namespace root/WMI -Class WmiMonitorBrightnessMethods).WmiSetBrightness(1,%d)",
			percent)
		return exec.Command("powershell", "-NoProfile", "-Command", script).Run()
	case "linux":
		if _, err := exec.LookPath("brightnessctl"); err != nil {
			return domain.ErrNotSupported
		}
		return exec.Command("brightnessctl", "set", fmt.Sprintf("%d%%", percent)).Run()
	default:
		return domain.ErrNotSupported
	}
}

func (b *Backlight) ChangeBrightness(delta int) error {
	b.log.Debug("changing brightness by %d", delta)

	switch runtime.GOOS {
	case "windows":
		cur, err := b.currentWindows()
		if err != nil {
			return err
		}
		return b.SetBrightness(cur + delta)
	case "linux":
		if _, err := exec.LookPath("brightnessctl"); err != nil {
			return domain.ErrNotSupported
		}
		arg := fmt.Sprintf("+%d%%", delta)
		if delta < 0 {
			arg = fmt.Sprintf("%d%%-", -delta)
		}
		return exec.Command("brightnessctl", "set", arg).Run()
	default:
		return domain.ErrNotSupported
	}
}

func (b *Backlight) currentWindows() (int, error) {
	out, err := exec.Command("powershell", "-NoProfile", "-Command",
		"(Get-WmiObject -Namespace root/WMI -Class WmiMonitorBrightness).CurrentBrightness").Output()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(out)))
}
