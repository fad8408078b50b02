package system

import (
	volume "github.com/itchyny/volume-go"

	"github.com/MrJi421/VOCEX/internal/domain"
	"github.com/MrJi421/VOCEX/internal/logger"
)

// Compile-time interface check.
var _ domain.AudioControl = (*Mixer)(nil)

// Mixer controls the system master volume.
type Mixer struct {
	log *logger.Logger
}

func NewMixer(log *logger.Logger) *Mixer {
	return &Mixer{log: log}
}

func (m *Mixer) Volume() (int, error) {
	return volume.GetVolume()
}

func (m *Mixer) SetVolume(percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	m.log.Debug("setting volume to %d", percent)
	return volume.SetVolume(percent)
}

func (m *Mixer) ChangeVolume(delta int) error {
	m.log.Debug("changing volume by %d", delta)
	return volume.IncreaseVolume(delta)
}

// ToggleMute flips the mute state and reports the new one.
func (m *Mixer) ToggleMute() (bool, error) {
	muted, err := volume.GetMuted()
	if err != nil {
		return false, err
	}
	if muted {
		return false, volume.Unmute()
	}
	return true, volume.Mute()
}
