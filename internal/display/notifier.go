package display

import (
	"context"

	"github.com/gen2brain/beeep"

	"github.com/MrJi421/VOCEX/internal/domain"
	"github.com/MrJi421/VOCEX/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*UINotifier)(nil)

// UINotifier delivers messages to the terminal scrollback. Urgent
// messages additionally raise a desktop notification, so a fired
// reminder reaches the user even when the terminal is buried.
type UINotifier struct {
	ui  *UI
	log *logger.Logger
}

// NewUINotifier creates a notifier backed by the terminal UI.
func NewUINotifier(ui *UI, log *logger.Logger) *UINotifier {
	return &UINotifier{ui: ui, log: log}
}

// Notify prints the message above the prompt.
func (n *UINotifier) Notify(_ context.Context, message string) error {
	n.ui.PrintChat(message)
	return nil
}

// NotifyUrgent prints the message highlighted and raises a desktop
// notification.
func (n *UINotifier) NotifyUrgent(_ context.Context, message string) error {
	n.ui.PrintUrgent(message)
	if err := beeep.Notify("VOCEX", message, ""); err != nil {
		// Popup failure is non-fatal; the printed message went out.
		n.log.Warn("desktop notification failed: %v", err)
	}
	return nil
}
