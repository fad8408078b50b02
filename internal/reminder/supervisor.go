package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrJi421/VOCEX/internal/domain"
	"github.com/MrJi421/VOCEX/internal/logger"
)

// Option configures the supervisor.
type Option func(*Supervisor)

// WithTickInterval sets how often the supervisor checks reminders.
func WithTickInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.tickInterval = d
	}
}

// WithNotifyCooldown sets the minimum time between repeated notifications.
func WithNotifyCooldown(d time.Duration) Option {
	return func(s *Supervisor) {
		s.notifyCooldown = d
	}
}

// WithMaxEscalation sets the escalation level after which the
// supervisor stops nagging and auto-dismisses.
func WithMaxEscalation(level int) Option {
	return func(s *Supervisor) {
		s.maxEscalation = level
	}
}

// Supervisor runs in the background, fires reminders when due, and
// nags with escalating urgency until they're dismissed.
type Supervisor struct {
	store          domain.ReminderStore
	notifier       domain.Notifier
	log            *logger.Logger
	tickInterval   time.Duration
	notifyCooldown time.Duration
	maxEscalation  int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New creates a reminder supervisor with the given dependencies and options.
func New(store domain.ReminderStore, notifier domain.Notifier, log *logger.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		store:          store,
		notifier:       notifier,
		log:            log,
		tickInterval:   1 * time.Second,
		notifyCooldown: 30 * time.Second,
		maxEscalation:  3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the background supervisor loop. Non-blocking.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("reminder supervisor already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	go s.loop(childCtx)

	s.log.Info("reminder supervisor started (tick=%s, cooldown=%s)", s.tickInterval, s.notifyCooldown)
}

// Stop gracefully shuts down the supervisor.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.running = false
	s.log.Info("reminder supervisor stopped")
}

// loop is the main tick loop.
func (s *Supervisor) loop(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one cycle: fire due reminders, re-nag fired ones. The
// store snapshots are read-only here; state changes go back through
// MarkFired/Escalate/Dismiss so they land under the store's lock.
func (s *Supervisor) tick(ctx context.Context) {
	now := time.Now()

	for _, r := range s.store.Pending() {
		if r.Due.After(now) {
			continue
		}

		if err := s.store.MarkFired(r.ID, now); err != nil {
			s.log.Error("supervisor: marking %s fired: %v", r.ID, err)
			continue
		}
		if err := s.notifier.NotifyUrgent(ctx, s.escalationMessage(r, 0)); err != nil {
			s.log.Error("supervisor: notifying fired reminder: %v", err)
		}
	}

	for _, r := range s.store.Fired() {
		if r.EscalationLevel > s.maxEscalation {
			// Nagged enough. Dismiss so the status bar clears too.
			if err := s.store.Dismiss(r.ID); err != nil {
				s.log.Error("supervisor: auto-dismiss %s: %v", r.ID, err)
			}
			continue
		}

		if !r.LastNotified.IsZero() && now.Sub(r.LastNotified) < s.notifyCooldown {
			continue // Cooldown active.
		}

		if err := s.notifier.NotifyUrgent(ctx, s.escalationMessage(r, r.EscalationLevel)); err != nil {
			s.log.Error("supervisor: escalation notify: %v", err)
		}
		if err := s.store.Escalate(r.ID, now); err != nil {
			s.log.Error("supervisor: escalating %s: %v", r.ID, err)
		}
	}
}

// escalationMessage returns a message based on the escalation level.
func (s *Supervisor) escalationMessage(r *domain.Reminder, level int) string {
	switch level {
	case 0:
		return fmt.Sprintf("Reminder: %s.", r.Message)
	case 1:
		return fmt.Sprintf("Reminder again: %s.", r.Message)
	case 2:
		return fmt.Sprintf("Don't forget: %s.", r.Message)
	default:
		return fmt.Sprintf("%s. Last call.", r.Message)
	}
}
