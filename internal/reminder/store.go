// Package reminder implements spoken reminders: an in-memory store and
// a background supervisor that fires them when due.
package reminder

import (
	"crypto/rand"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MrJi421/VOCEX/internal/domain"
	"github.com/MrJi421/VOCEX/internal/logger"
)

// Compile-time interface check.
var _ domain.ReminderStore = (*Store)(nil)

// Store keeps reminders in memory for the lifetime of the process.
// Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	reminders map[string]*domain.Reminder
	log       *logger.Logger
}

// NewStore creates an empty reminder store.
func NewStore(log *logger.Logger) *Store {
	return &Store{
		reminders: make(map[string]*domain.Reminder),
		log:       log,
	}
}

// Add registers a reminder and returns it. Due times in the past are
// rejected.
func (s *Store) Add(message string, due time.Time) (*domain.Reminder, error) {
	if message == "" {
		return nil, domain.ErrNoPayload
	}
	if !due.After(time.Now()) {
		return nil, fmt.Errorf("reminder due time is in the past")
	}

	r := &domain.Reminder{
		ID:      generateID(),
		Message: message,
		Due:     due,
		Status:  domain.ReminderPending,
	}

	s.mu.Lock()
	s.reminders[r.ID] = r
	s.mu.Unlock()

	s.log.Debug("reminder %s added: %q at %s", r.ID, message, due.Format(time.Kitchen))
	snapshot := *r
	return &snapshot, nil
}

// Pending returns reminders that haven't fired yet, soonest first.
func (s *Store) Pending() []*domain.Reminder {
	return s.byStatus(domain.ReminderPending)
}

// Fired returns reminders that fired and haven't been dismissed.
func (s *Store) Fired() []*domain.Reminder {
	return s.byStatus(domain.ReminderFired)
}

// byStatus returns copies. The supervisor and the display both read
// reminder state every second; handing out the stored pointers would
// let them observe fields mid-update.
func (s *Store) byStatus(status domain.ReminderStatus) []*domain.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Reminder
	for _, r := range s.reminders {
		if r.Status == status {
			snapshot := *r
			out = append(out, &snapshot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Due.Before(out[j].Due) })
	return out
}

// Dismiss marks a reminder as handled so the supervisor stops nagging.
func (s *Store) Dismiss(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = domain.ReminderDismissed
	s.log.Debug("reminder %s dismissed", id)
	return nil
}

// DismissAllFired dismisses every fired reminder and returns how many.
func (s *Store) DismissAllFired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.reminders {
		if r.Status == domain.ReminderFired {
			r.Status = domain.ReminderDismissed
			n++
		}
	}
	return n
}

// MarkFired transitions a pending reminder to fired.
func (s *Store) MarkFired(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = domain.ReminderFired
	r.LastNotified = at
	r.EscalationLevel = 1
	s.log.Debug("reminder %s fired: %q", id, r.Message)
	return nil
}

// Escalate records another nag for a fired reminder.
func (s *Store) Escalate(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.LastNotified = at
	r.EscalationLevel++
	return nil
}

// generateID creates a short random hex ID for reminders.
func generateID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// Fallback -- should never happen.
		return fmt.Sprintf("rem-%d", b)
	}
	return fmt.Sprintf("%x", b)
}
