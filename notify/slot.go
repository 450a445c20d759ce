package notify

import "sync"

// PendingInvitation carries the attendance state of an invitation from the
// notification panel to the movie night view.
type PendingInvitation struct {
	InvitationID        int
	MovieNightID        int
	AttendanceConfirmed bool
	IsAttending         bool
}

// InvitationSlot holds at most one PendingInvitation.
type InvitationSlot struct {
	mu    sync.Mutex
	value *PendingInvitation
}

// Save replaces the slot content.
func (s *InvitationSlot) Save(inv PendingInvitation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = &inv
}

// Take returns and clears the slot when it belongs to movieNightID. A slot
// for another movie night is left in place.
func (s *InvitationSlot) Take(movieNightID int) (PendingInvitation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value == nil || s.value.MovieNightID != movieNightID {
		return PendingInvitation{}, false
	}
	inv := *s.value
	s.value = nil
	return inv, true
}

// Peek returns the slot content for movieNightID without clearing it.
func (s *InvitationSlot) Peek(movieNightID int) (PendingInvitation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value == nil || s.value.MovieNightID != movieNightID {
		return PendingInvitation{}, false
	}
	return *s.value, true
}
