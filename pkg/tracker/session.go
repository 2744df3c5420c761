package tracker

import (
	"sync"
	"time"

	"liyu1981.xyz/field-presence-service/pkg/auth"
	"liyu1981.xyz/field-presence-service/pkg/models"
)

// Identity is who an admitted session belongs to.
type Identity struct {
	Role       auth.Role
	ID         string
	EmployeeID string
	DeviceID   string
	Manager    *models.Manager
	Device     *models.Device
}

// Session is one live connection. Events queue on a bounded outbound channel
// drained by the transport. A session that cannot keep up is closed, the
// client reconnects and gets a fresh snapshot.
//
// Manager sessions start unprimed: events published before the initial
// snapshot is delivered are held back and flushed right after it.
type Session struct {
	ID        string
	Identity  Identity
	CreatedAt time.Time

	out  chan Event
	done chan struct{}

	mu     sync.Mutex
	primed bool
	held   []Event
	closed bool
}

func newSession(id string, identity Identity, buffer int) *Session {
	if buffer < 1 {
		buffer = 1
	}
	return &Session{
		ID:        id,
		Identity:  identity,
		CreatedAt: time.Now().UTC(),
		out:       make(chan Event, buffer),
		done:      make(chan struct{}),
		primed:    identity.Role != auth.RoleManager,
	}
}

func (s *Session) IsManager() bool {
	return s.Identity.Role == auth.RoleManager
}

// Outbound is drained by the transport writer.
func (s *Session) Outbound() <-chan Event {
	return s.out
}

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Deliver queues evt without blocking. It returns false if the session is
// closed or was closed because its queue overflowed.
func (s *Session) Deliver(evt Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	if !s.primed {
		if len(s.held) >= cap(s.out) {
			s.closeLocked()
			return false
		}
		s.held = append(s.held, evt)
		return true
	}

	return s.enqueueLocked(evt)
}

// Prime sends the initial event followed by anything held back. Only the
// first call has an effect.
func (s *Session) Prime(initial Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.primed {
		return !s.closed
	}

	s.primed = true
	if !s.enqueueLocked(initial) {
		return false
	}
	for _, evt := range s.held {
		if !s.enqueueLocked(evt) {
			return false
		}
	}
	s.held = nil
	return true
}

func (s *Session) enqueueLocked(evt Event) bool {
	select {
	case s.out <- evt:
		return true
	default:
		s.closeLocked()
		return false
	}
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	s.held = nil
	close(s.done)
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
