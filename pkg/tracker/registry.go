package tracker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"liyu1981.xyz/field-presence-service/pkg/auth"
	"liyu1981.xyz/field-presence-service/pkg/common"
)

// Credentials are what a connecting client presents. Role is declared by the
// endpoint the client connected to and must match the token.
type Credentials struct {
	Token string
	Role  auth.Role
}

// Registry is the table of live sessions. Manager sessions form the single
// broadcast group; employee sessions are counted per employee so presence
// only reacts to the last connection going away.
type Registry struct {
	verifier  TokenVerifier
	directory Directory
	presence  *PresenceMachine
	buffer    int
	now       func() time.Time

	mu            sync.RWMutex
	sessions      map[string]*Session
	managers      map[string]*Session
	employeeConns map[string]int

	logger *zap.Logger
}

func NewRegistry(verifier TokenVerifier, directory Directory, presence *PresenceMachine, buffer int) *Registry {
	return &Registry{
		verifier:      verifier,
		directory:     directory,
		presence:      presence,
		buffer:        buffer,
		now:           func() time.Time { return time.Now().UTC() },
		sessions:      make(map[string]*Session),
		managers:      make(map[string]*Session),
		employeeConns: make(map[string]int),
		logger:        common.GetCategoryLogger(common.LoggerNameTracker, common.LoggerCategoryRegistry),
	}
}

// Authenticate verifies the token and that the identity behind it still
// exists and is active. It has no side effects.
func (r *Registry) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	token := strings.TrimSpace(strings.TrimPrefix(creds.Token, "Bearer "))
	if token == "" {
		return nil, &AuthError{Reason: ReasonMissingToken}
	}

	claims, err := r.verifier.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, &AuthError{Reason: ReasonExpiredToken}
		}
		return nil, &AuthError{Reason: ReasonInvalidToken}
	}

	if claims.Role != creds.Role {
		return nil, &AuthError{Reason: ReasonRoleMismatch}
	}

	switch claims.Role {
	case auth.RoleManager:
		manager, err := r.directory.FindManager(ctx, claims.ID)
		if err != nil {
			return nil, &PersistenceError{Op: "find manager", Err: err}
		}
		if manager == nil {
			return nil, &AuthError{Reason: ReasonUnknownIdentity}
		}
		if !manager.IsActive {
			return nil, &AuthError{Reason: ReasonInactiveIdentity}
		}
		return &Identity{Role: auth.RoleManager, ID: manager.ID, Manager: manager}, nil

	case auth.RoleEmployee:
		if claims.DeviceID == "" {
			return nil, &AuthError{Reason: ReasonInvalidToken}
		}
		device, err := r.directory.FindDevice(ctx, claims.DeviceID)
		if err != nil {
			return nil, &PersistenceError{Op: "find device", Err: err}
		}
		if device == nil || device.EmployeeID != claims.ID {
			return nil, &AuthError{Reason: ReasonUnknownIdentity}
		}
		if !device.IsActive || !device.Employee.IsActive {
			return nil, &AuthError{Reason: ReasonInactiveIdentity}
		}
		return &Identity{
			Role:       auth.RoleEmployee,
			ID:         claims.ID,
			EmployeeID: claims.ID,
			DeviceID:   device.ID,
			Device:     device,
		}, nil
	}

	return nil, &AuthError{Reason: ReasonRoleMismatch}
}

// Admit authenticates and registers a session. Employee admission marks the
// employee online; if that cannot be persisted the session is not created.
func (r *Registry) Admit(ctx context.Context, creds Credentials) (*Session, error) {
	identity, err := r.Authenticate(ctx, creds)
	if err != nil {
		r.logger.Info("Admission refused", zap.String("role", string(creds.Role)), zap.Error(err))
		return nil, err
	}

	session := newSession(uuid.NewString(), *identity, r.buffer)
	r.register(session)

	if identity.Role == auth.RoleEmployee {
		if err := r.directory.TouchDevice(ctx, identity.DeviceID, r.now()); err != nil {
			r.logger.Warn("Failed to touch device", zap.String("device_id", identity.DeviceID), zap.Error(err))
		}
		if _, err := r.presence.OnConnect(ctx, identity.EmployeeID); err != nil {
			r.unregister(session)
			session.Close()
			return nil, err
		}
	}

	r.logger.Info("Session admitted",
		zap.String("session_id", session.ID),
		zap.String("role", string(identity.Role)),
		zap.String("id", identity.ID),
	)
	return session, nil
}

// Release closes and forgets the session. The last employee session going
// away arms the debounced offline transition.
func (r *Registry) Release(sessionID string) {
	session, lastForEmployee := r.unregisterByID(sessionID)
	if session == nil {
		return
	}
	session.Close()

	r.logger.Info("Session released",
		zap.String("session_id", session.ID),
		zap.String("role", string(session.Identity.Role)),
		zap.String("id", session.Identity.ID),
	)

	if lastForEmployee {
		r.presence.OnDisconnect(session.Identity.EmployeeID)
	}
}

func (r *Registry) register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = s
	if s.IsManager() {
		r.managers[s.ID] = s
	} else {
		r.employeeConns[s.Identity.EmployeeID]++
	}
}

func (r *Registry) unregister(s *Session) {
	r.unregisterByID(s.ID)
}

func (r *Registry) unregisterByID(sessionID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	delete(r.sessions, sessionID)

	if s.IsManager() {
		delete(r.managers, sessionID)
		return s, false
	}

	id := s.Identity.EmployeeID
	r.employeeConns[id]--
	if r.employeeConns[id] <= 0 {
		delete(r.employeeConns, id)
		return s, true
	}
	return s, false
}

// Managers returns a snapshot of the manager group.
func (r *Registry) Managers() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.managers))
	for _, s := range r.managers {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Session(sessionID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[sessionID]
}

// Connections is the number of live sessions for an employee.
func (r *Registry) Connections(employeeID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.employeeConns[employeeID]
}

func (r *Registry) Counts() (managers int, employees int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.managers), len(r.sessions) - len(r.managers)
}

// CloseAll drops every session without touching presence.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.managers = make(map[string]*Session)
	r.employeeConns = make(map[string]int)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
