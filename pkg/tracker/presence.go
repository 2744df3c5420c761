package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/models"
)

// PresenceMachine is the only writer of presence records. Every transition
// for an employee runs under that employee's lock, so connects, heartbeats,
// disconnect timers and sweeps never interleave for the same id.
type PresenceMachine struct {
	store     PresenceStore
	publisher Publisher
	timeout   time.Duration
	locks     *keyedMutex
	pending   *Deferred
	now       func() time.Time
	logger    *zap.Logger

	// live session count per employee; a disconnect timer never fires for
	// an employee that is connected again
	connections func(employeeID string) int
	// profiles fills the employee block of presence events when set
	profiles    Directory
}

func NewPresenceMachine(store PresenceStore, publisher Publisher, timeout time.Duration) *PresenceMachine {
	return &PresenceMachine{
		store:     store,
		publisher: publisher,
		timeout:   timeout,
		locks:     newKeyedMutex(),
		pending:   NewDeferred(),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    common.GetCategoryLogger(common.LoggerNameTracker, common.LoggerCategoryPresence),
	}
}

func (m *PresenceMachine) Timeout() time.Duration {
	return m.timeout
}

// Current returns the stored presence, defaulting to offline.
func (m *PresenceMachine) Current(ctx context.Context, employeeID string) (*models.Presence, error) {
	p, err := m.store.GetPresence(ctx, employeeID)
	if err != nil {
		return nil, &PersistenceError{Op: "get presence", Err: err}
	}
	if p == nil {
		return &models.Presence{EmployeeID: employeeID}, nil
	}
	return p, nil
}

// OnConnect marks the employee online and always announces it.
func (m *PresenceMachine) OnConnect(ctx context.Context, employeeID string) (*models.Presence, error) {
	unlock := m.locks.Lock(employeeID)
	defer unlock()

	m.pending.Cancel(employeeID)

	p := &models.Presence{EmployeeID: employeeID, IsOnline: true, LastSeenAt: m.now()}
	if err := m.store.UpsertPresence(ctx, p); err != nil {
		m.logger.Error("Failed to persist presence on connect", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, &PersistenceError{Op: "upsert presence", Err: err}
	}

	m.logger.Info("Employee online", zap.String("employee_id", employeeID))
	m.announce(ctx, p)
	return p, nil
}

func (m *PresenceMachine) OnHeartbeat(ctx context.Context, employeeID string) (*models.Presence, error) {
	return m.OnActivity(ctx, employeeID)
}

// OnLocationIngested refreshes presence and then publishes follow, in the
// same critical section, so managers see the presence flip before the
// location that caused it.
func (m *PresenceMachine) OnLocationIngested(ctx context.Context, employeeID string, follow ...Event) (*models.Presence, error) {
	return m.OnActivity(ctx, employeeID, follow...)
}

// OnActivity refreshes lastSeenAt, cancels a pending disconnect timer and
// announces the employee only when it was offline before. follow events are
// published even if the presence write fails; they describe records already
// persisted by the caller.
func (m *PresenceMachine) OnActivity(ctx context.Context, employeeID string, follow ...Event) (*models.Presence, error) {
	unlock := m.locks.Lock(employeeID)
	defer unlock()

	defer func() {
		for _, evt := range follow {
			m.publisher.Publish(evt)
		}
	}()

	m.pending.Cancel(employeeID)

	prev, err := m.store.GetPresence(ctx, employeeID)
	if err != nil {
		return nil, &PersistenceError{Op: "get presence", Err: err}
	}

	p := &models.Presence{EmployeeID: employeeID, IsOnline: true, LastSeenAt: m.now()}
	if err := m.store.UpsertPresence(ctx, p); err != nil {
		m.logger.Error("Failed to refresh presence", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, &PersistenceError{Op: "upsert presence", Err: err}
	}

	if prev == nil || !prev.IsOnline {
		m.logger.Info("Employee back online", zap.String("employee_id", employeeID))
		m.announce(ctx, p)
	}
	return p, nil
}

// OnDisconnect arms the offline transition instead of applying it; any
// activity before the timeout cancels it.
func (m *PresenceMachine) OnDisconnect(employeeID string) {
	unlock := m.locks.Lock(employeeID)
	defer unlock()

	m.pending.Schedule(employeeID, m.timeout, func(seq uint64) {
		m.expire(employeeID, seq)
	})
	m.logger.Debug("Offline transition armed", zap.String("employee_id", employeeID), zap.Duration("after", m.timeout))
}

func (m *PresenceMachine) expire(employeeID string, seq uint64) {
	unlock := m.locks.Lock(employeeID)
	defer unlock()

	if !m.pending.Claim(employeeID, seq) {
		return
	}
	if m.connections != nil && m.connections(employeeID) > 0 {
		m.logger.Debug("Offline transition skipped, employee reconnected", zap.String("employee_id", employeeID))
		return
	}

	if _, err := m.goOffline(context.Background(), employeeID, nil); err != nil {
		m.logger.Error("Failed to apply disconnect timeout", zap.String("employee_id", employeeID), zap.Error(err))
	}
}

// SweepTimeout moves a silent employee offline. It reports whether a
// transition happened.
func (m *PresenceMachine) SweepTimeout(ctx context.Context, employeeID string) (bool, error) {
	unlock := m.locks.Lock(employeeID)
	defer unlock()

	stillStale := func(p *models.Presence) bool {
		return m.now().Sub(p.LastSeenAt) > m.timeout
	}
	changed, err := m.goOffline(ctx, employeeID, stillStale)
	if changed {
		m.pending.Cancel(employeeID)
	}
	return changed, err
}

// goOffline must run under the employee lock. lastSeenAt is kept as is.
func (m *PresenceMachine) goOffline(ctx context.Context, employeeID string, guard func(*models.Presence) bool) (bool, error) {
	p, err := m.store.GetPresence(ctx, employeeID)
	if err != nil {
		return false, &PersistenceError{Op: "get presence", Err: err}
	}
	if p == nil || !p.IsOnline {
		return false, nil
	}
	if guard != nil && !guard(p) {
		return false, nil
	}

	p.IsOnline = false
	if err := m.store.UpsertPresence(ctx, p); err != nil {
		return false, &PersistenceError{Op: "upsert presence", Err: err}
	}

	m.logger.Info("Employee offline", zap.String("employee_id", employeeID), zap.Time("last_seen_at", p.LastSeenAt))
	m.announce(ctx, p)
	return true, nil
}

// announce publishes a presence change, with the employee profile when it
// can be read. A failed lookup only leaves the profile out.
func (m *PresenceMachine) announce(ctx context.Context, p *models.Presence) {
	var profile *models.Employee
	if m.profiles != nil {
		employee, err := m.profiles.GetEmployeeActiveByID(ctx, p.EmployeeID)
		if err != nil {
			m.logger.Warn("Failed to load employee profile", zap.String("employee_id", p.EmployeeID), zap.Error(err))
		}
		profile = employee
	}
	m.publisher.Publish(presenceEvent(p, profile))
}

// Shutdown drops every pending disconnect timer.
func (m *PresenceMachine) Shutdown() {
	m.pending.Stop()
}
