package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/models"
)

type ServiceOpts struct {
	Verifier  TokenVerifier
	Directory Directory
	Presence  PresenceStore
	Locations LocationStore
	Geocoder  Geocoder
}

type Settings struct {
	PresenceTimeout time.Duration
	SweepInterval   time.Duration
	MaxClockSkew    time.Duration
	SessionBuffer   int
	SnapshotLimit   int
}

func SettingsFromConfig(cfg *common.Config) Settings {
	return Settings{
		PresenceTimeout: cfg.PresenceTimeout,
		SweepInterval:   cfg.SweepInterval,
		MaxClockSkew:    cfg.MaxClockSkew,
		SessionBuffer:   cfg.SessionBuffer,
		SnapshotLimit:   cfg.SnapshotLimit,
	}
}

// Tracker wires the presence engine together and is what transports talk to.
type Tracker struct {
	Registry *Registry
	Hub      *Hub
	Presence *PresenceMachine
	Pipeline *Pipeline
	Sweeper  *Sweeper

	directory     Directory
	locations     LocationStore
	snapshotLimit int
	logger        *zap.Logger
}

func New(opts ServiceOpts, settings Settings) *Tracker {
	registry := NewRegistry(opts.Verifier, opts.Directory, nil, settings.SessionBuffer)
	hub := NewHub(registry)
	presence := NewPresenceMachine(opts.Presence, hub, settings.PresenceTimeout)
	registry.presence = presence
	presence.connections = registry.Connections
	presence.profiles = opts.Directory

	return &Tracker{
		Registry:      registry,
		Hub:           hub,
		Presence:      presence,
		Pipeline:      NewPipeline(opts.Locations, opts.Geocoder, presence, settings.MaxClockSkew),
		Sweeper:       NewSweeper(opts.Presence, presence, settings.SweepInterval),
		directory:     opts.Directory,
		locations:     opts.Locations,
		snapshotLimit: settings.SnapshotLimit,
		logger:        common.GetLoggerWith(common.LoggerNameTracker),
	}
}

func (t *Tracker) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	return t.Registry.Authenticate(ctx, creds)
}

// OpenSession admits a connection. Manager sessions get the initial snapshot
// as their first event.
func (t *Tracker) OpenSession(ctx context.Context, creds Credentials) (*Session, error) {
	session, err := t.Registry.Admit(ctx, creds)
	if err != nil {
		return nil, err
	}

	if session.IsManager() {
		initial, err := t.Snapshot(ctx)
		if err != nil {
			t.Registry.Release(session.ID)
			return nil, err
		}
		session.Prime(initial)
	}
	return session, nil
}

func (t *Tracker) CloseSession(sessionID string) {
	t.Registry.Release(sessionID)
}

// Snapshot builds the initialData event: every active employee, up to the
// snapshot limit (none when zero), with their presence and latest location.
// The listing is paged by the store, so pages are walked until the limit or
// the end. Rows shifted across pages by concurrent inserts are skipped.
func (t *Tracker) Snapshot(ctx context.Context) (Event, error) {
	employees := []models.EmployeeOverview{}
	seen := make(map[string]struct{})
	for page := 1; ; page++ {
		batch, err := t.locations.ListEmployeesWithLatestLocationAndPresence(ctx, "", page, t.snapshotLimit)
		if err != nil {
			return Event{}, &PersistenceError{Op: "list employees", Err: err}
		}
		for _, e := range batch.Employees {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			employees = append(employees, e)
		}

		if t.snapshotLimit > 0 && len(employees) >= t.snapshotLimit {
			employees = employees[:t.snapshotLimit]
			break
		}
		if len(batch.Employees) == 0 || page >= batch.Pagination.Pages {
			break
		}
	}
	return Event{Name: EventInitialData, Data: InitialDataPayload{Employees: employees}}, nil
}

// Heartbeat records liveness for an employee device. No geocoding happens here.
func (t *Tracker) Heartbeat(ctx context.Context, identity *Identity) (Event, error) {
	now := time.Now().UTC()
	if identity.DeviceID != "" {
		if err := t.directory.TouchDevice(ctx, identity.DeviceID, now); err != nil {
			t.logger.Warn("Failed to touch device", zap.String("device_id", identity.DeviceID), zap.Error(err))
		}
	}
	if _, err := t.Presence.OnHeartbeat(ctx, identity.EmployeeID); err != nil {
		return Event{}, err
	}
	return Event{Name: EventHeartbeatAck, EmployeeID: identity.EmployeeID, Data: HeartbeatAckPayload{Timestamp: now}}, nil
}

func (t *Tracker) Ingest(ctx context.Context, identity *Identity, sample *Sample) (*models.Location, error) {
	loc, err := t.Pipeline.Ingest(ctx, identity.EmployeeID, sample)
	if err != nil {
		return nil, err
	}
	t.touch(ctx, identity)
	return loc, nil
}

func (t *Tracker) SubmitDeviceStatus(ctx context.Context, identity *Identity, input *DeviceStatusInput) (*models.DeviceStatus, error) {
	status, err := t.Pipeline.SubmitDeviceStatus(ctx, identity.EmployeeID, identity.DeviceID, input)
	if err != nil {
		return nil, err
	}
	t.touch(ctx, identity)
	return status, nil
}

func (t *Tracker) touch(ctx context.Context, identity *Identity) {
	if identity.DeviceID == "" {
		return
	}
	if err := t.directory.TouchDevice(ctx, identity.DeviceID, time.Now().UTC()); err != nil {
		t.logger.Warn("Failed to touch device", zap.String("device_id", identity.DeviceID), zap.Error(err))
	}
}

// EmployeeUpdate answers requestEmployeeUpdate with the latest location and
// presence of one employee.
func (t *Tracker) EmployeeUpdate(ctx context.Context, employeeID string) (Event, error) {
	employee, err := t.directory.GetEmployeeActiveByID(ctx, employeeID)
	if err != nil {
		return Event{}, &PersistenceError{Op: "get employee", Err: err}
	}
	if employee == nil {
		return ErrorEvent("Employee not found"), nil
	}

	loc, err := t.locations.GetLatestLocation(ctx, employeeID)
	if err != nil {
		return Event{}, &PersistenceError{Op: "get latest location", Err: err}
	}
	presence, err := t.Presence.Current(ctx, employeeID)
	if err != nil {
		return Event{}, err
	}

	return Event{
		Name:       EventEmployeeUpdate,
		EmployeeID: employeeID,
		Data: EmployeeUpdatePayload{
			EmployeeID: employeeID,
			Location:   loc,
			Presence:   presence,
		},
	}, nil
}

func (t *Tracker) ListEmployees(ctx context.Context, search string, page, limit int) (*models.EmployeePage, error) {
	result, err := t.locations.ListEmployeesWithLatestLocationAndPresence(ctx, search, page, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "list employees", Err: err}
	}
	return result, nil
}

func (t *Tracker) LatestLocation(ctx context.Context, employeeID string) (*models.Location, error) {
	loc, err := t.locations.GetLatestLocation(ctx, employeeID)
	if err != nil {
		return nil, &PersistenceError{Op: "get latest location", Err: err}
	}
	return loc, nil
}

func (t *Tracker) LocationHistory(ctx context.Context, employeeID string, query models.HistoryQuery) ([]models.Location, error) {
	history, err := t.locations.GetLocationHistory(ctx, employeeID, query)
	if err != nil {
		return nil, &PersistenceError{Op: "get location history", Err: err}
	}
	return history, nil
}

// Shutdown stops pending disconnect timers and closes all sessions. Presence
// records are left as they are; the sweeper settles them after a restart.
func (t *Tracker) Shutdown() {
	t.Presence.Shutdown()
	t.Registry.CloseAll()
	published, dropped := t.Hub.Stats()
	t.logger.Info("Tracker stopped", zap.Int64("published", published), zap.Int64("dropped", dropped))
}
