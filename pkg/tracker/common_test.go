package tracker

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"liyu1981.xyz/field-presence-service/pkg/auth"
	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/db"
	"liyu1981.xyz/field-presence-service/pkg/models"
	"liyu1981.xyz/field-presence-service/pkg/store"
	"liyu1981.xyz/field-presence-service/pkg/tracker/mocks"
	_ "liyu1981.xyz/field-presence-service/pkg/testing"
)

const testSecret = "tracker-test-secret"

type fixture struct {
	ctrl     *gomock.Controller
	store    *store.Store
	tokens   *auth.Service
	geocoder *mocks.MockGeocoder
	tracker  *Tracker
}

func testSettings(timeout time.Duration) Settings {
	return Settings{
		PresenceTimeout: timeout,
		SweepInterval:   timeout,
		MaxClockSkew:    5 * time.Minute,
		SessionBuffer:   64,
		SnapshotLimit:   1000,
	}
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	common.SetTestLoggerNop()

	ctrl := gomock.NewController(t)
	s := store.New(*db.GetInstance(db.UseMemorySqliteDialector()))
	tokens := auth.NewService(testSecret, time.Hour, 24*time.Hour)
	geocoder := mocks.NewMockGeocoder(ctrl)

	tr := New(ServiceOpts{
		Verifier:  tokens,
		Directory: s,
		Presence:  s,
		Locations: s,
		Geocoder:  geocoder,
	}, testSettings(timeout))
	t.Cleanup(tr.Shutdown)

	return &fixture{ctrl: ctrl, store: s, tokens: tokens, geocoder: geocoder, tracker: tr}
}

// employee creates an active employee with one registered device and returns
// an access token for it.
func (f *fixture) employee(t *testing.T, id, name string) (*models.Employee, *models.Device, string) {
	ctx := context.Background()
	if id == "" {
		id = uuid.NewString()
	}

	employee := &models.Employee{ID: id, FullName: name, Department: "Field", IsActive: true}
	require.NoError(t, f.store.Db.Conn.Where(models.Employee{ID: id}).FirstOrCreate(employee).Error)
	require.NoError(t, f.store.SetEmployeeActive(ctx, id, true))

	device, err := f.store.RegisterDevice(ctx, id, "ios", "")
	require.NoError(t, err)

	pair, err := f.tokens.GenerateTokenPair(id, auth.RoleEmployee, device.ID)
	require.NoError(t, err)
	return employee, device, pair.AccessToken
}

func (f *fixture) manager(t *testing.T) (*models.Manager, string) {
	manager := &models.Manager{FullName: "Mia Manager", Email: uuid.NewString() + "@example.com", IsActive: true}
	require.NoError(t, f.store.CreateManager(context.Background(), manager))

	pair, err := f.tokens.GenerateTokenPair(manager.ID, auth.RoleManager, "")
	require.NoError(t, err)
	return manager, pair.AccessToken
}

// nextEvent waits for the next event on s, skipping events about other employees.
func nextEvent(t *testing.T, s *Session, employeeID string, within time.Duration) Event {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case evt := <-s.Outbound():
			if employeeID == "" || evt.EmployeeID == "" || evt.EmployeeID == employeeID {
				return evt
			}
		case <-deadline:
			t.Fatalf("no event for %q within %s", employeeID, within)
			return Event{}
		}
	}
}

// drainFor collects events about employeeID until the channel stays quiet.
func drainFor(s *Session, employeeID string, quiet time.Duration) []Event {
	var out []Event
	for {
		select {
		case evt := <-s.Outbound():
			if evt.EmployeeID == employeeID {
				out = append(out, evt)
			}
		case <-time.After(quiet):
			return out
		}
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(evt Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) For(employeeID string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []Event
	for _, evt := range p.events {
		if evt.EmployeeID == employeeID {
			out = append(out, evt)
		}
	}
	return out
}

func presenceUpdates(events []Event, online bool) int {
	count := 0
	for _, evt := range events {
		if evt.Name != EventPresenceUpdate {
			continue
		}
		if evt.Data.(PresencePayload).IsOnline == online {
			count++
		}
	}
	return count
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}
