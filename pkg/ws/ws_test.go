package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"liyu1981.xyz/field-presence-service/pkg/auth"
	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/db"
	"liyu1981.xyz/field-presence-service/pkg/models"
	"liyu1981.xyz/field-presence-service/pkg/store"
	"liyu1981.xyz/field-presence-service/pkg/tracker"
	"liyu1981.xyz/field-presence-service/pkg/tracker/mocks"
	_ "liyu1981.xyz/field-presence-service/pkg/testing"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type testEnv struct {
	store   *store.Store
	tokens  *auth.Service
	tracker *tracker.Tracker
	url     string
}

func setupTestEnv(t *testing.T) *testEnv {
	common.SetTestLoggerNop()

	ctrl := gomock.NewController(t)
	geocoder := mocks.NewMockGeocoder(ctrl)
	geocoder.EXPECT().Lookup(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s := store.New(*db.GetInstance(db.UseMemorySqliteDialector()))
	tokens := auth.NewService("ws-test-secret", time.Hour, 24*time.Hour)
	tr := tracker.New(tracker.ServiceOpts{
		Verifier:  tokens,
		Directory: s,
		Presence:  s,
		Locations: s,
		Geocoder:  geocoder,
	}, tracker.Settings{
		PresenceTimeout: time.Minute,
		SweepInterval:   time.Minute,
		MaxClockSkew:    5 * time.Minute,
		SessionBuffer:   64,
		SnapshotLimit:   1000,
	})
	t.Cleanup(tr.Shutdown)

	server := NewServer(tr, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/manager", server.ServeManager)
	mux.HandleFunc("/ws/employee", server.ServeEmployee)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testEnv{
		store:   s,
		tokens:  tokens,
		tracker: tr,
		url:     "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
}

func (e *testEnv) employee(t *testing.T) (string, string) {
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, e.store.CreateEmployee(ctx, &models.Employee{ID: id, FullName: "Field " + id[:8], IsActive: true}))
	device, err := e.store.RegisterDevice(ctx, id, "android", "")
	require.NoError(t, err)
	pair, err := e.tokens.GenerateTokenPair(id, auth.RoleEmployee, device.ID)
	require.NoError(t, err)
	return id, pair.AccessToken
}

func (e *testEnv) manager(t *testing.T) string {
	manager := &models.Manager{FullName: "Ops Lead", Email: uuid.NewString() + "@example.com", IsActive: true}
	require.NoError(t, e.store.CreateManager(context.Background(), manager))
	pair, err := e.tokens.GenerateTokenPair(manager.ID, auth.RoleManager, "")
	require.NoError(t, err)
	return pair.AccessToken
}

func dialWithHeader(t *testing.T, url, token string) *websocket.Conn {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// readUntil skips frames until one with the wanted event name arrives.
func readUntil(t *testing.T, conn *websocket.Conn, event string) frame {
	t.Helper()
	for i := 0; i < 20; i++ {
		if f := readFrame(t, conn); f.Event == event {
			return f
		}
	}
	t.Fatalf("no %s frame", event)
	return frame{}
}

func TestManagerGetsInitialDataFirst(t *testing.T) {
	env := setupTestEnv(t)
	employeeID, _ := env.employee(t)

	conn := dialWithHeader(t, env.url+"/ws/manager", env.manager(t))

	first := readFrame(t, conn)
	require.Equal(t, "initialData", first.Event)

	var payload struct {
		Employees []models.EmployeeOverview `json:"employees"`
	}
	require.NoError(t, json.Unmarshal(first.Data, &payload))
	ids := common.Mapper(payload.Employees, func(e models.EmployeeOverview) string { return e.ID })
	assert.Contains(t, ids, employeeID)
}

func TestAdmissionFailuresRefuseUpgrade(t *testing.T) {
	env := setupTestEnv(t)
	_, employeeToken := env.employee(t)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"missing token", "/ws/manager", "", http.StatusUnauthorized},
		{"garbage token", "/ws/employee", "not-a-jwt", http.StatusUnauthorized},
		{"employee on manager endpoint", "/ws/manager", employeeToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := env.url + tt.path
			if tt.token != "" {
				url += "?token=" + tt.token
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
			if conn != nil {
				conn.Close()
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	managers, employees := env.tracker.Registry.Counts()
	assert.Zero(t, managers)
	assert.Zero(t, employees)
}

func TestEmployeeHeartbeatIsAcked(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.employee(t)

	conn, _, err := websocket.DefaultDialer.Dial(env.url+"/ws/employee?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"event": "heartbeat"}))

	ack := readUntil(t, conn, "heartbeatAck")
	var payload struct {
		Timestamp time.Time `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(ack.Data, &payload))
	assert.WithinDuration(t, time.Now(), payload.Timestamp, 5*time.Second)
}

func TestManagerSeesEmployeeComeOnline(t *testing.T) {
	env := setupTestEnv(t)
	employeeID, employeeToken := env.employee(t)

	manager := dialWithHeader(t, env.url+"/ws/manager", env.manager(t))
	require.Equal(t, "initialData", readFrame(t, manager).Event)

	employee := dialWithHeader(t, env.url+"/ws/employee", employeeToken)

	online := readUntil(t, manager, "presenceUpdate")
	var presence struct {
		EmployeeID string `json:"employeeId"`
		IsOnline   bool   `json:"isOnline"`
		Employee   struct {
			FullName string `json:"fullName"`
		} `json:"employee"`
	}
	require.NoError(t, json.Unmarshal(online.Data, &presence))
	assert.Equal(t, employeeID, presence.EmployeeID)
	assert.True(t, presence.IsOnline)
	assert.Equal(t, "Field "+employeeID[:8], presence.Employee.FullName)

	employee.Close()

	assert.Eventually(t, func() bool {
		return env.tracker.Registry.Connections(employeeID) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRequestEmployeeUpdate(t *testing.T) {
	env := setupTestEnv(t)
	employeeID, _ := env.employee(t)

	conn := dialWithHeader(t, env.url+"/ws/manager", env.manager(t))
	require.Equal(t, "initialData", readFrame(t, conn).Event)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"event": "requestEmployeeUpdate",
		"data":  map[string]string{"employeeId": employeeID},
	}))
	update := readUntil(t, conn, "employeeUpdate")
	var payload struct {
		EmployeeID string           `json:"employeeId"`
		Location   *models.Location `json:"location"`
	}
	require.NoError(t, json.Unmarshal(update.Data, &payload))
	assert.Equal(t, employeeID, payload.EmployeeID)
	assert.Nil(t, payload.Location)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"event": "requestEmployeeUpdate",
		"data":  map[string]string{"employeeId": uuid.NewString()},
	}))
	missing := readUntil(t, conn, "error")
	assert.JSONEq(t, `{"message":"Employee not found"}`, string(missing.Data))
}

func TestUnsupportedEventsGetAnError(t *testing.T) {
	env := setupTestEnv(t)

	conn := dialWithHeader(t, env.url+"/ws/manager", env.manager(t))
	require.Equal(t, "initialData", readFrame(t, conn).Event)

	// heartbeats belong to the employee channel
	require.NoError(t, conn.WriteJSON(map[string]string{"event": "heartbeat"}))
	reply := readFrame(t, conn)
	assert.Equal(t, "error", reply.Event)
	assert.Contains(t, string(reply.Data), "Unsupported event")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{nope")))
	reply = readFrame(t, conn)
	assert.Equal(t, "error", reply.Event)
	assert.JSONEq(t, `{"message":"Malformed message"}`, string(reply.Data))
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://ops.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ws/manager", nil)
	assert.True(t, check(req), "no origin header")

	req.Header.Set("Origin", "https://ops.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	assert.True(t, originChecker(nil)(req))
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws/employee?token=query-token", nil)
	assert.Equal(t, "query-token", TokenFromRequest(req))

	req.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "Bearer header-token", TokenFromRequest(req))
}
