package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/field-presence-service/pkg/auth"
	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/db"
	"liyu1981.xyz/field-presence-service/pkg/models"
	"liyu1981.xyz/field-presence-service/pkg/store"
	"liyu1981.xyz/field-presence-service/pkg/tracker"
	_ "liyu1981.xyz/field-presence-service/pkg/testing"

	"liyu1981.xyz/field-presence-service/pkg/tracker/mocks"
)

const bufSize = 1024 * 1024

type testEnv struct {
	conn   *grpc.ClientConn
	client *PresenceQueryClient
	server *PresenceServer
	tokens *auth.Service
}

func startTestServer(t *testing.T, limiterStore *tracker.RateLimiterStore) *testEnv {
	common.SetTestLoggerNop()

	listener := bufconn.Listen(bufSize)

	ctrl := gomock.NewController(t)
	s := store.New(*db.GetInstance(db.UseMemorySqliteDialector()))
	tokens := auth.NewService("grpc-test-secret", time.Hour, 24*time.Hour)
	tr := tracker.New(tracker.ServiceOpts{
		Verifier:  tokens,
		Directory: s,
		Presence:  s,
		Locations: s,
		Geocoder:  mocks.NewMockGeocoder(ctrl),
	}, tracker.Settings{
		PresenceTimeout: time.Minute,
		SweepInterval:   time.Minute,
		MaxClockSkew:    5 * time.Minute,
		SessionBuffer:   16,
		SnapshotLimit:   0,
	})
	t.Cleanup(tr.Shutdown)

	presenceServer := &PresenceServer{Tracker: tr, Store: s, RateLimiterStore: limiterStore}
	server, _ := NewServer(presenceServer)

	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, s string) (net.Conn, error) {
			return listener.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testEnv{
		conn:   conn,
		client: NewPresenceQueryClient(conn),
		server: presenceServer,
		tokens: tokens,
	}
}

func (e *testEnv) managerContext(t *testing.T) (context.Context, string) {
	manager := &models.Manager{FullName: "Night Shift", Email: uuid.NewString() + "@example.com", IsActive: true}
	require.NoError(t, e.server.Store.CreateManager(context.Background(), manager))
	pair, err := e.tokens.GenerateTokenPair(manager.ID, auth.RoleManager, "")
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+pair.AccessToken), manager.ID
}

func (e *testEnv) onlineEmployee(t *testing.T) string {
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, e.server.Store.CreateEmployee(ctx, &models.Employee{ID: id, FullName: "Rita Route", IsActive: true}))
	_, err := e.server.Tracker.Presence.OnConnect(ctx, id)
	require.NoError(t, err)
	return id
}

func TestGetPresence(t *testing.T) {
	env := startTestServer(t, nil)
	ctx, _ := env.managerContext(t)
	employeeID := env.onlineEmployee(t)

	resp, err := env.client.GetPresence(ctx, wrapperspb.String(employeeID))
	require.NoError(t, err)

	fields := resp.AsMap()
	assert.Equal(t, employeeID, fields["employeeId"])
	assert.Equal(t, true, fields["isOnline"])
	assert.Equal(t, "Rita Route", fields["fullName"])
	assert.NotNil(t, fields["lastSeenAt"])
	assert.Equal(t, float64(0), fields["connections"])
}

func TestGetPresenceEdgeCases(t *testing.T) {
	env := startTestServer(t, nil)
	ctx, _ := env.managerContext(t)

	_, err := env.client.GetPresence(ctx, wrapperspb.String("  "))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = env.client.GetPresence(ctx, wrapperspb.String(uuid.NewString()))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestListOnline(t *testing.T) {
	env := startTestServer(t, nil)
	ctx, _ := env.managerContext(t)
	employeeID := env.onlineEmployee(t)

	resp, err := env.client.ListOnline(ctx, &emptypb.Empty{})
	require.NoError(t, err)

	employees, ok := resp.AsMap()["employees"].([]any)
	require.True(t, ok)

	ids := common.Mapper(employees, func(e any) any { return e.(map[string]any)["employeeId"] })
	assert.Contains(t, ids, employeeID)
}

func TestGetStats(t *testing.T) {
	env := startTestServer(t, nil)
	ctx, _ := env.managerContext(t)

	resp, err := env.client.GetStats(ctx, &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, float64(0), resp.AsMap()["managerSessions"])
}

func TestAuthInterceptor(t *testing.T) {
	env := startTestServer(t, nil)

	{
		_, err := env.client.ListOnline(context.Background(), &emptypb.Empty{})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	}

	{
		employeeID := env.onlineEmployee(t)
		pair, err := env.tokens.GenerateTokenPair(employeeID, auth.RoleEmployee, uuid.NewString())
		require.NoError(t, err)
		ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+pair.AccessToken)

		_, err = env.client.ListOnline(ctx, &emptypb.Empty{})
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	}

	{
		ctx, managerID := env.managerContext(t)
		require.NoError(t, env.server.Store.SetManagerActive(context.Background(), managerID, false))

		_, err := env.client.ListOnline(ctx, &emptypb.Empty{})
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	}

	{
		// health checks need no token
		resp, err := healthpb.NewHealthClient(env.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
	}
}

func TestRateLimitInterceptor(t *testing.T) {
	limiterStore := tracker.NewRateLimiterStore(2, 2) // Allow 2 req/sec per manager
	env := startTestServer(t, limiterStore)
	ctx, managerID := env.managerContext(t)

	// First 2 requests should pass
	for i := range 2 {
		_, err := env.client.GetStats(ctx, &emptypb.Empty{})
		require.NoError(t, err, "expected request %d to pass", i+1)
	}

	// 3rd request should fail immediately
	_, err := env.client.GetStats(ctx, &emptypb.Empty{})
	require.Error(t, err, "expected third request to be rate limited")
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	// other managers have their own bucket
	other, _ := env.managerContext(t)
	_, err = env.client.GetStats(other, &emptypb.Empty{})
	require.NoError(t, err)

	assert.NotNil(t, limiterStore.GetLimiter(managerID))
}
