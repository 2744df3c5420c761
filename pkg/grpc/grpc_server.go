package grpc

import (
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/store"
	"liyu1981.xyz/field-presence-service/pkg/tracker"
)

type PresenceServer struct {
	Tracker          *tracker.Tracker
	Store            *store.Store
	RateLimiterStore *tracker.RateLimiterStore
}

func getLogger() *zap.Logger {
	return common.GetLoggerWith(common.LoggerNameGrpcServer)
}

func (p *PresenceServer) GetLimiter(managerID string) *rate.Limiter {
	if p.RateLimiterStore == nil {
		return nil
	} else {
		return p.RateLimiterStore.GetLimiter(managerID)
	}
}

func (p *PresenceServer) CheckManagerLimiter(managerID string) bool {
	limiter := p.GetLimiter(managerID)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

// NewServer builds a grpc server with the presence query service and the
// standard health service. Health checks skip authentication.
func NewServer(p *PresenceServer, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.UnaryInterceptor(p.CreateAuthInterceptor([]string{
		healthpb.Health_Check_FullMethodName,
	})))
	server := grpc.NewServer(opts...)

	RegisterPresenceQueryServer(server, p)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return server, healthServer
}
