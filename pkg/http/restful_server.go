package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"liyu1981.xyz/field-presence-service/pkg/auth"
	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/store"
	"liyu1981.xyz/field-presence-service/pkg/tracker"
	"liyu1981.xyz/field-presence-service/pkg/ws"
)

type RestfulServer struct {
	Server           *gin.Engine
	Tracker          *tracker.Tracker
	Store            *store.Store
	Tokens           *auth.Service
	Ws               *ws.Server
	RateLimiterStore *tracker.RateLimiterStore
}

func getLogger() *zap.Logger {
	return common.GetLoggerWith(common.LoggerNameRestfulServer)
}

func (rs *RestfulServer) GetLimiter(deviceID string) *rate.Limiter {
	if rs.RateLimiterStore == nil {
		return nil
	} else {
		return rs.RateLimiterStore.GetLimiter(deviceID)
	}
}

func (rs *RestfulServer) CheckDeviceLimiter(deviceID string) bool {
	limiter := rs.GetLimiter(deviceID)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

func (rs *RestfulServer) SetLimiter(deviceID string, deviceRate float64, deviceBurst int) {
	if rs.RateLimiterStore == nil {
		return
	}
	rs.RateLimiterStore.SetLimiter(deviceID, rate.Limit(deviceRate), deviceBurst)
}

func (rs *RestfulServer) Setup() {
	rs.Server.GET("/healthz", rs.HealthCheck)

	if rs.Ws != nil {
		rs.Server.GET("/ws/manager", gin.WrapF(rs.Ws.ServeManager))
		rs.Server.GET("/ws/employee", gin.WrapF(rs.Ws.ServeEmployee))
	}

	authGroup := rs.Server.Group("/api/auth")
	{
		authGroup.POST("/device", rs.RegisterDevice)
		authGroup.POST("/refresh", rs.RefreshToken)
		authGroup.GET("/me", rs.RequireRole(auth.RoleManager, auth.RoleEmployee), rs.Me)
	}

	location := rs.Server.Group("/api/location", rs.RequireRole(auth.RoleEmployee), rs.LimitDevice())
	{
		location.POST("", rs.PostLocation)
		location.POST("/device-status", rs.PostDeviceStatus)
		location.POST("/heartbeat", rs.PostHeartbeat)
		location.GET("/history", rs.GetMyLocationHistory)
	}

	employees := rs.Server.Group("/api/employees", rs.RequireRole(auth.RoleManager))
	{
		employees.GET("", rs.ListEmployees)
		employees.POST("", rs.CreateEmployee)
		employees.GET("/:employee_id", rs.GetEmployee)
		employees.GET("/:employee_id/presence", rs.GetEmployeePresence)
		employees.GET("/:employee_id/location/latest", rs.GetLatestLocation)
		employees.GET("/:employee_id/location/history", rs.GetEmployeeLocationHistory)
	}

	devices := rs.Server.Group("/api/devices/:device_id", rs.RequireRole(auth.RoleManager))
	{
		devices.POST("/limiter", rs.PostLimiter)
		devices.POST("/deactivate", rs.DeactivateDevice)
	}
}
