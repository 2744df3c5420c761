package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"

	"liyu1981.xyz/field-presence-service/pkg/auth"
	"liyu1981.xyz/field-presence-service/pkg/cache"
	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/db"
	"liyu1981.xyz/field-presence-service/pkg/geocode"
	presenceGrpc "liyu1981.xyz/field-presence-service/pkg/grpc"
	presenceHttp "liyu1981.xyz/field-presence-service/pkg/http"
	"liyu1981.xyz/field-presence-service/pkg/store"
	"liyu1981.xyz/field-presence-service/pkg/tracker"
	"liyu1981.xyz/field-presence-service/pkg/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using process environment")
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := common.GetLogger()
	defer common.SyncLogger()

	dialector, err := db.UseDialector(cfg.DBType, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	dbInstance := db.GetInstance(dialector)
	presenceStore := store.New(*dbInstance)

	var presenceBackend tracker.PresenceStore = presenceStore
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		presenceBackend = cache.NewPresenceMirror(presenceStore, redisClient, cfg.PresenceTimeout)
		logger.Info("Presence is mirrored to redis")
	}

	tokens := auth.NewService(cfg.JWTSecret, cfg.JWTExpiresIn, cfg.JWTRefreshExpiresIn)
	geocoder := geocode.NewGateway(cfg.GeocodeURL, cfg.GeocodeTimeout, cfg.GeocodeUserAgent)

	core := tracker.New(tracker.ServiceOpts{
		Verifier:  tokens,
		Directory: presenceStore,
		Presence:  presenceBackend,
		Locations: presenceStore,
		Geocoder:  geocoder,
	}, tracker.SettingsFromConfig(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		core.Sweeper.Run(ctx)
	}()

	limiterConfig := zap.String("default_limiter",
		fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", cfg.DefaultRate, cfg.DefaultBurst))

	var grpcServer *grpc.Server
	if cfg.GrpcHostPort != "" {
		grpcServer, _ = presenceGrpc.NewServer(&presenceGrpc.PresenceServer{
			Tracker:          core,
			Store:            presenceStore,
			RateLimiterStore: tracker.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst),
		})
		logger.Info("gRPC server created with:", limiterConfig)

		listener, err := net.Listen("tcp", cfg.GrpcHostPort)
		if err != nil {
			log.Fatalf("failed to listen: %v", err)
		}

		go func() {
			logger.Info("Starting gRPC server on " + cfg.GrpcHostPort)
			if err := grpcServer.Serve(listener); err != nil {
				logger.Error("grpc server failed to serve", zap.Error(err))
			}
		}()
	}

	if common.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rs := &presenceHttp.RestfulServer{
		Server:           gin.Default(),
		Tracker:          core,
		Store:            presenceStore,
		Tokens:           tokens,
		Ws:               ws.NewServer(core, cfg.AllowedOrigins),
		RateLimiterStore: tracker.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst),
	}
	rs.Setup()
	logger.Info("http server created with:", limiterConfig)

	srv := &http.Server{
		Addr:    cfg.HttpHostPort,
		Handler: rs.Server,
	}

	go func() {
		logger.Info("Starting HTTP server on: " + cfg.HttpHostPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed to serve: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	<-sweeperDone
	core.Shutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	logger.Info("Server exited")
}
