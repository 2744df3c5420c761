package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DBType       string
	DBPath       string
	DatabaseURL  string
	HttpHostPort string
	GrpcHostPort string

	PresenceTimeout time.Duration
	SweepInterval   time.Duration
	MaxClockSkew    time.Duration
	SessionBuffer   int
	SnapshotLimit   int

	GeocodeURL       string
	GeocodeTimeout   time.Duration
	GeocodeUserAgent string

	JWTSecret           string
	JWTExpiresIn        time.Duration
	JWTRefreshExpiresIn time.Duration

	DefaultRate  float64
	DefaultBurst int

	RedisURL       string
	AllowedOrigins []string
}

// LoadConfig reads the process environment. Callers wanting .env support load it
// with godotenv first.
func LoadConfig() (*Config, error) {
	var err error
	cfg := &Config{
		DBType:           getEnv(EnvKeyAppDBType, "file"),
		DBPath:           getEnv(EnvKeyAppDbPath, "presence.db"),
		DatabaseURL:      getEnv(EnvKeyDatabaseURL, ""),
		HttpHostPort:     strings.TrimSpace(getEnv(EnvKeyAppHttpHostPort, ":4000")),
		GrpcHostPort:     strings.TrimSpace(getEnv(EnvKeyAppGrpcHostPort, "")),
		GeocodeURL:       getEnv(EnvKeyNominatimApiURL, "https://nominatim.openstreetmap.org"),
		GeocodeUserAgent: getEnv(EnvKeyGeocodeUserAgent, "field-presence-service/1.0"),
		JWTSecret:        getEnv(EnvKeyJwtSecret, ""),
		RedisURL:         getEnv(EnvKeyRedisURL, ""),
		AllowedOrigins:   splitList(getEnv(EnvKeyAllowedOrigins, "")),
	}

	if cfg.PresenceTimeout, err = getEnvMillis(EnvKeyPresenceTimeoutMs, 120000); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getEnvMillis(EnvKeySweepIntervalMs, 120000); err != nil {
		return nil, err
	}
	if cfg.MaxClockSkew, err = getEnvMillis(EnvKeyMaxClockSkewMs, 300000); err != nil {
		return nil, err
	}
	if cfg.GeocodeTimeout, err = getEnvMillis(EnvKeyGeocodeTimeoutMs, 5000); err != nil {
		return nil, err
	}
	if cfg.SessionBuffer, err = getEnvInt(EnvKeySessionBuffer, 256); err != nil {
		return nil, err
	}
	if cfg.SnapshotLimit, err = getEnvInt(EnvKeySnapshotLimit, 0); err != nil {
		return nil, err
	}
	if cfg.DefaultBurst, err = getEnvInt(EnvKeyAppDefaultBurst, 10); err != nil {
		return nil, err
	}
	if cfg.DefaultRate, err = strconv.ParseFloat(getEnv(EnvKeyAppDefaultRate, "5"), 64); err != nil {
		return nil, fmt.Errorf("invalid %s, should be a float64 value: %w", EnvKeyAppDefaultRate, err)
	}
	if cfg.JWTExpiresIn, err = time.ParseDuration(getEnv(EnvKeyJwtExpiresIn, "24h")); err != nil {
		return nil, fmt.Errorf("invalid %s, should be a duration like 24h: %w", EnvKeyJwtExpiresIn, err)
	}
	if cfg.JWTRefreshExpiresIn, err = time.ParseDuration(getEnv(EnvKeyJwtRefreshExpiresIn, "168h")); err != nil {
		return nil, fmt.Errorf("invalid %s, should be a duration like 168h: %w", EnvKeyJwtRefreshExpiresIn, err)
	}

	switch cfg.DBType {
	case "file", "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("%s is required when %s=postgres", EnvKeyDatabaseURL, EnvKeyAppDBType)
		}
	default:
		return nil, fmt.Errorf("unknown %s: %s", EnvKeyAppDBType, cfg.DBType)
	}

	if cfg.JWTSecret == "" {
		if IsProduction() {
			return nil, fmt.Errorf("%s must be set in production", EnvKeyJwtSecret)
		}
		cfg.JWTSecret = "development-secret-change-me"
	}

	if cfg.PresenceTimeout <= 0 || cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("presence timeout and sweep interval must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, found := os.LookupEnv(key); found && strings.TrimSpace(value) != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s, should be an int value: %w", key, err)
	}
	return v, nil
}

func getEnvMillis(key string, defaultMs int) (time.Duration, error) {
	ms, err := getEnvInt(key, defaultMs)
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		return 0, fmt.Errorf("invalid %s, should not be negative", key)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
