package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(EnvKeyAppDBType, "")
	t.Setenv(EnvKeyPresenceTimeoutMs, "")
	t.Setenv(EnvKeySweepIntervalMs, "")
	t.Setenv(EnvKeyJwtSecret, "")
	t.Setenv(EnvKeyGoEnv, "development")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.DBType)
	assert.Equal(t, 120*time.Second, cfg.PresenceTimeout)
	assert.Equal(t, 120*time.Second, cfg.SweepInterval)
	assert.Equal(t, 5*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTRefreshExpiresIn)
	assert.Equal(t, 256, cfg.SessionBuffer)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv(EnvKeyPresenceTimeoutMs, "30000")
	t.Setenv(EnvKeySweepIntervalMs, "5000")
	t.Setenv(EnvKeyAllowedOrigins, "http://localhost:3000, http://localhost:5173")
	t.Setenv(EnvKeyJwtExpiresIn, "1h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.PresenceTimeout)
	assert.Equal(t, 5*time.Second, cfg.SweepInterval)
	assert.Equal(t, time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		EnvKeyPresenceTimeoutMs:   "two minutes",
		EnvKeyAppDBType:           "mongo",
		EnvKeyJwtRefreshExpiresIn: "7d",
		EnvKeySweepIntervalMs:     "0",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigPostgresNeedsURL(t *testing.T) {
	t.Setenv(EnvKeyAppDBType, "postgres")
	t.Setenv(EnvKeyDatabaseURL, "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigProductionNeedsSecret(t *testing.T) {
	t.Setenv(EnvKeyGoEnv, "production")
	t.Setenv(EnvKeyJwtSecret, "")

	_, err := LoadConfig()
	assert.Error(t, err)
}
