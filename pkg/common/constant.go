package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyAppDBType   string = "APP_DB_TYPE"
	EnvKeyAppDbPath   string = "APP_DB_PATH"
	EnvKeyDatabaseURL string = "DATABASE_URL"

	EnvKeyAppHttpHostPort string = "APP_HTTP_HOST_PORT"
	EnvKeyAppGrpcHostPort string = "APP_GRPC_HOST_PORT"

	EnvKeyAppDefaultRate  string = "APP_DEFAULT_RATE"
	EnvKeyAppDefaultBurst string = "APP_DEFAULT_BURST"

	EnvKeyPresenceTimeoutMs string = "PRESENCE_TIMEOUT_MS"
	EnvKeySweepIntervalMs   string = "SWEEP_INTERVAL_MS"
	EnvKeyMaxClockSkewMs    string = "MAX_CLOCK_SKEW_MS"
	EnvKeySessionBuffer     string = "SESSION_BUFFER"
	EnvKeySnapshotLimit     string = "SNAPSHOT_LIMIT"

	EnvKeyNominatimApiURL  string = "NOMINATIM_API_URL"
	EnvKeyGeocodeTimeoutMs string = "GEOCODE_TIMEOUT_MS"
	EnvKeyGeocodeUserAgent string = "GEOCODE_USER_AGENT"

	EnvKeyJwtSecret           string = "JWT_SECRET"
	EnvKeyJwtExpiresIn        string = "JWT_EXPIRES_IN"
	EnvKeyJwtRefreshExpiresIn string = "JWT_REFRESH_EXPIRES_IN"

	EnvKeyRedisURL       string = "REDIS_URL"
	EnvKeyAllowedOrigins string = "ALLOWED_ORIGINS"

	LoggerNameTracker       string = "tracker"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameWsServer      string = "ws_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerNameGeocode       string = "geocode"
	LoggerNameStore         string = "store"
	LoggerNamePresenceCache string = "presence_cache"

	LoggerFieldCategory     string = "category"
	LoggerCategoryPresence  string = "presence"
	LoggerCategoryIngest    string = "ingest"
	LoggerCategoryRegistry  string = "registry"
	LoggerCategoryBroadcast string = "broadcast"
	LoggerCategorySweep     string = "sweep"
)
