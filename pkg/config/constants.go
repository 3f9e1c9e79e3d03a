package config

// EnvPrefix scopes envconfig processing; individual fields carry explicit
// SHOPLINK_ names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "SHOPLINK_APP_ENV"
	EnvPort       = "SHOPLINK_APP_PORT"
	EnvDBDSN      = "SHOPLINK_DB_DSN"
	EnvDBHost     = "SHOPLINK_DB_HOST"
	EnvDBUser     = "SHOPLINK_DB_USER"
	EnvDBName     = "SHOPLINK_DB_NAME"
	EnvRedisURL   = "SHOPLINK_REDIS_URL"
	EnvJWTSecret  = "SHOPLINK_JWT_SECRET"
	EnvJWTIssuer  = "SHOPLINK_JWT_ISSUER"
	EnvJWTExpMins = "SHOPLINK_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
