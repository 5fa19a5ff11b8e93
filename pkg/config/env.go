package config

// EnvPrefix is passed to envconfig; every field carries an explicit tag so the
// prefix only matters for untagged additions.
const EnvPrefix = "shelfline"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "SHELFLINE_APP_ENV"
	EnvPort                   = "SHELFLINE_APP_PORT"
	EnvDBDSN                  = "SHELFLINE_DB_DSN"
	EnvDBHost                 = "SHELFLINE_DB_HOST"
	EnvDBUser                 = "SHELFLINE_DB_USER"
	EnvDBName                 = "SHELFLINE_DB_NAME"
	EnvRedisURL               = "SHELFLINE_REDIS_URL"
	EnvJWTSecret              = "SHELFLINE_JWT_SECRET"
	EnvJWTIssuer              = "SHELFLINE_JWT_ISSUER"
	EnvJWTExpMins             = "SHELFLINE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SHELFLINE_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
