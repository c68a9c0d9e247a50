package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "FARMCONNECT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv        = "FARMCONNECT_APP_ENV"
	EnvPort          = "FARMCONNECT_APP_PORT"
	EnvDBDSN         = "FARMCONNECT_DB_DSN"
	EnvDBHost        = "FARMCONNECT_DB_HOST"
	EnvDBUser        = "FARMCONNECT_DB_USER"
	EnvDBPassword    = "FARMCONNECT_DB_PASSWORD"
	EnvDBName        = "FARMCONNECT_DB_NAME"
	EnvMongoURI      = "FARMCONNECT_MONGO_URI"
	EnvRedisURL      = "FARMCONNECT_REDIS_URL"
	EnvJWTSecret     = "FARMCONNECT_JWT_SECRET"
	EnvJWTIssuer     = "FARMCONNECT_JWT_ISSUER"
	EnvCartTTL       = "FARMCONNECT_CART_TTL"
	EnvCartKeepAlive = "FARMCONNECT_CART_KEEP_ALIVE_THRESHOLD"
	EnvSMTPHost      = "FARMCONNECT_SMTP_HOST"
	EnvSMTPFrom      = "FARMCONNECT_SMTP_FROM"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
