package config

const EnvPrefix = "DISTRO"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "DISTRO_APP_ENV"
	EnvPort   = "DISTRO_APP_PORT"

	EnvDBDSN  = "DISTRO_DB_DSN"
	EnvDBHost = "DISTRO_DB_HOST"
	EnvDBUser = "DISTRO_DB_USER"
	EnvDBName = "DISTRO_DB_NAME"

	EnvRedisURL = "DISTRO_REDIS_URL"

	EnvJWTSecret = "DISTRO_JWT_SECRET"
	EnvJWTIssuer = "DISTRO_JWT_ISSUER"

	EnvLedgerMaxAttempts    = "DISTRO_LEDGER_TRANSFER_MAX_ATTEMPTS"
	EnvLedgerPaymentEpsilon = "DISTRO_LEDGER_PAYMENT_EPSILON"

	EnvPubSubLedgerTopic = "DISTRO_PUBSUB_LEDGER_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
