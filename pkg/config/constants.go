package config

const (
	// EnvPrefix namespaces every environment variable the app reads.
	EnvPrefix = "SUPPLYSYNC"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SUPPLYSYNC_DB_DSN"
	EnvDBHost = "SUPPLYSYNC_DB_HOST"
	EnvDBUser = "SUPPLYSYNC_DB_USER"
	EnvDBName = "SUPPLYSYNC_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
