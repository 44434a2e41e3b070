package config

const (
	EnvPrefix = "PLATEBITE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PLATEBITE_DB_DSN"
	EnvDBHost = "PLATEBITE_DB_HOST"
	EnvDBUser = "PLATEBITE_DB_USER"
	EnvDBName = "PLATEBITE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
