package config

// EnvPrefix namespaces every environment variable read by envconfig.
const EnvPrefix = "KHETIHAL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "KHETIHAL_DB_DSN"
	EnvDBHost = "KHETIHAL_DB_HOST"
	EnvDBUser = "KHETIHAL_DB_USER"
	EnvDBName = "KHETIHAL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
