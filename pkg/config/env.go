package config

const (
	EnvPrefix = "AGENCYOPS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "AGENCYOPS_APP_ENV"
	EnvPort   = "AGENCYOPS_APP_PORT"

	EnvDBDSN  = "AGENCYOPS_DB_DSN"
	EnvDBHost = "AGENCYOPS_DB_HOST"
	EnvDBUser = "AGENCYOPS_DB_USER"
	EnvDBName = "AGENCYOPS_DB_NAME"

	EnvRedisURL            = "AGENCYOPS_REDIS_URL"
	EnvStripeWebhookSecret = "AGENCYOPS_STRIPE_WEBHOOK_SECRET"
	EnvResendAPIKey        = "AGENCYOPS_RESEND_API_KEY"
	EnvAdminEmail          = "AGENCYOPS_ADMIN_EMAIL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
