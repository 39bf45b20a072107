package config

const EnvPrefix = "RETAILPIPE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

const (
	EnvAppEnv   = "RETAILPIPE_APP_ENV"
	EnvLogLevel = "RETAILPIPE_LOG_LEVEL"

	EnvInputPath     = "RETAILPIPE_INPUT_PATH"
	EnvOutputDir     = "RETAILPIPE_OUTPUT_DIR"
	EnvCategoryTable = "RETAILPIPE_CATEGORY_TABLE_PATH"

	EnvCatalogTopN    = "RETAILPIPE_CATALOG_TOP_N"
	EnvCatalogTaxRate = "RETAILPIPE_CATALOG_TAX_RATE"
	EnvCatalogSeed    = "RETAILPIPE_CATALOG_SEED"

	EnvImageGenMaxAttempts    = "RETAILPIPE_IMAGEGEN_MAX_ATTEMPTS"
	EnvImageGenInitialBackoff = "RETAILPIPE_IMAGEGEN_INITIAL_BACKOFF"
	EnvImageGenRequestDelay   = "RETAILPIPE_IMAGEGEN_REQUEST_DELAY"
	EnvImageGenWidth          = "RETAILPIPE_IMAGEGEN_WIDTH"

	EnvS3Bucket = "RETAILPIPE_S3_BUCKET"
	EnvRedisURL = "RETAILPIPE_REDIS_URL"
	EnvDBDSN    = "RETAILPIPE_DB_DSN"
	EnvDBDriver = "RETAILPIPE_DB_DRIVER"

	EnvBigQueryProject = "RETAILPIPE_BIGQUERY_PROJECT_ID"
)
