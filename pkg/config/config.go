package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App      AppConfig
	Paths    PathsConfig
	Catalog  CatalogConfig
	ImageGen ImageGenConfig
	S3       S3Config
	Redis    RedisConfig
	DB       DBConfig
	BigQuery BigQueryConfig
	Metrics  MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Catalog.validate(); err != nil {
		return nil, err
	}
	if err := cfg.ImageGen.validate(); err != nil {
		return nil, err
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RETAILPIPE_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"RETAILPIPE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RETAILPIPE_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"RETAILPIPE_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type PathsConfig struct {
	InputPath         string `envconfig:"RETAILPIPE_INPUT_PATH" default:"datasets/uci-retail/Online Retail.xlsx"`
	OutputDir         string `envconfig:"RETAILPIPE_OUTPUT_DIR" default:"datasets/uci-retail"`
	ImageDirName      string `envconfig:"RETAILPIPE_IMAGE_DIR_NAME" default:"product_images"`
	CategoryTablePath string `envconfig:"RETAILPIPE_CATEGORY_TABLE_PATH"`
}

// ImageDir is the directory holding generated artifacts.
func (p PathsConfig) ImageDir() string {
	return filepath.Join(p.OutputDir, p.ImageDirName)
}

// Output resolves a file name inside the output directory.
func (p PathsConfig) Output(name string) string {
	return filepath.Join(p.OutputDir, name)
}

type CatalogConfig struct {
	TopN    int    `envconfig:"RETAILPIPE_CATALOG_TOP_N" default:"50"`
	TaxRate string `envconfig:"RETAILPIPE_CATALOG_TAX_RATE" default:"0.08"`
	Seed    int64  `envconfig:"RETAILPIPE_CATALOG_SEED" default:"0"`
}

// Tax returns the configured flat tax rate as a decimal.
func (c CatalogConfig) Tax() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (c CatalogConfig) validate() error {
	if c.TopN <= 0 {
		return fmt.Errorf("%s must be positive", EnvCatalogTopN)
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return fmt.Errorf("%s invalid: %w", EnvCatalogTaxRate, err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvCatalogTaxRate)
	}
	return nil
}

type ImageGenConfig struct {
	Region         string        `envconfig:"RETAILPIPE_IMAGEGEN_REGION" default:"us-east-1"`
	ModelID        string        `envconfig:"RETAILPIPE_IMAGEGEN_MODEL_ID" default:"amazon.nova-canvas-v1:0"`
	Width          int           `envconfig:"RETAILPIPE_IMAGEGEN_WIDTH" default:"512"`
	Height         int           `envconfig:"RETAILPIPE_IMAGEGEN_HEIGHT" default:"512"`
	GuidanceScale  float64       `envconfig:"RETAILPIPE_IMAGEGEN_GUIDANCE_SCALE" default:"8.0"`
	Seed           int64         `envconfig:"RETAILPIPE_IMAGEGEN_SEED" default:"0"`
	MaxAttempts    int           `envconfig:"RETAILPIPE_IMAGEGEN_MAX_ATTEMPTS" default:"5"`
	InitialBackoff time.Duration `envconfig:"RETAILPIPE_IMAGEGEN_INITIAL_BACKOFF" default:"1s"`
	RequestDelay   time.Duration `envconfig:"RETAILPIPE_IMAGEGEN_REQUEST_DELAY" default:"2500ms"`
	RequestJitter  time.Duration `envconfig:"RETAILPIPE_IMAGEGEN_REQUEST_JITTER" default:"500ms"`
	Resume         bool          `envconfig:"RETAILPIPE_IMAGEGEN_RESUME" default:"true"`
	ReadTimeout    time.Duration `envconfig:"RETAILPIPE_IMAGEGEN_READ_TIMEOUT" default:"5m"`
}

func (c ImageGenConfig) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("image dimensions must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%s must be positive", EnvImageGenMaxAttempts)
	}
	return nil
}

type S3Config struct {
	Bucket   string `envconfig:"RETAILPIPE_S3_BUCKET"`
	Prefix   string `envconfig:"RETAILPIPE_S3_PREFIX" default:"product_images/"`
	Endpoint string `envconfig:"RETAILPIPE_S3_ENDPOINT"`
}

// Enabled reports whether generated artifacts should be mirrored to S3.
func (s S3Config) Enabled() bool {
	return strings.TrimSpace(s.Bucket) != ""
}

type RedisConfig struct {
	URL          string        `envconfig:"RETAILPIPE_REDIS_URL"`
	Address      string        `envconfig:"RETAILPIPE_REDIS_ADDR"`
	Password     string        `envconfig:"RETAILPIPE_REDIS_PASSWORD"`
	DB           int           `envconfig:"RETAILPIPE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RETAILPIPE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RETAILPIPE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RETAILPIPE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RETAILPIPE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RETAILPIPE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type DBConfig struct {
	DSN    string `envconfig:"RETAILPIPE_DB_DSN"`
	Driver string `envconfig:"RETAILPIPE_DB_DRIVER" default:"sqlite"`

	MaxOpenConns    int           `envconfig:"RETAILPIPE_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"RETAILPIPE_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"RETAILPIPE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RETAILPIPE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// Enabled reports whether the SQL sink has a datasource.
func (db DBConfig) Enabled() bool {
	return strings.TrimSpace(db.DSN) != ""
}

func (db DBConfig) validate() error {
	switch strings.ToLower(db.Driver) {
	case DBDriverSQLite, DBDriverPostgres:
		return nil
	default:
		return fmt.Errorf("%s must be %s or %s, got %q", EnvDBDriver, DBDriverSQLite, DBDriverPostgres, db.Driver)
	}
}

type BigQueryConfig struct {
	ProjectID         string `envconfig:"RETAILPIPE_BIGQUERY_PROJECT_ID"`
	CredentialsFile   string `envconfig:"RETAILPIPE_BIGQUERY_CREDENTIALS_FILE"`
	Dataset           string `envconfig:"RETAILPIPE_BIGQUERY_DATASET" default:"retail"`
	ProductsTable     string `envconfig:"RETAILPIPE_BIGQUERY_PRODUCTS_TABLE" default:"products"`
	TransactionsTable string `envconfig:"RETAILPIPE_BIGQUERY_TRANSACTIONS_TABLE" default:"transactions"`
}

// Enabled reports whether the warehouse sink is configured.
func (b BigQueryConfig) Enabled() bool {
	return strings.TrimSpace(b.ProjectID) != ""
}

type MetricsConfig struct {
	TextfilePath string `envconfig:"RETAILPIPE_METRICS_TEXTFILE_PATH"`
}
