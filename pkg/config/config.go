package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Shopify      ShopifyConfig
	Planner      PlannerConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SUPPLYSYNC_APP_ENV" required:"true"`
	Port         string `envconfig:"SUPPLYSYNC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SUPPLYSYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SUPPLYSYNC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SUPPLYSYNC_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SUPPLYSYNC_DB_DSN"`
	Driver string `envconfig:"SUPPLYSYNC_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SUPPLYSYNC_DB_HOST"`
	Port     int    `envconfig:"SUPPLYSYNC_DB_PORT" default:"5432"`
	User     string `envconfig:"SUPPLYSYNC_DB_USER"`
	Password string `envconfig:"SUPPLYSYNC_DB_PASSWORD"`
	Name     string `envconfig:"SUPPLYSYNC_DB_NAME"`
	SSLMode  string `envconfig:"SUPPLYSYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SUPPLYSYNC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SUPPLYSYNC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SUPPLYSYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SUPPLYSYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:     db.Name,
		RawQuery: "sslmode=" + db.SSLMode,
	}
	db.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SUPPLYSYNC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SUPPLYSYNC_REDIS_ADDR"`
	Password     string        `envconfig:"SUPPLYSYNC_REDIS_PASSWORD"`
	DB           int           `envconfig:"SUPPLYSYNC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SUPPLYSYNC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SUPPLYSYNC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SUPPLYSYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SUPPLYSYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SUPPLYSYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SUPPLYSYNC_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SUPPLYSYNC_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SUPPLYSYNC_JWT_EXPIRATION_MINUTES" default:"60"`
}

// ShopifyConfig holds the credentials for the e-commerce platform boundary.
type ShopifyConfig struct {
	ShopDomain    string `envconfig:"SUPPLYSYNC_SHOPIFY_SHOP_DOMAIN"`
	WebhookSecret string `envconfig:"SUPPLYSYNC_SHOPIFY_WEBHOOK_SECRET" required:"true"`
}

type PlannerConfig struct {
	LockTTL          time.Duration `envconfig:"SUPPLYSYNC_PLANNER_LOCK_TTL" default:"10s"`
	LockWait         time.Duration `envconfig:"SUPPLYSYNC_PLANNER_LOCK_WAIT" default:"5s"`
	MaxPlanAttempts  int           `envconfig:"SUPPLYSYNC_PLANNER_MAX_PLAN_ATTEMPTS" default:"3"`
	WebhookDedupeTTL time.Duration `envconfig:"SUPPLYSYNC_PLANNER_WEBHOOK_DEDUPE_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SUPPLYSYNC_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SUPPLYSYNC_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SUPPLYSYNC_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SUPPLYSYNC_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SUPPLYSYNC_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PurchaseOrdersTopic        string `envconfig:"SUPPLYSYNC_PUBSUB_PURCHASE_ORDERS_TOPIC" required:"true"`
	PurchaseOrdersSubscription string `envconfig:"SUPPLYSYNC_PUBSUB_PURCHASE_ORDERS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SUPPLYSYNC_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SUPPLYSYNC_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SUPPLYSYNC_OUTBOX_MAX_ATTEMPTS" default:"10"`
}
