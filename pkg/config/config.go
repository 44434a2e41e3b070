package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	Fees     FeesConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Stripe   StripeConfig
	Outbox   OutboxConfig
	Eventing EventingConfig
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
	Env          string `envconfig:"PLATEBITE_APP_ENV" required:"true"`
	Port         string `envconfig:"PLATEBITE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PLATEBITE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PLATEBITE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PLATEBITE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PLATEBITE_DB_DSN"`
	Driver string `envconfig:"PLATEBITE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PLATEBITE_DB_HOST"`
	LegacyPort     int    `envconfig:"PLATEBITE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PLATEBITE_DB_USER"`
	LegacyPassword string `envconfig:"PLATEBITE_DB_PASSWORD"`
	LegacyName     string `envconfig:"PLATEBITE_DB_NAME"`
	LegacySSLMode  string `envconfig:"PLATEBITE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PLATEBITE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLATEBITE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLATEBITE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLATEBITE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"PLATEBITE_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PLATEBITE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PLATEBITE_REDIS_ADDR"`
	Password     string        `envconfig:"PLATEBITE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLATEBITE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLATEBITE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLATEBITE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLATEBITE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLATEBITE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLATEBITE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// FeesConfig carries the marketplace fee schedule. Rates are decimal strings
// so no float ever touches a monetary computation.
type FeesConfig struct {
	ServiceFeeRate         string `envconfig:"PLATEBITE_FEES_SERVICE_RATE" default:"0.05"`
	PlatformCommissionRate string `envconfig:"PLATEBITE_FEES_COMMISSION_RATE" default:"0.12"`
	ProcessorRate          string `envconfig:"PLATEBITE_FEES_PROCESSOR_RATE" default:"0.014"`
	ProcessorFixedPence    int64  `envconfig:"PLATEBITE_FEES_PROCESSOR_FIXED" default:"20"`
	DeliveryFlatPence      int64  `envconfig:"PLATEBITE_FEES_DELIVERY_FLAT" default:"250"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PLATEBITE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"PLATEBITE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PLATEBITE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"PLATEBITE_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription       string `envconfig:"PLATEBITE_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"PLATEBITE_PUBSUB_NOTIFICATION_TOPIC" default:"pb-notification-events"`
	NotificationSubscription string `envconfig:"PLATEBITE_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type StripeConfig struct {
	APIKey string `envconfig:"PLATEBITE_STRIPE_API_KEY"`
	Secret string `envconfig:"PLATEBITE_STRIPE_SECRET"`
	Env    string `envconfig:"PLATEBITE_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PLATEBITE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PLATEBITE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PLATEBITE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"PLATEBITE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
