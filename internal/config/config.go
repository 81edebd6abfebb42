package config

import (
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/classroom-points/pkg/logger"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every setting the binaries read. Nothing else in the module
// reads the environment directly.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=classroom_points"`
	AppDebug            bool   `env:"APP_DEBUG"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	HttpListenAddr         string `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpBaseRequestUrl     string `env:"HTTP_BASE_REQUEST_URI,default=/api"`
	HttpServerReadTimeout  int    `env:"HTTP_SERVER_READ_TIMEOUT,default=10"`
	HttpServerWriteTimeout int    `env:"HTTP_SERVER_WRITE_TIMEOUT,default=10"`
	HttpRequestTimeout     int    `env:"HTTP_REQUEST_TIMEOUT,default=15"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=points"`

	PromNamespace string `env:"PROM_NAMESPACE,default=classroom_points"`

	QueueName              string        `env:"QUEUE_NAME,default=purchase_events"`
	QueueConsumerGroup     string        `env:"QUEUE_CONSUMER_GROUP,default=notifiers"`
	QueueConsumerName      string        `env:"QUEUE_CONSUMER_NAME,default=notifier-1"`
	QueueMaxRetries        int           `env:"QUEUE_MAX_RETRIES,default=3"`
	QueueVisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT,default=30s"`
	QueuePollInterval      time.Duration `env:"QUEUE_POLL_INTERVAL,default=1s"`
	QueueBatchSize         int64         `env:"QUEUE_BATCH_SIZE,default=10"`
	QueueMaxLen            int64         `env:"QUEUE_MAX_LEN,default=100000"`
	QueueEnableDLQ         bool          `env:"QUEUE_ENABLE_DLQ,default=true"`

	ProcessorWorkers   int `env:"PROCESSOR_WORKERS,default=8"`
	ProcessorConsumers int `env:"PROCESSOR_CONSUMERS,default=2"`

	NotifierPrimaryUrl   string `env:"NOTIFIER_PRIMARY_URL"`
	NotifierSecondaryUrl string `env:"NOTIFIER_SECONDARY_URL"`
	NotifierTimeout      int    `env:"NOTIFIER_TIMEOUT,default=5"`

	// SuperAdmins is a comma separated list of password:name pairs.
	SuperAdmins      string `env:"SUPER_ADMINS"`
	DefaultClassName string `env:"DEFAULT_CLASS_NAME,default=Class A"`
}

type SuperAdmin struct {
	Password string
	Name     string
}

// ParseSuperAdmins reads the SUPER_ADMINS format. A pair without a name uses
// the password as display name; empty passwords are rejected.
func ParseSuperAdmins(raw string) ([]SuperAdmin, error) {
	var admins []SuperAdmin
	seen := map[string]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		password, name, _ := strings.Cut(part, ":")
		password = strings.TrimSpace(password)
		name = strings.TrimSpace(name)
		if password == "" {
			return nil, errors.Errorf("super admin entry %q has no password", part)
		}
		if _, dup := seen[password]; dup {
			return nil, errors.Errorf("super admin password %q listed twice", password)
		}
		seen[password] = struct{}{}
		if name == "" {
			name = password
		}
		admins = append(admins, SuperAdmin{Password: password, Name: name})
	}
	return admins, nil
}

func (c *Config) Admins() []SuperAdmin {
	admins, err := ParseSuperAdmins(c.SuperAdmins)
	if err != nil {
		logger.Warn("ignoring invalid SUPER_ADMINS", "error", err)
		return nil
	}
	return admins
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}
	if _, err := ParseSuperAdmins(c.SuperAdmins); err != nil {
		return errors.Wrap(err, "invalid SUPER_ADMINS")
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// Set replaces the loaded configuration.
func Set(c *Config) {
	config = c
}
