package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DebugModeEnv is the environment variable for debug mode.
	DebugModeEnv = "DEBUG_MODE"

	// DatabaseURLEnv is the environment variable for a full database connection string.
	// When set it takes precedence over the individual DB_* variables.
	DatabaseURLEnv = "DATABASE_URL"

	// DBHostEnv is the environment variable for database host.
	DBHostEnv = "DB_HOST"

	// DBPortEnv is the environment variable for database port.
	DBPortEnv = "DB_PORT"

	// DBUserEnv is the environment variable for database user.
	DBUserEnv = "DB_USER"

	// DBPassEnv is the environment variable for database password.
	DBPassEnv = "DB_PASS"

	// DBNameEnv is the environment variable for database name.
	DBNameEnv = "DB_NAME"

	// DBSSLModeEnv is the environment variable for the postgres sslmode.
	DBSSLModeEnv = "DB_SSLMODE"

	// DBAutoMigrateEnv enables applying the embedded migrations at startup.
	DBAutoMigrateEnv = "DB_AUTO_MIGRATE"

	// HTTPServerPortEnv is the environment variable for HTTP server port.
	HTTPServerPortEnv = "HTTP_SERVER_PORT"

	// APIBasePathEnv is the environment variable for the path prefix of the product API.
	APIBasePathEnv = "API_BASE_PATH"

	// CORSAllowedOriginsEnv is the environment variable for the comma separated list of allowed client origins.
	CORSAllowedOriginsEnv = "CORS_ALLOWED_ORIGINS"

	// MetricsServerPortEnv is the environment variable for metrics server port.
	MetricsServerPortEnv = "METRICS_SERVER_PORT"

	// EnvFilePath is the environment variable for .env file path (only for local/test environment).
	EnvFilePath = "ENV_PATH"

	// DefaultEnvFilePath is the default path to the .env file.
	DefaultEnvFilePath = ".env"

	// EventsBrokerEnv selects where product change events are published: "", "sqs" or "rabbitmq".
	EventsBrokerEnv = "EVENTS_BROKER"

	// AWSRegionEnv is the environment variable for AWS region.
	AWSRegionEnv = "AWS_REGION"

	// AWSEndpointEnv is the environment variable for AWS endpoint.
	AWSEndpointEnv = "AWS_ENDPOINT"

	// SQSQueueURLEnv is the environment variable for SQS queue URL.
	SQSQueueURLEnv = "SQS_QUEUE_URL"

	// RabbitMQURLEnv is the environment variable for the AMQP connection URL.
	RabbitMQURLEnv = "RABBITMQ_URL"

	// RabbitMQQueueEnv is the environment variable for the RabbitMQ queue name.
	RabbitMQQueueEnv = "RABBITMQ_QUEUE"
)

const (
	// BrokerNone disables event publishing.
	BrokerNone = ""
	// BrokerSQS publishes product events to AWS SQS.
	BrokerSQS = "sqs"
	// BrokerRabbitMQ publishes product events to RabbitMQ.
	BrokerRabbitMQ = "rabbitmq"
)

const (
	defaultHTTPPort       = "5000"
	defaultMetricsPort    = "9090"
	defaultBasePath       = "/api"
	defaultAllowedOrigins = "http://localhost:3000"
	defaultSSLMode        = "disable"
	defaultRabbitMQQueue  = "product_events"
)

var (
	// ErrMissingConfig is returned when required configuration values are missing.
	ErrMissingConfig = errors.New("missing config data")

	// ErrUnknownBroker is returned when EVENTS_BROKER holds an unsupported value.
	ErrUnknownBroker = errors.New("unknown events broker")
)

// Config represents the application configuration.
type Config struct {
	DebugMode     bool
	Database      DB
	HTTPServer    HTTPServer
	MetricsServer Server
	EventsBroker  string
	AWS           AWSConfig
	RabbitMQ      RabbitMQConfig
}

// AWSConfig represents AWS-specific configuration settings.
type AWSConfig struct {
	Region      string
	Endpoint    string
	SQSQueueURL string
}

// RabbitMQConfig represents RabbitMQ connection settings.
type RabbitMQConfig struct {
	URL   string
	Queue string
}

// DB represents database configuration settings.
type DB struct {
	URL         string
	Host        string
	User        string
	Password    string
	Name        string
	Port        string
	SSLMode     string
	AutoMigrate bool
}

// DSN returns the connection string understood by the pgx stdlib driver.
func (d DB) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	dsnTmp := "host=%s user=%s password=%s dbname=%s port=%s sslmode=%s"
	return fmt.Sprintf(dsnTmp, d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

// Server represents server configuration settings.
type Server struct {
	Port string
}

// HTTPServer represents the public API server settings.
type HTTPServer struct {
	Port           string
	BasePath       string
	AllowedOrigins []string
}

func allNonEmpty(keyValues map[string]string) error {
	for key, value := range keyValues {
		if value == "" {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("error", "value is empty"))
			return fmt.Errorf("%w for key: %s", ErrMissingConfig, key)
		}
	}
	return nil
}

func allNumbers(keyValues map[string]string) error {
	for key, value := range keyValues {
		_, err := strconv.Atoi(value)
		if err != nil {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("value", value), slog.String("error", err.Error()))
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := validatePorts(map[string]string{
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return err
	}

	if len(c.HTTPServer.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS configuration incomplete: %w for key: %s", ErrMissingConfig, CORSAllowedOriginsEnv)
	}

	return c.validateBroker()
}

func validatePorts(ports map[string]string) error {
	if err := allNonEmpty(ports); err != nil {
		return fmt.Errorf("server port configuration incomplete: %w", err)
	}
	if err := allNumbers(ports); err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			return fmt.Errorf("invalid database URL: %w", err)
		}
		return nil
	}

	if err := allNonEmpty(map[string]string{
		DBHostEnv: c.Database.Host,
		DBUserEnv: c.Database.User,
		DBNameEnv: c.Database.Name,
	}); err != nil {
		return fmt.Errorf("database configuration incomplete: %w", err)
	}

	if err := allNumbers(map[string]string{
		DBPortEnv: c.Database.Port,
	}); err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}
	return nil
}

func (c *Config) validateBroker() error {
	switch c.EventsBroker {
	case BrokerNone:
		return nil
	case BrokerSQS:
		if err := allNonEmpty(map[string]string{
			SQSQueueURLEnv: c.AWS.SQSQueueURL,
		}); err != nil {
			return fmt.Errorf("AWS configuration incomplete: %w", err)
		}
	case BrokerRabbitMQ:
		if err := allNonEmpty(map[string]string{
			RabbitMQURLEnv:   c.RabbitMQ.URL,
			RabbitMQQueueEnv: c.RabbitMQ.Queue,
		}); err != nil {
			return fmt.Errorf("RabbitMQ configuration incomplete: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBroker, c.EventsBroker)
	}
	return nil
}

func getEnv(name, defaultValue string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(os.Getenv(name)); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsList(name, defaultValue string) []string {
	var items []string
	for _, item := range strings.Split(getEnv(name, defaultValue), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ApplyEnvFile loads environment variables from the specified .env files.
func ApplyEnvFile(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func load() *Config {
	envPath := os.Getenv(EnvFilePath)
	if envPath == "" {
		envPath = DefaultEnvFilePath
	}
	err := ApplyEnvFile(envPath)
	if err != nil {
		// just log the error, maybe all envs are set in another way
		slog.Info("failed to load from .env", slog.Any("err", err))
	}

	return &Config{
		DebugMode: getEnvAsBool(DebugModeEnv, false),
		Database: DB{
			URL:         os.Getenv(DatabaseURLEnv),
			Host:        os.Getenv(DBHostEnv),
			User:        os.Getenv(DBUserEnv),
			Password:    os.Getenv(DBPassEnv),
			Name:        os.Getenv(DBNameEnv),
			Port:        getEnv(DBPortEnv, "5432"),
			SSLMode:     getEnv(DBSSLModeEnv, defaultSSLMode),
			AutoMigrate: getEnvAsBool(DBAutoMigrateEnv, false),
		},
		HTTPServer: HTTPServer{
			Port:           getEnv(HTTPServerPortEnv, defaultHTTPPort),
			BasePath:       getEnv(APIBasePathEnv, defaultBasePath),
			AllowedOrigins: getEnvAsList(CORSAllowedOriginsEnv, defaultAllowedOrigins),
		},
		MetricsServer: Server{
			Port: getEnv(MetricsServerPortEnv, defaultMetricsPort),
		},
		EventsBroker: strings.ToLower(strings.TrimSpace(os.Getenv(EventsBrokerEnv))),
		AWS: AWSConfig{
			Region:      os.Getenv(AWSRegionEnv),
			Endpoint:    os.Getenv(AWSEndpointEnv),
			SQSQueueURL: os.Getenv(SQSQueueURLEnv),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   os.Getenv(RabbitMQURLEnv),
			Queue: getEnv(RabbitMQQueueEnv, defaultRabbitMQQueue),
		},
	}
}

// LoadFromEnv loads the product service configuration from environment variables and validates it.
func LoadFromEnv() (*Config, error) {
	conf := load()
	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return conf, nil
}

// LoadNotifierFromEnv loads the configuration of the notification service.
// Only the broker settings are validated and a broker must be selected.
func LoadNotifierFromEnv() (*Config, error) {
	conf := load()
	if conf.EventsBroker == BrokerNone {
		return nil, fmt.Errorf("configuration validation failed: %w for key: %s", ErrMissingConfig, EventsBrokerEnv)
	}
	if err := validatePorts(map[string]string{MetricsServerPortEnv: conf.MetricsServer.Port}); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := conf.validateBroker(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return conf, nil
}
