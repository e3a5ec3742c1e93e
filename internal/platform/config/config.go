package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	BusNone      = "none"
	BusGoChannel = "gochannel"
	BusKafka     = "kafka"
)

// DefaultEnvFiles are read in order when present. Real environment variables
// always win over file values.
var DefaultEnvFiles = []string{".env", ".env.local"}

type DispatcherOptions struct {
	QueueSize       int           `env:"DISPATCH_QUEUE_SIZE" envDefault:"256"`
	Workers         int           `env:"DISPATCH_WORKERS" envDefault:"2"`
	MaxAttempts     int           `env:"DISPATCH_MAX_ATTEMPTS" envDefault:"3"`
	BaseBackoff     time.Duration `env:"DISPATCH_BASE_BACKOFF" envDefault:"200ms"`
	MaxBackoff      time.Duration `env:"DISPATCH_MAX_BACKOFF" envDefault:"5s"`
	DeliveryTimeout time.Duration `env:"DISPATCH_DELIVERY_TIMEOUT" envDefault:"10s"`
	DrainTimeout    time.Duration `env:"DISPATCH_DRAIN_TIMEOUT" envDefault:"10s"`
}

type SMTPOptions struct {
	Host     string   `env:"SMTP_HOST"`
	Port     int      `env:"SMTP_PORT" envDefault:"587"`
	Username string   `env:"SMTP_USERNAME"`
	Password string   `env:"SMTP_PASSWORD"`
	From     string   `env:"SMTP_FROM"`
	To       []string `env:"SMTP_TO" envSeparator:","`
}

func (o SMTPOptions) Enabled() bool {
	return strings.TrimSpace(o.Host) != "" && strings.TrimSpace(o.From) != "" && len(o.To) > 0
}

type TelegramOptions struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `env:"TELEGRAM_CHAT_ID"`
	APIURL   string `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
}

func (o TelegramOptions) Enabled() bool {
	return strings.TrimSpace(o.BotToken) != "" && strings.TrimSpace(o.ChatID) != ""
}

type TelemetryOptions struct {
	TracingEnabled bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTLPInsecure   bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	MetricsPath    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

type RateLimitOptions struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	// Rate uses the limiter "<limit>-<period>" notation, e.g. "20-S" or "600-M".
	Rate string `env:"RATE_LIMIT_COMMANDS" envDefault:"30-S"`
}

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"creativehub"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	StoreDriver    string        `env:"STORE_DRIVER" envDefault:"memory"`
	PostgresDSN    string        `env:"POSTGRES_DSN"`
	MigrateOnStart bool          `env:"MIGRATE_ON_START" envDefault:"false"`
	LockTimeout    time.Duration `env:"LOCK_TIMEOUT" envDefault:"3s"`

	BusDriver     string   `env:"BUS_DRIVER" envDefault:"none"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	ConsumerGroup string   `env:"NOTIFY_CONSUMER_GROUP" envDefault:"approval-workflow-notifications-cg"`

	RedisURL string        `env:"REDIS_URL"`
	DedupTTL time.Duration `env:"NOTIFY_DEDUP_TTL" envDefault:"168h"`

	Dispatcher DispatcherOptions
	SMTP       SMTPOptions
	Telegram   TelegramOptions
	Telemetry  TelemetryOptions
	RateLimit  RateLimitOptions
}

// LoadEnv loads whichever of the files exist and reports how many did.
func LoadEnv(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func Load() (Config, error) {
	if _, err := LoadEnv(DefaultEnvFiles); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.BusDriver = strings.ToLower(strings.TrimSpace(cfg.BusDriver))
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	cfg.SMTP.To = compact(cfg.SMTP.To)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMemory, StorePostgres, c.StoreDriver))
	}
	switch c.BusDriver {
	case BusNone, BusGoChannel:
	case BusKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when BUS_DRIVER=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("BUS_DRIVER must be one of none, gochannel, kafka, got %q", c.BusDriver))
	}
	if c.LockTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LOCK_TIMEOUT must be positive, got %s", c.LockTimeout))
	}
	if c.Dispatcher.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("DISPATCH_MAX_ATTEMPTS must be positive, got %d", c.Dispatcher.MaxAttempts))
	}
	if c.Dispatcher.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("DISPATCH_QUEUE_SIZE must be positive, got %d", c.Dispatcher.QueueSize))
	}
	return errors.Join(errs...)
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
