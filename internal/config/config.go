package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StorageS3    = "s3"
	StorageLocal = "local"
)

type Config struct {
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion         string `env:"AWS_REGION,notEmpty,required"`

	StorageBackend  string `env:"STORAGE_BACKEND" envDefault:"s3"`
	LocalStorageDir string `env:"LOCAL_STORAGE_DIR" envDefault:"./data"`

	// WebhookURL has no default on purpose: an unset hook must stop the run
	// instead of posting anomalies nowhere.
	WebhookURL    string        `env:"WEBHOOK_URL,notEmpty,required"`
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`

	TriggerEventName string `env:"TRIGGER_EVENT_NAME" envDefault:"NotifyEvent"`

	ExpectedCurrency string `env:"EXPECTED_CURRENCY" envDefault:"USD"`
	OutputFileName   string `env:"OUTPUT_FILE_NAME" envDefault:"coffee_data.parquet"`

	DatabaseURL    string `env:"DATABASE_URL"`
	RabbitMQURL    string `env:"RABBITMQ_URL"`
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.S3EndpointURL != "" && (cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "") {
		slog.Warn("S3_ENDPOINT_URL is set, but AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY are missing")
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageS3, StorageLocal:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q, expected %q or %q", c.StorageBackend, StorageS3, StorageLocal)
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive, got %s", c.NotifyTimeout)
	}
	if strings.TrimSpace(c.ExpectedCurrency) == "" {
		return fmt.Errorf("EXPECTED_CURRENCY must not be empty")
	}
	if strings.TrimSpace(c.OutputFileName) == "" {
		return fmt.Errorf("OUTPUT_FILE_NAME must not be empty")
	}
	return nil
}
