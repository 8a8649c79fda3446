package config_test

import (
	"testing"
	"time"

	"price-pipeline/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-central-1")
	t.Setenv("WEBHOOK_URL", "https://hooks.example.com/services/T000/B000")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, config.StorageS3, cfg.StorageBackend)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, "NotifyEvent", cfg.TriggerEventName)
	assert.Equal(t, "USD", cfg.ExpectedCurrency)
	assert.Equal(t, "coffee_data.parquet", cfg.OutputFileName)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Empty(t, cfg.PushgatewayURL)
}

func TestLoadConfigRequiresWebhook(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-central-1")
	t.Setenv("WEBHOOK_URL", "")

	_, err := config.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEBHOOK_URL")
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BACKEND", "local")
	t.Setenv("LOCAL_STORAGE_DIR", "/tmp/objects")
	t.Setenv("TRIGGER_EVENT_NAME", "PutObject")
	t.Setenv("NOTIFY_TIMEOUT", "750ms")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, config.StorageLocal, cfg.StorageBackend)
	assert.Equal(t, "/tmp/objects", cfg.LocalStorageDir)
	assert.Equal(t, "PutObject", cfg.TriggerEventName)
	assert.Equal(t, 750*time.Millisecond, cfg.NotifyTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			StorageBackend:   config.StorageS3,
			NotifyTimeout:    time.Second,
			ExpectedCurrency: "USD",
			OutputFileName:   "out.parquet",
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.StorageBackend = "gcs"
	assert.ErrorContains(t, cfg.Validate(), "STORAGE_BACKEND")

	cfg = valid()
	cfg.NotifyTimeout = 0
	assert.ErrorContains(t, cfg.Validate(), "NOTIFY_TIMEOUT")

	cfg = valid()
	cfg.OutputFileName = " "
	assert.ErrorContains(t, cfg.Validate(), "OUTPUT_FILE_NAME")
}
