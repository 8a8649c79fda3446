package cmd

import (
	"log"
	"log/slog"

	"price-pipeline/internal/config"
	"price-pipeline/internal/database"
	"price-pipeline/internal/messaging"
	"price-pipeline/internal/storage"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
)

// LoadEnvFile loads a dotenv file into the process environment. Values already
// set in the environment win.
func LoadEnvFile(path string) {
	if path == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", path)
	if err := godotenv.Load(path); err != nil {
		log.Fatalf("error loading .env file '%s': %v", path, err)
	}
}

func CreateObjectStore(cfg *config.Config, client *s3.Client) storage.ObjectStore {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		store, err := storage.NewLocalObjectStore(cfg.LocalStorageDir)
		if err != nil {
			log.Fatalf("Failed to create local object store: %v", err)
		}
		slog.Info("using local object store", "dir", cfg.LocalStorageDir)
		return store
	default:
		return storage.NewS3ObjectStore(client)
	}
}

// CreateLedger returns nil when no database is configured.
func CreateLedger(cfg *config.Config) *database.Ledger {
	if cfg.DatabaseURL == "" {
		slog.Info("DATABASE_URL not set, run ledger disabled")
		return nil
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		slog.Warn("run ledger unavailable, continuing without it", "error", err)
		return nil
	}
	return database.NewLedger(db)
}

// CreatePublisher returns nil when no broker is configured or reachable.
func CreatePublisher(cfg *config.Config) messaging.Publisher {
	if cfg.RabbitMQURL == "" {
		slog.Info("RABBITMQ_URL not set, artifact events disabled")
		return nil
	}

	publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
	if err != nil {
		slog.Warn("rabbitmq unavailable, continuing without artifact events", "error", err)
		return nil
	}
	return publisher
}
