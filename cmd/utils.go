package cmd

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"

	"ftai-trainer/internal/config"
	"ftai-trainer/internal/customvision"
	"ftai-trainer/internal/database"
	"ftai-trainer/internal/imagerepo"
	"ftai-trainer/internal/messaging"
	"ftai-trainer/internal/storage"
	"ftai-trainer/internal/trainer"

	"github.com/joho/godotenv"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// NewStorageProvider returns the object store selected by STORAGE_BACKEND.
func NewStorageProvider(cfg *config.Config) (storage.Provider, error) {
	switch cfg.StorageBackend {
	case config.AzureBackend:
		return storage.NewAzureBlobProvider(cfg.AzureConnectionString)
	case config.S3Backend:
		return storage.NewS3Provider(&storage.S3ProviderConfig{
			S3EndpointURL:     cfg.S3EndpointURL,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			S3Region:          cfg.S3Region,
		})
	case config.LocalBackend:
		return storage.NewLocalProvider(cfg.LocalStorageDir)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", config.ErrInvalidConfig, cfg.StorageBackend)
	}
}

// NewPublisher returns nil when RABBITMQ_URL is not set.
func NewPublisher(cfg *config.Config) (messaging.Publisher, error) {
	if cfg.RabbitMQURL == "" {
		slog.Info("RABBITMQ_URL not set, training notifications disabled")
		return nil, nil
	}
	return messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
}

// Setup loads the config from the environment and wires a training pipeline.
// Config is loaded first, so a missing TRAINING_KEY fails before any storage,
// database or network access. The returned func releases the publisher.
func Setup(progress io.Writer) (*trainer.Pipeline, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("error loading config: %w", err)
	}

	store, err := NewStorageProvider(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating %s storage provider: %w", cfg.StorageBackend, err)
	}

	client, err := customvision.NewClient(cfg.TrainingEndpoint, cfg.TrainingKey)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating training client: %w", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening run database: %w", err)
	}

	publisher, err := NewPublisher(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to rabbitmq: %w", err)
	}
	cleanup := func() {
		if publisher != nil {
			publisher.Close()
		}
	}

	pipeline := &trainer.Pipeline{
		Images:    imagerepo.New(store, cfg.ApprovedContainer, cfg.ProcessedContainer),
		API:       client,
		DB:        db,
		Publisher: publisher,
		Settings: trainer.Settings{
			ImageDir:           cfg.ImageDir,
			LabelDelimiter:     cfg.LabelDelimiter,
			ProjectName:        cfg.ProjectName,
			ProjectDescription: cfg.ProjectDescription,
			ProjectDomainName:  cfg.ProjectDomainName,
			PollInterval:       cfg.PollInterval,
			TrainingTimeout:    cfg.TrainingTimeout,
			MarkProcessed:      cfg.MarkProcessed,
			Progress:           progress,
		},
	}

	return pipeline, cleanup, nil
}
