package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	ErrMissingTrainingKey = errors.New("TRAINING_KEY is not set")
	ErrInvalidConfig      = errors.New("invalid config")
)

const (
	AzureBackend = "azure"
	S3Backend    = "s3"
	LocalBackend = "local"
)

type Config struct {
	TrainingKey      string `env:"TRAINING_KEY,notEmpty,required"`
	TrainingEndpoint string `env:"TRAINING_ENDPOINT" envDefault:"https://southcentralus.api.cognitive.microsoft.com"`

	ProjectName        string `env:"PROJECT_NAME" envDefault:"Fool the AI"`
	ProjectDescription string `env:"PROJECT_DESCRIPTION" envDefault:"Gamification of image training data collection and model refinement"`
	ProjectDomainName  string `env:"PROJECT_DOMAIN_NAME" envDefault:"General (compact)"`

	ImageDir       string `env:"IMAGE_DIR" envDefault:"ftai_images"`
	LabelDelimiter string `env:"LABEL_DELIMITER" envDefault:"---"`

	StorageBackend     string `env:"STORAGE_BACKEND" envDefault:"azure"`
	ApprovedContainer  string `env:"APPROVED_CONTAINER" envDefault:"approved"`
	ProcessedContainer string `env:"PROCESSED_CONTAINER" envDefault:"processed"`
	MarkProcessed      bool   `env:"MARK_PROCESSED" envDefault:"false"`

	AzureConnectionString string `env:"AZURE_STORAGE_CONNECTION_STRING"`

	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`

	LocalStorageDir string `env:"LOCAL_STORAGE_DIR" envDefault:"./storage"`

	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	TrainingTimeout time.Duration `env:"TRAINING_TIMEOUT" envDefault:"0s"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"ftai-runs.db"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

// Load reads the config from the process environment. The training key is
// checked here so that a missing credential fails before any network call.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		if missingTrainingKey(err) {
			return nil, fmt.Errorf("error parsing config: %w", ErrMissingTrainingKey)
		}
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func missingTrainingKey(err error) bool {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return false
	}
	for _, e := range agg.Errors {
		var notSet env.VarIsNotSetError
		var empty env.EmptyVarError
		if errors.As(e, &notSet) && notSet.Key == "TRAINING_KEY" {
			return true
		}
		if errors.As(e, &empty) && empty.Key == "TRAINING_KEY" {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.TrainingKey) == "" {
		return ErrMissingTrainingKey
	}

	if c.LabelDelimiter == "" {
		return fmt.Errorf("%w: LABEL_DELIMITER must not be empty", ErrInvalidConfig)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: POLL_INTERVAL must be positive, got %v", ErrInvalidConfig, c.PollInterval)
	}

	switch c.StorageBackend {
	case AzureBackend:
		if c.AzureConnectionString == "" {
			return fmt.Errorf("%w: AZURE_STORAGE_CONNECTION_STRING is required for the azure storage backend", ErrInvalidConfig)
		}
	case S3Backend:
		if c.S3EndpointURL != "" && (c.S3AccessKeyID == "" || c.S3SecretAccessKey == "") {
			return fmt.Errorf("%w: S3_ENDPOINT_URL is set, but AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY are missing", ErrInvalidConfig)
		}
	case LocalBackend:
		if c.LocalStorageDir == "" {
			return fmt.Errorf("%w: LOCAL_STORAGE_DIR is required for the local storage backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.StorageBackend)
	}

	return nil
}
