package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TrainingCompletedQueue = "training_completed_queue"
	RetryDelay             = 5 * time.Second
	MaxConnectRetry        = 5
)

type Task interface {
	Type() string

	Payload() []byte
}

type TrainingCompletedPayload struct {
	RunId       uuid.UUID
	ProjectId   string
	ProjectName string
	IterationId string
	ImageCount  int
	CompletedAt time.Time
}

type Publisher interface {
	PublishTrainingCompleted(ctx context.Context, payload TrainingCompletedPayload) error

	Close()
}
