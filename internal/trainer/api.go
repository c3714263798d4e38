// Package trainer runs the labeled-image training pipeline against a remote
// training service.
package trainer

import (
	"context"
	"errors"
	"io"

	"ftai-trainer/internal/customvision"
)

var (
	ErrDomainNotFound = errors.New("domain not found")
	ErrTagNotFound    = errors.New("tag not found")
)

// TrainingAPI is the subset of the training service used by the pipeline.
type TrainingAPI interface {
	GetDomains(ctx context.Context) ([]customvision.Domain, error)

	GetProjects(ctx context.Context) ([]customvision.Project, error)

	CreateProject(ctx context.Context, name, description, domainId string) (*customvision.Project, error)

	GetTags(ctx context.Context, projectId string) ([]customvision.Tag, error)

	CreateTag(ctx context.Context, projectId, name string) (*customvision.Tag, error)

	CreateImagesFromData(ctx context.Context, projectId, filename string, data io.Reader, tagIds []string) (*customvision.ImageCreateSummary, error)

	TrainProject(ctx context.Context, projectId string) (*customvision.Iteration, error)

	GetIteration(ctx context.Context, projectId, iterationId string) (*customvision.Iteration, error)

	UpdateIteration(ctx context.Context, projectId, iterationId string, isDefault bool) (*customvision.Iteration, error)
}

var _ TrainingAPI = (*customvision.Client)(nil)

// ImageSource provides the labeled images for a run.
type ImageSource interface {
	DownloadImages(ctx context.Context, dir string) ([]string, error)

	Processed(ctx context.Context, dir string) error
}
