package trainer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"ftai-trainer/internal/customvision"
	"ftai-trainer/internal/database"
	"ftai-trainer/internal/messaging"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Settings are the per-run knobs of a Pipeline, usually taken from config.
type Settings struct {
	ImageDir           string
	LabelDelimiter     string
	ProjectName        string
	ProjectDescription string
	ProjectDomainName  string
	PollInterval       time.Duration
	TrainingTimeout    time.Duration
	MarkProcessed      bool
	Progress           io.Writer
}

// Pipeline runs the steps of a training run in order. DB and Publisher are
// optional.
type Pipeline struct {
	Images    ImageSource
	API       TrainingAPI
	DB        *gorm.DB
	Publisher messaging.Publisher
	Settings  Settings
}

// Result holds what a run produced. On failure it keeps whatever was
// reached before the error.
type Result struct {
	RunId     uuid.UUID
	Project   *customvision.Project
	Iteration *customvision.Iteration
	Tags      map[string]customvision.Tag
	Images    []UploadedImage
}

// Run syncs the images, reconciles the project and its tags, uploads, trains
// and promotes the new iteration. The run is recorded in DB when set.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	if p.DB != nil {
		run, err := database.CreateRun(ctx, p.DB, p.Settings.ProjectName)
		if err != nil {
			return nil, err
		}
		result.RunId = run.Id
		if err := database.UpdateRunStatus(ctx, p.DB, run.Id, database.RunRunning); err != nil {
			return nil, err
		}
	}

	if err := p.run(ctx, result); err != nil {
		if p.DB != nil {
			// the run context may already be cancelled
			database.SaveRunError(context.WithoutCancel(ctx), p.DB, result.RunId, err)
		}
		return result, err
	}

	if p.DB != nil {
		if err := database.UpdateRunStatus(ctx, p.DB, result.RunId, database.RunCompleted); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (p *Pipeline) run(ctx context.Context, result *Result) error {
	s := p.Settings
	logger := slog.With("run_id", result.RunId, "project", s.ProjectName)

	files, err := p.Images.DownloadImages(ctx, s.ImageDir)
	if err != nil {
		return fmt.Errorf("error syncing images: %w", err)
	}
	logger.Info("local image dir ready", "dir", s.ImageDir, "images", len(files))

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}

	project, err := GetOrCreateProject(ctx, p.API, s.ProjectName, s.ProjectDescription, s.ProjectDomainName)
	if err != nil {
		return fmt.Errorf("error getting project: %w", err)
	}
	result.Project = project

	tags, err := GetOrCreateTags(ctx, p.API, project.Id, names, s.LabelDelimiter)
	if err != nil {
		return fmt.Errorf("error reconciling tags: %w", err)
	}
	result.Tags = tags

	if p.DB != nil {
		if err := database.SetRunProject(ctx, p.DB, result.RunId, project.Id, len(tags)); err != nil {
			return err
		}
	}

	uploaded, err := UploadTaggedImages(ctx, p.API, project.Id, tags, s.ImageDir, s.LabelDelimiter, s.Progress)
	result.Images = uploaded
	if p.DB != nil {
		for _, img := range uploaded {
			if err := database.SaveUploadedImage(ctx, p.DB, database.UploadedImage{
				RunId:    result.RunId,
				Filename: img.Filename,
				Tag:      img.Tag,
				TagId:    img.TagId,
				Status:   img.Status,
			}); err != nil {
				return err
			}
		}
	}
	if err != nil {
		return fmt.Errorf("error uploading images: %w", err)
	}

	iteration, err := TrainModel(ctx, p.API, project.Id, TrainOptions{
		PollInterval: s.PollInterval,
		Timeout:      s.TrainingTimeout,
	})
	if err != nil {
		return fmt.Errorf("error training project %s: %w", project.Id, err)
	}
	result.Iteration = iteration

	if p.DB != nil {
		if err := database.SetRunIteration(ctx, p.DB, result.RunId, iteration.Id); err != nil {
			return err
		}
	}

	if s.MarkProcessed {
		if err := p.Images.Processed(ctx, s.ImageDir); err != nil {
			return fmt.Errorf("error marking images processed: %w", err)
		}
		if p.DB != nil {
			if err := database.MarkRunImagesProcessed(ctx, p.DB, result.RunId); err != nil {
				return err
			}
		}
	}

	if p.Publisher != nil {
		if err := p.Publisher.PublishTrainingCompleted(ctx, messaging.TrainingCompletedPayload{
			RunId:       result.RunId,
			ProjectId:   project.Id,
			ProjectName: project.Name,
			IterationId: iteration.Id,
			ImageCount:  len(uploaded),
			CompletedAt: time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("error publishing training completed: %w", err)
		}
	}

	logger.Info("training run complete", "iteration_id", iteration.Id, "images", len(uploaded))

	return nil
}
