package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ftai-trainer/internal/customvision"
)

const DefaultPollInterval = time.Second

type TrainOptions struct {
	PollInterval time.Duration
	// Timeout bounds the wait for the iteration to complete. Zero waits until
	// ctx is cancelled.
	Timeout time.Duration
	// OnStatus is called with every status seen before completion.
	OnStatus func(status string)
}

// TrainModel starts a training iteration, waits for it to complete and makes
// it the project's default iteration.
func TrainModel(ctx context.Context, api TrainingAPI, projectId string, opts TrainOptions) (*customvision.Iteration, error) {
	slog.Info("training...", "project_id", projectId)

	iteration, err := api.TrainProject(ctx, projectId)
	if err != nil {
		return nil, err
	}

	iteration, err = WaitForIteration(ctx, api, projectId, iteration, opts)
	if err != nil {
		return nil, err
	}

	updated, err := api.UpdateIteration(ctx, projectId, iteration.Id, true)
	if err != nil {
		return nil, err
	}
	slog.Info("done!", "iteration_id", updated.Id, "default", updated.IsDefault)

	return updated, nil
}

// WaitForIteration polls until the iteration status is Completed.
func WaitForIteration(ctx context.Context, api TrainingAPI, projectId string, iteration *customvision.Iteration, opts TrainOptions) (*customvision.Iteration, error) {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for iteration.Status != customvision.IterationCompleted {
		slog.Info("training status", "status", iteration.Status, "iteration_id", iteration.Id)
		if opts.OnStatus != nil {
			opts.OnStatus(iteration.Status)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("stopped waiting for iteration %s in status %q: %w", iteration.Id, iteration.Status, ctx.Err())
		case <-ticker.C:
		}

		next, err := api.GetIteration(ctx, projectId, iteration.Id)
		if err != nil {
			return nil, err
		}
		iteration = next
	}

	return iteration, nil
}
