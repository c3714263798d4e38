package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func CreateRun(ctx context.Context, txn *gorm.DB, projectName string) (*TrainingRun, error) {
	run := TrainingRun{
		Id:           uuid.New(),
		ProjectName:  projectName,
		Status:       RunQueued,
		CreationTime: time.Now().UTC(),
	}
	if err := txn.WithContext(ctx).Create(&run).Error; err != nil {
		slog.Error("error creating training run", "project", projectName, "error", err)
		return nil, fmt.Errorf("error creating training run: %w", err)
	}
	return &run, nil
}

func GetRun(ctx context.Context, txn *gorm.DB, runId uuid.UUID) (*TrainingRun, error) {
	var run TrainingRun
	if err := txn.WithContext(ctx).Preload("Images").First(&run, "id = ?", runId).Error; err != nil {
		return nil, fmt.Errorf("error getting training run %s: %w", runId, err)
	}
	return &run, nil
}

func UpdateRunStatus(ctx context.Context, txn *gorm.DB, runId uuid.UUID, status string) error {
	updates := map[string]any{"status": status}
	if status == RunCompleted || status == RunFailed {
		updates["completion_time"] = time.Now().UTC()
	}

	if err := txn.WithContext(ctx).Model(&TrainingRun{Id: runId}).Updates(updates).Error; err != nil {
		slog.Error("error updating run status", "run_id", runId, "status", status, "error", err)
		return err
	}
	return nil
}

func SetRunProject(ctx context.Context, txn *gorm.DB, runId uuid.UUID, projectId string, tagCount int) error {
	updates := map[string]any{
		"project_id": sql.NullString{String: projectId, Valid: true},
		"tag_count":  tagCount,
	}
	if err := txn.WithContext(ctx).Model(&TrainingRun{Id: runId}).Updates(updates).Error; err != nil {
		return fmt.Errorf("error setting project for run %s: %w", runId, err)
	}
	return nil
}

func SetRunIteration(ctx context.Context, txn *gorm.DB, runId uuid.UUID, iterationId string) error {
	update := sql.NullString{String: iterationId, Valid: true}
	if err := txn.WithContext(ctx).Model(&TrainingRun{Id: runId}).Update("iteration_id", update).Error; err != nil {
		return fmt.Errorf("error setting iteration for run %s: %w", runId, err)
	}
	return nil
}

func SaveUploadedImage(ctx context.Context, txn *gorm.DB, image UploadedImage) error {
	return txn.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Create(&image).Error; err != nil {
			return fmt.Errorf("error saving uploaded image %s: %w", image.Filename, err)
		}
		if err := txn.Model(&TrainingRun{Id: image.RunId}).
			Update("image_count", gorm.Expr("image_count + ?", 1)).Error; err != nil {
			return fmt.Errorf("error updating image count for run %s: %w", image.RunId, err)
		}
		return nil
	})
}

func ListUploadedImages(ctx context.Context, txn *gorm.DB, runId uuid.UUID) ([]UploadedImage, error) {
	var images []UploadedImage
	if err := txn.WithContext(ctx).Where("run_id = ?", runId).Order("filename").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("error listing images for run %s: %w", runId, err)
	}
	return images, nil
}

func MarkRunImagesProcessed(ctx context.Context, txn *gorm.DB, runId uuid.UUID) error {
	if err := txn.WithContext(ctx).Model(&TrainingRun{Id: runId}).Update("images_processed", true).Error; err != nil {
		return fmt.Errorf("error marking images processed for run %s: %w", runId, err)
	}
	return nil
}

// SaveRunError marks the run failed and keeps the error message.
func SaveRunError(ctx context.Context, txn *gorm.DB, runId uuid.UUID, runErr error) {
	updates := map[string]any{
		"status":          RunFailed,
		"error":           sql.NullString{String: runErr.Error(), Valid: true},
		"completion_time": time.Now().UTC(),
	}
	if err := txn.WithContext(ctx).Model(&TrainingRun{Id: runId}).Updates(updates).Error; err != nil {
		slog.Error("error saving run error", "run_id", runId, "error", err)
	}
}
