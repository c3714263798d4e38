package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ftai-trainer/internal/database"
	"ftai-trainer/internal/database/versions/migration_0"
	"ftai-trainer/internal/database/versions/migration_1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())
	return db
}

func TestRunLifecycle(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	run, err := database.CreateRun(ctx, db, "Fool the AI")
	require.NoError(t, err)
	assert.Equal(t, database.RunQueued, run.Status)

	require.NoError(t, database.UpdateRunStatus(ctx, db, run.Id, database.RunRunning))
	require.NoError(t, database.SetRunProject(ctx, db, run.Id, "project-1", 2))

	require.NoError(t, database.SaveUploadedImage(ctx, db, database.UploadedImage{RunId: run.Id, Filename: "dog---1.jpg", Tag: "dog", TagId: "t2", Status: "OK"}))
	require.NoError(t, database.SaveUploadedImage(ctx, db, database.UploadedImage{RunId: run.Id, Filename: "cat---1.jpg", Tag: "cat", TagId: "t1", Status: "OK"}))

	require.NoError(t, database.SetRunIteration(ctx, db, run.Id, "iteration-1"))
	require.NoError(t, database.UpdateRunStatus(ctx, db, run.Id, database.RunCompleted))
	require.NoError(t, database.MarkRunImagesProcessed(ctx, db, run.Id))

	got, err := database.GetRun(ctx, db, run.Id)
	require.NoError(t, err)
	assert.Equal(t, database.RunCompleted, got.Status)
	assert.Equal(t, "project-1", got.ProjectId.String)
	assert.Equal(t, "iteration-1", got.IterationId.String)
	assert.Equal(t, 2, got.TagCount)
	assert.Equal(t, 2, got.ImageCount)
	assert.True(t, got.ImagesProcessed)
	assert.True(t, got.CompletionTime.Valid)
	assert.Len(t, got.Images, 2)

	images, err := database.ListUploadedImages(ctx, db, run.Id)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "cat---1.jpg", images[0].Filename)
	assert.Equal(t, "dog---1.jpg", images[1].Filename)
}

func TestSaveRunError(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	run, err := database.CreateRun(ctx, db, "Fool the AI")
	require.NoError(t, err)

	database.SaveRunError(ctx, db, run.Id, errors.New("tag not found"))

	got, err := database.GetRun(ctx, db, run.Id)
	require.NoError(t, err)
	assert.Equal(t, database.RunFailed, got.Status)
	assert.Equal(t, "tag not found", got.Error.String)
	assert.True(t, got.CompletionTime.Valid)
}

func TestMigrationsRunSequentially(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, migration_0.Migration(db))
	assert.True(t, db.Migrator().HasTable(&database.TrainingRun{}))
	assert.False(t, db.Migrator().HasColumn(&database.TrainingRun{}, "images_processed"))

	require.NoError(t, migration_1.Migration(db))
	assert.True(t, db.Migrator().HasColumn(&database.TrainingRun{}, "images_processed"))

	require.NoError(t, migration_1.Rollback(db))
	assert.False(t, db.Migrator().HasColumn(&database.TrainingRun{}, "images_processed"))
}

func TestNewDatabaseSqliteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "runs.db")

	db, err := database.NewDatabase(path)
	require.NoError(t, err)

	_, err = database.CreateRun(context.Background(), db, "p")
	require.NoError(t, err)

	// reopening must not rerun migrations destructively
	db, err = database.NewDatabase(path)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&database.TrainingRun{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
