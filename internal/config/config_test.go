package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setLocalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TRAINING_KEY", "secret")
	t.Setenv("STORAGE_BACKEND", LocalBackend)
}

func TestLoadDefaults(t *testing.T) {
	setLocalEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.TrainingKey)
	assert.Equal(t, "Fool the AI", cfg.ProjectName)
	assert.Equal(t, "General (compact)", cfg.ProjectDomainName)
	assert.Equal(t, "ftai_images", cfg.ImageDir)
	assert.Equal(t, "---", cfg.LabelDelimiter)
	assert.Equal(t, "approved", cfg.ApprovedContainer)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.TrainingTimeout)
	assert.False(t, cfg.MarkProcessed)
}

func TestLoadMissingTrainingKey(t *testing.T) {
	setLocalEnv(t)
	require.NoError(t, os.Unsetenv("TRAINING_KEY"))

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTrainingKey)
}

func TestLoadEmptyTrainingKey(t *testing.T) {
	setLocalEnv(t)
	t.Setenv("TRAINING_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTrainingKey)
}

func TestValidate(t *testing.T) {
	valid := Config{
		TrainingKey:     "secret",
		LabelDelimiter:  "---",
		PollInterval:    time.Second,
		StorageBackend:  LocalBackend,
		LocalStorageDir: "./storage",
	}
	require.NoError(t, valid.Validate())

	azure := valid
	azure.StorageBackend = AzureBackend
	assert.ErrorIs(t, azure.Validate(), ErrInvalidConfig)

	s3 := valid
	s3.StorageBackend = S3Backend
	s3.S3EndpointURL = "http://localhost:9000"
	assert.ErrorIs(t, s3.Validate(), ErrInvalidConfig)
	s3.S3AccessKeyID, s3.S3SecretAccessKey = "minio", "minio123"
	assert.NoError(t, s3.Validate())

	unknown := valid
	unknown.StorageBackend = "ftp"
	assert.ErrorIs(t, unknown.Validate(), ErrInvalidConfig)

	noDelim := valid
	noDelim.LabelDelimiter = ""
	assert.ErrorIs(t, noDelim.Validate(), ErrInvalidConfig)

	badInterval := valid
	badInterval.PollInterval = 0
	assert.ErrorIs(t, badInterval.Validate(), ErrInvalidConfig)

	blankKey := valid
	blankKey.TrainingKey = "   "
	assert.ErrorIs(t, blankKey.Validate(), ErrMissingTrainingKey)
}
