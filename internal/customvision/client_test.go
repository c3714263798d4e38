package customvision_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"ftai-trainer/internal/customvision"
	"ftai-trainer/internal/customvision/cvtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T, statuses ...string) (*customvision.Client, *cvtest.Server) {
	t.Helper()
	server := cvtest.NewServer(statuses...)
	t.Cleanup(server.Close)

	client, err := customvision.NewClient(server.URL, cvtest.TrainingKey)
	require.NoError(t, err)
	return client, server
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := customvision.NewClient("http://localhost", "")
	assert.ErrorIs(t, err, customvision.ErrMissingTrainingKey)

	_, err = customvision.NewClient("http://localhost", "  ")
	assert.ErrorIs(t, err, customvision.ErrMissingTrainingKey)
}

func TestInvalidKey(t *testing.T) {
	server := cvtest.NewServer()
	defer server.Close()

	client, err := customvision.NewClient(server.URL, "wrong")
	require.NoError(t, err)

	_, err = client.GetProjects(context.Background())
	require.Error(t, err)

	var apiErr *customvision.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Unauthorized", apiErr.Code)
}

func TestProjectsAndDomains(t *testing.T) {
	client, server := setupClient(t)
	ctx := context.Background()

	domains, err := client.GetDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, "General (compact)", domains[1].Name)

	projects, err := client.GetProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	project, err := client.CreateProject(ctx, "Fool the AI", "desc", domains[1].Id)
	require.NoError(t, err)
	assert.NotEmpty(t, project.Id)
	assert.Equal(t, "Fool the AI", project.Name)
	assert.Equal(t, "desc", project.Description)
	assert.Equal(t, domains[1].Id, project.Settings.DomainId)

	projects, err = client.GetProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, project.Id, projects[0].Id)
	assert.Len(t, server.Projects(), 1)
}

func TestTagsAndImages(t *testing.T) {
	client, server := setupClient(t)
	ctx := context.Background()

	project, err := client.CreateProject(ctx, "p", "", "")
	require.NoError(t, err)

	tag, err := client.CreateTag(ctx, project.Id, "cat")
	require.NoError(t, err)
	assert.Equal(t, "cat", tag.Name)

	_, err = client.CreateTag(ctx, project.Id, "cat")
	var apiErr *customvision.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "BadRequestTagNameNotUnique", apiErr.Code)

	summary, err := client.CreateImagesFromData(ctx, project.Id, "cat---1.jpg", strings.NewReader("jpeg bytes"), []string{tag.Id})
	require.NoError(t, err)
	assert.True(t, summary.IsBatchSuccessful)
	require.Len(t, summary.Images, 1)
	assert.Equal(t, "OK", summary.Images[0].Status)

	images := server.Images(project.Id)
	require.Len(t, images, 1)
	assert.Equal(t, "cat---1.jpg", images[0].Filename)
	assert.Equal(t, "jpeg bytes", string(images[0].Data))
	assert.Equal(t, []string{tag.Id}, images[0].TagIds)

	tags, err := client.GetTags(ctx, project.Id)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, 1, tags[0].ImageCount)

	_, err = client.CreateImagesFromData(ctx, project.Id, "dog---1.jpg", strings.NewReader("x"), []string{"missing"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestTrainAndPromote(t *testing.T) {
	client, server := setupClient(t, "Training", "Completed")
	ctx := context.Background()

	project, err := client.CreateProject(ctx, "p", "", "")
	require.NoError(t, err)
	tag, err := client.CreateTag(ctx, project.Id, "cat")
	require.NoError(t, err)
	_, err = client.CreateImagesFromData(ctx, project.Id, "cat---1.jpg", strings.NewReader("x"), []string{tag.Id})
	require.NoError(t, err)

	iteration, err := client.TrainProject(ctx, project.Id)
	require.NoError(t, err)
	assert.Equal(t, "Training", iteration.Status)

	_, err = client.UpdateIteration(ctx, project.Id, iteration.Id, true)
	assert.Error(t, err, "an iteration that is still training cannot become default")

	iteration, err = client.GetIteration(ctx, project.Id, iteration.Id)
	require.NoError(t, err)
	assert.Equal(t, customvision.IterationCompleted, iteration.Status)

	updated, err := client.UpdateIteration(ctx, project.Id, iteration.Id, true)
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)

	defaults := server.DefaultIterations(project.Id)
	require.Len(t, defaults, 1)
	assert.Equal(t, iteration.Id, defaults[0].Id)

	_, err = client.GetIteration(ctx, project.Id, "missing")
	var apiErr *customvision.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
