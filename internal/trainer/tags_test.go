package trainer

import (
	"context"
	"testing"

	"ftai-trainer/internal/customvision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateTags(t *testing.T) {
	api := newFakeAPI()
	api.tags["p"] = []customvision.Tag{{Id: "existing-cat", Name: "cat"}, {Id: "unused", Name: "bird"}}

	files := []string{"cat---1.jpg", "cat---2.jpg", "dog---1.jpg", "nodelim.jpg"}
	tags, err := GetOrCreateTags(context.Background(), api, "p", files, "---")
	require.NoError(t, err)

	assert.Len(t, tags, 4)
	assert.Equal(t, "existing-cat", tags["cat"].Id)
	assert.Equal(t, "unused", tags["bird"].Id)
	assert.Contains(t, tags, "dog")
	assert.Contains(t, tags, "nodelim.jpg")
	assert.Equal(t, 2, api.createTagCalls)
}

func TestGetOrCreateTagsIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	ctx := context.Background()
	files := []string{"cat---1.jpg", "dog---1.jpg", "dog---2.jpg"}

	first, err := GetOrCreateTags(ctx, api, "p", files, "---")
	require.NoError(t, err)

	second, err := GetOrCreateTags(ctx, api, "p", files, "---")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, api.tags["p"], 2)
	assert.Equal(t, 2, api.createTagCalls)
}
