package trainer

import (
	"context"
	"log/slog"

	"ftai-trainer/internal/customvision"
)

// GetOrCreateTags maps every label found in filenames to a remote tag, reusing
// tags that already exist in the project.
func GetOrCreateTags(ctx context.Context, api TrainingAPI, projectId string, filenames []string, delim string) (map[string]customvision.Tag, error) {
	existing, err := api.GetTags(ctx, projectId)
	if err != nil {
		return nil, err
	}

	tags := make(map[string]customvision.Tag, len(existing))
	for _, t := range existing {
		tags[t.Name] = t
	}

	for _, filename := range filenames {
		name := LabelFromFilename(filename, delim)
		if _, ok := tags[name]; ok {
			continue
		}

		tag, err := api.CreateTag(ctx, projectId, name)
		if err != nil {
			return nil, err
		}
		slog.Info("created tag", "tag", name, "tag_id", tag.Id)
		tags[name] = *tag
	}

	return tags, nil
}
