package trainer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"ftai-trainer/internal/customvision"
	"ftai-trainer/internal/imagerepo"

	"github.com/schollz/progressbar/v3"
)

type UploadedImage struct {
	Filename string
	Tag      string
	TagId    string
	Status   string
}

// UploadTaggedImages uploads every file in dir, one request per image, bound
// to the tag derived from its name.
func UploadTaggedImages(ctx context.Context, api TrainingAPI, projectId string, tags map[string]customvision.Tag, dir, delim string, progress io.Writer) ([]UploadedImage, error) {
	names, err := imagerepo.ListImages(dir)
	if err != nil {
		return nil, err
	}

	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(len(names),
		progressbar.OptionSetDescription("uploading"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionClearOnFinish(),
	)

	uploaded := make([]UploadedImage, 0, len(names))
	for _, name := range names {
		label := LabelFromFilename(name, delim)
		tag, ok := tags[label]
		if !ok {
			return uploaded, fmt.Errorf("%w: %q for image %s", ErrTagNotFound, label, name)
		}

		status, err := uploadImage(ctx, api, projectId, filepath.Join(dir, name), tag.Id)
		if err != nil {
			return uploaded, err
		}

		slog.Debug("uploaded image", "image", name, "tag", label, "status", status)
		uploaded = append(uploaded, UploadedImage{Filename: name, Tag: label, TagId: tag.Id, Status: status})
		if err := bar.Add(1); err != nil {
			slog.Debug("failed to render upload progress", "error", err)
		}
	}

	slog.Info("uploaded images", "count", len(uploaded), "project_id", projectId)

	return uploaded, nil
}

func uploadImage(ctx context.Context, api TrainingAPI, projectId, path, tagId string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	summary, err := api.CreateImagesFromData(ctx, projectId, filepath.Base(path), file, []string{tagId})
	if err != nil {
		return "", err
	}

	status := ""
	if len(summary.Images) > 0 {
		status = summary.Images[0].Status
	}
	if !summary.IsBatchSuccessful {
		slog.Warn("image was not accepted", "image", filepath.Base(path), "status", status)
	}
	return status, nil
}
