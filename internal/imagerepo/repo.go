// Package imagerepo syncs the labeled image set between a storage container
// and a local working directory.
package imagerepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	"ftai-trainer/internal/storage"
)

var ErrDuplicateImageName = errors.New("two objects share the same image name")

type Repo struct {
	store     storage.Provider
	approved  string
	processed string

	// local file name -> object key, filled by DownloadImages
	keys map[string]string
}

func New(store storage.Provider, approvedContainer, processedContainer string) *Repo {
	return &Repo{store: store, approved: approvedContainer, processed: processedContainer, keys: map[string]string{}}
}

// DownloadImages wipes dir and fills it with every object in the approved
// container. Objects are stored under their base name, and two objects with
// the same base name are an error. It returns the local paths in the order
// they were downloaded.
func (r *Repo) DownloadImages(ctx context.Context, dir string) ([]string, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to clear image dir %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create image dir %s: %w", dir, err)
	}

	objects, err := r.store.ListObjects(ctx, r.approved, "")
	if err != nil {
		return nil, fmt.Errorf("error listing container %s: %w", r.approved, err)
	}

	r.keys = make(map[string]string, len(objects))
	paths := make([]string, 0, len(objects))
	for _, obj := range objects {
		name := path.Base(obj.Name)
		if prev, ok := r.keys[name]; ok {
			return nil, fmt.Errorf("%w: %s and %s both download to %s", ErrDuplicateImageName, prev, obj.Name, name)
		}
		localPath := filepath.Join(dir, name)
		if err := r.store.DownloadObject(ctx, r.approved, obj.Name, localPath); err != nil {
			return nil, err
		}
		r.keys[name] = obj.Name
		paths = append(paths, localPath)
	}

	slog.Info("downloaded images", "container", r.approved, "dir", dir, "count", len(paths))

	return paths, nil
}

// Processed moves every image found in dir from the approved container to
// the processed container, so a later run does not train on it again.
func (r *Repo) Processed(ctx context.Context, dir string) error {
	names, err := ListImages(dir)
	if err != nil {
		return err
	}

	if err := r.store.CreateBucket(ctx, r.processed); err != nil {
		return err
	}

	for _, name := range names {
		key, ok := r.keys[name]
		if !ok {
			key = name
		}
		if err := r.store.CopyObject(ctx, r.approved, key, r.processed); err != nil {
			return err
		}
		if err := r.store.DeleteObject(ctx, r.approved, key); err != nil {
			return err
		}
	}

	slog.Info("marked images processed", "from", r.approved, "to", r.processed, "count", len(names))

	return nil
}

// ListImages returns the sorted names of the regular files in dir.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
