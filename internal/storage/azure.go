package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureBlobProvider maps buckets onto blob containers of a single storage
// account.
type AzureBlobProvider struct {
	client *azblob.Client
}

var _ Provider = (*AzureBlobProvider)(nil)

func NewAzureBlobProvider(connectionString string) (*AzureBlobProvider, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}
	return &AzureBlobProvider{client: client}, nil
}

func (a *AzureBlobProvider) CreateBucket(ctx context.Context, bucket string) error {
	_, err := a.client.CreateContainer(ctx, bucket, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			slog.Info("container already exists", "container", bucket)
			return nil
		}
		return fmt.Errorf("failed to create container %s: %w", bucket, err)
	}

	slog.Info("container created successfully", "container", bucket)

	return nil
}

func (a *AzureBlobProvider) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	resp, err := a.client.DownloadStream(ctx, bucket, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob %s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (a *AzureBlobProvider) DownloadObject(ctx context.Context, bucket, key, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for download %s: %w", filepath.Dir(filename), err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	defer file.Close()

	if _, err := a.client.DownloadFile(ctx, bucket, key, file, nil); err != nil {
		file.Close()
		os.Remove(filename)
		return fmt.Errorf("failed to download blob %s/%s to %s: %w", bucket, key, filename, err)
	}
	slog.Debug("blob downloaded", "container", bucket, "blob", key, "file", filename)

	return nil
}

func (a *AzureBlobProvider) PutObject(ctx context.Context, bucket, key string, data io.Reader) error {
	if _, err := a.client.UploadStream(ctx, bucket, key, data, nil); err != nil {
		return fmt.Errorf("failed to upload blob %s/%s: %w", bucket, key, err)
	}
	slog.Debug("blob uploaded", "container", bucket, "blob", key)
	return nil
}

// CopyObject streams the blob through this process; server-side copy would
// need a SAS url for the source blob.
func (a *AzureBlobProvider) CopyObject(ctx context.Context, srcBucket, key, dstBucket string) error {
	resp, err := a.client.DownloadStream(ctx, srcBucket, key, nil)
	if err != nil {
		return fmt.Errorf("failed to open blob %s/%s for copy: %w", srcBucket, key, err)
	}
	defer resp.Body.Close()

	if _, err := a.client.UploadStream(ctx, dstBucket, key, resp.Body, nil); err != nil {
		return fmt.Errorf("failed to copy blob %s/%s to %s/%s: %w", srcBucket, key, dstBucket, key, err)
	}
	return nil
}

func (a *AzureBlobProvider) DeleteObject(ctx context.Context, bucket, key string) error {
	if _, err := a.client.DeleteBlob(ctx, bucket, key, nil); err != nil {
		return fmt.Errorf("failed to delete blob %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (a *AzureBlobProvider) ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error) {
	var objects []Object
	for obj, err := range a.IterObjects(ctx, bucket, prefix) {
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (a *AzureBlobProvider) IterObjects(ctx context.Context, bucket, prefix string) ObjectIterator {
	return func(yield func(obj Object, err error) bool) {
		pager := a.client.NewListBlobsFlatPager(bucket, &azblob.ListBlobsFlatOptions{
			Prefix: &prefix,
		})

		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				yield(Object{}, fmt.Errorf("failed to list blobs in container %s with prefix %s: %w", bucket, prefix, err))
				return
			}

			for _, item := range page.Segment.BlobItems {
				if item.Name == nil || strings.HasSuffix(*item.Name, "/") {
					continue
				}
				var size int64
				if item.Properties != nil && item.Properties.ContentLength != nil {
					size = *item.Properties.ContentLength
				}
				if !yield(Object{Name: *item.Name, Size: size}, nil) {
					return
				}
			}
		}
	}
}
