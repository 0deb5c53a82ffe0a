package backend

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/artemis/object-migrate/internal/cmn"
)

// gcsClient adapts Google Cloud Storage to the StorageClient interface.
type gcsClient struct {
	cl *storage.Client
}

func newGCSClient(ctx context.Context, ep cmn.EndpointDescriptor) (*gcsClient, error) {
	var opts []option.ClientOption
	if ep.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(ep.Endpoint))
	}
	cl, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, cmn.WrapEndpoint(err, ep.Name)
	}
	return &gcsClient{cl: cl}, nil
}

func (c *gcsClient) HeadObject(ctx context.Context, bucket, key string) (cmn.ObjectMeta, error) {
	attrs, err := c.cl.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return cmn.ObjectMeta{}, cmn.ErrNotFound
		}
		return cmn.ObjectMeta{}, classifyGCSError(err)
	}
	return cmn.ObjectMeta{
		ETag:         attrs.Etag,
		Size:         attrs.Size,
		LastModified: attrs.Updated,
	}, nil
}

func (c *gcsClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	r, err := c.cl.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, cmn.ErrNotFound
		}
		return nil, classifyGCSError(err)
	}
	return r, nil
}

func (c *gcsClient) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64) error {
	w := c.cl.Bucket(bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return classifyGCSError(err)
	}
	if err := w.Close(); err != nil {
		return classifyGCSError(err)
	}
	return nil
}

func (c *gcsClient) DeleteObject(ctx context.Context, bucket, key string) error {
	err := c.cl.Bucket(bucket).Object(key).Delete(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return cmn.ErrNotFound
		}
		return classifyGCSError(err)
	}
	return nil
}

func (c *gcsClient) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := c.cl.Bucket(bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return classifyGCSError(err)
	}
	if err := c.cl.Bucket(bucket).Create(ctx, "", nil); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 409 {
			return nil // created concurrently
		}
		return classifyGCSError(err)
	}
	return nil
}

func classifyGCSError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 404:
			return cmn.ErrNotFound
		case 429, 503:
			return cmn.ErrThrottled
		}
	}
	return err
}
