// Package backend resolves logical endpoint names to concrete storage
// clients (component A, spec §4.A), the Go analogue of AIStore's own
// multi-cloud backend-provider design (AWS/Azure/GCP/HDFS).
package backend

import (
	"context"
	"io"

	"github.com/artemis/object-migrate/internal/cmn"
)

// StorageClient is the minimal surface every provider must expose,
// matching spec §6's "Storage client (consumed)" contract.
type StorageClient interface {
	HeadObject(ctx context.Context, bucket, key string) (cmn.ObjectMeta, error)
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64) error
	DeleteObject(ctx context.Context, bucket, key string) error
	EnsureBucket(ctx context.Context, bucket string) error
}

// Kind enumerates the endpoint kinds this factory knows how to build a
// client for.
const (
	KindS3     = "s3"
	KindAzure  = "azblob"
	KindGCS    = "gcs"
	KindHDFS   = "hdfs"
)
