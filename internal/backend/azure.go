package backend

import (
	"context"
	"errors"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"

	"github.com/artemis/object-migrate/internal/cmn"
)

// azureClient adapts Azure Blob Storage to the StorageClient interface.
// "bucket" throughout this file means "container", Azure's name for it.
type azureClient struct {
	svc *service.Client
}

func newAzureClient(ep cmn.EndpointDescriptor) (*azureClient, error) {
	cred, err := azblob.NewSharedKeyCredential(ep.AccessKey, ep.SecretKey)
	if err != nil {
		return nil, cmn.WrapEndpoint(err, ep.Name)
	}
	endpoint := ep.Endpoint
	if endpoint == "" {
		endpoint = "https://" + ep.AccessKey + ".blob.core.windows.net/"
	}
	svc, err := service.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	if err != nil {
		return nil, cmn.WrapEndpoint(err, ep.Name)
	}
	return &azureClient{svc: svc}, nil
}

func (c *azureClient) container(bucket string) *container.Client {
	return c.svc.NewContainerClient(bucket)
}

func (c *azureClient) HeadObject(ctx context.Context, bucket, key string) (cmn.ObjectMeta, error) {
	blob := c.container(bucket).NewBlobClient(key)
	props, err := blob.GetProperties(ctx, nil)
	if err != nil {
		if isAzureNotFound(err) {
			return cmn.ObjectMeta{}, cmn.ErrNotFound
		}
		return cmn.ObjectMeta{}, classifyAzureError(err)
	}
	var size int64
	if props.ContentLength != nil {
		size = *props.ContentLength
	}
	meta := cmn.ObjectMeta{Size: size}
	if props.ETag != nil {
		meta.ETag = string(*props.ETag)
	}
	if props.LastModified != nil {
		meta.LastModified = *props.LastModified
	}
	return meta, nil
}

func (c *azureClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	blob := c.container(bucket).NewBlobClient(key)
	resp, err := blob.DownloadStream(ctx, nil)
	if err != nil {
		if isAzureNotFound(err) {
			return nil, cmn.ErrNotFound
		}
		return nil, classifyAzureError(err)
	}
	return resp.Body, nil
}

func (c *azureClient) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64) error {
	blockBlob := c.container(bucket).NewBlockBlobClient(key)
	_, err := blockBlob.UploadStream(ctx, body, nil)
	if err != nil {
		return classifyAzureError(err)
	}
	return nil
}

func (c *azureClient) DeleteObject(ctx context.Context, bucket, key string) error {
	blob := c.container(bucket).NewBlobClient(key)
	_, err := blob.Delete(ctx, nil)
	if err != nil {
		if isAzureNotFound(err) {
			return cmn.ErrNotFound
		}
		return classifyAzureError(err)
	}
	return nil
}

func (c *azureClient) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := c.container(bucket).Create(ctx, nil)
	if err == nil {
		return nil
	}
	if isAzureCode(err, bloberror.ContainerAlreadyExists) {
		return nil
	}
	return classifyAzureError(err)
}

func isAzureNotFound(err error) bool {
	return isAzureCode(err, bloberror.BlobNotFound) || isAzureCode(err, bloberror.ContainerNotFound)
}

func isAzureCode(err error, code bloberror.Code) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.ErrorCode == string(code)
	}
	return bloberror.HasCode(err, code)
}

// classifyAzureError maps Azure's equivalents of the spec's throttling set
// (HTTP 429/503, ErrorCode ServerBusy/TooManyRequests, surfaced through
// azcore.ResponseError) to cmn.ErrThrottled; other errors pass through.
func classifyAzureError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case 429, 503:
			return cmn.ErrThrottled
		}
		if respErr.ErrorCode == "ServerBusy" || respErr.ErrorCode == "TooManyRequests" {
			return cmn.ErrThrottled
		}
	}
	return err
}
