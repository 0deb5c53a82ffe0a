package backend

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/artemis/object-migrate/internal/cmn"
)

// s3Client wraps aws-sdk-go-v2's S3 client so it also works against
// S3-compatible endpoints (MinIO and similar) via a custom base endpoint.
type s3Client struct {
	api      *s3.Client
	uploader *manager.Uploader
}

func newS3Client(ctx context.Context, ep cmn.EndpointDescriptor) (*s3Client, error) {
	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(regionOrDefault(ep.Region)),
	}
	if ep.AccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(ep.AccessKey, ep.SecretKey, "")))
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, cmn.WrapEndpoint(err, ep.Name)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep.Endpoint != "" {
			o.BaseEndpoint = aws.String(ep.Endpoint)
			o.UsePathStyle = true // S3-compatible endpoints rarely support virtual-host style
		}
	})
	return &s3Client{api: api, uploader: manager.NewUploader(api)}, nil
}

func regionOrDefault(region string) string {
	if region == "" {
		return "us-east-1"
	}
	return region
}

func (c *s3Client) HeadObject(ctx context.Context, bucket, key string) (cmn.ObjectMeta, error) {
	out, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		if isS3NotFound(err) {
			return cmn.ObjectMeta{}, cmn.ErrNotFound
		}
		return cmn.ObjectMeta{}, classifyS3Error(err)
	}
	meta := cmn.ObjectMeta{
		ETag: strings.Trim(aws.ToString(out.ETag), `"`),
		Size: aws.ToInt64(out.ContentLength),
	}
	if out.LastModified != nil {
		meta.LastModified = *out.LastModified
	}
	return meta, nil
}

func (c *s3Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		if isS3NotFound(err) {
			return nil, cmn.ErrNotFound
		}
		return nil, classifyS3Error(err)
	}
	return out.Body, nil
}

func (c *s3Client) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return classifyS3Error(err)
	}
	return nil
}

func (c *s3Client) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		if isS3NotFound(err) {
			return cmn.ErrNotFound
		}
		return classifyS3Error(err)
	}
	return nil
}

func (c *s3Client) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	if !isS3NotFound(err) {
		return classifyS3Error(err)
	}
	_, err = c.api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var inUse *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &inUse) {
			return nil
		}
		return classifyS3Error(err)
	}
	return nil
}

// s3ThrottleCodes mirrors spec GLOSSARY's throttling code set.
var s3ThrottleCodes = map[string]bool{
	"429": true, "503": true, "Throttling": true, "TooManyRequests": true, "SlowDown": true,
}

func isS3NotFound(err error) bool {
	var nf *types.NoSuchKey
	var nb *types.NoSuchBucket
	if errors.As(err, &nf) || errors.As(err, &nb) {
		return true
	}
	code := s3ErrorCode(err)
	return code == "404" || code == "NoSuchKey" || code == "NotFound" || code == "NoSuchBucket"
}

func classifyS3Error(err error) error {
	code := s3ErrorCode(err)
	if s3ThrottleCodes[code] {
		return cmn.ErrThrottled
	}
	return err
}

// s3ErrorCode digs the API error code out of the smithy-go error chain
// aws-sdk-go-v2 wraps every service error in.
func s3ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case 404:
			return "404"
		case 429:
			return "429"
		case 503:
			return "503"
		}
	}
	return ""
}
