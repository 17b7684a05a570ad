// Package s3 keeps uploaded story images, resource files and gallery photos in
// an S3 bucket. Object keys are the adapter's bucket/file ids, optionally under
// a shared prefix, so several deployments can share one physical bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/tendant/edu-content/pkg/educontent"
)

// original upload name, kept as user metadata so downloads can restore it
const fileNameMetadataKey = "filename"

const (
	sseAES256 = "AES256"
	sseKMS    = "aws:kms"

	defaultRegion  = "us-east-1"
	defaultPresign = time.Hour
)

// Config is read from the AWS_* environment by the config package
type Config struct {
	Region          string
	Bucket          string
	KeyPrefix       string
	AccessKeyID     string
	SecretAccessKey string

	// Endpoint and UsePathStyle target S3-compatible stores such as MinIO
	Endpoint     string
	UsePathStyle bool

	// PresignDuration is the lifetime of download links in seconds
	PresignDuration int

	EnableSSE    bool
	SSEAlgorithm string // AES256 or aws:kms
	SSEKMSKeyID  string

	CreateBucketIfNotExist bool
}

func (c *Config) normalize() error {
	if c.Bucket == "" {
		return errors.New("s3: bucket name is required")
	}
	if c.Region == "" {
		c.Region = defaultRegion
	}
	if c.EnableSSE && c.SSEAlgorithm != sseAES256 && c.SSEAlgorithm != sseKMS {
		return fmt.Errorf("s3: unsupported SSE algorithm %q", c.SSEAlgorithm)
	}
	c.KeyPrefix = strings.Trim(c.KeyPrefix, "/")
	return nil
}

func (c *Config) linkLifetime() time.Duration {
	if c.PresignDuration <= 0 {
		return defaultPresign
	}
	return time.Duration(c.PresignDuration) * time.Second
}

// Backend implements educontent.BlobStore on one S3 bucket
type Backend struct {
	client          *s3.Client
	uploader        *manager.Uploader
	presigner       *s3.PresignClient
	presignDuration time.Duration
	config          Config
}

// New connects to the bucket described by config. With CreateBucketIfNotExist
// the bucket is created on first start.
func New(ctx context.Context, config Config) (*Backend, error) {
	if err := config.normalize(); err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(config.Region)}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		}
	})

	b := &Backend{
		client:          client,
		uploader:        manager.NewUploader(client),
		presigner:       s3.NewPresignClient(client),
		presignDuration: config.linkLifetime(),
		config:          config,
	}

	if config.CreateBucketIfNotExist {
		if err := b.ensureBucket(ctx); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *Backend) key(objectKey string) string {
	if b.config.KeyPrefix == "" {
		return objectKey
	}
	return b.config.KeyPrefix + "/" + objectKey
}

func (b *Backend) ensureBucket(ctx context.Context) error {
	bucket := aws.String(b.config.Bucket)
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: bucket})
	if err == nil {
		return nil
	}
	if !bucketMissing(err) {
		return fmt.Errorf("s3: check bucket %s: %w", b.config.Bucket, err)
	}

	in := &s3.CreateBucketInput{Bucket: bucket}
	if b.config.Region != defaultRegion {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.config.Region),
		}
	}
	if _, err := b.client.CreateBucket(ctx, in); err != nil {
		switch apiErrorCode(err) {
		case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
			return nil
		}
		return fmt.Errorf("s3: create bucket %s: %w", b.config.Bucket, err)
	}
	return nil
}

// bucketMissing reports a HeadBucket failure that means the bucket is absent.
// MinIO answers with a bare 400 in some versions.
func bucketMissing(err error) bool {
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) || isNotFound(err) {
		return true
	}
	switch apiErrorCode(err) {
	case "NoSuchBucket", "BadRequest":
		return true
	}
	return false
}

// GetObjectMeta reads size, type and the original file name without the body
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*educontent.ObjectMeta, error) {
	head, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(b.key(objectKey)),
	})
	if err != nil {
		return nil, b.objectError("head", objectKey, err)
	}

	contentType := aws.ToString(head.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &educontent.ObjectMeta{
		Key:         objectKey,
		Size:        aws.ToInt64(head.ContentLength),
		ContentType: contentType,
		FileName:    head.Metadata[fileNameMetadataKey],
		UpdatedAt:   aws.ToTime(head.LastModified),
		ETag:        strings.Trim(aws.ToString(head.ETag), `"`),
	}, nil
}

// Upload streams the reader through the multipart uploader
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params educontent.UploadParams) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(b.key(params.ObjectKey)),
		Body:   reader,
	}
	if params.MimeType != "" {
		in.ContentType = aws.String(params.MimeType)
	}
	if params.FileName != "" {
		in.Metadata = map[string]string{fileNameMetadataKey: params.FileName}
	}

	if b.config.EnableSSE {
		if b.config.SSEAlgorithm == sseKMS {
			in.ServerSideEncryption = types.ServerSideEncryptionAwsKms
			if b.config.SSEKMSKeyID != "" {
				in.SSEKMSKeyId = aws.String(b.config.SSEKMSKeyID)
			}
		} else {
			in.ServerSideEncryption = types.ServerSideEncryptionAes256
		}
	}

	if _, err := b.uploader.Upload(ctx, in); err != nil {
		return fmt.Errorf("s3: upload %s: %w", params.ObjectKey, err)
	}
	return nil
}

// GetDownloadURL signs a link that saves the object as downloadFilename
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	disposition := "attachment"
	if downloadFilename != "" {
		disposition = mime.FormatMediaType("attachment", map[string]string{"filename": downloadFilename})
	}
	return b.presign(ctx, objectKey, disposition)
}

// GetPreviewURL signs a link the browser renders inline
func (b *Backend) GetPreviewURL(ctx context.Context, objectKey string) (string, error) {
	return b.presign(ctx, objectKey, "inline")
}

func (b *Backend) presign(ctx context.Context, objectKey, disposition string) (string, error) {
	req, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(b.config.Bucket),
		Key:                        aws.String(b.key(objectKey)),
		ResponseContentDisposition: aws.String(disposition),
	}, s3.WithPresignExpires(b.presignDuration))
	if err != nil {
		return "", fmt.Errorf("s3: presign %s: %w", objectKey, err)
	}
	return req.URL, nil
}

// Download opens the object body; the caller closes it
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(b.key(objectKey)),
	})
	if err != nil {
		return nil, b.objectError("get", objectKey, err)
	}
	return out.Body, nil
}

// Delete removes the object. DeleteObject succeeds for absent keys, so a head
// request comes first to report ErrNotFound.
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	if _, err := b.GetObjectMeta(ctx, objectKey); err != nil {
		return err
	}
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(b.key(objectKey)),
	})
	if err != nil {
		return b.objectError("delete", objectKey, err)
	}
	return nil
}

func (b *Backend) objectError(op, objectKey string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("s3: %s %s: %w", op, objectKey, educontent.ErrNotFound)
	}
	return fmt.Errorf("s3: %s %s: %w", op, objectKey, err)
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	code := apiErrorCode(err)
	return code == "NoSuchKey" || code == "NotFound"
}
