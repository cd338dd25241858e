package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	cfgpkg "github.com/mars-etl/ethetl/internal/config"
	"github.com/mars-etl/ethetl/internal/errs"
)

// S3Storage writes blobs to an S3-compatible bucket, honoring the
// endpoint_url/region/virtual_host_style knobs of spec §6.
type S3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	root     string
}

// NewS3Storage constructs an S3Storage from an S3Config.
func NewS3Storage(ctx context.Context, cfg cfgpkg.S3Config) (*S3Storage, error) {
	const op = "storage.NewS3Storage"

	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.EndpointURL == "" {
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			}
			return aws.Endpoint{
				URL:               cfg.EndpointURL,
				HostnameImmutable: true,
				SigningRegion:     cfg.Region,
			}, nil
		},
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, errs.Storage(op, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = !cfg.EnableVirtualHostStyle
	})

	return &S3Storage{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		root:     cfg.Root,
	}, nil
}

func (s *S3Storage) Put(ctx context.Context, path string, data []byte) error {
	const op = "storage.S3Storage.Put"
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(joinRoot(s.root, path)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return errs.Storage(op, err)
	}
	return nil
}

// Get reads back a previously written object. A missing key reports
// found=false rather than an error.
func (s *S3Storage) Get(ctx context.Context, path string) ([]byte, bool, error) {
	const op = "storage.S3Storage.Get"
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(joinRoot(s.root, path)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, false, nil
		}
		return nil, false, errs.Storage(op, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, errs.Storage(op, err)
	}
	return data, true, nil
}

func joinRoot(root, path string) string {
	root = strings.Trim(root, "/")
	path = strings.TrimLeft(path, "/")
	if root == "" {
		return path
	}
	return root + "/" + path
}
