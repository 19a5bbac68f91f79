package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rpupo63/our-little-infinity/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// S3Config describes an S3-compatible endpoint such as Supabase Storage's
// /storage/v1/s3 gateway.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// PublicURL is the base public objects are served from, e.g.
	// https://<project>.supabase.co/storage/v1/object/public
	PublicURL string
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

var newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
	return s3.NewFromConfig(cfg, optFns...)
}

type S3Bucket struct {
	client    s3API
	bucket    string
	publicURL string
	logger    zerolog.Logger
}

// NewS3Bucket builds a bucket client with static credentials and a path-style
// base endpoint.
func NewS3Bucket(ctx context.Context, c S3Config) (*S3Bucket, error) {
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID,
			c.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("loading s3 config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.Endpoint)
		o.UsePathStyle = true
	})

	return newS3Bucket(client, c.Bucket, c.PublicURL), nil
}

func newS3Bucket(client s3API, bucket, publicURL string) *S3Bucket {
	return &S3Bucket{
		client:    client,
		bucket:    bucket,
		publicURL: publicURL,
		logger:    log.With().Str("component", "s3Bucket").Str("bucket", bucket).Logger(),
	}
}

func (b *S3Bucket) Name() string {
	return b.bucket
}

func (b *S3Bucket) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return errs.NewStorageError("upload", err)
	}

	b.logger.Debug().Str("key", key).Int64("size", size).Msg("uploaded object")
	return nil
}

func (b *S3Bucket) PublicURL(key string) string {
	return joinPublicURL(b.publicURL, b.bucket, key)
}

func (b *S3Bucket) Remove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	out, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(b.bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return errs.NewStorageError("remove", err)
	}

	if len(out.Errors) > 0 {
		failed := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			failed = append(failed, fmt.Sprintf("%s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
		}
		return errs.NewStorageError("remove", errors.New(strings.Join(failed, "; ")))
	}

	b.logger.Debug().Strs("keys", keys).Msg("removed objects")
	return nil
}
