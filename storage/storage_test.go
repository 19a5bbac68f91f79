package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rpupo63/our-little-infinity/config"
	"github.com/rpupo63/our-little-infinity/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{"supabase public url", "https://ref.supabase.co/storage/v1/object/public/media/e1/1700000000000.png", "e1/1700000000000.png", true},
		{"query stripped", "https://ref.supabase.co/storage/v1/object/public/media/e1/a.pdf?download=1", "e1/a.pdf", true},
		{"escaped key", "https://cdn.example/media/e1/my%20file.pdf", "e1/my file.pdf", true},
		{"first segment wins", "https://cdn.example/media/e1/media/x.png", "e1/media/x.png", true},
		{"other bucket", "https://cdn.example/avatars/e1/a.png", "", false},
		{"nothing after bucket", "https://cdn.example/media/", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KeyFromURL(tt.url, "media")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryBucket_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBucket("", "")

	require.NoError(t, b.Upload(ctx, "e1/1.png", strings.NewReader("png-bytes"), 9, "image/png"))
	assert.True(t, b.Has("e1/1.png"))

	data, contentType, ok := b.Object("e1/1.png")
	require.True(t, ok)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", contentType)

	url := b.PublicURL("e1/1.png")
	assert.Equal(t, "memory://storage/media/e1/1.png", url)
	key, ok := KeyFromURL(url, b.Name())
	require.True(t, ok)
	assert.Equal(t, "e1/1.png", key)

	require.NoError(t, b.Remove(ctx, []string{"e1/1.png", "missing"}))
	assert.Empty(t, b.Keys())
	assert.Equal(t, 1, b.UploadCount())
	assert.Equal(t, 1, b.RemoveCount())
}

func TestMemoryBucket_InjectedFailures(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBucket("media", "https://cdn.example")

	b.FailUploads(errors.New("quota"))
	err := b.Upload(ctx, "k", strings.NewReader("x"), 1, "")
	assert.True(t, errs.IsStorageError(err))
	assert.False(t, b.Has("k"))

	b.FailUploads(nil)
	require.NoError(t, b.Upload(ctx, "k", strings.NewReader("x"), 1, ""))

	b.FailRemoves(errors.New("down"))
	assert.True(t, errs.IsStorageError(b.Remove(ctx, []string{"k"})))
	assert.True(t, b.Has("k"))
}

type fakeS3 struct {
	puts       []*s3.PutObjectInput
	deletes    []*s3.DeleteObjectsInput
	putErr     error
	deleteErr  error
	deleteFail []types.Error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeS3) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.deletes = append(f.deletes, in)
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &s3.DeleteObjectsOutput{Errors: f.deleteFail}, nil
}

func TestS3Bucket_Upload(t *testing.T) {
	fake := &fakeS3{}
	b := newS3Bucket(fake, "media", "https://ref.supabase.co/storage/v1/object/public/")

	require.NoError(t, b.Upload(context.Background(), "e1/1.pdf", bytes.NewReader([]byte("%PDF")), 4, "application/pdf"))
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "media", aws.ToString(fake.puts[0].Bucket))
	assert.Equal(t, "e1/1.pdf", aws.ToString(fake.puts[0].Key))
	assert.Equal(t, int64(4), aws.ToInt64(fake.puts[0].ContentLength))
	assert.Equal(t, "application/pdf", aws.ToString(fake.puts[0].ContentType))

	assert.Equal(t, "https://ref.supabase.co/storage/v1/object/public/media/e1/1.pdf", b.PublicURL("e1/1.pdf"))

	fake.putErr = errors.New("503")
	assert.True(t, errs.IsStorageError(b.Upload(context.Background(), "k", strings.NewReader(""), 0, "")))
}

func TestS3Bucket_Remove(t *testing.T) {
	fake := &fakeS3{}
	b := newS3Bucket(fake, "media", "https://cdn.example")
	ctx := context.Background()

	require.NoError(t, b.Remove(ctx, nil))
	assert.Empty(t, fake.deletes, "no request for an empty batch")

	require.NoError(t, b.Remove(ctx, []string{"a", "b"}))
	require.Len(t, fake.deletes, 1)
	require.Len(t, fake.deletes[0].Delete.Objects, 2)
	assert.Equal(t, "b", aws.ToString(fake.deletes[0].Delete.Objects[1].Key))

	fake.deleteFail = []types.Error{{Key: aws.String("a"), Message: aws.String("AccessDenied")}}
	err := b.Remove(ctx, []string{"a"})
	require.Error(t, err)
	assert.True(t, errs.IsStorageError(err))
	assert.Contains(t, err.(*errs.ApiErr).GetFullError(), "a: AccessDenied")
}

func TestNewS3Bucket_ConfiguresPathStyleEndpoint(t *testing.T) {
	var opts s3.Options
	orig := newS3ClientFromConfig
	t.Cleanup(func() { newS3ClientFromConfig = orig })
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &fakeS3{}
	}

	b, err := NewS3Bucket(context.Background(), S3Config{
		Endpoint:        "http://127.0.0.1:9000",
		Region:          "us-east-1",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		PublicURL:       "http://127.0.0.1:9000/public",
	})
	require.NoError(t, err)

	assert.Equal(t, "media", b.Name())
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestNew_SelectsDriver(t *testing.T) {
	b, err := New(context.Background(), &config.Config{StorageDriver: config.StorageDriverMemory, StorageBucket: "media"})
	require.NoError(t, err)
	_, ok := b.(*MemoryBucket)
	assert.True(t, ok)

	_, err = New(context.Background(), &config.Config{StorageDriver: "disk"})
	require.Error(t, err)
	assert.True(t, errs.IsConfigError(err))
	assert.False(t, errs.IsStorageError(err))
}

func skipIfNoS3(t *testing.T) S3Config {
	t.Helper()
	endpoint := os.Getenv("TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("TEST_S3_ENDPOINT not set, skipping S3 integration test")
	}
	return S3Config{
		Endpoint:        endpoint,
		Region:          os.Getenv("TEST_S3_REGION"),
		AccessKeyID:     os.Getenv("TEST_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("TEST_S3_SECRET_ACCESS_KEY"),
		Bucket:          os.Getenv("TEST_S3_BUCKET"),
		PublicURL:       os.Getenv("TEST_S3_PUBLIC_URL"),
	}
}

func TestS3Bucket_Integration(t *testing.T) {
	cfg := skipIfNoS3(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := NewS3Bucket(ctx, cfg)
	require.NoError(t, err)

	key := "integration/" + time.Now().UTC().Format("20060102T150405.000000000") + ".txt"
	body := []byte("our little infinity")
	require.NoError(t, b.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), "text/plain"))
	require.NoError(t, b.Remove(ctx, []string{key}))
}
