package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/rpupo63/our-little-infinity/errs"
)

const defaultMemoryBaseURL = "memory://storage"

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryBucket keeps files in process memory. It backs STORAGE_DRIVER=memory
// and the package tests of its callers.
type MemoryBucket struct {
	mu        sync.Mutex
	name      string
	baseURL   string
	objects   map[string]memoryObject
	uploads   int
	removes   int
	uploadErr error
	removeErr error
}

func NewMemoryBucket(name, baseURL string) *MemoryBucket {
	if name == "" {
		name = DefaultBucket
	}
	if baseURL == "" {
		baseURL = defaultMemoryBaseURL
	}
	return &MemoryBucket{
		name:    name,
		baseURL: baseURL,
		objects: make(map[string]memoryObject),
	}
}

func (b *MemoryBucket) Name() string {
	return b.name
}

func (b *MemoryBucket) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.uploads++
	if b.uploadErr != nil {
		return errs.NewStorageError("upload", b.uploadErr)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return errs.NewStorageError("upload", err)
	}
	b.objects[key] = memoryObject{data: buf.Bytes(), contentType: contentType}
	return nil
}

func (b *MemoryBucket) PublicURL(key string) string {
	return joinPublicURL(b.baseURL, b.name, key)
}

func (b *MemoryBucket) Remove(ctx context.Context, keys []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.removes++
	if b.removeErr != nil {
		return errs.NewStorageError("remove", b.removeErr)
	}
	for _, key := range keys {
		delete(b.objects, key)
	}
	return nil
}

// FailUploads makes every following Upload fail with err. Pass nil to reset.
func (b *MemoryBucket) FailUploads(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploadErr = err
}

// FailRemoves makes every following Remove fail with err. Pass nil to reset.
func (b *MemoryBucket) FailRemoves(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeErr = err
}

// Has reports whether key is stored.
func (b *MemoryBucket) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

// Object returns the stored bytes and content type of key.
func (b *MemoryBucket) Object(key string) ([]byte, string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[key]
	return obj.data, obj.contentType, ok
}

// Keys returns the stored keys in sorted order.
func (b *MemoryBucket) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.objects))
	for key := range b.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// UploadCount is the number of Upload calls, failed ones included.
func (b *MemoryBucket) UploadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploads
}

// RemoveCount is the number of Remove calls, failed ones included.
func (b *MemoryBucket) RemoveCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removes
}
