package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tendant/edu-content/pkg/educontent"
)

type object struct {
	data      []byte
	mimeType  string
	fileName  string
	updatedAt time.Time
}

// Backend is an in-memory implementation of the educontent.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]*object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]*object),
	}
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*educontent.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, fmt.Errorf("object %s: %w", objectKey, educontent.ErrNotFound)
	}

	return &educontent.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(obj.data)),
		ContentType: obj.mimeType,
		FileName:    obj.fileName,
		UpdatedAt:   obj.updatedAt,
	}, nil
}

// Upload stores the reader's content under params.ObjectKey
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params educontent.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = &object{
		data:      data,
		mimeType:  mimeType,
		fileName:  params.FileName,
		updatedAt: time.Now().UTC(),
	}
	return nil
}

// GetDownloadURL returns ErrDirectAccessRequired; memory objects are streamed by the server
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	return "", educontent.ErrDirectAccessRequired
}

// GetPreviewURL returns ErrDirectAccessRequired; memory objects are streamed by the server
func (b *Backend) GetPreviewURL(ctx context.Context, objectKey string) (string, error) {
	return "", educontent.ErrDirectAccessRequired
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, fmt.Errorf("object %s: %w", objectKey, educontent.ErrNotFound)
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return fmt.Errorf("object %s: %w", objectKey, educontent.ErrNotFound)
	}

	delete(b.objects, objectKey)
	return nil
}

// Exists reports whether objectKey is stored
func (b *Backend) Exists(objectKey string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.objects[objectKey]
	return ok
}

// Len returns the number of stored objects
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
