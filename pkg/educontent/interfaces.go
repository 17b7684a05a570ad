package educontent

import (
	"context"
	"io"
	"time"
)

// Document is the store-level shape of a record. Fields never contain id or timestamps.
type Document struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Fields    map[string]any
}

// Clone returns a copy whose Fields map can be mutated independently.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Fields = cloneFields(d.Fields)
	return &out
}

func cloneFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneFields(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// FilterOp is a comparison supported by every document store backend.
type FilterOp string

const (
	OpEqual    FilterOp = "eq"
	OpGTE      FilterOp = "gte"
	OpLTE      FilterOp = "lte"
	OpContains FilterOp = "contains"
)

func (op FilterOp) IsValid() bool {
	switch op {
	case OpEqual, OpGTE, OpLTE, OpContains:
		return true
	}
	return false
}

// Filter restricts a listing to documents whose field compares to Value.
// createdAt and updatedAt address the document timestamps.
type Filter struct {
	Field string
	Op    FilterOp
	Value any
}

// Sort orders a listing by one field.
type Sort struct {
	Field string
	Desc  bool
}

// Query is a normalised listing request handed to a DocumentStore.
type Query struct {
	Limit   int
	Offset  int
	Filters []Filter
	Sort    []Sort
}

// Documents is one page of raw documents.
type Documents struct {
	Items []*Document
	Total int
}

// DocumentStore is a backend holding named collections of documents.
type DocumentStore interface {
	// Insert stores a new document; the caller assigns ID and timestamps
	Insert(ctx context.Context, collection string, doc *Document) error

	// Get returns ErrNotFound when the document does not exist
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Patch merges fields into an existing document and returns the result
	Patch(ctx context.Context, collection, id string, fields map[string]any, updatedAt time.Time) (*Document, error)

	// Delete returns ErrNotFound when the document does not exist
	Delete(ctx context.Context, collection, id string) error

	// Find returns the requested page and the number of documents matching the filters
	Find(ctx context.Context, collection string, q Query) ([]*Document, int, error)
}

// UploadParams describes an object being written to a BlobStore
type UploadParams struct {
	ObjectKey string
	MimeType  string
	FileName  string
	Size      int64
}

// ObjectMeta is what a BlobStore knows about a stored object
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	FileName    string
	UpdatedAt   time.Time
	ETag        string
}

// BlobStore defines the interface for storage backends
type BlobStore interface {
	// Upload writes the reader's content under params.ObjectKey
	Upload(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download opens the object for reading
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the object
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// GetDownloadURL returns a time-limited URL, or ErrDirectAccessRequired
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)

	// GetPreviewURL returns a URL for inline viewing, or ErrDirectAccessRequired
	GetPreviewURL(ctx context.Context, objectKey string) (string, error)
}

// Store is the uniform record and object interface collection services are written against.
type Store interface {
	List(ctx context.Context, collection string, q Query) (*Documents, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Create(ctx context.Context, collection string, fields map[string]any) (*Document, error)
	Update(ctx context.Context, collection, id string, partial map[string]any) (*Document, error)
	Delete(ctx context.Context, collection, id string) error

	UploadObject(ctx context.Context, bucket string, file FileUpload) (*ObjectRef, error)
	DeleteObject(ctx context.Context, bucket, fileID string) error
}
