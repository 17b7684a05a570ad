// Package repository is the single entry point collection services use to reach
// the document and object stores. It normalises paging and filters and wraps
// every backend failure into the educontent error taxonomy.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/asseturl"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Limits holds the paging bounds applied to every listing
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits returns the 50/100 paging bounds
func DefaultLimits() Limits {
	return Limits{Default: DefaultLimit, Max: MaxLimit}
}

var fieldName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Adapter implements educontent.Store over a DocumentStore and a BlobStore
type Adapter struct {
	docs     educontent.DocumentStore
	blobs    educontent.BlobStore
	resolver *asseturl.Resolver
	limits   Limits
	now      func() time.Time
	newID    func() string
}

// Option configures an Adapter
type Option func(*Adapter)

func WithDocumentStore(docs educontent.DocumentStore) Option {
	return func(a *Adapter) { a.docs = docs }
}

func WithBlobStore(blobs educontent.BlobStore) Option {
	return func(a *Adapter) { a.blobs = blobs }
}

func WithResolver(r *asseturl.Resolver) Option {
	return func(a *Adapter) { a.resolver = r }
}

func WithLimits(l Limits) Option {
	return func(a *Adapter) { a.limits = l }
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// WithIDGenerator overrides uuid-based id assignment
func WithIDGenerator(f func() string) Option {
	return func(a *Adapter) { a.newID = f }
}

// New creates an adapter. A document store, blob store and resolver are required.
func New(opts ...Option) (*Adapter, error) {
	a := &Adapter{
		limits: DefaultLimits(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.docs == nil {
		return nil, errors.New("document store is required")
	}
	if a.blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if a.resolver == nil {
		return nil, errors.New("url resolver is required")
	}
	if a.limits.Default <= 0 || a.limits.Max <= 0 || a.limits.Default > a.limits.Max {
		return nil, fmt.Errorf("invalid list limits: default %d, max %d", a.limits.Default, a.limits.Max)
	}
	return a, nil
}

// Limits returns the configured paging bounds
func (a *Adapter) Limits() Limits {
	return a.limits
}

// List returns one page of collection. Limit is defaulted and clamped; a negative
// offset is rejected.
func (a *Adapter) List(ctx context.Context, collection string, q educontent.Query) (*educontent.Documents, error) {
	q, err := a.normalize(q)
	if err != nil {
		return nil, err
	}

	docs, total, err := a.docs.Find(ctx, collection, q)
	if err != nil {
		return nil, wrap("list", collection, "", err)
	}
	return &educontent.Documents{Items: docs, Total: total}, nil
}

func (a *Adapter) Get(ctx context.Context, collection, id string) (*educontent.Document, error) {
	if id == "" {
		return nil, &educontent.RecordError{Collection: collection, Op: "get", Err: educontent.ErrNotFound}
	}
	doc, err := a.docs.Get(ctx, collection, id)
	if err != nil {
		return nil, wrap("get", collection, id, err)
	}
	return doc, nil
}

// Create stores fields as a new document with a fresh id and timestamps
func (a *Adapter) Create(ctx context.Context, collection string, fields map[string]any) (*educontent.Document, error) {
	fields, err := prepareFields(fields)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, &educontent.ValidationError{Reason: "record has no fields"}
	}

	now := a.now()
	doc := &educontent.Document{
		ID:        a.newID(),
		CreatedAt: now,
		UpdatedAt: now,
		Fields:    fields,
	}
	if err := a.docs.Insert(ctx, collection, doc); err != nil {
		return nil, wrap("create", collection, doc.ID, err)
	}
	return doc.Clone(), nil
}

// Update merges partial into the existing document
func (a *Adapter) Update(ctx context.Context, collection, id string, partial map[string]any) (*educontent.Document, error) {
	partial, err := prepareFields(partial)
	if err != nil {
		return nil, err
	}
	if len(partial) == 0 {
		return nil, &educontent.ValidationError{Reason: "update has no fields"}
	}
	if id == "" {
		return nil, &educontent.RecordError{Collection: collection, Op: "update", Err: educontent.ErrNotFound}
	}

	doc, err := a.docs.Patch(ctx, collection, id, partial, a.now())
	if err != nil {
		return nil, wrap("update", collection, id, err)
	}
	return doc, nil
}

func (a *Adapter) Delete(ctx context.Context, collection, id string) error {
	if id == "" {
		return &educontent.RecordError{Collection: collection, Op: "delete", Err: educontent.ErrNotFound}
	}
	if err := a.docs.Delete(ctx, collection, id); err != nil {
		return wrap("delete", collection, id, err)
	}
	return nil
}

// UploadObject stores file under a new id in bucket
func (a *Adapter) UploadObject(ctx context.Context, bucket string, file educontent.FileUpload) (*educontent.ObjectRef, error) {
	if file.Reader == nil {
		return nil, &educontent.ValidationError{Field: "file", Reason: "is required"}
	}

	fileID := a.newID()
	counter := &countingReader{r: file.Reader}
	err := a.blobs.Upload(ctx, counter, educontent.UploadParams{
		ObjectKey: ObjectKey(bucket, fileID),
		MimeType:  file.MimeType,
		FileName:  file.Name,
		Size:      file.Size,
	})
	if err != nil {
		return nil, wrap("upload", bucket, fileID, err)
	}

	return &educontent.ObjectRef{
		BucketID: bucket,
		FileID:   fileID,
		Name:     file.Name,
		Size:     counter.n,
		MimeType: file.MimeType,
	}, nil
}

// OpenObject returns the object's content and metadata. The caller closes the reader.
func (a *Adapter) OpenObject(ctx context.Context, bucket, fileID string) (io.ReadCloser, *educontent.ObjectMeta, error) {
	key := ObjectKey(bucket, fileID)
	meta, err := a.blobs.GetObjectMeta(ctx, key)
	if err != nil {
		return nil, nil, wrap("stat", bucket, fileID, err)
	}
	rc, err := a.blobs.Download(ctx, key)
	if err != nil {
		return nil, nil, wrap("download", bucket, fileID, err)
	}
	return rc, meta, nil
}

// PresignedDownloadURL returns a direct backend URL, or ErrDirectAccessRequired
// when the backend cannot issue one.
func (a *Adapter) PresignedDownloadURL(ctx context.Context, bucket, fileID, fileName string) (string, error) {
	u, err := a.blobs.GetDownloadURL(ctx, ObjectKey(bucket, fileID), fileName)
	if errors.Is(err, educontent.ErrDirectAccessRequired) {
		return "", err
	}
	if err != nil {
		return "", wrap("presign", bucket, fileID, err)
	}
	return u, nil
}

func (a *Adapter) DeleteObject(ctx context.Context, bucket, fileID string) error {
	if err := a.blobs.Delete(ctx, ObjectKey(bucket, fileID)); err != nil {
		return wrap("delete object", bucket, fileID, err)
	}
	return nil
}

// GetObjectDownloadURL returns the public download URL for an object
func (a *Adapter) GetObjectDownloadURL(bucket, fileID string) string {
	return a.resolver.DownloadURL(fileID, bucket)
}

// GetObjectViewURL returns the public view URL, or a preview URL when size hints are given
func (a *Adapter) GetObjectViewURL(bucket, fileID string, width, height int) string {
	return a.resolver.ViewURL(fileID, bucket, width, height)
}

// ObjectKey is the blob store key for a file in a bucket
func ObjectKey(bucket, fileID string) string {
	return bucket + "/" + fileID
}

func (a *Adapter) normalize(q educontent.Query) (educontent.Query, error) {
	if q.Offset < 0 {
		return q, fmt.Errorf("%w: offset must not be negative, got %d", educontent.ErrInvalidParameter, q.Offset)
	}
	q.Limit = ClampLimit(q.Limit, a.limits)

	filters := make([]educontent.Filter, 0, len(q.Filters))
	for _, f := range q.Filters {
		if !fieldName.MatchString(f.Field) {
			return q, fmt.Errorf("%w: filter field %q", educontent.ErrInvalidParameter, f.Field)
		}
		if !f.Op.IsValid() {
			return q, fmt.Errorf("%w: filter operator %q", educontent.ErrInvalidParameter, f.Op)
		}
		f.Value = plainValue(f.Value)
		if f.Op == educontent.OpContains {
			if _, ok := f.Value.(string); !ok {
				return q, fmt.Errorf("%w: contains filter on %q needs a string", educontent.ErrInvalidParameter, f.Field)
			}
		}
		filters = append(filters, f)
	}
	q.Filters = filters

	for _, s := range q.Sort {
		if !fieldName.MatchString(s.Field) {
			return q, fmt.Errorf("%w: sort field %q", educontent.ErrInvalidParameter, s.Field)
		}
	}
	if len(q.Sort) == 0 {
		q.Sort = []educontent.Sort{{Field: "createdAt", Desc: true}}
	}
	return q, nil
}

// ClampLimit applies the default to non-positive limits and caps the rest at the maximum
func ClampLimit(limit int, l Limits) int {
	if limit <= 0 {
		return l.Default
	}
	if limit > l.Max {
		return l.Max
	}
	return limit
}

// plainValue converts named scalar types such as status enums to their base type
// so every backend sees plain strings and numbers.
func plainValue(v any) any {
	if v == nil {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return v
}

// prepareFields drops store-managed keys and reduces values to their JSON shape,
// which is what every backend persists.
func prepareFields(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if educontent.IsReservedField(k) {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return out, nil
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, &educontent.ValidationError{Reason: fmt.Sprintf("fields are not serialisable: %v", err)}
	}
	normalized := make(map[string]any, len(out))
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, &educontent.ValidationError{Reason: fmt.Sprintf("fields are not serialisable: %v", err)}
	}
	return normalized, nil
}

// wrap keeps NotFound recognisable and turns every other failure into a StoreError
func wrap(op, collection, id string, err error) error {
	if errors.Is(err, educontent.ErrNotFound) {
		return &educontent.RecordError{Collection: collection, ID: id, Op: op, Err: educontent.ErrNotFound}
	}
	return &educontent.StoreError{Op: op, Collection: collection, ID: id, Err: err}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
