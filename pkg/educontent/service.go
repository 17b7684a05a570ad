package educontent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tendant/edu-content/pkg/educontent/asseturl"
)

// Collections names the document collection backing each record kind
type Collections struct {
	Applications string
	Stories      string
	Resources    string
	NewsEvents   string
	Universities string
	Gallery      string
}

func (c Collections) validate() error {
	return requireIDs("collection",
		[2]string{"applications", c.Applications},
		[2]string{"stories", c.Stories},
		[2]string{"resources", c.Resources},
		[2]string{"news events", c.NewsEvents},
		[2]string{"universities", c.Universities},
		[2]string{"gallery", c.Gallery},
	)
}

// Kind names the record kind stored in collection. Unknown ids are a plain "record".
func (c Collections) Kind(collection string) string {
	switch collection {
	case "":
	case c.Applications:
		return "application"
	case c.Stories:
		return "story"
	case c.Resources:
		return "resource"
	case c.NewsEvents:
		return "news event"
	case c.Universities:
		return "university"
	case c.Gallery:
		return "gallery image"
	}
	return "record"
}

// Buckets names the object bucket backing each kind of upload
type Buckets struct {
	Stories      string
	Resources    string
	NewsEvents   string
	Universities string
	Gallery      string
}

func (b Buckets) validate() error {
	return requireIDs("bucket",
		[2]string{"stories", b.Stories},
		[2]string{"resources", b.Resources},
		[2]string{"news events", b.NewsEvents},
		[2]string{"universities", b.Universities},
		[2]string{"gallery", b.Gallery},
	)
}

func requireIDs(kind string, pairs ...[2]string) error {
	for _, p := range pairs {
		if strings.TrimSpace(p[1]) == "" {
			return fmt.Errorf("%s %s id is required", p[0], kind)
		}
	}
	return nil
}

// deps is shared by every collection service
type deps struct {
	store       Store
	resolver    *asseturl.Resolver
	collections Collections
	buckets     Buckets
	now         func() time.Time
	logger      *slog.Logger
}

// Option represents a functional option for configuring the services
type Option func(*deps)

// WithAdapter sets the store every service reads and writes through
func WithAdapter(store Store) Option {
	return func(d *deps) {
		d.store = store
	}
}

// WithResolver sets the URL resolver used to fill computed image and file URLs
func WithResolver(r *asseturl.Resolver) Option {
	return func(d *deps) {
		d.resolver = r
	}
}

func WithCollections(c Collections) Option {
	return func(d *deps) {
		d.collections = c
	}
}

func WithBuckets(b Buckets) Option {
	return func(d *deps) {
		d.buckets = b
	}
}

// WithClock overrides the time source used for date-relative listings
func WithClock(now func() time.Time) Option {
	return func(d *deps) {
		d.now = now
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *deps) {
		d.logger = l
	}
}

// Service groups the collection services over one store
type Service struct {
	Applications *ApplicationService
	Stories      *StoryService
	Resources    *ResourceService
	News         *NewsEventService
	Universities *UniversityService
	Gallery      *GalleryService

	collections Collections
}

// RecordKind names the kind of record kept in collection
func (s *Service) RecordKind(collection string) string {
	return s.collections.Kind(collection)
}

// New creates the collection services with the given options
func New(options ...Option) (*Service, error) {
	d := &deps{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, option := range options {
		option(d)
	}

	if d.store == nil {
		return nil, fmt.Errorf("store adapter is required")
	}
	if d.resolver == nil {
		return nil, fmt.Errorf("url resolver is required")
	}
	if err := d.collections.validate(); err != nil {
		return nil, err
	}
	if err := d.buckets.validate(); err != nil {
		return nil, err
	}

	return &Service{
		Applications: &ApplicationService{d},
		Stories:      &StoryService{d},
		Resources:    &ResourceService{d},
		News:         &NewsEventService{d},
		Universities: &UniversityService{d},
		Gallery:      &GalleryService{d},
		collections:  d.collections,
	}, nil
}

// uploadImage stores an optional image. A nil upload yields a nil ref.
func (d *deps) uploadImage(ctx context.Context, bucket string, file *FileUpload) (*ObjectRef, error) {
	if file == nil || file.Reader == nil {
		return nil, nil
	}
	return d.store.UploadObject(ctx, bucket, *file)
}

// createRecord persists fields, logging any object left behind when the write fails.
func (d *deps) createRecord(ctx context.Context, collection string, fields map[string]any, ref *ObjectRef) (*Document, error) {
	doc, err := d.store.Create(ctx, collection, fields)
	if err != nil && ref != nil {
		d.logger.Warn("record creation failed after upload; object orphaned",
			"collection", collection,
			"bucket", ref.BucketID,
			"file_id", ref.FileID,
			"error", err)
	}
	return doc, err
}

// removeObject deletes an object that belonged to a deleted record. Failures are logged only.
func (d *deps) removeObject(ctx context.Context, bucket, fileID string) {
	if fileID == "" || bucket == "" {
		return
	}
	if err := d.store.DeleteObject(ctx, bucket, fileID); err != nil {
		d.logger.Warn("failed to delete object for removed record",
			"bucket", bucket,
			"file_id", fileID,
			"error", err)
	}
}

func (d *deps) list(ctx context.Context, collection string, page Page, filters []Filter, sort ...Sort) (*Documents, error) {
	return d.store.List(ctx, collection, Query{
		Limit:   page.Limit,
		Offset:  page.Offset,
		Filters: filters,
		Sort:    sort,
	})
}
