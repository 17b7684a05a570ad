package educontent

import (
	"context"
	"strings"
)

type CreateGalleryImageRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}

type ListGalleryRequest struct {
	Page     Page
	Category string
}

// GalleryService manages gallery photos
type GalleryService struct {
	*deps
}

func (s *GalleryService) decorate(g *GalleryImage) *GalleryImage {
	g.ImageURL = s.resolver.ViewURL(g.ImageID, g.ImageBucketID, 0, 0)
	return g
}

// Create uploads image and stores a gallery entry for it
func (s *GalleryService) Create(ctx context.Context, req CreateGalleryImageRequest, image *FileUpload) (*GalleryImage, error) {
	if image == nil || image.Reader == nil {
		return nil, &ValidationError{Field: "image", Reason: "is required"}
	}

	ref, err := s.store.UploadObject(ctx, s.buckets.Gallery, *image)
	if err != nil {
		return nil, err
	}
	g := &GalleryImage{
		Title:         strings.TrimSpace(req.Title),
		Category:      strings.TrimSpace(req.Category),
		ImageID:       ref.FileID,
		ImageBucketID: ref.BucketID,
	}
	fields, err := toFields(g, "imageUrl")
	if err != nil {
		return nil, err
	}
	doc, err := s.createRecord(ctx, s.collections.Gallery, fields, ref)
	if err != nil {
		return nil, err
	}
	out, err := fromDocument[GalleryImage](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(out), nil
}

func (s *GalleryService) Get(ctx context.Context, id string) (*GalleryImage, error) {
	doc, err := s.store.Get(ctx, s.collections.Gallery, id)
	if err != nil {
		return nil, err
	}
	g, err := fromDocument[GalleryImage](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(g), nil
}

func (s *GalleryService) List(ctx context.Context, req ListGalleryRequest) (*ListResult[GalleryImage], error) {
	var filters []Filter
	if c := strings.TrimSpace(req.Category); c != "" {
		filters = append(filters, Filter{Field: "category", Op: OpEqual, Value: c})
	}
	docs, err := s.list(ctx, s.collections.Gallery, req.Page, filters)
	if err != nil {
		return nil, err
	}
	res, err := fromDocuments[GalleryImage](docs)
	if err != nil {
		return nil, err
	}
	for _, g := range res.Items {
		s.decorate(g)
	}
	return res, nil
}

func (s *GalleryService) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.collections.Gallery, id); err != nil {
		return err
	}
	s.removeObject(ctx, current.ImageBucketID, current.ImageID)
	return nil
}
