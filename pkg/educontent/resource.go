package educontent

import (
	"context"
	"strings"
)

type CreateResourceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// UpdateResourceRequest changes resource metadata; nil fields are left alone
type UpdateResourceRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty"`
}

type ListResourcesRequest struct {
	Page Page
	Type string
}

// ResourceService manages downloadable documents
type ResourceService struct {
	*deps
}

func (s *ResourceService) decorate(r *Resource) *Resource {
	r.FileURL = s.resolver.DownloadURL(r.FileID, r.FileBucketID)
	return r
}

// Create uploads file and stores a resource referencing it. The request and
// file are validated before anything is sent to the store.
func (s *ResourceService) Create(ctx context.Context, req CreateResourceRequest, file *FileUpload) (*Resource, error) {
	if err := requireFields(
		fieldCheck{"name", &req.Name},
		fieldCheck{"type", &req.Type},
	); err != nil {
		return nil, err
	}
	if file == nil || file.Reader == nil {
		return nil, &ValidationError{Field: "file", Reason: "is required"}
	}
	if file.Size <= 0 {
		return nil, &ValidationError{Field: "file", Reason: "must not be empty"}
	}

	ref, err := s.store.UploadObject(ctx, s.buckets.Resources, *file)
	if err != nil {
		return nil, err
	}

	res := &Resource{
		Name:         req.Name,
		Description:  strings.TrimSpace(req.Description),
		Type:         req.Type,
		FileID:       ref.FileID,
		FileBucketID: ref.BucketID,
		FileName:     ref.Name,
		Size:         ref.Size,
		MimeType:     ref.MimeType,
	}
	fields, err := toFields(res, "fileUrl")
	if err != nil {
		return nil, err
	}
	doc, err := s.createRecord(ctx, s.collections.Resources, fields, ref)
	if err != nil {
		return nil, err
	}
	out, err := fromDocument[Resource](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(out), nil
}

func (s *ResourceService) Get(ctx context.Context, id string) (*Resource, error) {
	doc, err := s.store.Get(ctx, s.collections.Resources, id)
	if err != nil {
		return nil, err
	}
	r, err := fromDocument[Resource](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(r), nil
}

func (s *ResourceService) List(ctx context.Context, req ListResourcesRequest) (*ListResult[Resource], error) {
	var filters []Filter
	if t := strings.TrimSpace(req.Type); t != "" {
		filters = append(filters, Filter{Field: "type", Op: OpEqual, Value: t})
	}
	docs, err := s.list(ctx, s.collections.Resources, req.Page, filters)
	if err != nil {
		return nil, err
	}
	res, err := fromDocuments[Resource](docs)
	if err != nil {
		return nil, err
	}
	for _, r := range res.Items {
		s.decorate(r)
	}
	return res, nil
}

func (s *ResourceService) Update(ctx context.Context, id string, req UpdateResourceRequest) (*Resource, error) {
	partial := partialFields{}
	if err := partial.set("name", req.Name, true); err != nil {
		return nil, err
	}
	if err := partial.set("description", req.Description, false); err != nil {
		return nil, err
	}
	if err := partial.set("type", req.Type, true); err != nil {
		return nil, err
	}
	if err := partial.empty(); err != nil {
		return nil, err
	}

	doc, err := s.store.Update(ctx, s.collections.Resources, id, partial)
	if err != nil {
		return nil, err
	}
	r, err := fromDocument[Resource](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(r), nil
}

// Delete removes the record and then the file it references
func (s *ResourceService) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.collections.Resources, id); err != nil {
		return err
	}
	s.removeObject(ctx, current.FileBucketID, current.FileID)
	return nil
}

// DownloadURL returns the public download URL of the resource's file
func (s *ResourceService) DownloadURL(ctx context.Context, id string) (string, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return r.FileURL, nil
}
