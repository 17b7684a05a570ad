package educontent

import (
	"context"
	"fmt"
	"strings"
)

const (
	MinRating = 1
	MaxRating = 5
)

// SubmitStoryRequest is a public testimonial submission
type SubmitStoryRequest struct {
	Name       string `json:"name"`
	Program    string `json:"program"`
	University string `json:"university"`
	Content    string `json:"content"`
	Rating     int    `json:"rating"`
}

type ListStoriesRequest struct {
	Page   Page
	Status string
}

// StoryService manages testimonials and their moderation
type StoryService struct {
	*deps
}

func (r SubmitStoryRequest) toStory() (*Story, error) {
	if err := requireFields(
		fieldCheck{"name", &r.Name},
		fieldCheck{"program", &r.Program},
		fieldCheck{"university", &r.University},
		fieldCheck{"content", &r.Content},
	); err != nil {
		return nil, err
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return nil, &ValidationError{Field: "rating", Reason: fmt.Sprintf("must be between %d and %d, got %d", MinRating, MaxRating, r.Rating)}
	}
	return &Story{
		Name:       r.Name,
		Program:    r.Program,
		University: r.University,
		Content:    r.Content,
		Rating:     r.Rating,
		Status:     StoryStatusPending,
	}, nil
}

func (s *StoryService) decorate(st *Story) *Story {
	st.ImageURL = s.resolver.ViewURL(st.ImageID, st.ImageBucketID, 0, 0)
	return st
}

// Submit validates and stores a pending story. The image, when given, is
// uploaded first and the record is only created if the upload succeeds.
func (s *StoryService) Submit(ctx context.Context, req SubmitStoryRequest, image *FileUpload) (*Story, error) {
	story, err := req.toStory()
	if err != nil {
		return nil, err
	}

	ref, err := s.uploadImage(ctx, s.buckets.Stories, image)
	if err != nil {
		return nil, err
	}
	if ref != nil {
		story.ImageID = ref.FileID
		story.ImageBucketID = ref.BucketID
	}

	fields, err := toFields(story, "imageUrl")
	if err != nil {
		return nil, err
	}
	doc, err := s.createRecord(ctx, s.collections.Stories, fields, ref)
	if err != nil {
		return nil, err
	}
	out, err := fromDocument[Story](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(out), nil
}

func (s *StoryService) Get(ctx context.Context, id string) (*Story, error) {
	doc, err := s.store.Get(ctx, s.collections.Stories, id)
	if err != nil {
		return nil, err
	}
	st, err := fromDocument[Story](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(st), nil
}

// ListApproved returns the stories visible on the public site
func (s *StoryService) ListApproved(ctx context.Context, page Page) (*ListResult[Story], error) {
	return s.List(ctx, ListStoriesRequest{Page: page, Status: string(StoryStatusApproved)})
}

// List returns stories newest first, optionally filtered by status
func (s *StoryService) List(ctx context.Context, req ListStoriesRequest) (*ListResult[Story], error) {
	var filters []Filter
	if strings.TrimSpace(req.Status) != "" {
		status, err := ParseStoryStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filters = append(filters, Filter{Field: "status", Op: OpEqual, Value: status})
	}

	docs, err := s.list(ctx, s.collections.Stories, req.Page, filters)
	if err != nil {
		return nil, err
	}
	res, err := fromDocuments[Story](docs)
	if err != nil {
		return nil, err
	}
	for _, st := range res.Items {
		s.decorate(st)
	}
	return res, nil
}

// Moderate applies a moderation decision. Approval is the only transition;
// a rejected story is deleted instead.
func (s *StoryService) Moderate(ctx context.Context, id, raw string) (*Story, error) {
	status, err := ParseStoryStatus(raw)
	if err != nil {
		return nil, err
	}
	if status != StoryStatusApproved {
		return nil, fmt.Errorf("%w: stories can only be moved to %s", ErrInvalidStatus, StoryStatusApproved)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}

	doc, err := s.store.Update(ctx, s.collections.Stories, id, map[string]any{"status": string(status)})
	if err != nil {
		return nil, err
	}
	s.logger.Info("story approved", "id", id)
	st, err := fromDocument[Story](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(st), nil
}

// Delete removes the story and then its image
func (s *StoryService) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.collections.Stories, id); err != nil {
		return err
	}
	s.removeObject(ctx, current.ImageBucketID, current.ImageID)
	return nil
}
