package educontent

import (
	"context"
	"strings"
	"time"
)

type CreateNewsEventRequest struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Date    string `json:"date"`
	Status  string `json:"status"`
}

type UpdateNewsEventRequest struct {
	Title   *string `json:"title,omitempty"`
	Type    *string `json:"type,omitempty"`
	Content *string `json:"content,omitempty"`
	Date    *string `json:"date,omitempty"`
	Status  *string `json:"status,omitempty"`
}

type ListNewsRequest struct {
	Page Page
	Type string
	// PublishedOnly hides drafts; the public site always sets it
	PublishedOnly bool
}

// NewsEventService manages news posts and events
type NewsEventService struct {
	*deps
}

func parseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse(DateLayout, raw); err != nil {
		return "", &ValidationError{Field: "date", Reason: "must be a date in YYYY-MM-DD form"}
	}
	return raw, nil
}

func parsePublishStatus(raw string) (PublishStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return PublishStatusDraft, nil
	}
	return ParsePublishStatus(raw)
}

func (s *NewsEventService) decorate(n *NewsEvent) *NewsEvent {
	n.ImageURL = s.resolver.ViewURL(n.ImageID, n.ImageBucketID, 0, 0)
	return n
}

// Create stores a news post or event. Status defaults to draft.
func (s *NewsEventService) Create(ctx context.Context, req CreateNewsEventRequest, image *FileUpload) (*NewsEvent, error) {
	if err := requireFields(
		fieldCheck{"title", &req.Title},
		fieldCheck{"content", &req.Content},
	); err != nil {
		return nil, err
	}
	typ, err := ParseNewsType(req.Type)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	status, err := parsePublishStatus(req.Status)
	if err != nil {
		return nil, err
	}

	ref, err := s.uploadImage(ctx, s.buckets.NewsEvents, image)
	if err != nil {
		return nil, err
	}
	item := &NewsEvent{
		Title:   req.Title,
		Type:    typ,
		Content: req.Content,
		Date:    date,
		Status:  status,
	}
	if ref != nil {
		item.ImageID = ref.FileID
		item.ImageBucketID = ref.BucketID
	}

	fields, err := toFields(item, "imageUrl")
	if err != nil {
		return nil, err
	}
	doc, err := s.createRecord(ctx, s.collections.NewsEvents, fields, ref)
	if err != nil {
		return nil, err
	}
	out, err := fromDocument[NewsEvent](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(out), nil
}

func (s *NewsEventService) Get(ctx context.Context, id string) (*NewsEvent, error) {
	doc, err := s.store.Get(ctx, s.collections.NewsEvents, id)
	if err != nil {
		return nil, err
	}
	n, err := fromDocument[NewsEvent](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(n), nil
}

// List returns items by date, newest first
func (s *NewsEventService) List(ctx context.Context, req ListNewsRequest) (*ListResult[NewsEvent], error) {
	var filters []Filter
	if strings.TrimSpace(req.Type) != "" {
		typ, err := ParseNewsType(req.Type)
		if err != nil {
			return nil, err
		}
		filters = append(filters, Filter{Field: "type", Op: OpEqual, Value: typ})
	}
	if req.PublishedOnly {
		filters = append(filters, Filter{Field: "status", Op: OpEqual, Value: PublishStatusPublished})
	}
	return s.find(ctx, req.Page, filters, Sort{Field: "date", Desc: true}, Sort{Field: "createdAt", Desc: true})
}

// ListPublished returns published items, optionally of one type
func (s *NewsEventService) ListPublished(ctx context.Context, page Page, typ string) (*ListResult[NewsEvent], error) {
	return s.List(ctx, ListNewsRequest{Page: page, Type: typ, PublishedOnly: true})
}

// ListUpcoming returns published events dated today or later, soonest first
func (s *NewsEventService) ListUpcoming(ctx context.Context, page Page) (*ListResult[NewsEvent], error) {
	today := s.now().UTC().Format(DateLayout)
	filters := []Filter{
		{Field: "type", Op: OpEqual, Value: NewsTypeEvent},
		{Field: "status", Op: OpEqual, Value: PublishStatusPublished},
		{Field: "date", Op: OpGTE, Value: today},
	}
	return s.find(ctx, page, filters, Sort{Field: "date"}, Sort{Field: "createdAt"})
}

func (s *NewsEventService) find(ctx context.Context, page Page, filters []Filter, sort ...Sort) (*ListResult[NewsEvent], error) {
	docs, err := s.list(ctx, s.collections.NewsEvents, page, filters, sort...)
	if err != nil {
		return nil, err
	}
	res, err := fromDocuments[NewsEvent](docs)
	if err != nil {
		return nil, err
	}
	for _, n := range res.Items {
		s.decorate(n)
	}
	return res, nil
}

func (s *NewsEventService) Update(ctx context.Context, id string, req UpdateNewsEventRequest) (*NewsEvent, error) {
	partial := partialFields{}
	if err := partial.set("title", req.Title, true); err != nil {
		return nil, err
	}
	if err := partial.set("content", req.Content, true); err != nil {
		return nil, err
	}
	if req.Type != nil {
		typ, err := ParseNewsType(*req.Type)
		if err != nil {
			return nil, err
		}
		partial["type"] = string(typ)
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		partial["date"] = date
	}
	if req.Status != nil {
		status, err := ParsePublishStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		partial["status"] = string(status)
	}
	if err := partial.empty(); err != nil {
		return nil, err
	}

	doc, err := s.store.Update(ctx, s.collections.NewsEvents, id, partial)
	if err != nil {
		return nil, err
	}
	n, err := fromDocument[NewsEvent](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(n), nil
}

func (s *NewsEventService) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.collections.NewsEvents, id); err != nil {
		return err
	}
	s.removeObject(ctx, current.ImageBucketID, current.ImageID)
	return nil
}
