package educontent

import (
	"context"
	"fmt"
	"strings"
)

type CreateUniversityRequest struct {
	Name        string `json:"name"`
	Country     string `json:"country"`
	Intake      string `json:"intake"`
	Programs    string `json:"programs"`
	Ranking     int    `json:"ranking"`
	Description string `json:"description"`
}

type UpdateUniversityRequest struct {
	Name        *string `json:"name,omitempty"`
	Country     *string `json:"country,omitempty"`
	Intake      *string `json:"intake,omitempty"`
	Programs    *string `json:"programs,omitempty"`
	Ranking     *int    `json:"ranking,omitempty"`
	Description *string `json:"description,omitempty"`
}

type ListUniversitiesRequest struct {
	Page    Page
	Country string
	// ByRanking orders by ranking ascending instead of newest first
	ByRanking bool
}

// UniversityService manages partner institutions
type UniversityService struct {
	*deps
}

func validateRanking(r int) error {
	if r < 0 {
		return &ValidationError{Field: "ranking", Reason: fmt.Sprintf("must not be negative, got %d", r)}
	}
	return nil
}

// canonicalCountry returns the known spelling of c, or c unchanged
func canonicalCountry(c string) string {
	if known, ok := ParseCountry(c); ok {
		return string(known)
	}
	return c
}

func (s *UniversityService) decorate(u *University) *University {
	u.ImageURL = s.resolver.ViewURL(u.ImageID, u.ImageBucketID, 0, 0)
	return u
}

func (s *UniversityService) Create(ctx context.Context, req CreateUniversityRequest, image *FileUpload) (*University, error) {
	if err := requireFields(
		fieldCheck{"name", &req.Name},
		fieldCheck{"country", &req.Country},
	); err != nil {
		return nil, err
	}
	if err := validateRanking(req.Ranking); err != nil {
		return nil, err
	}

	ref, err := s.uploadImage(ctx, s.buckets.Universities, image)
	if err != nil {
		return nil, err
	}
	u := &University{
		Name:        req.Name,
		Country:     canonicalCountry(req.Country),
		Intake:      strings.TrimSpace(req.Intake),
		Programs:    strings.TrimSpace(req.Programs),
		Ranking:     req.Ranking,
		Description: strings.TrimSpace(req.Description),
	}
	if ref != nil {
		u.ImageID = ref.FileID
		u.ImageBucketID = ref.BucketID
	}

	fields, err := toFields(u, "imageUrl")
	if err != nil {
		return nil, err
	}
	doc, err := s.createRecord(ctx, s.collections.Universities, fields, ref)
	if err != nil {
		return nil, err
	}
	out, err := fromDocument[University](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(out), nil
}

func (s *UniversityService) Get(ctx context.Context, id string) (*University, error) {
	doc, err := s.store.Get(ctx, s.collections.Universities, id)
	if err != nil {
		return nil, err
	}
	u, err := fromDocument[University](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(u), nil
}

func (s *UniversityService) List(ctx context.Context, req ListUniversitiesRequest) (*ListResult[University], error) {
	var filters []Filter
	if c := strings.TrimSpace(req.Country); c != "" {
		filters = append(filters, Filter{Field: "country", Op: OpEqual, Value: canonicalCountry(c)})
	}
	var sort []Sort
	if req.ByRanking {
		sort = []Sort{{Field: "ranking"}, {Field: "name"}}
	}

	docs, err := s.list(ctx, s.collections.Universities, req.Page, filters, sort...)
	if err != nil {
		return nil, err
	}
	res, err := fromDocuments[University](docs)
	if err != nil {
		return nil, err
	}
	for _, u := range res.Items {
		s.decorate(u)
	}
	return res, nil
}

func (s *UniversityService) Update(ctx context.Context, id string, req UpdateUniversityRequest) (*University, error) {
	partial := partialFields{}
	for _, f := range []struct {
		name     string
		value    *string
		required bool
	}{
		{"name", req.Name, true},
		{"country", req.Country, true},
		{"intake", req.Intake, false},
		{"programs", req.Programs, false},
		{"description", req.Description, false},
	} {
		if err := partial.set(f.name, f.value, f.required); err != nil {
			return nil, err
		}
	}
	if c, ok := partial["country"].(string); ok {
		partial["country"] = canonicalCountry(c)
	}
	if req.Ranking != nil {
		if err := validateRanking(*req.Ranking); err != nil {
			return nil, err
		}
		partial["ranking"] = *req.Ranking
	}
	if err := partial.empty(); err != nil {
		return nil, err
	}

	doc, err := s.store.Update(ctx, s.collections.Universities, id, partial)
	if err != nil {
		return nil, err
	}
	u, err := fromDocument[University](doc)
	if err != nil {
		return nil, err
	}
	return s.decorate(u), nil
}

func (s *UniversityService) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.collections.Universities, id); err != nil {
		return err
	}
	s.removeObject(ctx, current.ImageBucketID, current.ImageID)
	return nil
}
