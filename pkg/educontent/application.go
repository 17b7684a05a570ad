package educontent

import (
	"context"
	"fmt"
	"strings"
)

// SubmitApplicationRequest is the public application form
type SubmitApplicationRequest struct {
	FullName              string   `json:"fullName"`
	PhoneNumber           string   `json:"phoneNumber"`
	Email                 string   `json:"email"`
	CurrentAddress        string   `json:"currentAddress"`
	AcademicQualification string   `json:"academicQualification"`
	StudyDestinations     []string `json:"studyDestinations"`
	LevelOfStudy          string   `json:"levelOfStudy"`
	EnglishTest           string   `json:"englishTest"`
	PassportStatus        string   `json:"passportStatus"`
	StudyReason           string   `json:"studyReason"`
	// Status is accepted for compatibility but ignored; submissions always start pending.
	Status string `json:"status,omitempty"`
}

// ListApplicationsRequest selects a page of applications, optionally by status
type ListApplicationsRequest struct {
	Page   Page
	Status string
}

// ApplicationService manages student applications
type ApplicationService struct {
	*deps
}

func (r SubmitApplicationRequest) toApplication() (*Application, error) {
	if err := requireFields(
		fieldCheck{"fullName", &r.FullName},
		fieldCheck{"phoneNumber", &r.PhoneNumber},
		fieldCheck{"email", &r.Email},
		fieldCheck{"currentAddress", &r.CurrentAddress},
		fieldCheck{"academicQualification", &r.AcademicQualification},
		fieldCheck{"levelOfStudy", &r.LevelOfStudy},
		fieldCheck{"englishTest", &r.EnglishTest},
		fieldCheck{"passportStatus", &r.PassportStatus},
		fieldCheck{"studyReason", &r.StudyReason},
	); err != nil {
		return nil, err
	}
	if at := strings.Index(r.Email, "@"); at <= 0 || at == len(r.Email)-1 {
		return nil, &ValidationError{Field: "email", Reason: "must be an email address"}
	}

	destinations, err := parseDestinations(r.StudyDestinations)
	if err != nil {
		return nil, err
	}

	return &Application{
		FullName:              r.FullName,
		PhoneNumber:           r.PhoneNumber,
		Email:                 r.Email,
		CurrentAddress:        r.CurrentAddress,
		AcademicQualification: r.AcademicQualification,
		StudyDestinations:     destinations,
		LevelOfStudy:          r.LevelOfStudy,
		EnglishTest:           r.EnglishTest,
		PassportStatus:        r.PassportStatus,
		StudyReason:           r.StudyReason,
		Status:                ApplicationStatusPending,
	}, nil
}

// parseDestinations canonicalises and de-duplicates, keeping first-seen order
func parseDestinations(raw []string) ([]Country, error) {
	if len(raw) == 0 {
		return nil, &ValidationError{Field: "studyDestinations", Reason: "must contain at least one destination"}
	}
	seen := make(map[Country]bool, len(raw))
	out := make([]Country, 0, len(raw))
	for _, r := range raw {
		c, ok := ParseCountry(r)
		if !ok {
			return nil, &ValidationError{Field: "studyDestinations", Reason: fmt.Sprintf("unsupported destination %q", r)}
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// Submit validates the form and stores it as a pending application.
// Nothing reaches the store when validation fails.
func (s *ApplicationService) Submit(ctx context.Context, req SubmitApplicationRequest) (*Application, error) {
	app, err := req.toApplication()
	if err != nil {
		return nil, err
	}

	fields, err := toFields(app)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.Create(ctx, s.collections.Applications, fields)
	if err != nil {
		return nil, err
	}
	s.logger.Info("application submitted", "id", doc.ID, "destinations", len(app.StudyDestinations))
	return fromDocument[Application](doc)
}

func (s *ApplicationService) Get(ctx context.Context, id string) (*Application, error) {
	doc, err := s.store.Get(ctx, s.collections.Applications, id)
	if err != nil {
		return nil, err
	}
	return fromDocument[Application](doc)
}

// List returns applications newest first
func (s *ApplicationService) List(ctx context.Context, req ListApplicationsRequest) (*ListResult[Application], error) {
	var filters []Filter
	if strings.TrimSpace(req.Status) != "" {
		status, err := ParseApplicationStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filters = append(filters, Filter{Field: "status", Op: OpEqual, Value: status})
	}

	docs, err := s.list(ctx, s.collections.Applications, req.Page, filters)
	if err != nil {
		return nil, err
	}
	return fromDocuments[Application](docs)
}

// UpdateStatus moves an application between pending and responded in either
// direction. Setting the current status is a no-op.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id, raw string) (*Application, error) {
	status, err := ParseApplicationStatus(raw)
	if err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}

	doc, err := s.store.Update(ctx, s.collections.Applications, id, map[string]any{"status": string(status)})
	if err != nil {
		return nil, err
	}
	s.logger.Info("application status updated", "id", id, "from", current.Status, "to", status)
	return fromDocument[Application](doc)
}

func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, s.collections.Applications, id)
}
