// Package export filters, sorts and renders application records as CSV.
// It works on records already in memory and never reads from a store.
package export

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/tendant/edu-content/pkg/educontent"
)

// Criteria narrows a set of applications
type Criteria struct {
	// Search matches case-insensitively against name, email, phone number and destinations
	Search string `json:"search"`
	// Status, when set, must match exactly
	Status string `json:"status"`
}

// SortField names a sortable application attribute
type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortFullName  SortField = "fullName"
	SortStatus    SortField = "status"
)

// SortBy orders applications by one field
type SortBy struct {
	Field SortField `json:"field"`
	Desc  bool      `json:"desc"`
}

// ParseSort reads "field" or "field:asc|desc". An empty value sorts newest first.
func ParseSort(raw string) (SortBy, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SortBy{Field: SortCreatedAt, Desc: true}, nil
	}
	field, dir, _ := strings.Cut(raw, ":")
	by := SortBy{Field: SortField(field)}
	switch by.Field {
	case SortCreatedAt, SortFullName, SortStatus:
	default:
		return SortBy{}, fmt.Errorf("%w: sort field %q", educontent.ErrInvalidParameter, field)
	}
	switch strings.ToLower(dir) {
	case "", "asc":
	case "desc":
		by.Desc = true
	default:
		return SortBy{}, fmt.Errorf("%w: sort direction %q", educontent.ErrInvalidParameter, dir)
	}
	return by, nil
}

// Filter returns the applications matching c, preserving order
func Filter(apps []educontent.Application, c Criteria) []educontent.Application {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	status := strings.TrimSpace(c.Status)

	out := make([]educontent.Application, 0, len(apps))
	for _, app := range apps {
		if status != "" && string(app.Status) != status {
			continue
		}
		if search != "" && !matchesSearch(app, search) {
			continue
		}
		out = append(out, app)
	}
	return out
}

func matchesSearch(app educontent.Application, needle string) bool {
	for _, hay := range []string{app.FullName, app.Email, app.PhoneNumber} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	for _, d := range app.StudyDestinations {
		if strings.Contains(strings.ToLower(string(d)), needle) {
			return true
		}
	}
	return false
}

// Sort returns a stably sorted copy of apps
func Sort(apps []educontent.Application, by SortBy) []educontent.Application {
	out := make([]educontent.Application, len(apps))
	copy(out, apps)

	cmp := func(a, b educontent.Application) int {
		switch by.Field {
		case SortFullName:
			return strings.Compare(strings.ToLower(a.FullName), strings.ToLower(b.FullName))
		case SortStatus:
			return strings.Compare(string(a.Status), string(b.Status))
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if by.Desc {
			return cmp(out[i], out[j]) > 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out
}

type row struct {
	FullName              string `csv:"Full Name"`
	Email                 string `csv:"Email"`
	PhoneNumber           string `csv:"Phone Number"`
	CurrentAddress        string `csv:"Current Address"`
	AcademicQualification string `csv:"Academic Qualification"`
	StudyDestinations     string `csv:"Study Destinations"`
	LevelOfStudy          string `csv:"Level of Study"`
	EnglishTest           string `csv:"English Test"`
	PassportStatus        string `csv:"Passport Status"`
	StudyReason           string `csv:"Study Reason"`
	Status                string `csv:"Status"`
	Date                  string `csv:"Date"`
}

func toRow(app educontent.Application) *row {
	dests := make([]string, len(app.StudyDestinations))
	for i, d := range app.StudyDestinations {
		dests[i] = string(d)
	}
	date := ""
	if !app.CreatedAt.IsZero() {
		date = app.CreatedAt.UTC().Format(educontent.DateLayout)
	}
	return &row{
		FullName:              app.FullName,
		Email:                 app.Email,
		PhoneNumber:           app.PhoneNumber,
		CurrentAddress:        app.CurrentAddress,
		AcademicQualification: app.AcademicQualification,
		StudyDestinations:     strings.Join(dests, ", "),
		LevelOfStudy:          app.LevelOfStudy,
		EnglishTest:           app.EnglishTest,
		PassportStatus:        app.PassportStatus,
		StudyReason:           app.StudyReason,
		Status:                string(app.Status),
		Date:                  date,
	}
}

// WriteCSV writes a header row followed by one row per application.
// The header is written even when apps is empty.
func WriteCSV(w io.Writer, apps []educontent.Application) error {
	rows := make([]*row, 0, len(apps))
	for _, app := range apps {
		rows = append(rows, toRow(app))
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// CSV renders apps into memory
func CSV(apps []educontent.Application) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, apps); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Apply filters, sorts and renders apps
func Apply(apps []educontent.Application, c Criteria, by SortBy) ([]byte, error) {
	return CSV(Sort(Filter(apps, c), by))
}
