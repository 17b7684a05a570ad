package educontent

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ApplicationStatus is the lifecycle state of a student application.
type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusResponded ApplicationStatus = "responded"
)

func (s ApplicationStatus) IsValid() bool {
	return s == ApplicationStatusPending || s == ApplicationStatusResponded
}

// ParseApplicationStatus accepts the enumerated values, case-insensitively.
func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	s := ApplicationStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: application status %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// StoryStatus is the moderation state of a testimonial.
type StoryStatus string

const (
	StoryStatusPending  StoryStatus = "pending"
	StoryStatusApproved StoryStatus = "approved"
)

func (s StoryStatus) IsValid() bool {
	return s == StoryStatusPending || s == StoryStatusApproved
}

func ParseStoryStatus(raw string) (StoryStatus, error) {
	s := StoryStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: story status %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// PublishStatus controls public visibility of news and events.
type PublishStatus string

const (
	PublishStatusDraft     PublishStatus = "draft"
	PublishStatusPublished PublishStatus = "published"
)

func (s PublishStatus) IsValid() bool {
	return s == PublishStatusDraft || s == PublishStatusPublished
}

func ParsePublishStatus(raw string) (PublishStatus, error) {
	s := PublishStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: publish status %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// NewsType distinguishes news posts from dated events.
type NewsType string

const (
	NewsTypeNews  NewsType = "news"
	NewsTypeEvent NewsType = "event"
)

func (t NewsType) IsValid() bool {
	return t == NewsTypeNews || t == NewsTypeEvent
}

func ParseNewsType(raw string) (NewsType, error) {
	t := NewsType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("must be news or event, got %q", raw)}
	}
	return t, nil
}

// Country is a supported study destination.
type Country string

var countries = []Country{
	"Australia",
	"Canada",
	"UK",
	"USA",
	"New Zealand",
	"Ireland",
	"Germany",
	"France",
	"Netherlands",
	"Japan",
	"South Korea",
	"Dubai",
	"Malaysia",
	"Singapore",
}

// Countries returns the supported destinations in display order.
func Countries() []Country {
	out := make([]Country, len(countries))
	copy(out, countries)
	return out
}

// ParseCountry matches raw case-insensitively and returns the canonical spelling.
func ParseCountry(raw string) (Country, bool) {
	raw = strings.TrimSpace(raw)
	for _, c := range countries {
		if strings.EqualFold(string(c), raw) {
			return c, true
		}
	}
	return "", false
}

// DateLayout is the wire format for calendar dates on news and events.
const DateLayout = "2006-01-02"

// Application is a prospective student's submission.
type Application struct {
	ID                    string            `json:"id"`
	FullName              string            `json:"fullName"`
	PhoneNumber           string            `json:"phoneNumber"`
	Email                 string            `json:"email"`
	CurrentAddress        string            `json:"currentAddress"`
	AcademicQualification string            `json:"academicQualification"`
	StudyDestinations     []Country         `json:"studyDestinations"`
	LevelOfStudy          string            `json:"levelOfStudy"`
	EnglishTest           string            `json:"englishTest"`
	PassportStatus        string            `json:"passportStatus"`
	StudyReason           string            `json:"studyReason"`
	Status                ApplicationStatus `json:"status"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`
}

// Story is a student testimonial. ImageURL is computed on read.
type Story struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Program       string      `json:"program"`
	University    string      `json:"university"`
	Content       string      `json:"content"`
	Rating        int         `json:"rating"`
	ImageID       string      `json:"imageId,omitempty"`
	ImageBucketID string      `json:"imageBucketId,omitempty"`
	ImageURL      string      `json:"imageUrl,omitempty"`
	Status        StoryStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Resource is a downloadable document. FileURL is computed on read.
type Resource struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Type         string    `json:"type"`
	FileID       string    `json:"fileId"`
	FileBucketID string    `json:"fileBucketId"`
	FileName     string    `json:"fileName"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mimeType,omitempty"`
	FileURL      string    `json:"fileUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewsEvent is a news post or a dated event.
type NewsEvent struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Type          NewsType      `json:"type"`
	Content       string        `json:"content"`
	Date          string        `json:"date"`
	Status        PublishStatus `json:"status"`
	ImageID       string        `json:"imageId,omitempty"`
	ImageBucketID string        `json:"imageBucketId,omitempty"`
	ImageURL      string        `json:"imageUrl,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// University is a partner institution. Programs is a comma-delimited list.
type University struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Country       string    `json:"country"`
	Intake        string    `json:"intake,omitempty"`
	Programs      string    `json:"programs,omitempty"`
	Ranking       int       `json:"ranking"`
	Description   string    `json:"description,omitempty"`
	ImageID       string    `json:"imageId,omitempty"`
	ImageBucketID string    `json:"imageBucketId,omitempty"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProgramList splits Programs on commas, dropping blanks.
func (u *University) ProgramList() []string {
	var out []string
	for _, p := range strings.Split(u.Programs, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GalleryImage is a photo shown on the public gallery page.
type GalleryImage struct {
	ID            string    `json:"id"`
	Title         string    `json:"title,omitempty"`
	Category      string    `json:"category,omitempty"`
	ImageID       string    `json:"imageId"`
	ImageBucketID string    `json:"imageBucketId"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ObjectRef identifies one stored binary.
type ObjectRef struct {
	BucketID string `json:"bucketId"`
	FileID   string `json:"fileId"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType,omitempty"`
}

// FileUpload is a binary in flight from a client.
type FileUpload struct {
	Name     string
	Size     int64
	MimeType string
	Reader   io.Reader
}

// Page is a normalised pagination window.
type Page struct {
	Limit  int
	Offset int
}

// ListResult is one page of typed records plus the total match count.
type ListResult[T any] struct {
	Items []*T
	Total int
}
