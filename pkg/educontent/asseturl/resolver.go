// Package asseturl builds the public URLs under which stored objects are served.
//
// URLs take the shape
//
//	{endpoint}/storage/buckets/{bucketID}/files/{fileID}/{view|preview|download}?project={projectID}
//
// and are derived purely from their inputs, so the same arguments always yield
// the same bytes and nothing is fetched or cached.
package asseturl

import (
	"net/url"
	"strconv"
	"strings"
)

// Resolver generates view, preview and download URLs for one endpoint and project
type Resolver struct {
	Endpoint  string // e.g., "https://assets.example.com/v1"
	ProjectID string
}

// New creates a resolver, trimming any trailing slash from endpoint
func New(endpoint, projectID string) *Resolver {
	return &Resolver{
		Endpoint:  strings.TrimSuffix(endpoint, "/"),
		ProjectID: projectID,
	}
}

// ViewURL returns the inline URL for fileID, or "" when fileID is empty.
// Positive width or height hints switch to the preview endpoint.
func (r *Resolver) ViewURL(fileID, bucketID string, width, height int) string {
	if fileID == "" {
		return ""
	}
	q := url.Values{}
	q.Set("project", r.ProjectID)
	if width <= 0 && height <= 0 {
		return r.build(bucketID, fileID, "view", q)
	}
	if width > 0 {
		q.Set("width", strconv.Itoa(width))
	}
	if height > 0 {
		q.Set("height", strconv.Itoa(height))
	}
	return r.build(bucketID, fileID, "preview", q)
}

// DownloadURL returns the attachment URL for fileID, or "" when fileID is empty
func (r *Resolver) DownloadURL(fileID, bucketID string) string {
	if fileID == "" {
		return ""
	}
	q := url.Values{}
	q.Set("project", r.ProjectID)
	return r.build(bucketID, fileID, "download", q)
}

func (r *Resolver) build(bucketID, fileID, mode string, q url.Values) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(r.Endpoint, "/"))
	b.WriteString("/storage/buckets/")
	b.WriteString(url.PathEscape(bucketID))
	b.WriteString("/files/")
	b.WriteString(url.PathEscape(fileID))
	b.WriteString("/")
	b.WriteString(mode)
	b.WriteString("?")
	b.WriteString(q.Encode())
	return b.String()
}
