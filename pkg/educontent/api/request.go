package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/repository"
)

func (s *Server) page(r *http.Request) (educontent.Page, error) {
	q := r.URL.Query()
	return repository.ParsePage(q.Get("limit"), q.Get("offset"), s.limits)
}

// requireJSON rejects bodies that are not declared as application/json
func requireJSON(r *http.Request) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("%w: expected application/json", educontent.ErrUnsupportedMediaType)
	}
	return nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &educontent.ValidationError{Reason: "request body too large"}
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", educontent.ErrInvalidParameter)
		}
		return fmt.Errorf("%w: malformed JSON body: %v", educontent.ErrInvalidParameter, err)
	}
	return nil
}

func (s *Server) parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			return fmt.Errorf("%w: expected multipart/form-data", educontent.ErrUnsupportedMediaType)
		case errors.As(err, &tooLarge):
			return &educontent.ValidationError{Reason: "upload too large"}
		default:
			return fmt.Errorf("%w: malformed multipart body: %v", educontent.ErrInvalidParameter, err)
		}
	}
	return nil
}

// formFile returns the upload in field, or nil when the form carries none.
// The caller closes the returned file.
func formFile(r *http.Request, field string) (*educontent.FileUpload, multipart.File, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", educontent.ErrInvalidParameter, field, err)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
			mimeType = byExt
		}
	}

	return &educontent.FileUpload{
		Name:     header.Filename,
		Size:     header.Size,
		MimeType: mimeType,
		Reader:   file,
	}, file, nil
}

func closeFile(f multipart.File) {
	if f != nil {
		_ = f.Close()
	}
}

func formInt(r *http.Request, field string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &educontent.ValidationError{Field: field, Reason: "must be a whole number"}
	}
	return n, nil
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}
