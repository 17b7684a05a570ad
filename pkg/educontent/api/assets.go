package api

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nfnt/resize"
	"github.com/tendant/edu-content/pkg/educontent"
)

// handleAsset serves an object in one of three modes. download redirects to a
// presigned URL when the backend issues one and otherwise streams as an attachment.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucketID")
	fileID := chi.URLParam(r, "fileID")
	mode := chi.URLParam(r, "mode")

	var width, height int
	switch mode {
	case "view", "download":
	case "preview":
		var err error
		if width, err = dimension(r, "width"); err != nil {
			s.renderError(w, r, err, "failed to preview object", true)
			return
		}
		if height, err = dimension(r, "height"); err != nil {
			s.renderError(w, r, err, "failed to preview object", true)
			return
		}
	default:
		http.NotFound(w, r)
		return
	}

	if mode == "download" {
		u, err := s.assets.PresignedDownloadURL(r.Context(), bucket, fileID, r.URL.Query().Get("name"))
		if err == nil {
			http.Redirect(w, r, u, http.StatusFound)
			return
		}
		if !errors.Is(err, educontent.ErrDirectAccessRequired) {
			s.renderError(w, r, err, "failed to download object", true)
			return
		}
	}

	rc, meta, err := s.assets.OpenObject(r.Context(), bucket, fileID)
	if err != nil {
		s.renderError(w, r, err, "failed to open object", true)
		return
	}
	defer rc.Close()

	if mode == "preview" && (width > 0 || height > 0) && resizable(meta.ContentType) {
		data, err := io.ReadAll(rc)
		if err != nil {
			s.renderError(w, r, fmt.Errorf("%w: read object: %v", educontent.ErrStore, err), "failed to preview object", true)
			return
		}
		out, err := resizeImage(data, meta.ContentType, width, height)
		if err != nil {
			s.logger.Warn("preview resize failed, serving original", "bucket", bucket, "file_id", fileID, "error", err)
			out = data
		}
		w.Header().Set("Content-Type", meta.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(out)))
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(out)
		return
	}

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if meta.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	}
	if mode == "download" {
		params := map[string]string{}
		if meta.FileName != "" {
			params["filename"] = meta.FileName
		}
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", params))
	} else {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	}

	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("object stream interrupted", "bucket", bucket, "file_id", fileID, "error", err)
	}
}

func dimension(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", educontent.ErrInvalidParameter, name)
	}
	return n, nil
}

func resizable(contentType string) bool {
	return contentType == "image/jpeg" || contentType == "image/png"
}

// resizeImage scales data to fit the requested box, keeping the aspect ratio
// when one side is zero. Images are never enlarged.
func resizeImage(data []byte, contentType string, width, height int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	if width > bounds.Dx() {
		width = bounds.Dx()
	}
	if height > bounds.Dy() {
		height = bounds.Dy()
	}

	scaled := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)

	var buf bytes.Buffer
	switch contentType {
	case "image/png":
		err = png.Encode(&buf, scaled)
	default:
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
