package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/asseturl"
	memorydocs "github.com/tendant/edu-content/pkg/educontent/docstore/memory"
	"github.com/tendant/edu-content/pkg/educontent/ratelimit"
	"github.com/tendant/edu-content/pkg/educontent/repository"
	memorystorage "github.com/tendant/edu-content/pkg/educontent/storage/memory"
)

const testAdminKey = "s3cret"

type testEnv struct {
	router http.Handler
	server *Server
	blobs  *memorystorage.Backend
	logs   *bytes.Buffer
}

func setupServer(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	blobs := memorystorage.New()
	resolver := asseturl.New("https://assets.example.com/v1", "proj")
	adapter, err := repository.New(
		repository.WithDocumentStore(memorydocs.New()),
		repository.WithBlobStore(blobs),
		repository.WithResolver(resolver),
	)
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	svc, err := educontent.New(
		educontent.WithAdapter(adapter),
		educontent.WithResolver(resolver),
		educontent.WithCollections(educontent.Collections{
			Applications: "col_8f2a_applications",
			Stories:      "col_8f2a_stories",
			Resources:    "col_8f2a_resources",
			NewsEvents:   "col_8f2a_news",
			Universities: "col_8f2a_universities",
			Gallery:      "col_8f2a_gallery",
		}),
		educontent.WithBuckets(educontent.Buckets{
			Stories:      "story-images",
			Resources:    "resource-files",
			NewsEvents:   "news-images",
			Universities: "university-images",
			Gallery:      "gallery-images",
		}),
		educontent.WithLogger(logger),
	)
	require.NoError(t, err)

	all := append([]Option{
		WithAdminAPIKeySHA256(HashAPIKey(testAdminKey)),
		WithLogger(logger),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }),
	}, opts...)
	server, err := NewServer(svc, adapter, all...)
	require.NoError(t, err)
	return &testEnv{router: server.Routes(), server: server, blobs: blobs, logs: logs}
}

type envelope struct {
	Data      json.RawMessage `json:"data"`
	Documents json.RawMessage `json:"documents"`
	Total     *int            `json:"total"`
	Success   bool            `json:"success"`
	Error     string          `json:"error"`
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func admin(req *http.Request) *http.Request {
	return withKey(req, testAdminKey)
}

func withKey(req *http.Request, key string) *http.Request {
	req.Header.Set(APIKeyHeader, key)
	req.Header.Set("Authorization", "Bearer "+key)
	return req
}

type formFileSpec struct {
	field, name, contentType string
	data                     []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, file *formFileSpec) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+file.field+`"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func applicationBody() map[string]any {
	return map[string]any{
		"fullName":              "Ada Lovelace",
		"phoneNumber":           "+44 20 7946 0000",
		"email":                 "ada@example.com",
		"currentAddress":        "12 St James's Square, London",
		"academicQualification": "A-Levels",
		"studyDestinations":     []string{"uk", "Canada"},
		"levelOfStudy":          "Undergraduate",
		"englishTest":           "IELTS 8.0",
		"passportStatus":        "Valid",
		"studyReason":           "Mathematics",
		"status":                "responded",
	}
}

func TestApplicationLifecycle(t *testing.T) {
	env := setupServer(t)

	w, body := env.do(t, jsonRequest(t, http.MethodPost, "/api/v1/applications", applicationBody()))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, body.Success)

	var app educontent.Application
	require.NoError(t, json.Unmarshal(body.Data, &app))
	assert.NotEmpty(t, app.ID)
	assert.Equal(t, educontent.ApplicationStatusPending, app.Status)
	assert.Equal(t, []educontent.Country{"UK", "Canada"}, app.StudyDestinations)

	w, body = env.do(t, admin(httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications?status=pending", nil)))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, body.Total)
	assert.Equal(t, 1, *body.Total)

	w, body = env.do(t, admin(jsonRequest(t, http.MethodPut, "/api/v1/admin/applications/"+app.ID, StatusRequest{Status: "responded"})))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated educontent.Application
	require.NoError(t, json.Unmarshal(body.Data, &updated))
	assert.Equal(t, educontent.ApplicationStatusResponded, updated.Status)

	_, body = env.do(t, admin(httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications?status=pending", nil)))
	assert.Equal(t, 0, *body.Total)
	assert.JSONEq(t, `[]`, string(body.Documents))

	w, _ = env.do(t, admin(jsonRequest(t, http.MethodPut, "/api/v1/admin/applications/"+app.ID, StatusRequest{Status: "archived"})))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.do(t, admin(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/applications/"+app.ID, nil)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)

	w, body = env.do(t, admin(httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications/"+app.ID, nil)))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application "+app.ID+" not found", body.Error)
	assert.NotContains(t, body.Error, "col_8f2a")
}

func TestSubmitApplication_RequiresJSON(t *testing.T) {
	env := setupServer(t)

	raw, err := json.Marshal(applicationBody())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "text/plain")

	w, body := env.do(t, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.NotEmpty(t, body.Error)
}

func TestSubmitApplication_Invalid(t *testing.T) {
	env := setupServer(t)

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing name", func(b map[string]any) { delete(b, "fullName") }},
		{"blank email", func(b map[string]any) { b["email"] = "   " }},
		{"bad email", func(b map[string]any) { b["email"] = "ada.example.com" }},
		{"unknown destination", func(b map[string]any) { b["studyDestinations"] = []string{"Atlantis"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := applicationBody()
			tt.mutate(b)
			w, body := env.do(t, jsonRequest(t, http.MethodPost, "/api/v1/applications", b))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, body.Error, "validation failed")
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w, _ := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResourceUploadAndDownload(t *testing.T) {
	env := setupServer(t)
	content := []byte("%PDF-1.4 visa checklist")

	req := multipartRequest(t, http.MethodPost, "/api/v1/admin/resources",
		map[string]string{"name": "Visa checklist", "type": "guide", "description": "UK student visa"},
		&formFileSpec{field: "file", name: "checklist.pdf", contentType: "application/pdf", data: content})
	w, body := env.do(t, admin(req))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res educontent.Resource
	require.NoError(t, json.Unmarshal(body.Data, &res))
	assert.Equal(t, "checklist.pdf", res.FileName)
	assert.Equal(t, int64(len(content)), res.Size)
	assert.Equal(t, "https://assets.example.com/v1/storage/buckets/resource-files/files/"+res.FileID+"/download?project=proj", res.FileURL)

	w, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources?type=guide", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *body.Total)

	w, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources/"+res.ID+"/download-url", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"`+res.FileURL+`"}`, string(body.Data))

	w, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/storage/buckets/resource-files/files/"+res.FileID+"/download", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=checklist.pdf`, w.Header().Get("Content-Disposition"))

	w, body = env.do(t, admin(jsonRequest(t, http.MethodPut, "/api/v1/admin/resources/"+res.ID, map[string]string{"name": "Visa checklist 2026"})))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = env.do(t, admin(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/resources/"+res.ID, nil)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, env.blobs.Exists(repository.ObjectKey("resource-files", res.FileID)))

	w, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/storage/buckets/resource-files/files/"+res.FileID+"/view", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateResource_RequiresFile(t *testing.T) {
	env := setupServer(t)
	req := multipartRequest(t, http.MethodPost, "/api/v1/admin/resources",
		map[string]string{"name": "Visa checklist", "type": "guide"}, nil)
	w, body := env.do(t, admin(req))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body.Error, "file")
	assert.Zero(t, env.blobs.Len())
}

func TestStoryModerationFlow(t *testing.T) {
	env := setupServer(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/stories",
		map[string]string{
			"name":       "Grace",
			"program":    "MSc Computer Science",
			"university": "University of Toronto",
			"content":    "The team made the visa process painless.",
			"rating":     "5",
		},
		&formFileSpec{field: "image", name: "grace.jpg", contentType: "image/jpeg", data: []byte("jpeg bytes")})
	w, body := env.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var st educontent.Story
	require.NoError(t, json.Unmarshal(body.Data, &st))
	assert.Equal(t, educontent.StoryStatusPending, st.Status)
	assert.NotEmpty(t, st.ImageURL)

	_, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/stories", nil))
	assert.Equal(t, 0, *body.Total)

	w, _ = env.do(t, admin(jsonRequest(t, http.MethodPut, "/api/v1/admin/stories/"+st.ID, StatusRequest{Status: "rejected"})))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, admin(jsonRequest(t, http.MethodPut, "/api/v1/admin/stories/"+st.ID, StatusRequest{Status: "approved"})))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/stories", nil))
	assert.Equal(t, 1, *body.Total)
	var stories []educontent.Story
	require.NoError(t, json.Unmarshal(body.Documents, &stories))
	require.Len(t, stories, 1)
	assert.Equal(t, st.ID, stories[0].ID)

	_, body = env.do(t, admin(httptest.NewRequest(http.MethodGet, "/api/v1/admin/stories?status=pending", nil)))
	assert.Equal(t, 0, *body.Total)
}

func TestSubmitStory_BadRating(t *testing.T) {
	env := setupServer(t)
	req := multipartRequest(t, http.MethodPost, "/api/v1/stories",
		map[string]string{"name": "Grace", "program": "MSc", "university": "UofT", "content": "Great", "rating": "five"}, nil)
	w, body := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body.Error, "rating")

	req = httptest.NewRequest(http.MethodPost, "/api/v1/stories", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w, _ = env.do(t, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestPagingParameters(t *testing.T) {
	env := setupServer(t)

	for _, q := range []string{"limit=abc", "limit=-1", "offset=x"} {
		w, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/gallery?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Contains(t, body.Error, "invalid parameter", q)
	}

	for _, q := range []string{"limit=500&offset=0", "limit=99999999999999999999"} {
		w, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/gallery?"+q, nil))
		assert.Equal(t, http.StatusOK, w.Code, q)
	}
}

func TestAdminRequiresAPIKey(t *testing.T) {
	env := setupServer(t)
	rejected := []int{http.StatusUnauthorized, http.StatusForbidden}

	w, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications", nil))
	assert.Contains(t, rejected, w.Code)

	w, _ = env.do(t, withKey(httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications", nil), "wrong"))
	assert.Contains(t, rejected, w.Code)

	w, _ = env.do(t, admin(httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications", nil)))
	assert.Equal(t, http.StatusOK, w.Code)

	noKey := setupServer(t, WithAdminAPIKeySHA256(""))
	w, body := noKey.do(t, withKey(httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications", nil), ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "authentication required", body.Error)

	w, _ = noKey.do(t, admin(httptest.NewRequest(http.MethodGet, "/api/v1/admin/applications", nil)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHashAPIKey(t *testing.T) {
	assert.Equal(t, "", HashAPIKey(""))
	assert.Equal(t, "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b", HashAPIKey("secret"))
}

func TestNewServer_RejectsMalformedKeyDigest(t *testing.T) {
	env := setupServer(t)
	_, err := NewServer(env.server.svc, env.server.assets, WithAdminAPIKeySHA256("not-hex"))
	assert.Error(t, err)
}

func TestExportApplications(t *testing.T) {
	env := setupServer(t)
	created := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	records := []educontent.Application{
		{ID: "1", FullName: "Ada Lovelace", Email: "ada@example.com", StudyDestinations: []educontent.Country{"UK", "Canada"}, Status: "pending", CreatedAt: created},
		{ID: "2", FullName: "Alan Turing", Email: "alan@example.com", StudyDestinations: []educontent.Country{"USA"}, Status: "responded", CreatedAt: created},
		{ID: "3", FullName: "Grace Hopper", Email: "grace@example.com", StudyDestinations: []educontent.Country{"Japan"}, Status: "pending", CreatedAt: created},
	}

	w, _ := env.do(t, admin(jsonRequest(t, http.MethodPost, "/api/v1/admin/applications/export",
		ExportRequest{Records: records, Search: "ada"})))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=applications-2026-03-01.csv", w.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Full Name,Email,Phone Number"))
	assert.Contains(t, lines[1], `"UK, Canada"`)
	assert.Contains(t, lines[1], "2026-02-10")

	w, _ = env.do(t, admin(jsonRequest(t, http.MethodPost, "/api/v1/admin/applications/export",
		ExportRequest{Records: records, Status: "archived"})))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n"), 1)

	w, _ = env.do(t, admin(jsonRequest(t, http.MethodPost, "/api/v1/admin/applications/export",
		ExportRequest{Records: records, Sort: "email"})))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (int64, bool, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return 0, false, s.err
	}
	if !s.allowed {
		return 42, false, nil
	}
	return 0, true, nil
}

func TestSubmissionsAreRateLimited(t *testing.T) {
	limiter := &stubLimiter{}
	env := setupServer(t, WithRateLimiter(limiter))

	req := jsonRequest(t, http.MethodPost, "/api/v1/applications", applicationBody())
	req.RemoteAddr = "203.0.113.7:5555"
	w, body := env.do(t, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))
	assert.NotEmpty(t, body.Error)
	assert.Equal(t, []string{"203.0.113.7"}, limiter.keys)

	// reads are never throttled
	w, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/stories", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, limiter.keys, 1)

	limiter.err = io.ErrUnexpectedEOF
	w, _ = env.do(t, jsonRequest(t, http.MethodPost, "/api/v1/applications", applicationBody()))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, env.logs.String(), "rate limiter unavailable")
}

func TestSubmissionLimitIgnoresForwardedFor(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := ratelimit.NewLimiter(ratelimit.NewRedisWindow(client), 1, time.Minute)
	env := setupServer(t, WithRateLimiter(limiter))

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := jsonRequest(t, http.MethodPost, "/api/v1/applications", applicationBody())
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("192.0.2.%d", i+1))
		w, _ := env.do(t, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestSubmissionLimitTrustedProxy(t *testing.T) {
	limiter := &stubLimiter{allowed: true}
	env := setupServer(t, WithRateLimiter(limiter), WithTrustedProxyHeaders(true))

	for _, client := range []string{"198.51.100.1", "198.51.100.2"} {
		req := jsonRequest(t, http.MethodPost, "/api/v1/applications", applicationBody())
		req.RemoteAddr = "10.0.0.2:4000"
		req.Header.Set("X-Forwarded-For", client)
		w, _ := env.do(t, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	}
	assert.Equal(t, []string{"198.51.100.1", "198.51.100.2"}, limiter.keys)
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGalleryPreviewResizes(t *testing.T) {
	env := setupServer(t)
	original := testPNG(t, 40, 20)

	req := multipartRequest(t, http.MethodPost, "/api/v1/admin/gallery",
		map[string]string{"title": "Graduation", "category": "events"},
		&formFileSpec{field: "image", name: "grad.png", contentType: "image/png", data: original})
	w, body := env.do(t, admin(req))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var g educontent.GalleryImage
	require.NoError(t, json.Unmarshal(body.Data, &g))

	base := "/storage/buckets/gallery-images/files/" + g.ImageID

	w, _ = env.do(t, httptest.NewRequest(http.MethodGet, base+"/preview?width=10", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cfg, err := png.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Width)
	assert.Equal(t, 5, cfg.Height)

	w, _ = env.do(t, httptest.NewRequest(http.MethodGet, base+"/view", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, original, w.Body.Bytes())
	assert.Empty(t, w.Header().Get("Content-Disposition"))

	w, _ = env.do(t, httptest.NewRequest(http.MethodGet, base+"/preview?width=wide", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, httptest.NewRequest(http.MethodGet, base+"/thumbnail", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type redirectAssets struct{ AssetStore }

func (redirectAssets) PresignedDownloadURL(context.Context, string, string, string) (string, error) {
	return "https://bucket.s3.amazonaws.com/object?X-Amz-Signature=abc", nil
}

func TestDownloadRedirectsToPresignedURL(t *testing.T) {
	env := setupServer(t)
	env.server.assets = redirectAssets{env.server.assets}
	router := env.server.Routes()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/storage/buckets/resource-files/files/abc/download", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/object?X-Amz-Signature=abc", w.Header().Get("Location"))
}

func TestRenderError_HidesStoreFailures(t *testing.T) {
	env := setupServer(t)
	storeErr := &educontent.StoreError{Op: "insert", Collection: "applications", Err: io.ErrClosedPipe}

	tests := []struct {
		public bool
		want   string
	}{
		{true, genericFailure},
		{false, "failed to submit application"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/applications", nil)
		env.server.renderError(w, r, storeErr, "failed to submit application", tt.public)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var body envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tt.want, body.Error)
		assert.NotContains(t, body.Error, "closed pipe")
	}
	assert.Contains(t, env.logs.String(), "closed pipe")
}

func TestPublicNewsHidesDrafts(t *testing.T) {
	env := setupServer(t)

	for _, status := range []string{"published", "draft"} {
		req := multipartRequest(t, http.MethodPost, "/api/v1/admin/news",
			map[string]string{"title": "Open day " + status, "type": "event", "content": "Campus tour", "date": "2099-05-01", "status": status}, nil)
		w, _ := env.do(t, admin(req))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	_, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/news", nil))
	assert.Equal(t, 1, *body.Total)

	_, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/news/upcoming", nil))
	assert.Equal(t, 1, *body.Total)

	_, body = env.do(t, admin(httptest.NewRequest(http.MethodGet, "/api/v1/admin/news", nil)))
	assert.Equal(t, 2, *body.Total)
}

func TestUniversityRoutes(t *testing.T) {
	env := setupServer(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/admin/universities",
		map[string]string{"name": "University of Melbourne", "country": "australia", "ranking": "14", "programs": "Law, Medicine"}, nil)
	w, body := env.do(t, admin(req))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var u educontent.University
	require.NoError(t, json.Unmarshal(body.Data, &u))
	assert.Equal(t, "Australia", u.Country)

	w, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/universities/"+u.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	_, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/universities?country=Australia&sort=ranking", nil))
	assert.Equal(t, 1, *body.Total)

	req = multipartRequest(t, http.MethodPost, "/api/v1/admin/universities",
		map[string]string{"name": "Nowhere", "country": "Canada", "ranking": "top"}, nil)
	w, _ = env.do(t, admin(req))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
