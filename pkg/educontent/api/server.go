// Package api exposes the collection services over HTTP.
//
// Routes are grouped into a public site API under /api/v1, an admin API under
// /api/v1/admin guarded by an API key, and asset routes under /storage that
// stream stored objects.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	apikey "github.com/tendant/chi-demo/middleware"
	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/repository"
)

// DefaultMaxUploadBytes caps multipart bodies when no limit is configured
const DefaultMaxUploadBytes int64 = 10 << 20

// AssetStore opens stored objects for the asset routes
type AssetStore interface {
	OpenObject(ctx context.Context, bucket, fileID string) (io.ReadCloser, *educontent.ObjectMeta, error)
	PresignedDownloadURL(ctx context.Context, bucket, fileID, fileName string) (string, error)
}

// RateLimiter decides whether a client may submit again
type RateLimiter interface {
	Allow(ctx context.Context, key string) (int64, bool, error)
}

// Server holds the HTTP handlers
type Server struct {
	svc       *educontent.Service
	assets    AssetStore
	limits    repository.Limits
	adminKey  string
	adminAuth Middleware
	limiter   RateLimiter
	origins   []string
	trustXFF  bool
	maxUpload int64
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Server)

func WithLimits(l repository.Limits) Option {
	return func(s *Server) { s.limits = l }
}

// WithAdminAPIKeySHA256 sets the hex SHA-256 digest of the admin API key.
// Without one every admin request is rejected.
func WithAdminAPIKeySHA256(digest string) Option {
	return func(s *Server) { s.adminKey = digest }
}

// HashAPIKey returns the digest WithAdminAPIKeySHA256 expects, or "" for an empty key
func HashAPIKey(key string) string {
	if key == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// WithTrustedProxyHeaders takes the client address from X-Forwarded-For and
// X-Real-IP. Only enable it behind a proxy that overwrites those headers.
func WithTrustedProxyHeaders(trust bool) Option {
	return func(s *Server) { s.trustXFF = trust }
}

func WithRateLimiter(l RateLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(svc *educontent.Service, assets AssetStore, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service is required")
	}
	if assets == nil {
		return nil, fmt.Errorf("asset store is required")
	}
	s := &Server{
		svc:       svc,
		assets:    assets,
		limits:    repository.DefaultLimits(),
		maxUpload: DefaultMaxUploadBytes,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.adminKey != "" {
		if raw, err := hex.DecodeString(s.adminKey); err != nil || len(raw) != sha256.Size {
			return nil, fmt.Errorf("admin api key digest must be a hex encoded SHA-256 sum")
		}
		auth, err := apikey.ApiKeyMiddleware(apikey.ApiKeyConfig{
			APIKeys: map[string]string{"admin": s.adminKey},
		})
		if err != nil {
			return nil, fmt.Errorf("admin api key: %w", err)
		}
		s.adminAuth = auth
	}
	return s, nil
}

// Routes returns the complete router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	if s.trustXFF {
		r.Use(middleware.RealIP)
	}
	r.Use(LoggingMiddleware(s.logger))
	r.Use(RecoveryMiddleware(s.logger))
	r.Use(CORSMiddleware(s.origins, nil, []string{"Content-Type", "Authorization", "X-Request-ID", APIKeyHeader}))
	r.Use(MetricsMiddleware)
	r.Use(RequestSizeLimitMiddleware(s.maxUpload))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/admin", s.adminRoutes())
		s.publicRoutes(r)
	})

	r.Get("/storage/buckets/{bucketID}/files/{fileID}/{mode}", s.handleAsset)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "healthy"})
}
