// Package config loads the service configuration from the environment and
// assembles the storage backends, services and HTTP server it describes.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/tendant/edu-content/pkg/educontent"
)

// CollectionIDs names the document collection of each record kind
type CollectionIDs struct {
	Applications string `env:"COLLECTION_APPLICATIONS_ID" env-required:"true"`
	Stories      string `env:"COLLECTION_STORIES_ID" env-required:"true"`
	Resources    string `env:"COLLECTION_RESOURCES_ID" env-required:"true"`
	NewsEvents   string `env:"COLLECTION_NEWS_EVENTS_ID" env-required:"true"`
	Universities string `env:"COLLECTION_UNIVERSITIES_ID" env-required:"true"`
	Gallery      string `env:"COLLECTION_GALLERY_ID" env-required:"true"`
}

// BucketIDs names the object bucket of each record kind that carries a binary
type BucketIDs struct {
	Stories      string `env:"BUCKET_STORIES_ID" env-required:"true"`
	Resources    string `env:"BUCKET_RESOURCES_ID" env-required:"true"`
	NewsEvents   string `env:"BUCKET_NEWS_EVENTS_ID" env-required:"true"`
	Universities string `env:"BUCKET_UNIVERSITIES_ID" env-required:"true"`
	Gallery      string `env:"BUCKET_GALLERY_ID" env-required:"true"`
}

// S3Config is read when OBJECT_STORE_URL is an s3:// URL
type S3Config struct {
	Region          string `env:"AWS_REGION" env-default:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint        string `env:"AWS_S3_ENDPOINT"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	KeyPrefix       string `env:"AWS_S3_KEY_PREFIX"`
	PresignSeconds  int    `env:"AWS_S3_PRESIGN_SECONDS" env-default:"3600"`
	EnableSSE       bool   `env:"AWS_S3_ENABLE_SSE" env-default:"false"`
	SSEAlgorithm    string `env:"AWS_S3_SSE_ALGORITHM" env-default:"AES256"`
	SSEKMSKeyID     string `env:"AWS_S3_SSE_KMS_KEY_ID"`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

// Config is the complete service configuration
type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	// StoreEndpoint and ProjectID form the public asset URLs
	StoreEndpoint string `env:"STORE_ENDPOINT" env-required:"true"`
	ProjectID     string `env:"STORE_PROJECT_ID" env-required:"true"`
	// DatabaseID is the MongoDB database or the PostgreSQL schema
	DatabaseID  string `env:"STORE_DATABASE_ID" env-required:"true"`
	StoreAPIKey string `env:"STORE_API_KEY" env-required:"true"`
	// AdminAPIKey guards the admin routes; STORE_API_KEY is used when unset
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	Collections CollectionIDs
	Buckets     BucketIDs

	DocumentStoreURL string `env:"DOCUMENT_STORE_URL" env-default:"memory"`
	ObjectStoreURL   string `env:"OBJECT_STORE_URL" env-default:"memory"`
	S3               S3Config

	// RedisURL enables submission rate limiting when set
	RedisURL            string `env:"REDIS_URL"`
	SubmitRatePerMinute int    `env:"SUBMIT_RATE_PER_MINUTE" env-default:"10"`

	ListDefaultLimit int      `env:"LIST_DEFAULT_LIMIT" env-default:"50"`
	ListMaxLimit     int      `env:"LIST_MAX_LIMIT" env-default:"100"`
	MaxUploadBytes   int64    `env:"MAX_UPLOAD_BYTES" env-default:"10485760"`
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" env-separator:","`

	// TrustProxyHeaders takes client addresses from X-Forwarded-For and X-Real-IP.
	// Leave it off unless a proxy in front of the service rewrites those headers.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" env-default:"false"`
}

// LoadDotEnv loads the given .env files, or ./.env when none are named.
// Missing files are skipped; variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads and validates the configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks limits and backend URLs
func (c *Config) Validate() error {
	if c.ListDefaultLimit <= 0 {
		return fmt.Errorf("LIST_DEFAULT_LIMIT must be positive, got %d", c.ListDefaultLimit)
	}
	if c.ListMaxLimit < c.ListDefaultLimit {
		return fmt.Errorf("LIST_MAX_LIMIT (%d) must not be below LIST_DEFAULT_LIMIT (%d)", c.ListMaxLimit, c.ListDefaultLimit)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.SubmitRatePerMinute < 0 {
		return fmt.Errorf("SUBMIT_RATE_PER_MINUTE must not be negative, got %d", c.SubmitRatePerMinute)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if _, err := documentBackend(c.DocumentStoreURL); err != nil {
		return err
	}
	if _, _, err := objectBackend(c.ObjectStoreURL); err != nil {
		return err
	}
	if c.RedisURL != "" {
		if _, err := goredis.ParseURL(c.RedisURL); err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c *Config) adminKey() string {
	if c.AdminAPIKey != "" {
		return c.AdminAPIKey
	}
	return c.StoreAPIKey
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}

// Logger returns a JSON logger in production and a text logger elsewhere
func (c *Config) Logger() *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func (c *Config) collections() educontent.Collections {
	return educontent.Collections{
		Applications: c.Collections.Applications,
		Stories:      c.Collections.Stories,
		Resources:    c.Collections.Resources,
		NewsEvents:   c.Collections.NewsEvents,
		Universities: c.Collections.Universities,
		Gallery:      c.Collections.Gallery,
	}
}

func (c *Config) buckets() educontent.Buckets {
	return educontent.Buckets{
		Stories:      c.Buckets.Stories,
		Resources:    c.Buckets.Resources,
		NewsEvents:   c.Buckets.NewsEvents,
		Universities: c.Buckets.Universities,
		Gallery:      c.Buckets.Gallery,
	}
}

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
	backendMongo    backend = "mongo"
	backendS3       backend = "s3"
)

func documentBackend(raw string) (backend, error) {
	switch {
	case raw == "" || raw == "memory" || raw == "memory://":
		return backendMemory, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return backendPostgres, nil
	case strings.HasPrefix(raw, "mongodb://"), strings.HasPrefix(raw, "mongodb+srv://"):
		return backendMongo, nil
	}
	return "", fmt.Errorf("unsupported DOCUMENT_STORE_URL %q (use memory, postgres://... or mongodb://...)", raw)
}

// objectBackend returns the backend and, for s3, the bucket name
func objectBackend(raw string) (backend, string, error) {
	switch {
	case raw == "" || raw == "memory" || raw == "memory://":
		return backendMemory, "", nil
	case strings.HasPrefix(raw, "s3://"):
		bucket, _, _ := strings.Cut(strings.TrimPrefix(raw, "s3://"), "?")
		bucket = strings.TrimSuffix(bucket, "/")
		if bucket == "" {
			return "", "", fmt.Errorf("S3 bucket name cannot be empty in OBJECT_STORE_URL")
		}
		return backendS3, bucket, nil
	}
	return "", "", fmt.Errorf("unsupported OBJECT_STORE_URL %q (use memory or s3://bucket)", raw)
}
