package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/api"
	"github.com/tendant/edu-content/pkg/educontent/asseturl"
	memorydocs "github.com/tendant/edu-content/pkg/educontent/docstore/memory"
	mongodocs "github.com/tendant/edu-content/pkg/educontent/docstore/mongo"
	pgdocs "github.com/tendant/edu-content/pkg/educontent/docstore/postgres"
	"github.com/tendant/edu-content/pkg/educontent/ratelimit"
	"github.com/tendant/edu-content/pkg/educontent/repository"
	memorystorage "github.com/tendant/edu-content/pkg/educontent/storage/memory"
	s3storage "github.com/tendant/edu-content/pkg/educontent/storage/s3"
)

// Stack is everything Build assembles. Close releases backend connections.
type Stack struct {
	Service *educontent.Service
	Adapter *repository.Adapter
	Server  *api.Server
	Logger  *slog.Logger

	closers []func() error
}

// Close releases resources in reverse order of acquisition
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Build connects the configured backends and wires the services and HTTP server
func (c *Config) Build(ctx context.Context) (*Stack, error) {
	stack := &Stack{Logger: c.Logger()}

	docs, err := c.buildDocumentStore(ctx, stack)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}
	blobs, err := c.buildBlobStore(ctx)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}

	resolver := asseturl.New(c.StoreEndpoint, c.ProjectID)
	limits := repository.Limits{Default: c.ListDefaultLimit, Max: c.ListMaxLimit}

	stack.Adapter, err = repository.New(
		repository.WithDocumentStore(docs),
		repository.WithBlobStore(blobs),
		repository.WithResolver(resolver),
		repository.WithLimits(limits),
	)
	if err != nil {
		_ = stack.Close()
		return nil, fmt.Errorf("create repository adapter: %w", err)
	}

	stack.Service, err = educontent.New(
		educontent.WithAdapter(stack.Adapter),
		educontent.WithResolver(resolver),
		educontent.WithCollections(c.collections()),
		educontent.WithBuckets(c.buckets()),
		educontent.WithLogger(stack.Logger),
	)
	if err != nil {
		_ = stack.Close()
		return nil, fmt.Errorf("create services: %w", err)
	}

	opts := []api.Option{
		api.WithLimits(limits),
		api.WithAdminAPIKeySHA256(api.HashAPIKey(c.adminKey())),
		api.WithTrustedProxyHeaders(c.TrustProxyHeaders),
		api.WithAllowedOrigins(c.AllowedOrigins...),
		api.WithMaxUploadBytes(c.MaxUploadBytes),
		api.WithLogger(stack.Logger),
	}
	if c.RedisURL != "" {
		limiter, err := c.buildLimiter(ctx, stack)
		if err != nil {
			_ = stack.Close()
			return nil, err
		}
		opts = append(opts, api.WithRateLimiter(limiter))
	}

	stack.Server, err = api.NewServer(stack.Service, stack.Adapter, opts...)
	if err != nil {
		_ = stack.Close()
		return nil, fmt.Errorf("create http server: %w", err)
	}
	return stack, nil
}

func (c *Config) buildDocumentStore(ctx context.Context, stack *Stack) (educontent.DocumentStore, error) {
	kind, err := documentBackend(c.DocumentStoreURL)
	if err != nil {
		return nil, err
	}

	switch kind {
	case backendPostgres:
		pool, err := pgdocs.Connect(ctx, c.DocumentStoreURL, c.DatabaseID)
		if err != nil {
			return nil, err
		}
		stack.closers = append(stack.closers, func() error { pool.Close(); return nil })
		if err := pgdocs.Migrate(ctx, pool); err != nil {
			return nil, err
		}
		stack.Logger.Info("document store ready", "backend", "postgres", "schema", c.DatabaseID)
		return pgdocs.New(pool), nil

	case backendMongo:
		client, err := mongodocs.Connect(ctx, c.DocumentStoreURL)
		if err != nil {
			return nil, err
		}
		stack.closers = append(stack.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		})
		stack.Logger.Info("document store ready", "backend", "mongo", "database", c.DatabaseID)
		return mongodocs.New(client.Database(c.DatabaseID)), nil

	default:
		stack.Logger.Warn("using in-memory document store; records are lost on restart")
		return memorydocs.New(), nil
	}
}

func (c *Config) buildBlobStore(ctx context.Context) (educontent.BlobStore, error) {
	kind, bucket, err := objectBackend(c.ObjectStoreURL)
	if err != nil {
		return nil, err
	}
	if kind != backendS3 {
		return memorystorage.New(), nil
	}

	backend, err := s3storage.New(ctx, s3storage.Config{
		Region:                 c.S3.Region,
		Bucket:                 bucket,
		KeyPrefix:              c.S3.KeyPrefix,
		AccessKeyID:            c.S3.AccessKeyID,
		SecretAccessKey:        c.S3.SecretAccessKey,
		Endpoint:               c.S3.Endpoint,
		UsePathStyle:           c.S3.UsePathStyle,
		PresignDuration:        c.S3.PresignSeconds,
		EnableSSE:              c.S3.EnableSSE,
		SSEAlgorithm:           c.S3.SSEAlgorithm,
		SSEKMSKeyID:            c.S3.SSEKMSKeyID,
		CreateBucketIfNotExist: c.S3.CreateBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 backend: %w", err)
	}
	return backend, nil
}

func (c *Config) buildLimiter(ctx context.Context, stack *Stack) (*ratelimit.Limiter, error) {
	opts, err := goredis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	window := ratelimit.NewRedisWindow(goredis.NewClient(opts))
	stack.closers = append(stack.closers, window.Close)
	if err := window.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return ratelimit.NewLimiter(window, c.SubmitRatePerMinute, time.Minute), nil
}
