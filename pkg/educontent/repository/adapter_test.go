package repository_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/asseturl"
	memorydocs "github.com/tendant/edu-content/pkg/educontent/docstore/memory"
	"github.com/tendant/edu-content/pkg/educontent/repository"
	memorystorage "github.com/tendant/edu-content/pkg/educontent/storage/memory"
)

func setupAdapter(t *testing.T) (*repository.Adapter, *memorydocs.Store, *memorystorage.Backend) {
	t.Helper()
	docs := memorydocs.New()
	blobs := memorystorage.New()
	adapter, err := repository.New(
		repository.WithDocumentStore(docs),
		repository.WithBlobStore(blobs),
		repository.WithResolver(asseturl.New("https://assets.example.com/v1", "proj")),
	)
	require.NoError(t, err)
	return adapter, docs, blobs
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := repository.New()
	assert.Error(t, err)

	_, err = repository.New(
		repository.WithDocumentStore(memorydocs.New()),
		repository.WithBlobStore(memorystorage.New()),
		repository.WithResolver(asseturl.New("https://x", "p")),
		repository.WithLimits(repository.Limits{Default: 200, Max: 100}),
	)
	assert.Error(t, err)
}

func TestAdapter_ListLimitClamp(t *testing.T) {
	adapter, _, _ := setupAdapter(t)
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		_, err := adapter.Create(ctx, "apps", map[string]any{"n": i})
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, 50},
		{"negative uses default", -5, 50},
		{"within range", 20, 20},
		{"above max is clamped", 1000, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := adapter.List(ctx, "apps", educontent.Query{Limit: tt.limit})
			require.NoError(t, err)
			assert.Len(t, res.Items, tt.want)
			assert.Equal(t, 150, res.Total)
		})
	}
}

func TestAdapter_ListRejectsBadQueries(t *testing.T) {
	adapter, _, _ := setupAdapter(t)
	ctx := context.Background()

	_, err := adapter.List(ctx, "apps", educontent.Query{Offset: -1})
	assert.ErrorIs(t, err, educontent.ErrInvalidParameter)

	_, err = adapter.List(ctx, "apps", educontent.Query{Filters: []educontent.Filter{{Field: "$where", Op: educontent.OpEqual, Value: "x"}}})
	assert.ErrorIs(t, err, educontent.ErrInvalidParameter)

	_, err = adapter.List(ctx, "apps", educontent.Query{Filters: []educontent.Filter{{Field: "status", Op: "regex", Value: "x"}}})
	assert.ErrorIs(t, err, educontent.ErrInvalidParameter)

	_, err = adapter.List(ctx, "apps", educontent.Query{Sort: []educontent.Sort{{Field: "name; drop"}}})
	assert.ErrorIs(t, err, educontent.ErrInvalidParameter)
}

func TestAdapter_ListNamedFilterValues(t *testing.T) {
	adapter, _, _ := setupAdapter(t)
	ctx := context.Background()

	_, err := adapter.Create(ctx, "apps", map[string]any{"status": educontent.ApplicationStatusPending})
	require.NoError(t, err)
	_, err = adapter.Create(ctx, "apps", map[string]any{"status": educontent.ApplicationStatusResponded})
	require.NoError(t, err)

	res, err := adapter.List(ctx, "apps", educontent.Query{
		Filters: []educontent.Filter{{Field: "status", Op: educontent.OpEqual, Value: educontent.ApplicationStatusPending}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func TestAdapter_CreateGetUpdateDelete(t *testing.T) {
	adapter, _, _ := setupAdapter(t)
	ctx := context.Background()

	_, err := adapter.Create(ctx, "apps", nil)
	assert.ErrorIs(t, err, educontent.ErrValidation)

	_, err = adapter.Create(ctx, "apps", map[string]any{"id": "forged", "createdAt": "yesterday"})
	assert.ErrorIs(t, err, educontent.ErrValidation)

	created, err := adapter.Create(ctx, "apps", map[string]any{"fullName": "Ada", "status": "pending"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := adapter.Get(ctx, "apps", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Fields["fullName"])

	_, err = adapter.Update(ctx, "apps", created.ID, map[string]any{})
	assert.ErrorIs(t, err, educontent.ErrValidation)

	_, err = adapter.Update(ctx, "apps", "missing", map[string]any{"status": "responded"})
	assert.ErrorIs(t, err, educontent.ErrNotFound)

	updated, err := adapter.Update(ctx, "apps", created.ID, map[string]any{"status": "responded"})
	require.NoError(t, err)
	assert.Equal(t, "responded", updated.Fields["status"])
	assert.Equal(t, "Ada", updated.Fields["fullName"])

	require.NoError(t, adapter.Delete(ctx, "apps", created.ID))
	assert.ErrorIs(t, adapter.Delete(ctx, "apps", created.ID), educontent.ErrNotFound)

	_, err = adapter.Get(ctx, "apps", created.ID)
	assert.ErrorIs(t, err, educontent.ErrNotFound)
}

type failingDocs struct {
	*memorydocs.Store
	err error
}

func (f *failingDocs) Insert(ctx context.Context, collection string, doc *educontent.Document) error {
	return f.err
}

func (f *failingDocs) Find(ctx context.Context, collection string, q educontent.Query) ([]*educontent.Document, int, error) {
	return nil, 0, f.err
}

func TestAdapter_WrapsStoreFailures(t *testing.T) {
	cause := errors.New("connection reset by peer")
	adapter, err := repository.New(
		repository.WithDocumentStore(&failingDocs{Store: memorydocs.New(), err: cause}),
		repository.WithBlobStore(memorystorage.New()),
		repository.WithResolver(asseturl.New("https://x", "p")),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = adapter.Create(ctx, "apps", map[string]any{"a": 1})
	var storeErr *educontent.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "create", storeErr.Op)
	assert.ErrorIs(t, err, educontent.ErrStore)
	assert.ErrorIs(t, err, cause)

	_, err = adapter.List(ctx, "apps", educontent.Query{})
	assert.ErrorIs(t, err, educontent.ErrStore)
	assert.Equal(t, educontent.KindStore, educontent.KindOf(err))

	timeout, cancel := context.WithTimeout(ctx, time.Nanosecond)
	defer cancel()
	<-timeout.Done()
	plain, _, _ := setupAdapter(t)
	_, err = plain.Get(timeout, "apps", "x")
	assert.ErrorIs(t, err, educontent.ErrStore)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAdapter_Objects(t *testing.T) {
	adapter, _, blobs := setupAdapter(t)
	ctx := context.Background()

	_, err := adapter.UploadObject(ctx, "resources", educontent.FileUpload{Name: "x.pdf"})
	assert.ErrorIs(t, err, educontent.ErrValidation)

	ref, err := adapter.UploadObject(ctx, "resources", educontent.FileUpload{
		Name:     "guide.pdf",
		MimeType: "application/pdf",
		Reader:   strings.NewReader("%PDF-1.4"),
	})
	require.NoError(t, err)
	assert.Equal(t, "resources", ref.BucketID)
	assert.NotEmpty(t, ref.FileID)
	assert.Equal(t, int64(8), ref.Size)
	assert.True(t, blobs.Exists(repository.ObjectKey("resources", ref.FileID)))

	rc, meta, err := adapter.OpenObject(ctx, "resources", ref.FileID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
	assert.Equal(t, "application/pdf", meta.ContentType)
	assert.Equal(t, "guide.pdf", meta.FileName)

	_, err = adapter.PresignedDownloadURL(ctx, "resources", ref.FileID, "guide.pdf")
	assert.ErrorIs(t, err, educontent.ErrDirectAccessRequired)

	assert.Equal(t,
		fmt.Sprintf("https://assets.example.com/v1/storage/buckets/resources/files/%s/download?project=proj", ref.FileID),
		adapter.GetObjectDownloadURL("resources", ref.FileID))
	assert.Equal(t,
		fmt.Sprintf("https://assets.example.com/v1/storage/buckets/resources/files/%s/preview?project=proj&width=64", ref.FileID),
		adapter.GetObjectViewURL("resources", ref.FileID, 64, 0))

	require.NoError(t, adapter.DeleteObject(ctx, "resources", ref.FileID))
	_, _, err = adapter.OpenObject(ctx, "resources", ref.FileID)
	assert.ErrorIs(t, err, educontent.ErrNotFound)
	assert.ErrorIs(t, adapter.DeleteObject(ctx, "resources", ref.FileID), educontent.ErrNotFound)
}
