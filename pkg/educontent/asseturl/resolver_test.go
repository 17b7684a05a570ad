package asseturl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_ViewURL(t *testing.T) {
	r := New("https://assets.example.com/v1/", "proj-1")

	tests := []struct {
		name          string
		fileID        string
		bucketID      string
		width, height int
		want          string
	}{
		{
			name:     "empty file id",
			fileID:   "",
			bucketID: "stories",
			want:     "",
		},
		{
			name:     "no hints",
			fileID:   "f1",
			bucketID: "stories",
			want:     "https://assets.example.com/v1/storage/buckets/stories/files/f1/view?project=proj-1",
		},
		{
			name:     "width and height",
			fileID:   "f1",
			bucketID: "stories",
			width:    300,
			height:   200,
			want:     "https://assets.example.com/v1/storage/buckets/stories/files/f1/preview?height=200&project=proj-1&width=300",
		},
		{
			name:     "width only",
			fileID:   "f1",
			bucketID: "stories",
			width:    300,
			want:     "https://assets.example.com/v1/storage/buckets/stories/files/f1/preview?project=proj-1&width=300",
		},
		{
			name:     "non-positive hints ignored",
			fileID:   "f1",
			bucketID: "stories",
			width:    -1,
			height:   0,
			want:     "https://assets.example.com/v1/storage/buckets/stories/files/f1/view?project=proj-1",
		},
		{
			name:     "escaped segments",
			fileID:   "a b",
			bucketID: "x/y",
			want:     "https://assets.example.com/v1/storage/buckets/x%2Fy/files/a%20b/view?project=proj-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ViewURL(tt.fileID, tt.bucketID, tt.width, tt.height))
		})
	}
}

func TestResolver_DownloadURL(t *testing.T) {
	r := New("https://assets.example.com/v1", "proj-1")

	assert.Equal(t, "", r.DownloadURL("", "resources"))
	assert.Equal(t,
		"https://assets.example.com/v1/storage/buckets/resources/files/doc-9/download?project=proj-1",
		r.DownloadURL("doc-9", "resources"))
}

func TestResolver_Deterministic(t *testing.T) {
	r := New("https://assets.example.com", "p")
	first := r.ViewURL("f", "b", 10, 20)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.ViewURL("f", "b", 10, 20))
	}
}
