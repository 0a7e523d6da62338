//go:build unit

package router

import (
	"fmt"
	"math/rand"
	"testing"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Resolve(t *testing.T) {
	table := NewTable([]*Rule{
		{PublicPrefix: "/", BucketPrefix: "/public/", Bucket: "main"},
		{PublicPrefix: "/media/", BucketPrefix: "/my-app/media/", Bucket: "main"},
		{PublicPrefix: "/media/private/", BucketPrefix: "/secret", Bucket: "other"},
		{PublicPrefix: "/pdfs", BucketPrefix: "", Bucket: "docs"},
	})

	tests := []struct {
		name       string
		path       string
		wantBucket string
		wantKey    string
		wantS3Key  string
		wantErr    error
	}{
		{
			name:       "media example",
			path:       "/media/logo.png",
			wantBucket: "main",
			wantKey:    "/my-app/media/logo.png",
			wantS3Key:  "my-app/media/logo.png",
		},
		{
			name:       "longest prefix wins",
			path:       "/media/private/a/b.pdf",
			wantBucket: "other",
			wantKey:    "/secret/a/b.pdf",
			wantS3Key:  "secret/a/b.pdf",
		},
		{
			name:       "no partial segment match",
			path:       "/media2/logo.png",
			wantBucket: "main",
			wantKey:    "/public/media2/logo.png",
			wantS3Key:  "public/media2/logo.png",
		},
		{
			name:       "exact prefix without trailing slash",
			path:       "/pdfs",
			wantBucket: "docs",
			wantKey:    "/",
			wantS3Key:  "",
		},
		{
			name:       "prefix declared without trailing slash",
			path:       "/pdfs/file.pdf",
			wantBucket: "docs",
			wantKey:    "/file.pdf",
			wantS3Key:  "file.pdf",
		},
		{
			name:    "relative segment",
			path:    "/media/../secret/a",
			wantErr: ErrInvalidPath,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Resolve(tt.path)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, got.Rule.Bucket)
			assert.Equal(t, tt.wantKey, got.Key)
			assert.Equal(t, tt.wantS3Key, got.S3Key())
		})
	}
}

func TestTable_Resolve_Miss(t *testing.T) {
	table := NewTable([]*Rule{
		{PublicPrefix: "/media/", BucketPrefix: "/my-app/media/", Bucket: "main"},
	})

	for _, p := range []string{"/", "/medi", "/media2/logo.png", "/other/media/logo.png"} {
		_, err := table.Resolve(p)
		assert.ErrorIs(t, err, ErrRoutingMiss, p)
	}
}

func TestTable_Resolve_InsertionOrderIndependent(t *testing.T) {
	rules := []*Rule{
		{PublicPrefix: "/a/", BucketPrefix: "/1/", Bucket: "b1"},
		{PublicPrefix: "/a/b/", BucketPrefix: "/2/", Bucket: "b2"},
		{PublicPrefix: "/a/b/c/", BucketPrefix: "/3/", Bucket: "b3"},
		{PublicPrefix: "/x/", BucketPrefix: "/4/", Bucket: "b4"},
	}
	paths := map[string]string{
		"/a/file":       "b1",
		"/a/b/file":     "b2",
		"/a/b/c/file":   "b3",
		"/a/b/c/d/file": "b3",
		"/x/file":       "b4",
	}

	rnd := rand.New(rand.NewSource(42)) // nolint: gosec // Test shuffle

	for i := 0; i < 20; i++ {
		shuffled := make([]*Rule, len(rules))
		copy(shuffled, rules)
		rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		table := NewTable(shuffled)

		for p, bucket := range paths {
			got, err := table.Resolve(p)
			require.NoError(t, err)
			assert.Equal(t, bucket, got.Rule.Bucket, fmt.Sprintf("iteration %d path %s", i, p))
		}
	}
}

func TestNewTable_DoesNotMutateInput(t *testing.T) {
	rules := []*Rule{{PublicPrefix: "media", BucketPrefix: "bucket", Bucket: "b"}}

	table := NewTable(rules)

	assert.Equal(t, "media", rules[0].PublicPrefix)
	assert.Equal(t, "/media/", table.Rules()[0].PublicPrefix)
	assert.Equal(t, "/bucket/", table.Rules()[0].BucketPrefix)
}

func TestTable_ResolveKey(t *testing.T) {
	table := NewTable([]*Rule{
		{PublicPrefix: "/media/", BucketPrefix: "/my-app/media/", Bucket: "main"},
		{PublicPrefix: "/docs/", BucketPrefix: "/", Bucket: "docs"},
	})

	got, ok := table.ResolveKey("main", "my-app/media/logo.png")
	assert.True(t, ok)
	assert.Equal(t, "/media/logo.png", got)

	got, ok = table.ResolveKey("docs", "a/b.pdf")
	assert.True(t, ok)
	assert.Equal(t, "/docs/a/b.pdf", got)

	_, ok = table.ResolveKey("main", "other/logo.png")
	assert.False(t, ok)
}
