package objectstore_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"polaroida/internal/config"
	"polaroida/internal/storage/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("local driver", func(t *testing.T) {
		st, err := objectstore.New(ctx, config.ObjectStoreConfig{
			Driver:        "local",
			BaseDir:       t.TempDir(),
			PublicBaseURL: "http://x",
		})
		require.NoError(t, err)
		assert.IsType(t, &objectstore.LocalStore{}, st)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := objectstore.New(ctx, config.ObjectStoreConfig{Driver: "ftp"})
		assert.ErrorIs(t, err, objectstore.ErrUnknownDriver)
	})
}

type fakeS3 struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.bodies[r.URL.Path] = string(data)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		if r.URL.Query().Get("list-type") != "2" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>photos</Name>
  <Prefix>u1/</Prefix>
  <KeyCount>2</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents><Key>u1/1.jpg</Key><Size>3</Size><LastModified>2024-01-01T00:00:00.000Z</LastModified></Contents>
  <Contents><Key>u1/2.jpg</Key><Size>5</Size><LastModified>2024-01-02T00:00:00.000Z</LastModified></Contents>
</ListBucketResult>`)
	}
}

func setupS3(t *testing.T) (*objectstore.S3Store, *fakeS3) {
	t.Helper()

	fake := &fakeS3{bodies: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	st, err := objectstore.NewS3Store(context.Background(), config.ObjectStoreConfig{
		Endpoint:      srv.URL,
		Region:        "auto",
		Bucket:        "photos",
		AccessKey:     "key",
		SecretKey:     "secret",
		PublicBaseURL: "https://cdn.example.com",
	})
	require.NoError(t, err)

	return st, fake
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	st, fake := setupS3(t)

	t.Run("upload uses path style", func(t *testing.T) {
		err := st.Upload(ctx, "u1/1.jpg", strings.NewReader("abc"), 3, "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, "abc", fake.bodies["/photos/u1/1.jpg"])
	})

	t.Run("upload non seekable body", func(t *testing.T) {
		err := st.Upload(ctx, "u1/2.jpg", io.NopCloser(strings.NewReader("hello")), 0, "")
		require.NoError(t, err)
		assert.Equal(t, "hello", fake.bodies["/photos/u1/2.jpg"])
	})

	t.Run("public url", func(t *testing.T) {
		assert.Equal(t, "https://cdn.example.com/u1/1.jpg", st.PublicURL("u1/1.jpg"))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, st.Delete(ctx, "u1/1.jpg"))
		assert.Contains(t, fake.requests, "DELETE /photos/u1/1.jpg")
	})

	t.Run("list", func(t *testing.T) {
		objects, err := st.List(ctx, "u1/")
		require.NoError(t, err)
		require.Len(t, objects, 2)
		assert.Equal(t, "u1/2.jpg", objects[1].Path)
		assert.Equal(t, int64(5), objects[1].Size)
	})
}
