package objectstore_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"polaroida/internal/storage"
	"polaroida/internal/storage/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocalStore(t *testing.T) *objectstore.LocalStore {
	t.Helper()

	st, err := objectstore.NewLocalStore(t.TempDir(), "http://test.local/uploads/")
	require.NoError(t, err)

	return st
}

func TestLocalStore_Upload(t *testing.T) {
	st := setupLocalStore(t)
	ctx := context.Background()

	t.Run("successful upload", func(t *testing.T) {
		err := st.Upload(ctx, "owner/1700000000000.jpg", strings.NewReader("test content"), 12, "image/jpeg")
		require.NoError(t, err)

		data, err := os.ReadFile(st.FullPath("owner/1700000000000.jpg"))
		require.NoError(t, err)
		assert.Equal(t, "test content", string(data))
	})

	t.Run("empty path", func(t *testing.T) {
		err := st.Upload(ctx, "", strings.NewReader("x"), 1, "")
		assert.ErrorIs(t, err, objectstore.ErrEmptyPath)
	})

	t.Run("context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel() // Отменяем контекст сразу

		err := st.Upload(ctx, "owner/cancel.jpg", strings.NewReader("x"), 1, "")
		assert.ErrorIs(t, err, context.Canceled)

		_, statErr := os.Stat(st.FullPath("owner/cancel.jpg"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("read-only directory", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}

		roDir := filepath.Join(st.BaseDir(), "readonly")
		require.NoError(t, os.Mkdir(roDir, 0444))

		err := st.Upload(ctx, "readonly/sub/x.jpg", strings.NewReader("x"), 1, "")
		assert.Error(t, err)
	})
}

func TestLocalStore_PublicURL(t *testing.T) {
	st := setupLocalStore(t)

	assert.Equal(t, "http://test.local/uploads/owner/1.png", st.PublicURL("owner/1.png"))
	assert.Equal(t, "http://test.local/uploads/owner/1.png", st.PublicURL("/owner/1.png"))
}

func TestLocalStore_Open(t *testing.T) {
	st := setupLocalStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upload(ctx, "u/open.jpg", strings.NewReader("pixels"), 6, "image/jpeg"))

	rc, err := st.Open(ctx, "u/open.jpg")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	_, err = st.Open(ctx, "u/missing.jpg")
	assert.ErrorIs(t, err, storage.ErrFileNotFound)
}

func TestLocalStore_Delete(t *testing.T) {
	st := setupLocalStore(t)
	ctx := context.Background()

	t.Run("successful delete", func(t *testing.T) {
		require.NoError(t, st.Upload(ctx, "a/del.jpg", strings.NewReader("x"), 1, ""))

		require.NoError(t, st.Delete(ctx, "a/del.jpg"))

		_, err := os.Stat(st.FullPath("a/del.jpg"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("delete non-existent file", func(t *testing.T) {
		err := st.Delete(ctx, "nonexistent.jpg")
		assert.ErrorIs(t, err, storage.ErrFileNotFound)
	})
}

func TestLocalStore_List(t *testing.T) {
	st := setupLocalStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upload(ctx, "u1/1.jpg", strings.NewReader("one"), 3, ""))
	require.NoError(t, st.Upload(ctx, "u1/2.jpg", strings.NewReader("two"), 3, ""))
	require.NoError(t, st.Upload(ctx, "u2/3.jpg", strings.NewReader("three"), 5, ""))

	t.Run("all objects", func(t *testing.T) {
		objects, err := st.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, objects, 3)
	})

	t.Run("by prefix", func(t *testing.T) {
		objects, err := st.List(ctx, "u1/")
		require.NoError(t, err)
		require.Len(t, objects, 2)
		assert.Equal(t, "u1/1.jpg", objects[0].Path)
		assert.Equal(t, int64(3), objects[0].Size)
		assert.False(t, objects[0].LastModified.IsZero())
	})
}

func TestNewLocalStore(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		st, err := objectstore.NewLocalStore(filepath.Join(t.TempDir(), "nested"), "http://test.local")
		require.NoError(t, err)
		assert.NotNil(t, st)
	})
}

func TestConcurrentUploads(t *testing.T) {
	st := setupLocalStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := st.Upload(ctx, filepath.ToSlash(filepath.Join("concurrent", string(rune('a'+i))+".jpg")), strings.NewReader("data"), 4, "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	objects, err := st.List(ctx, "concurrent/")
	require.NoError(t, err)
	assert.Len(t, objects, 10)
}
