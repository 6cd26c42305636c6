package sweeper

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"polaroida/internal/lib/logger/handlers/slogdiscard"
	"polaroida/internal/storage/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Upload(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	return m.Called(ctx, path, body, size, contentType).Error(0)
}

func (m *MockStore) PublicURL(path string) string {
	return m.Called(path).String(0)
}

func (m *MockStore) Delete(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *MockStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	args := m.Called(ctx, path)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *MockStore) List(ctx context.Context, prefix string) ([]objectstore.ObjectInfo, error) {
	args := m.Called(ctx, prefix)
	objects, _ := args.Get(0).([]objectstore.ObjectInfo)
	return objects, args.Error(1)
}

type MockPathChecker struct {
	mock.Mock
}

func (m *MockPathChecker) ExistingStoragePaths(ctx context.Context, paths []string) (map[string]bool, error) {
	args := m.Called(ctx, paths)
	found, _ := args.Get(0).(map[string]bool)
	return found, args.Error(1)
}

var now = time.Date(2024, 6, 1, 3, 30, 0, 0, time.UTC)

func newTestSweeper(store *MockStore, photos *MockPathChecker) *Sweeper {
	s := New(slogdiscard.NewDiscardLogger(), store, photos, 24*time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestSweeper_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("removes only old unreferenced objects", func(t *testing.T) {
		store := new(MockStore)
		photos := new(MockPathChecker)
		s := newTestSweeper(store, photos)

		store.On("List", ctx, "").Return([]objectstore.ObjectInfo{
			{Path: "u1/1.jpg", LastModified: now.Add(-48 * time.Hour)},
			{Path: "u1/2.jpg", LastModified: now.Add(-48 * time.Hour)},
			{Path: "u1/3.jpg", LastModified: now.Add(-time.Hour)},
		}, nil).Once()
		photos.On("ExistingStoragePaths", ctx, []string{"u1/1.jpg", "u1/2.jpg"}).
			Return(map[string]bool{"u1/1.jpg": true}, nil).Once()
		store.On("Delete", ctx, "u1/2.jpg").Return(nil).Once()

		removed, err := s.Sweep(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, removed)
		store.AssertExpectations(t)
		photos.AssertExpectations(t)
		store.AssertNotCalled(t, "Delete", ctx, "u1/3.jpg")
	})

	t.Run("delete failure is skipped", func(t *testing.T) {
		store := new(MockStore)
		photos := new(MockPathChecker)
		s := newTestSweeper(store, photos)

		store.On("List", ctx, "").Return([]objectstore.ObjectInfo{
			{Path: "a", LastModified: now.Add(-72 * time.Hour)},
			{Path: "b", LastModified: now.Add(-72 * time.Hour)},
		}, nil).Once()
		photos.On("ExistingStoragePaths", ctx, []string{"a", "b"}).Return(map[string]bool{}, nil).Once()
		store.On("Delete", ctx, "a").Return(errors.New("denied")).Once()
		store.On("Delete", ctx, "b").Return(nil).Once()

		removed, err := s.Sweep(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, removed)
	})

	t.Run("list error", func(t *testing.T) {
		store := new(MockStore)
		s := newTestSweeper(store, new(MockPathChecker))

		store.On("List", ctx, "").Return(nil, errors.New("bucket gone")).Once()

		_, err := s.Sweep(ctx)
		require.Error(t, err)
	})

	t.Run("lookup error stops sweep", func(t *testing.T) {
		store := new(MockStore)
		photos := new(MockPathChecker)
		s := newTestSweeper(store, photos)

		store.On("List", ctx, "").Return([]objectstore.ObjectInfo{{Path: "a", LastModified: now.Add(-72 * time.Hour)}}, nil).Once()
		photos.On("ExistingStoragePaths", ctx, []string{"a"}).Return(nil, errors.New("db down")).Once()

		_, err := s.Sweep(ctx)
		require.Error(t, err)
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestSweeper_Start(t *testing.T) {
	s := newTestSweeper(new(MockStore), new(MockPathChecker))

	require.Error(t, s.Start("not a schedule"))

	require.NoError(t, s.Start("0 30 3 * * *"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
