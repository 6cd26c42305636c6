package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"polaroida/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore хранилище в MinIO
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioStore(ctx context.Context, cfg config.ObjectStoreConfig) (*MinioStore, error) {
	const op = "storage.objectstore.NewMinioStore"

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("%s: failed to create bucket: %w", op, err)
		}
	}

	publicURL := cfg.PublicBaseURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + endpoint + "/" + cfg.Bucket
	}

	return &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
	}, nil
}

func (s *MinioStore) Upload(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	const op = "storage.objectstore.MinioStore.Upload"

	key, err := cleanKey(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if size <= 0 {
		size = -1
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *MinioStore) PublicURL(path string) string {
	return joinURL(s.publicURL, path)
}

func (s *MinioStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	const op = "storage.objectstore.MinioStore.Open"

	key, err := cleanKey(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// GetObject не обращается к серверу, отсутствие объекта видно только после Stat
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return obj, nil
}

func (s *MinioStore) Delete(ctx context.Context, path string) error {
	const op = "storage.objectstore.MinioStore.Delete"

	key, err := cleanKey(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *MinioStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	const op = "storage.objectstore.MinioStore.List"

	var objects []ObjectInfo

	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("%s: %w", op, object.Err)
		}
		objects = append(objects, ObjectInfo{
			Path:         object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
		})
	}

	return objects, nil
}
