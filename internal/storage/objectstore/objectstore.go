// Package objectstore хранит загруженные снимки: локальный диск, S3-совместимое хранилище или MinIO.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"polaroida/internal/config"
)

const (
	DriverLocal = "local"
	DriverS3    = "s3"
	DriverR2    = "r2"
	DriverMinio = "minio"
)

var (
	ErrUnknownDriver = errors.New("unknown object store driver")
	ErrEmptyPath     = errors.New("empty object path")
)

// ObjectInfo описание объекта в хранилище
type ObjectInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Store интерфейс хранилища объектов
type Store interface {
	Upload(ctx context.Context, path string, body io.Reader, size int64, contentType string) error
	PublicURL(path string) string
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// New создаёт хранилище по драйверу из конфига
func New(ctx context.Context, cfg config.ObjectStoreConfig) (Store, error) {
	const op = "storage.objectstore.New"

	switch cfg.Driver {
	case "", DriverLocal:
		st, err := NewLocalStore(cfg.BaseDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return st, nil
	case DriverS3, DriverR2:
		st, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return st, nil
	case DriverMinio:
		st, err := NewMinioStore(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownDriver, cfg.Driver)
	}
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

func cleanKey(path string) (string, error) {
	key := strings.TrimPrefix(path, "/")
	if key == "" {
		return "", ErrEmptyPath
	}
	return key, nil
}
