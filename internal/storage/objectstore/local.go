package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"polaroida/internal/storage"
)

// LocalStore реализация для локальной файловой системы
type LocalStore struct {
	baseDir string // Базовый каталог для хранения (например: "./uploads")
	baseURL string // Базовый URL для доступа к файлам (например: "http://localhost:8080/uploads")
}

func NewLocalStore(baseDir, baseURL string) (*LocalStore, error) {
	// Создаем директорию, если она не существует
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LocalStore{
		baseDir: baseDir,
		baseURL: baseURL,
	}, nil
}

func (s *LocalStore) Upload(ctx context.Context, path string, body io.Reader, _ int64, _ string) error {
	const op = "storage.objectstore.LocalStore.Upload"

	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := cleanKey(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	filePath := s.FullPath(key)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("%s: failed to create directories: %w", op, err)
	}

	dst, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("%s: failed to create destination file: %w", op, err)
	}
	defer dst.Close()

	done := make(chan struct{})
	var copyErr error

	go func() {
		_, copyErr = io.Copy(dst, body)
		close(done)
	}()

	select {
	case <-done:
		if copyErr != nil {
			_ = os.Remove(filePath)
			return fmt.Errorf("%s: failed to copy file: %w", op, copyErr)
		}
	case <-ctx.Done():
		_ = os.Remove(filePath)
		return ctx.Err()
	}

	return nil
}

func (s *LocalStore) PublicURL(path string) string {
	return joinURL(s.baseURL, path)
}

// Open открывает сохранённый файл на чтение
func (s *LocalStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	const op = "storage.objectstore.LocalStore.Open"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := cleanKey(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.Open(s.FullPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrFileNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return f, nil
}

// Delete удаляет файл из хранилища
func (s *LocalStore) Delete(_ context.Context, path string) error {
	const op = "storage.objectstore.LocalStore.Delete"

	key, err := cleanKey(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Remove(s.FullPath(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", op, storage.ErrFileNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *LocalStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	const op = "storage.objectstore.LocalStore.List"

	var objects []ObjectInfo

	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		objects = append(objects, ObjectInfo{
			Path:         rel,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return objects, nil
}

// FullPath возвращает полный путь к файлу на диске
func (s *LocalStore) FullPath(relativePath string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(relativePath))
}

func (s *LocalStore) BaseDir() string {
	return s.baseDir
}
