package repository

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nikolayk812/gomarketplace-cart/internal/port"
)

// fileStorage keeps one file per key inside dir. Keys are base64url encoded
// into file names since they usually contain '/' and '@'.
type fileStorage struct {
	dir string
}

func NewFileStorage(dir string) (port.Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is empty")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("os.MkdirAll: %w", err)
	}

	return &fileStorage{dir: dir}, nil
}

func (s *fileStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is empty")
	}

	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("os.ReadFile: %w", err)
	}

	return string(data), true, nil
}

func (s *fileStorage) Set(ctx context.Context, key, value string) (err error) {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %w", err)
	}

	defer func() {
		if err != nil {
			removeErr := os.Remove(tmp.Name())
			if removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
				err = errors.Join(err, fmt.Errorf("os.Remove: %w", removeErr))
			}
		}
	}()

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("tmp.WriteString: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tmp.Close: %w", err)
	}

	// rename is atomic, concurrent writers never leave a torn value
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}

	return nil
}

func (s *fileStorage) path(key string) string {
	return filepath.Join(s.dir, base64.RawURLEncoding.EncodeToString([]byte(key))+".json")
}
