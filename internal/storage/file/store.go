package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/polkiloo/storefront/internal/domain/repository"
)

// Store keeps each key in its own file under dir.
type Store struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

var _ repository.KeyValueStore = (*Store)(nil)

// New creates the directory if needed.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("file store directory is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// DirFromURL extracts the directory of a file:// URI. Both file://relative
// and file:///absolute forms are accepted.
func DirFromURL(u *url.URL) string {
	return filepath.FromSlash(u.Host + u.Path)
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key))
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Set writes to a temp file and renames it over the target.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Warn("failed to remove temp file", slog.String("path", tmpName), slog.Any("error", rmErr))
		}
	}

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Ping checks that the directory is still there.
func (s *Store) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

func (s *Store) Close() {}
