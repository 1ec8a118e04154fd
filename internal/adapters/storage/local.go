package storage

import (
	"context"
	"errors"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalFileStorage implements FileStorage on a local directory
type LocalFileStorage struct {
	basePath string
}

// NewLocalFileStorage creates the base directory and returns a storage rooted at it
func NewLocalFileStorage(basePath string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, NewStorageError("init", "", err, false)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, NewStorageError("init", "", err, false)
	}
	return &LocalFileStorage{basePath: absPath}, nil
}

// Store writes data to a temp file and renames it into place
func (l *LocalFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	if err := validateKey(key); err != nil {
		return NewStorageError("store", key, err, false)
	}

	path := l.path(key)
	if opts == nil || !opts.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return NewStorageError("store", key, ErrFileAlreadyExists, false)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return NewStorageError("store", key, err, true)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return NewStorageError("store", key, err, true)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return NewStorageError("store", key, err, true)
	}
	return nil
}

// Retrieve reads the file stored at key
func (l *LocalFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, NewStorageError("retrieve", key, err, false)
	}

	data, err := os.ReadFile(l.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewStorageError("retrieve", key, ErrFileNotFound, false)
		}
		return nil, NewStorageError("retrieve", key, err, true)
	}
	return data, nil
}

// Delete removes the file stored at key
func (l *LocalFileStorage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return NewStorageError("delete", key, err, false)
	}

	if err := os.Remove(l.path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewStorageError("delete", key, ErrFileNotFound, false)
		}
		return NewStorageError("delete", key, err, true)
	}
	return nil
}

// Exists reports whether a file is stored at key
func (l *LocalFileStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, NewStorageError("exists", key, err, false)
	}

	if _, err := os.Stat(l.path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, NewStorageError("exists", key, err, true)
	}
	return true, nil
}

// List walks the base directory and returns the files whose key starts with prefix
func (l *LocalFileStorage) List(ctx context.Context, prefix string) ([]FileMetadata, error) {
	var files []FileMetadata

	err := filepath.WalkDir(l.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, FileMetadata{
			Key:          key,
			Size:         info.Size(),
			ContentType:  contentTypeOf(key),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, NewStorageError("list", prefix, err, true)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].LastModified.Equal(files[j].LastModified) {
			return files[i].Key > files[j].Key
		}
		return files[i].LastModified.After(files[j].LastModified)
	})
	return files, nil
}

// Close implements FileStorage.Close
func (l *LocalFileStorage) Close() error {
	return nil
}

func (l *LocalFileStorage) path(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

// validateKey rejects empty, absolute and parent-relative keys
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

// XLSXContentType is the media type of Excel workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func contentTypeOf(key string) string {
	if strings.EqualFold(filepath.Ext(key), ".xlsx") {
		return XLSXContentType
	}
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

var _ FileStorage = (*LocalFileStorage)(nil)
