// Package storage keeps generated documents such as exported bill reports.
package storage

import (
	"context"
	"time"
)

// FileMetadata describes a stored file
type FileMetadata struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType"`
	LastModified time.Time `json:"lastModified"`
}

// StoreOptions controls how a file is written
type StoreOptions struct {
	Overwrite bool
}

// FileStorage stores documents under slash-separated keys
type FileStorage interface {
	Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error
	Retrieve(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the files under prefix, newest first
	List(ctx context.Context, prefix string) ([]FileMetadata, error)

	Close() error
}
