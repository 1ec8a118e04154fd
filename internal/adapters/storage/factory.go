package storage

import (
	"fmt"
	"strings"
)

// StorageType represents the type of storage implementation
type StorageType string

const (
	StorageTypeNone  StorageType = "none"
	StorageTypeLocal StorageType = "local"
)

// Config selects and configures a storage implementation
type Config struct {
	Type     StorageType
	BasePath string
}

// New creates the configured storage wrapped with retry logic. It returns nil
// storage for StorageTypeNone.
func New(config Config, retry *RetryConfig) (FileStorage, error) {
	switch StorageType(strings.ToLower(string(config.Type))) {
	case StorageTypeNone, "":
		return nil, nil
	case StorageTypeLocal:
		basePath := config.BasePath
		if basePath == "" {
			basePath = "./data/archive"
		}
		local, err := NewLocalFileStorage(basePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create local storage: %w", err)
		}
		return NewRetryableFileStorage(local, retry), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}
