package storage

import (
	"context"
	"fmt"

	cfgpkg "github.com/mars-etl/ethetl/internal/config"
)

// New constructs the Storage backend selected by cfg.Type.
func New(ctx context.Context, cfg cfgpkg.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case cfgpkg.StorageFs:
		return NewFsStorage(cfg.Fs.DataPath), nil
	case cfgpkg.StorageS3:
		return NewS3Storage(ctx, cfg.S3)
	case cfgpkg.StorageAzure:
		return NewAzblobStorage(cfg.Azblob)
	default:
		return nil, fmt.Errorf("storage: unknown storage type %v", cfg.Type)
	}
}
