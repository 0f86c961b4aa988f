package blob

import (
	"context"
	"fmt"

	fsstore "hotelcare/internal/infra/blob/fs"
	memorystore "hotelcare/internal/infra/blob/memory"
	s3store "hotelcare/internal/infra/blob/s3"
)

// Config selects and parameterises a blob backend.
type Config struct {
	Driver Driver
	FSRoot string
	S3     s3store.Config
}

// Open constructs the configured blob.Store. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fsstore.New(cfg.FSRoot)
	case DriverS3:
		return s3store.New(ctx, cfg.S3)
	case DriverMemory:
		return memorystore.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
