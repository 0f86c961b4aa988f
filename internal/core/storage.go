package core

import (
	"context"
	"fmt"
	"time"

	"hotelcare/internal/blob"
	s3store "hotelcare/internal/infra/blob/s3"
	"hotelcare/internal/infra/document/blobdoc"
	"hotelcare/internal/infra/document/filedoc"
	"hotelcare/internal/infra/document/memory"
	"hotelcare/internal/infra/document/sqlstore"
	"hotelcare/pkg/domain"
)

// StorageDriver identifies a document backend.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-process only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageBlob     StorageDriver = "blob"     // JSON objects in fs/s3/memory blob storage
	StorageFile     StorageDriver = "file"     // watched directory of JSON files
)

// StorageConfig selects and parameterises the document backend.
type StorageConfig struct {
	Driver       StorageDriver     `yaml:"driver"`
	SQLitePath   string            `yaml:"sqlitePath"`
	PostgresDSN  string            `yaml:"postgresDSN"`
	FileDir      string            `yaml:"fileDir"`
	PollInterval time.Duration     `yaml:"pollInterval"`
	Blob         BlobStorageConfig `yaml:"blob"`
}

// BlobStorageConfig configures the blob-backed document store.
type BlobStorageConfig struct {
	Driver blob.Driver    `yaml:"driver"`
	FSRoot string         `yaml:"fsRoot"`
	Prefix string         `yaml:"prefix"`
	S3     s3store.Config `yaml:"s3"`
}

// DocumentBackend is an opened document store that owns resources.
type DocumentBackend interface {
	domain.DocumentStore
	Close() error
}

type nopCloser struct {
	domain.DocumentStore
}

func (nopCloser) Close() error { return nil }

// OpenDocumentStore opens the configured backend. An empty driver means sqlite.
func OpenDocumentStore(ctx context.Context, cfg StorageConfig) (DocumentBackend, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return nopCloser{memory.NewStore()}, nil
	case StorageSQLite:
		return sqlstore.OpenSQLite(ctx, cfg.SQLitePath, sqlstore.Options{PollInterval: cfg.PollInterval})
	case StoragePostgres:
		return sqlstore.OpenPostgres(ctx, cfg.PostgresDSN, sqlstore.Options{PollInterval: cfg.PollInterval})
	case StorageBlob:
		blobs, err := blob.Open(ctx, blob.Config{Driver: cfg.Blob.Driver, FSRoot: cfg.Blob.FSRoot, S3: cfg.Blob.S3})
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		return nopCloser{blobdoc.New(blobs, blobdoc.Options{Prefix: cfg.Blob.Prefix, PollInterval: cfg.PollInterval})}, nil
	case StorageFile:
		dir := cfg.FileDir
		if dir == "" {
			dir = "hotelcare-data"
		}
		return filedoc.Open(dir, filedoc.Options{})
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
