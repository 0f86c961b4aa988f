// Package config loads the CLI configuration: built-in defaults, then an
// optional YAML file, then HOTELCARE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"hotelcare/internal/blob"
	"hotelcare/internal/core"
)

// DefaultRemoteVersionURL is the published descriptor of the latest build.
const DefaultRemoteVersionURL = "https://raw.githubusercontent.com/amorim220-design/manuten-ao/main/remote-version.json"

// Config is the resolved configuration.
type Config struct {
	Storage  core.StorageConfig `yaml:"storage"`
	StateDir string             `yaml:"stateDir" validate:"required"`
	Update   UpdateConfig       `yaml:"update"`
	LogLevel string             `yaml:"logLevel" validate:"oneof=debug info warn error"`
	Timezone string             `yaml:"timezone"`
}

// UpdateConfig locates the remote and installed version descriptors.
type UpdateConfig struct {
	RemoteURL   string `yaml:"remoteURL" validate:"omitempty,url"`
	LocalPath   string `yaml:"localPath"`
	VersionCode int    `yaml:"versionCode" validate:"gte=0"`
	Version     string `yaml:"version"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Storage: core.StorageConfig{
			Driver:       core.StorageSQLite,
			SQLitePath:   filepath.Join(".hotelcare", "hotelcare.db"),
			FileDir:      filepath.Join(".hotelcare", "documents"),
			PollInterval: 2 * time.Second,
			Blob: core.BlobStorageConfig{
				Driver: blob.DriverFilesystem,
				FSRoot: filepath.Join(".hotelcare", "blobs"),
			},
		},
		StateDir: filepath.Join(".hotelcare", "state"),
		Update: UpdateConfig{
			RemoteURL:   DefaultRemoteVersionURL,
			VersionCode: 1,
			Version:     "1.0.0",
		},
		LogLevel: "info",
		Timezone: "Local",
	}
}

var validate = validator.New()

// Load resolves the configuration. A missing file at path is not an error;
// an empty path skips the file layer. getenv defaults to os.LookupEnv.
func Load(path string, getenv func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if getenv == nil {
		getenv = os.LookupEnv
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := getenv(key); ok && v != "" {
			*dst = v
		}
	}
	var driver, blobDriver string
	str("HOTELCARE_STORAGE_DRIVER", &driver)
	if driver != "" {
		cfg.Storage.Driver = core.StorageDriver(strings.ToLower(driver))
	}
	str("HOTELCARE_SQLITE_PATH", &cfg.Storage.SQLitePath)
	str("HOTELCARE_POSTGRES_DSN", &cfg.Storage.PostgresDSN)
	str("HOTELCARE_FILE_DIR", &cfg.Storage.FileDir)
	str("HOTELCARE_BLOB_DRIVER", &blobDriver)
	if blobDriver != "" {
		cfg.Storage.Blob.Driver = blob.Driver(strings.ToLower(blobDriver))
	}
	str("HOTELCARE_BLOB_FS_ROOT", &cfg.Storage.Blob.FSRoot)
	str("HOTELCARE_BLOB_PREFIX", &cfg.Storage.Blob.Prefix)
	str("HOTELCARE_S3_BUCKET", &cfg.Storage.Blob.S3.Bucket)
	str("HOTELCARE_S3_REGION", &cfg.Storage.Blob.S3.Region)
	str("HOTELCARE_S3_ENDPOINT", &cfg.Storage.Blob.S3.Endpoint)
	str("HOTELCARE_STATE_DIR", &cfg.StateDir)
	str("HOTELCARE_UPDATE_URL", &cfg.Update.RemoteURL)
	str("HOTELCARE_UPDATE_LOCAL", &cfg.Update.LocalPath)
	str("HOTELCARE_LOG_LEVEL", &cfg.LogLevel)
	str("HOTELCARE_TIMEZONE", &cfg.Timezone)

	if v, ok := getenv("HOTELCARE_S3_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HOTELCARE_S3_PATH_STYLE: %w", err)
		}
		cfg.Storage.Blob.S3.PathStyle = b
	}
	if v, ok := getenv("HOTELCARE_POLL_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HOTELCARE_POLL_INTERVAL: %w", err)
		}
		cfg.Storage.PollInterval = d
	}
	return nil
}

// Validate checks field rules and the storage driver selection.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case core.StorageMemory, core.StorageSQLite, core.StoragePostgres, core.StorageFile:
	case core.StorageBlob:
		switch c.Storage.Blob.Driver {
		case blob.DriverFilesystem, blob.DriverMemory:
		case blob.DriverS3:
			if c.Storage.Blob.S3.Bucket == "" {
				return errors.New("blob driver s3 requires a bucket")
			}
		default:
			return fmt.Errorf("unknown blob driver %q", c.Storage.Blob.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.PollInterval < 0 {
		return errors.New("poll interval must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Level maps LogLevel onto slog.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Location resolves Timezone. Empty and "Local" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
