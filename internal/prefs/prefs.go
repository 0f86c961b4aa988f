// Package prefs stores per-device display preferences and small bits of
// local state such as a skipped update.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"hotelcare/internal/kv"
)

// Preference keys.
const (
	KeyTheme      = "theme"
	KeyIconStyle  = "iconStyle"
	KeyThemeColor = "themeColor"
)

// ErrInvalidValue is returned when a setting is not one of its allowed values.
var ErrInvalidValue = errors.New("invalid preference value")

// Store is a string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Settings is the typed view over the display preferences.
type Settings struct {
	Theme      string `validate:"oneof=light dark"`
	IconStyle  string `validate:"oneof=solid outline"`
	ThemeColor string `validate:"oneof=blue green violet rose orange slate"`
}

// Defaults returns the settings used when nothing valid is stored.
func Defaults() Settings {
	return Settings{Theme: "light", IconStyle: "solid", ThemeColor: "blue"}
}

var validate = validator.New()

var fields = map[string]string{
	KeyTheme:      "Theme",
	KeyIconStyle:  "IconStyle",
	KeyThemeColor: "ThemeColor",
}

// Keys lists the display preference keys.
func Keys() []string { return []string{KeyTheme, KeyIconStyle, KeyThemeColor} }

// Load reads every setting, falling back to the default for missing or
// unknown values.
func Load(ctx context.Context, store Store) (Settings, error) {
	out := Defaults()
	for _, key := range Keys() {
		raw, ok, err := store.Get(ctx, key)
		if err != nil {
			return Defaults(), fmt.Errorf("read %s: %w", key, err)
		}
		if !ok {
			continue
		}
		candidate := out
		candidate.set(key, raw)
		if validate.StructPartial(candidate, fields[key]) == nil {
			out = candidate
		}
	}
	return out, nil
}

// Save validates value for key and persists it.
func Save(ctx context.Context, store Store, key, value string) error {
	field, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: unknown key %q", ErrInvalidValue, key)
	}
	candidate := Defaults()
	candidate.set(key, value)
	if err := validate.StructPartial(candidate, field); err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
	}
	return store.Set(ctx, key, value)
}

// Get returns the value of key from s.
func (s Settings) Get(key string) (string, bool) {
	switch key {
	case KeyTheme:
		return s.Theme, true
	case KeyIconStyle:
		return s.IconStyle, true
	case KeyThemeColor:
		return s.ThemeColor, true
	}
	return "", false
}

func (s *Settings) set(key, value string) {
	switch key {
	case KeyTheme:
		s.Theme = value
	case KeyIconStyle:
		s.IconStyle = value
	case KeyThemeColor:
		s.ThemeColor = value
	}
}

// MemoryStore keeps preferences in process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

const kvPrefix = "pref/"

// KVStore keeps preferences in the embedded database under "pref/<key>".
type KVStore struct {
	db *kv.DB
}

// NewKVStore wraps db.
func NewKVStore(db *kv.DB) *KVStore { return &KVStore{db: db} }

// Get implements Store.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.db.Get(ctx, kvPrefix+key)
	if errors.Is(err, kv.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(v), true, nil
}

// Set implements Store.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	return s.db.Set(ctx, kvPrefix+key, []byte(value))
}
